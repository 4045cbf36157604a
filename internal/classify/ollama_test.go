package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// fakeOllama answers /api/tags and /api/chat the way a local Ollama does.
func fakeOllama(t *testing.T, answer string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.WriteHeader(http.StatusOK)
		case "/api/chat":
			var req ollamaChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("malformed chat request: %v", err)
			}
			if req.Stream {
				t.Error("chat request must not stream")
			}
			if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
				t.Errorf("unexpected messages: %+v", req.Messages)
			}
			if status != http.StatusOK {
				w.WriteHeader(status)
				return
			}
			resp := ollamaChatResponse{Message: ollamaMessage{Role: "assistant", Content: answer}}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestOllamaOracle_Country(t *testing.T) {
	srv := fakeOllama(t, "  Germany\n", http.StatusOK)
	defer srv.Close()

	o := NewOllamaOracle(srv.URL, "granite3.1-dense:2b", time.Second, nil)
	if got := o.Country(context.Background(), "Company: Acme GmbH, Berlin"); got != "Germany" {
		t.Errorf("Country() = %q, want Germany", got)
	}
}

// TestOllamaOracle_PromptCarriesContext verifies the record context reaches
// the model inside the classification prompt.
func TestOllamaOracle_PromptCarriesContext(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.Messages) == 1 {
			prompt = req.Messages[0].Content
		}
		json.NewEncoder(w).Encode(ollamaChatResponse{Message: ollamaMessage{Content: "unknown"}})
	}))
	defer srv.Close()

	o := NewOllamaOracle(srv.URL, "", time.Second, nil)
	o.Country(context.Background(), "Domain: acme.de\nCompany: Acme GmbH")

	if !strings.Contains(prompt, "Domain: acme.de") {
		t.Errorf("prompt does not carry the record context: %q", prompt)
	}
	if !strings.Contains(prompt, "'unknown'") {
		t.Errorf("prompt does not state the unknown contract: %q", prompt)
	}
}

// TestOllamaOracle_FailuresCollapseToUnknown covers the oracle contract:
// transport and server failures never propagate, they answer unknown.
func TestOllamaOracle_FailuresCollapseToUnknown(t *testing.T) {
	t.Run("ServerError", func(t *testing.T) {
		srv := fakeOllama(t, "", http.StatusInternalServerError)
		defer srv.Close()
		o := NewOllamaOracle(srv.URL, "", time.Second, nil)
		if got := o.Country(context.Background(), "anything"); got != UnknownCountry {
			t.Errorf("Country() = %q, want %q", got, UnknownCountry)
		}
	})

	t.Run("ConnectionRefused", func(t *testing.T) {
		srv := fakeOllama(t, "", http.StatusOK)
		srv.Close() // dead endpoint
		o := NewOllamaOracle(srv.URL, "", time.Second, nil)
		if got := o.Country(context.Background(), "anything"); got != UnknownCountry {
			t.Errorf("Country() = %q, want %q", got, UnknownCountry)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		srv := fakeOllama(t, "France", http.StatusOK)
		defer srv.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		o := NewOllamaOracle(srv.URL, "", time.Second, nil)
		if got := o.Country(ctx, "anything"); got != UnknownCountry {
			t.Errorf("Country() = %q, want %q", got, UnknownCountry)
		}
	})

	t.Run("EmptyAnswer", func(t *testing.T) {
		srv := fakeOllama(t, "   ", http.StatusOK)
		defer srv.Close()
		o := NewOllamaOracle(srv.URL, "", time.Second, nil)
		if got := o.Country(context.Background(), "anything"); got != UnknownCountry {
			t.Errorf("Country() = %q, want %q", got, UnknownCountry)
		}
	})
}

func TestOllamaOracle_Healthy(t *testing.T) {
	srv := fakeOllama(t, "", http.StatusOK)
	o := NewOllamaOracle(srv.URL, "", time.Second, nil)
	if !o.Healthy(context.Background()) {
		t.Error("Healthy() = false against a live server")
	}
	srv.Close()
	if o.Healthy(context.Background()) {
		t.Error("Healthy() = true against a dead server")
	}
}

func TestDisabledOracle(t *testing.T) {
	if got := Disabled.Country(context.Background(), "Acme GmbH, Berlin"); got != UnknownCountry {
		t.Errorf("Disabled.Country() = %q, want %q", got, UnknownCountry)
	}
}
