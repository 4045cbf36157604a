package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// OLLAMA COUNTRY ORACLE
// =============================================================================

// OllamaOracle identifies countries using a local Ollama server.
// Any error (connection refused, timeout, non-200, malformed body) is
// logged and reported as UnknownCountry.
type OllamaOracle struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// NewOllamaOracle creates an oracle against a local Ollama server.
// The timeout bounds each classification call so a stuck model never
// blocks the pipeline.
func NewOllamaOracle(endpoint, model string, timeout time.Duration, logger *zap.Logger) *OllamaOracle {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if model == "" {
		model = "granite3.1-dense:2b"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OllamaOracle{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Healthy reports whether the Ollama server answers /api/tags. Callers use
// this to disable the classifier stage for the whole run instead of paying
// a timeout per record.
func (o *OllamaOracle) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		o.logger.Warn("ollama unreachable", zap.String("endpoint", o.endpoint), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// Country implements Oracle. The prompt mirrors the classifier contract:
// a single English country name, or the literal "unknown".
func (o *OllamaOracle) Country(ctx context.Context, freeText string) string {
	prompt := fmt.Sprintf(`Identify the country (in English) based on this information. Return only the country name or 'unknown'.

Rules:
- Return only the country name in English
- If you cannot determine the country, return "unknown"
- Look for company names, locations, addresses, or other geographical indicators

%s`, freeText)

	answer, err := o.chat(ctx, prompt)
	if err != nil {
		o.logger.Debug("ollama query failed", zap.Error(err))
		return UnknownCountry
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return UnknownCountry
	}
	return answer
}

func (o *OllamaOracle) chat(ctx context.Context, prompt string) (string, error) {
	req := ollamaChatRequest{
		Model:    o.model,
		Stream:   false,
		Messages: []ollamaMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return result.Message.Content, nil
}

// Name returns the oracle name for logging.
func (o *OllamaOracle) Name() string {
	return fmt.Sprintf("ollama:%s", o.model)
}

// =============================================================================
// OLLAMA API TYPES
// =============================================================================

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []ollamaMessage `json:"messages"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
}
