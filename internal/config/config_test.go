package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "leakmap.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "leak_results.csv", cfg.Results.Path)
	assert.Equal(t, 50, cfg.Results.BatchSize)
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Endpoint)
	assert.Equal(t, "granite3.1-dense:2b", cfg.Ollama.Model)
	assert.Equal(t, 4, cfg.Ollama.Workers)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakmap.yaml")
	yaml := `results:
  path: custom.csv
  batch_size: 10
ollama:
  model: llama3.2:3b
  timeout: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.csv", cfg.Results.Path)
	assert.Equal(t, 10, cfg.Results.BatchSize)
	assert.Equal(t, "llama3.2:3b", cfg.Ollama.Model)
	// Unset fields keep their defaults.
	assert.Equal(t, "http://localhost:11434", cfg.Ollama.Endpoint)

	timeout, err := cfg.OllamaTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	t.Setenv("OLLAMA_ENDPOINT", "http://gpu-box:11434")
	t.Setenv("LEAKMAP_RESULTS", "/tmp/env.csv")

	cfg, err := Load(filepath.Join(t.TempDir(), "leakmap.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Endpoint)
	assert.Equal(t, "/tmp/env.csv", cfg.Results.Path)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Results.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Ollama.Timeout = "not-a-duration"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Results.BatchSize = -1
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leakmap.yaml")
	cfg := DefaultConfig()
	cfg.Ollama.Workers = 8
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Ollama.Workers)
	assert.Equal(t, cfg.Results.Path, loaded.Results.Path)
}
