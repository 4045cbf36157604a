// Package config holds the leakmap run configuration: where the reference
// tables live, how the Ollama classifier is reached, and the result-store
// batching knobs. Config is YAML on disk with env-var overrides for the
// Ollama connection.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full leakmap configuration.
type Config struct {
	// Results is the result-store location and batching.
	Results ResultsConfig `yaml:"results"`

	// Ollama configures the classifier oracle.
	Ollama OllamaConfig `yaml:"ollama"`

	// Data locates the static reference tables.
	Data DataConfig `yaml:"data"`

	// Render configures map output.
	Render RenderConfig `yaml:"render"`
}

// ResultsConfig configures the result store.
type ResultsConfig struct {
	// Path of the results CSV.
	Path string `yaml:"path"`
	// BatchSize is how many newly-resolved records accumulate before a
	// checkpoint flush.
	BatchSize int `yaml:"batch_size"`
}

// OllamaConfig configures the classifier oracle.
type OllamaConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	// Timeout bounds each classification call, e.g. "30s".
	Timeout string `yaml:"timeout"`
	// Workers bounds the classifier worker pool.
	Workers int `yaml:"workers"`
	// Disabled skips the classifier stage entirely.
	Disabled bool `yaml:"disabled"`
}

// DataConfig locates the reference tables. Missing files degrade the run
// (no per-capita metrics, no map) instead of failing it.
type DataConfig struct {
	GeoJSONPath    string `yaml:"geojson_path"`
	PopulationPath string `yaml:"population_path"`
}

// RenderConfig configures the rendered artifact.
type RenderConfig struct {
	// Output is the default map path; the CLI flag wins when set.
	Output string `yaml:"output"`
	// Markers enables the per-country marker layer.
	Markers bool `yaml:"markers"`
}

// DefaultConfig returns the defaults a fresh checkout runs with.
func DefaultConfig() *Config {
	return &Config{
		Results: ResultsConfig{
			Path:      "leak_results.csv",
			BatchSize: 50,
		},
		Ollama: OllamaConfig{
			Endpoint: "http://localhost:11434",
			Model:    "granite3.1-dense:2b",
			Timeout:  "30s",
			Workers:  4,
		},
		Data: DataConfig{
			GeoJSONPath:    filepath.Join("data", "geodata", "geojson.json"),
			PopulationPath: filepath.Join("data", "geodata", "worldpopulation.csv"),
		},
		Render: RenderConfig{
			Output: "leak_map_countries.html",
		},
	}
}

// Load reads a config file, fills unset fields with defaults, and applies
// env overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides lets the environment win for the Ollama connection,
// which is the setting that differs most between machines.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("OLLAMA_ENDPOINT"); v != "" {
		c.Ollama.Endpoint = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		c.Ollama.Model = v
	}
	if v := os.Getenv("LEAKMAP_RESULTS"); v != "" {
		c.Results.Path = v
	}
}

// Validate checks the fields other components assume are sane.
func (c *Config) Validate() error {
	if c.Results.Path == "" {
		return fmt.Errorf("results.path must not be empty")
	}
	if c.Results.BatchSize < 0 {
		return fmt.Errorf("results.batch_size must not be negative")
	}
	if c.Ollama.Workers < 0 {
		return fmt.Errorf("ollama.workers must not be negative")
	}
	if _, err := c.OllamaTimeout(); err != nil {
		return fmt.Errorf("ollama.timeout: %w", err)
	}
	return nil
}

// OllamaTimeout parses the classifier timeout.
func (c *Config) OllamaTimeout() (time.Duration, error) {
	if c.Ollama.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Ollama.Timeout)
}
