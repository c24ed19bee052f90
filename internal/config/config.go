// Package config provides configuration loading and structs for the radar server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Search   SearchConfig   `yaml:"search"`
	LLM      LLMConfig      `yaml:"llm"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StorageConfig selects the report store and holds its paths.
type StorageConfig struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver         string `yaml:"driver"`
	DatabasePath   string `yaml:"database_path"`
	PostgresDSN    string `yaml:"postgres_dsn,omitempty"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// SearchConfig holds search provider settings.
type SearchConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxQueries     int           `yaml:"max_queries"`
	// RedisAddr enables the response cache when set.
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// LLMConfig holds chat completion provider settings.
type LLMConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key,omitempty"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// PipelineConfig holds report pipeline tuning. It can be reloaded at runtime.
type PipelineConfig struct {
	V1WindowMonths    int     `yaml:"v1_window_months"`
	V2WindowMonths    int     `yaml:"v2_window_months"`
	BatchSize         int     `yaml:"batch_size"`
	ScoreThreshold    float64 `yaml:"score_threshold"`
	MaxReportItems    int     `yaml:"max_report_items"`
	SummarySample     int     `yaml:"summary_sample"`
	SummaryWindowDays int     `yaml:"summary_window_days"`
	// CacheTTL is how long a saved report is reused when freshRun is false. Zero disables reuse.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the config file at path, expands paths, applies defaults,
// and overlays secrets from .env files and the environment.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	loadDotEnv(configDir)
	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)

	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// loadDotEnv loads .env from the config directory and the working directory.
// Variables already present in the environment win.
func loadDotEnv(configDir string) {
	candidates := []string{filepath.Join(configDir, ".env")}
	if cwd, err := os.Getwd(); err == nil && cwd != configDir {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// ApplyEnv overlays provider credentials and endpoints from environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("YOU_DOT_COM"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("DEEP_INFRA_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("DEEP_INFRA_DEFAULT_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Search.RedisAddr = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
