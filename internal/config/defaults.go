package config

import "time"

const (
	DefaultSearchBaseURL = "https://api.ydc-index.io/v1"
	DefaultLLMBaseURL    = "https://api.deepinfra.com/v1/openai"
	DefaultLLMModel      = "deepseek-ai/DeepSeek-V3.2-Exp"
)

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/radar/data/db/radar.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/radar/data/indices/reports"
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = DefaultSearchBaseURL
	}
	if cfg.Search.RequestTimeout == 0 {
		cfg.Search.RequestTimeout = 15 * time.Second
	}
	if cfg.Search.MaxQueries == 0 {
		cfg.Search.MaxQueries = 15
	}
	if cfg.Search.CacheTTL == 0 {
		cfg.Search.CacheTTL = 30 * time.Minute
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1000
	}
	if cfg.LLM.RequestTimeout == 0 {
		cfg.LLM.RequestTimeout = 30 * time.Second
	}
	ApplyPipelineDefaults(&cfg.Pipeline)
}

// ApplyPipelineDefaults sets default pipeline tuning for any zero values in p.
func ApplyPipelineDefaults(p *PipelineConfig) {
	if p.V1WindowMonths == 0 {
		p.V1WindowMonths = 3
	}
	if p.V2WindowMonths == 0 {
		p.V2WindowMonths = 1
	}
	if p.BatchSize == 0 {
		p.BatchSize = 5
	}
	if p.ScoreThreshold == 0 {
		p.ScoreThreshold = 4.5
	}
	if p.MaxReportItems == 0 {
		p.MaxReportItems = 50
	}
	if p.SummarySample == 0 {
		p.SummarySample = 30
	}
	if p.SummaryWindowDays == 0 {
		p.SummaryWindowDays = 7
	}
}
