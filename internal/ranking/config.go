package ranking

// ScorerConfig holds relevance scoring settings.
type ScorerConfig struct {
	BatchSize int     `yaml:"batch_size"` // default: 5
	Threshold float64 `yaml:"threshold"`  // default: 4.5, kept items must score strictly above
	MaxItems  int     `yaml:"max_items"`  // default: 50
}

// DefaultScorerConfig returns the scoring defaults.
func DefaultScorerConfig() *ScorerConfig {
	c := &ScorerConfig{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills zero values with defaults.
func (c *ScorerConfig) ApplyDefaults() {
	if c.BatchSize <= 0 {
		c.BatchSize = 5
	}
	if c.Threshold == 0 {
		c.Threshold = 4.5
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 50
	}
}
