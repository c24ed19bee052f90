package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/pkg/utils"
	"go.uber.org/zap"
)

const scoringSystemPrompt = "You are a strict evaluator. Score each item from 0.0 to 5.0 for how valuable it is to the specified role and industry. Return ONLY JSON: an array of objects [{ url: string, score: number }]. No prose."

// ScoreResult is the outcome of scoring a list of items.
type ScoreResult struct {
	Scores   map[string]float64
	Batches  int
	Failures int
}

// Scorer asks an LLM to rate items in fixed-size batches.
type Scorer struct {
	llm    llm.Completer
	config *ScorerConfig
	logger *zap.Logger
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithScorerLogger sets a logger for batch failures.
func WithScorerLogger(l *zap.Logger) ScorerOption {
	return func(s *Scorer) { s.logger = l }
}

// NewScorer creates a scorer. A nil config uses defaults.
func NewScorer(c llm.Completer, config *ScorerConfig, opts ...ScorerOption) *Scorer {
	if config == nil {
		config = DefaultScorerConfig()
	}
	config.ApplyDefaults()
	s := &Scorer{llm: c, config: config, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the scorer settings.
func (s *Scorer) Config() ScorerConfig {
	return *s.config
}

// Score rates items batch by batch. Batches run one after another; a batch whose call
// or parse fails is skipped and its items stay unscored.
func (s *Scorer) Score(ctx context.Context, items []models.SearchResultItem, role, industry string) ScoreResult {
	res := ScoreResult{Scores: make(map[string]float64)}
	for start := 0; start < len(items); start += s.config.BatchSize {
		if ctx.Err() != nil {
			break
		}
		end := start + s.config.BatchSize
		if end > len(items) {
			end = len(items)
		}
		res.Batches++
		batch := items[start:end]
		out, err := s.llm.Complete(ctx, llm.CompletionRequest{
			Prompt:       BuildScoringPrompt(batch, role, industry),
			SystemPrompt: scoringSystemPrompt,
			Purpose:      "scoring",
		})
		if err != nil {
			res.Failures++
			s.logger.Debug("scoring batch failed", zap.Int("batch_start", start), zap.Error(err))
			continue
		}
		scores, err := ParseScores(out.Content)
		if err != nil {
			res.Failures++
			s.logger.Debug("scoring batch unparseable", zap.Int("batch_start", start), zap.Error(err))
			continue
		}
		for u, sc := range scores {
			res.Scores[u] = sc
		}
	}
	return res
}

// BuildScoringPrompt lists the batch for evaluation.
func BuildScoringPrompt(batch []models.SearchResultItem, role, industry string) string {
	lines := make([]string, 0, len(batch))
	for i, it := range batch {
		var b strings.Builder
		fmt.Fprintf(&b, "%d. %s\n- url: %s\n- source: %s", i+1, it.Title, it.URL, it.Source)
		if it.Date != "" {
			fmt.Fprintf(&b, "\n- date: %s", it.Date)
		}
		if it.Snippet != "" {
			fmt.Fprintf(&b, "\n- snippet: %s", it.Snippet)
		}
		lines = append(lines, b.String())
	}
	return fmt.Sprintf("Role: %s\nIndustry: %s\n\nEvaluate the following items and return JSON only with an array of { url, score } (0.0-5.0).\n\n%s",
		orUnspecified(role), orUnspecified(industry), strings.Join(lines, "\n\n"))
}

// ParseScores reads the first bracketed JSON array in content as [{url, score}].
// Rows that are not objects, or lack a url or a numeric score, are ignored. Scores are clamped to [0, 5].
func ParseScores(content string) (map[string]float64, error) {
	raw, ok := llm.JSONArray(content)
	if !ok {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var rows []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("failed to decode scores: %w", err)
	}
	out := make(map[string]float64, len(rows))
	for _, data := range rows {
		var row map[string]any
		if err := json.Unmarshal(data, &row); err != nil {
			continue
		}
		u, _ := row["url"].(string)
		sc, isNum := row["score"].(float64)
		if u == "" || !isNum {
			continue
		}
		out[u] = utils.Clamp(sc, 0, 5)
	}
	return out, nil
}

// Threshold keeps items scoring strictly above threshold, in input order, up to max.
// Unscored items are dropped. Kept items carry their score.
func Threshold(items []models.SearchResultItem, scores map[string]float64, threshold float64, max int) []models.SearchResultItem {
	var out []models.SearchResultItem
	for _, it := range items {
		sc, ok := scores[it.URL]
		if !ok || sc <= threshold {
			continue
		}
		v := sc
		it.Score = &v
		out = append(out, it)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

func orUnspecified(s string) string {
	if s == "" {
		return "(unspecified)"
	}
	return s
}
