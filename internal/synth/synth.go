// Package synth turns ranked search results into reports: sectioned reports written
// by the LLM (with a deterministic fallback) and flat scored reports with a short summary.
package synth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/metrics"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/ranking"
	"go.uber.org/zap"
)

// APIVersion is stamped into sectioned report inputs.
const APIVersion = "1.0"

// Synthesizer writes reports with an LLM.
type Synthesizer struct {
	llm    llm.Completer
	logger *zap.Logger
}

// New creates a synthesizer. A nil logger is replaced with a no-op logger.
func New(c llm.Completer, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{llm: c, logger: logger}
}

// SynthesizeSections asks the LLM for a sectioned report over items. A failed call is
// returned as an error; an unparseable answer falls back to query-grouped sections.
func (s *Synthesizer) SynthesizeSections(ctx context.Context, items []models.SearchResultItem, profile models.RadarProfile) (*models.Report, error) {
	out, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:       BuildSectionPrompt(items, profile),
		SystemPrompt: sectionSystemPrompt,
		Purpose:      "synthesis",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize report: %w", err)
	}

	parsed, err := ParseReport(out.Content)
	if err != nil {
		s.logger.Info("parse.fallback", zap.Int("results", len(items)), zap.Error(err))
		metrics.RecordFallback()
		return Fallback(items, err, out.Content), nil
	}

	n := 0
	for _, sec := range parsed.Sections {
		n += len(sec.Items)
	}
	s.logger.Info("synthesis.parse.success",
		zap.String("format", parsed.Format),
		zap.Int("sections", len(parsed.Sections)),
		zap.Int("items", n))
	return &models.Report{
		Kind:     models.ReportSectioned,
		Summary:  parsed.Summary,
		Sections: parsed.Sections,
	}, nil
}

// Annotate fills the bookkeeping fields of a sectioned report: source metrics, a 24h
// freshness window ending at now, the plan hash, and the search trace.
func Annotate(r *models.Report, items []models.SearchResultItem, plan models.QueryPlan, traces []models.SearchTrace, now time.Time) {
	r.Metrics = &models.Metrics{
		TotalSources:  len(items),
		UniqueDomains: countDomains(items),
	}
	r.FreshnessWindow = &models.FreshnessWindow{
		FromISO: now.Add(-24 * time.Hour).UTC().Format(time.RFC3339Nano),
		ToISO:   now.UTC().Format(time.RFC3339Nano),
	}
	r.Inputs = &models.ReportInputs{QueryPlanHash: PlanHash(plan), APIVersion: APIVersion}
	if len(traces) > 0 {
		r.SetDebug("searchResponses", traces)
	}
}

// PlanHash is the hex sha256 of the plan's JSON encoding.
func PlanHash(plan models.QueryPlan) string {
	data, _ := json.Marshal(plan)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// FlatInput carries what a flat report is built from.
type FlatInput struct {
	Kept       []models.SearchResultItem // scored and thresholded
	Unique     []models.SearchResultItem // deduplicated and sorted, before scoring
	QueryCount int
	Threshold  float64
	Scoring    ranking.ScoreResult

	SummarySample     int // default 30
	SummaryWindowDays int // default 7
	Now               time.Time
}

// SynthesizeFlat builds a flat report from scored items. The summary is written by
// the LLM when possible and otherwise stays a kept/unique count line.
func (s *Synthesizer) SynthesizeFlat(ctx context.Context, in FlatInput) *models.Report {
	if in.SummarySample <= 0 {
		in.SummarySample = 30
	}
	if in.SummaryWindowDays <= 0 {
		in.SummaryWindowDays = 7
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	items := make([]models.ReportItem, 0, len(in.Kept))
	for _, it := range in.Kept {
		items = append(items, models.ReportItem{
			Title:   or(it.Title, "No title"),
			URL:     it.URL,
			Snippet: it.Snippet,
			Source:  or(it.Source, "Unknown"),
			Date:    it.Date,
			Image:   it.Image,
			Score:   it.Score,
		})
	}

	r := &models.Report{
		Kind:        models.ReportFlat,
		Summary:     fmt.Sprintf("Kept %d of %d unique results (> %g) from %d queries", len(items), len(in.Unique), in.Threshold, in.QueryCount),
		Items:       items,
		QueryCount:  in.QueryCount,
		ResultCount: len(in.Unique),
		GeneratedAt: in.Now.UTC().Format(time.RFC3339Nano),
		Version:     "v2",
	}
	if summary, ok := s.summarize(ctx, in); ok {
		r.Summary = summary
	}
	r.SetDebug("scoring", map[string]any{
		"threshold":     in.Threshold,
		"kept":          len(items),
		"batches":       in.Scoring.Batches,
		"batchFailures": in.Scoring.Failures,
	})
	return r
}

func (s *Synthesizer) summarize(ctx context.Context, in FlatInput) (string, bool) {
	label := "the past week"
	base := ranking.WithinDays(in.Unique, in.SummaryWindowDays, in.Now)
	if len(base) == 0 {
		label = "recent items"
		base = in.Unique
	}
	base = ranking.Newest(base, in.SummarySample)
	if len(base) == 0 {
		return "", false
	}

	out, err := s.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:       BuildSummaryPrompt(base, label),
		SystemPrompt: summarySystemPrompt,
		Purpose:      "summary",
	})
	if err != nil {
		s.logger.Debug("summary generation failed", zap.Error(err))
		return "", false
	}
	summary := strings.TrimSpace(out.Content)
	return summary, summary != ""
}
