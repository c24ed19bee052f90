// Package radar runs the report pipelines for a saved radar: resolve the plan's queries,
// fan them out to the search provider, filter and rank the results, synthesize a report
// and append it to the radar's history.
package radar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hyperjump/radar/internal/config"
	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/metrics"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/ranking"
	"github.com/hyperjump/radar/internal/search"
	"github.com/hyperjump/radar/internal/storage"
	"github.com/hyperjump/radar/internal/synth"
	"github.com/hyperjump/radar/pkg/utils"
	"go.uber.org/zap"
)

// Pipeline versions, used in logs and metrics.
const (
	VersionV1 = "v1"
	VersionV2 = "v2"
)

// RunOptions controls a single pipeline run.
type RunOptions struct {
	// FreshRun skips reuse of a recent saved report.
	FreshRun  bool
	RequestID string
}

// RunResult is the outcome of a pipeline run. ReportID is empty when the report could
// not be saved.
type RunResult struct {
	Report   *models.Report
	ReportID string
	Saved    bool
	Cached   bool
}

// Service runs the v1 and v2 pipelines.
type Service struct {
	store      storage.Storage
	index      keyword.ReportIndex
	fanout     *search.FanOut
	llm        llm.Completer
	synth      *synth.Synthesizer
	logger     *zap.Logger
	maxQueries int
	now        func() time.Time

	mu       sync.RWMutex
	pipeline config.PipelineConfig
}

// Option configures a Service.
type Option func(*Service)

// WithIndex indexes every saved report's items.
func WithIndex(idx keyword.ReportIndex) Option {
	return func(s *Service) { s.index = idx }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxQueries caps the queries a run executes.
func WithMaxQueries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxQueries = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a pipeline service.
func NewService(store storage.Storage, fanout *search.FanOut, c llm.Completer, cfg config.PipelineConfig, opts ...Option) *Service {
	config.ApplyPipelineDefaults(&cfg)
	s := &Service{
		store:      store,
		fanout:     fanout,
		llm:        c,
		logger:     zap.NewNop(),
		maxQueries: models.MaxFinalQueries,
		now:        time.Now,
		pipeline:   cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.synth = synth.New(c, s.logger)
	return s
}

// PipelineConfig returns the current pipeline tuning.
func (s *Service) PipelineConfig() config.PipelineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pipeline
}

// SetPipelineConfig replaces the pipeline tuning used by subsequent runs.
func (s *Service) SetPipelineConfig(cfg config.PipelineConfig) {
	config.ApplyPipelineDefaults(&cfg)
	s.mu.Lock()
	s.pipeline = cfg
	s.mu.Unlock()
	s.logger.Info("pipeline config reloaded",
		zap.Int("v1_window_months", cfg.V1WindowMonths),
		zap.Int("v2_window_months", cfg.V2WindowMonths),
		zap.Float64("score_threshold", cfg.ScoreThreshold),
		zap.Duration("cache_ttl", cfg.CacheTTL))
}

// run is the state shared by both pipelines once the radar is loaded and searched.
type run struct {
	radar   *models.Radar
	plan    models.QueryPlan
	queries []string
	raw     []models.RawItem
	traces  []models.SearchTrace
	cfg     config.PipelineConfig
	log     *zap.Logger
	started time.Time
}

// RunV1 produces a sectioned report. Items without a url are kept through
// normalization, results are limited to the v1 window, deduplicated, sorted by
// recency and handed to the LLM for sectioning.
func (s *Service) RunV1(ctx context.Context, radarID string, opts RunOptions) (*RunResult, error) {
	r, cached, err := s.prepare(ctx, radarID, opts, VersionV1, models.ReportSectioned)
	if err != nil || cached != nil {
		return cached, err
	}

	items := search.NormalizeAll(r.raw, search.KeepMissingURL)
	recent := ranking.FilterRecent(items, r.cfg.V1WindowMonths, s.now())
	unique := ranking.SortByRecency(ranking.Deduplicate(recent))
	r.log.Info("search.batch.summary",
		zap.Int("queries", len(r.queries)),
		zap.Int("results", len(items)),
		zap.Int("recent", len(recent)),
		zap.Int("unique", len(unique)))

	report, err := s.synth.SynthesizeSections(ctx, unique, r.radar.Profile)
	if err != nil {
		metrics.RecordReport(VersionV1, "error", 0)
		r.log.Error("request.error", zap.Error(err), zap.Int64("duration_ms", time.Since(r.started).Milliseconds()))
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	synth.Annotate(report, unique, r.plan, r.traces, s.now())

	return s.finish(ctx, r, VersionV1, report), nil
}

// RunV2 produces a flat scored report. Items without a url are dropped, duplicates are
// marked then removed, and the rest is scored by the LLM in batches. Items scoring
// above the threshold are kept, up to the configured maximum.
func (s *Service) RunV2(ctx context.Context, radarID string, opts RunOptions) (*RunResult, error) {
	r, cached, err := s.prepare(ctx, radarID, opts, VersionV2, models.ReportFlat)
	if err != nil || cached != nil {
		return cached, err
	}

	items := search.NormalizeAll(r.raw, search.DropMissingURL)
	recent := ranking.FilterRecent(items, r.cfg.V2WindowMonths, s.now())
	marked, dups := ranking.MarkDuplicates(recent)
	unique := ranking.SortByRecency(ranking.Deduplicate(marked))
	r.log.Info("search.batch.summary",
		zap.Int("queries", len(r.queries)),
		zap.Int("results", len(items)),
		zap.Int("recent", len(recent)),
		zap.Int("duplicates", dups),
		zap.Int("unique", len(unique)))

	scorer := ranking.NewScorer(s.llm, &ranking.ScorerConfig{
		BatchSize: r.cfg.BatchSize,
		Threshold: r.cfg.ScoreThreshold,
		MaxItems:  r.cfg.MaxReportItems,
	}, ranking.WithScorerLogger(r.log))
	sc := scorer.Config()
	scoring := scorer.Score(ctx, unique, r.radar.Profile.Role, r.radar.Profile.Industry)
	kept := ranking.Threshold(unique, scoring.Scores, sc.Threshold, sc.MaxItems)
	r.log.Info("scoring.summary",
		zap.Int("batches", scoring.Batches),
		zap.Int("batch_failures", scoring.Failures),
		zap.Int("scored", len(scoring.Scores)),
		zap.Int("kept", len(kept)))

	report := s.synth.SynthesizeFlat(ctx, synth.FlatInput{
		Kept:              kept,
		Unique:            unique,
		QueryCount:        len(r.queries),
		Threshold:         sc.Threshold,
		Scoring:           scoring,
		SummarySample:     r.cfg.SummarySample,
		SummaryWindowDays: r.cfg.SummaryWindowDays,
		Now:               s.now(),
	})
	if len(r.traces) > 0 {
		report.SetDebug("searchResponses", r.traces)
	}

	return s.finish(ctx, r, VersionV2, report), nil
}

// prepare loads the radar, returns a reusable saved report when allowed, and otherwise
// resolves the queries and runs the search fan-out.
func (s *Service) prepare(ctx context.Context, radarID string, opts RunOptions, version string, kind models.ReportKind) (*run, *RunResult, error) {
	started := time.Now()
	log := utils.WithRequest(s.logger, opts.RequestID, "radar.run."+version).With(zap.String("radarId", radarID))
	cfg := s.PipelineConfig()

	rd, err := s.store.GetRadar(ctx, radarID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, ErrRadarNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load radar: %w", err)
	}

	if !opts.FreshRun && cfg.CacheTTL > 0 {
		if cached := s.reusable(ctx, radarID, kind, cfg.CacheTTL, log); cached != nil {
			metrics.RecordReport(version, "cached", len(cached.AllItems()))
			log.Info("request.success",
				zap.Bool("cached", true),
				zap.String("reportId", cached.ID),
				zap.Int64("duration_ms", time.Since(started).Milliseconds()))
			return nil, &RunResult{Report: cached, ReportID: cached.ID, Saved: true, Cached: true}, nil
		}
	}

	plan := rd.QueryPlan.Resolve()
	queries := ResolveQueries(rd.QueryPlan, s.maxQueries)
	if len(queries) == 0 {
		return nil, nil, ErrNoQueries
	}
	if !s.fanout.HasKey() {
		return nil, nil, ErrMissingSearchKey
	}

	log.Info("search.batch.start", zap.Int("queries", len(queries)), zap.Bool("freshRun", opts.FreshRun))
	raw, traces := s.fanout.Run(ctx, queries)

	return &run{
		radar:   rd,
		plan:    plan,
		queries: queries,
		raw:     raw,
		traces:  traces,
		cfg:     cfg,
		log:     log,
		started: started,
	}, nil, nil
}

// reusable returns the latest report when it has the wanted kind and is younger than ttl.
func (s *Service) reusable(ctx context.Context, radarID string, kind models.ReportKind, ttl time.Duration, log *zap.Logger) *models.Report {
	latest, err := s.store.LatestReport(ctx, radarID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("cache.lookup.error", zap.Error(err))
		}
		return nil
	}
	if latest.Kind != kind || s.now().Sub(latest.CreatedAt) >= ttl {
		return nil
	}
	return latest
}

// finish persists the report and indexes it. Persistence failure is logged and the
// unsaved report is still returned.
func (s *Service) finish(ctx context.Context, r *run, version string, report *models.Report) *RunResult {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = s.now().UTC()
	}
	res := &RunResult{Report: report}
	saved, err := storage.AppendReport(ctx, s.store, r.radar.ID, report)
	if err != nil {
		r.log.Warn("save.warning", zap.Error(err))
		metrics.RecordReport(version, "unsaved", len(report.AllItems()))
	} else {
		res.Report = saved
		res.ReportID = saved.ID
		res.Saved = true
		metrics.RecordReport(version, "saved", len(saved.AllItems()))
		s.indexReport(ctx, saved, r.log)
	}

	r.log.Info("request.success",
		zap.String("reportId", res.ReportID),
		zap.Bool("saved", res.Saved),
		zap.Int("items", len(res.Report.AllItems())),
		zap.Bool("fallbackUsed", res.Report.FallbackUsed()),
		zap.Int64("duration_ms", time.Since(r.started).Milliseconds()))
	return res
}

func (s *Service) indexReport(ctx context.Context, report *models.Report, log *zap.Logger) {
	if s.index == nil {
		return
	}
	n, err := s.index.IndexReport(ctx, report)
	if err != nil {
		log.Warn("index.warning", zap.String("reportId", report.ID), zap.Error(err))
		return
	}
	log.Debug("report indexed", zap.String("reportId", report.ID), zap.Int("items", n))
}
