// Package search runs plan queries against a web-search provider and normalizes
// whatever item shape comes back.
package search

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hyperjump/radar/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FanOut runs every query concurrently against the provider.
type FanOut struct {
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewFanOut creates a fan-out over p. A non-positive timeout uses the 15s default.
func NewFanOut(p Provider, timeout time.Duration, logger *zap.Logger) *FanOut {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanOut{provider: p, timeout: timeout, logger: logger}
}

// HasKey reports whether the underlying provider is configured.
func (f *FanOut) HasKey() bool {
	return f.provider.HasKey()
}

// Run searches all queries and waits for every one of them. A failed query adds no
// items; siblings are never cancelled. Items come back grouped in query order and
// traces carry one entry per query.
func (f *FanOut) Run(ctx context.Context, queries []string) ([]models.RawItem, []models.SearchTrace) {
	var (
		g       errgroup.Group
		mu      sync.Mutex
		perQ    = make([][]models.RawItem, len(queries))
		traces  = make([]models.SearchTrace, len(queries))
		started = time.Now()
	)

	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			items, trace := f.one(ctx, q)
			mu.Lock()
			perQ[i] = items
			traces[i] = trace
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var all []models.RawItem
	for _, items := range perQ {
		all = append(all, items...)
	}
	f.logger.Debug("search fan-out finished",
		zap.Int("queries", len(queries)),
		zap.Int("items", len(all)),
		zap.Duration("duration", time.Since(started)))
	return all, traces
}

func (f *FanOut) one(ctx context.Context, query string) ([]models.RawItem, models.SearchTrace) {
	qctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.provider.Search(qctx, query)
	if err != nil {
		f.logger.Warn("search.error", zap.String("query", query), zap.Error(err))
		return nil, models.SearchTrace{Query: query, OK: false, Error: err.Error()}
	}

	found := ExtractItems(resp)
	items := make([]models.RawItem, 0, len(found))
	for _, m := range found {
		items = append(items, models.RawItem{Query: query, Fields: m})
	}
	f.logger.Debug("search.query.success", zap.String("query", query), zap.Int("count", len(items)))
	return items, models.SearchTrace{Query: query, OK: true, Count: len(items), Keys: sortedKeys(resp)}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
