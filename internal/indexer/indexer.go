// Package indexer rebuilds the report item index from stored report history.
// Reports saved while the index was unavailable are picked up here.
package indexer

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultWorkers      = 4
	defaultReportsLimit = 500
	defaultRadarsLimit  = 10000
)

// Indexer re-indexes stored reports into a keyword index.
type Indexer struct {
	storage      storage.Storage
	keywordIndex keyword.ReportIndex
	workers      int
	reportsLimit int
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for progress output.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithWorkers sets how many radars are re-indexed concurrently.
func WithWorkers(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.workers = n
		}
	}
}

// WithReportsLimit caps how many of the newest reports per radar are re-indexed.
func WithReportsLimit(n int) IndexerOption {
	return func(idx *Indexer) {
		if n > 0 {
			idx.reportsLimit = n
		}
	}
}

// NewIndexer creates an indexer over store and keywordIndex.
func NewIndexer(store storage.Storage, keywordIndex keyword.ReportIndex, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		storage:      store,
		keywordIndex: keywordIndex,
		workers:      defaultWorkers,
		reportsLimit: defaultReportsLimit,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Stats counts what a run touched.
type Stats struct {
	Radars  int `json:"radars"`
	Reports int `json:"reports"`
	Items   int `json:"items"`
}

// IndexReport replaces the indexed items of one stored report.
func (idx *Indexer) IndexReport(ctx context.Context, report *models.Report) (int, error) {
	if report.ID == "" {
		return 0, fmt.Errorf("report has no id")
	}
	if err := idx.keywordIndex.DeleteReport(ctx, report); err != nil {
		return 0, fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	n, err := idx.keywordIndex.IndexReport(ctx, report)
	if err != nil {
		return 0, fmt.Errorf("failed to index keywords: %w", err)
	}
	return n, nil
}

// IndexRadar re-indexes the stored reports of one radar.
func (idx *Indexer) IndexRadar(ctx context.Context, radarID string) (Stats, error) {
	if _, err := idx.storage.GetRadar(ctx, radarID); err != nil {
		return Stats{}, fmt.Errorf("failed to load radar %s: %w", radarID, err)
	}
	reports, items, err := idx.indexRadar(ctx, radarID)
	return Stats{Radars: 1, Reports: reports, Items: items}, err
}

func (idx *Indexer) indexRadar(ctx context.Context, radarID string) (reports, items int, err error) {
	list, err := idx.storage.ListReports(ctx, radarID, idx.reportsLimit)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	for _, r := range list {
		if err := ctx.Err(); err != nil {
			return reports, items, err
		}
		n, err := idx.IndexReport(ctx, r)
		if err != nil {
			return reports, items, fmt.Errorf("report %s: %w", r.ID, err)
		}
		reports++
		items += n
	}
	idx.logger.Debug("indexer radar done",
		zap.String("radarId", radarID),
		zap.Int("reports", reports),
		zap.Int("items", items))
	return reports, items, nil
}

// IndexAll re-indexes the reports of every radar. Radars are processed concurrently;
// the first failure cancels the remaining work.
func (idx *Indexer) IndexAll(ctx context.Context) (Stats, error) {
	radars, err := idx.storage.ListRadars(ctx, "", defaultRadarsLimit)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list radars: %w", err)
	}
	var reports, items atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers)
	for _, rd := range radars {
		radarID := rd.ID
		g.Go(func() error {
			r, n, err := idx.indexRadar(gctx, radarID)
			reports.Add(int64(r))
			items.Add(int64(n))
			if err != nil {
				return fmt.Errorf("radar %s: %w", radarID, err)
			}
			return nil
		})
	}
	err = g.Wait()
	stats := Stats{Radars: len(radars), Reports: int(reports.Load()), Items: int(items.Load())}
	idx.logger.Info("indexer finished",
		zap.Int("radars", stats.Radars),
		zap.Int("reports", stats.Reports),
		zap.Int("items", stats.Items),
		zap.Error(err))
	return stats, err
}
