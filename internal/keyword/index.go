// Package keyword indexes report items for full-text search across a radar's history.
package keyword

import (
	"context"

	"github.com/hyperjump/radar/internal/models"
)

// SearchOptions optional parameters for report search. Nil means use defaults.
type SearchOptions struct {
	// HeadlineBoost multiplies the score of matches in the headline. Use 1.0 for no boost.
	HeadlineBoost float64
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum edit distance for fuzzy matching (1 or 2). Default 1.
	Fuzziness int
}

// ReportIndex defines report item indexing and search.
type ReportIndex interface {
	// IndexReport indexes every item of a stored report and returns how many were indexed.
	IndexReport(ctx context.Context, report *models.Report) (int, error)
	Search(ctx context.Context, radarID, query string, limit int, opts *SearchOptions) ([]*Hit, error)
	DeleteReport(ctx context.Context, report *models.Report) error
	Close() error
	// DocCount returns the number of indexed items.
	DocCount() (uint64, error)
}

// Hit is a single matching report item.
type Hit struct {
	ID       string
	ReportID string
	URL      string
	Headline string
	Source   string
	Score    float64
}
