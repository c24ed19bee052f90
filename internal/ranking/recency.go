package ranking

import (
	"time"

	"github.com/hyperjump/radar/internal/models"
)

// FilterRecent drops items dated before now minus windowMonths.
// Items without a parseable date are treated as undated and kept.
func FilterRecent(items []models.SearchResultItem, windowMonths int, now time.Time) []models.SearchResultItem {
	cutoff := now.AddDate(0, -windowMonths, 0)
	out := make([]models.SearchResultItem, 0, len(items))
	for _, it := range items {
		t, ok := ParseDate(it.Date)
		if ok && t.Before(cutoff) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// WithinDays returns the items dated on or after now minus days, in input order.
func WithinDays(items []models.SearchResultItem, days int, now time.Time) []models.SearchResultItem {
	cutoff := now.AddDate(0, 0, -days)
	var out []models.SearchResultItem
	for _, it := range items {
		if !ItemTime(it).Before(cutoff) {
			out = append(out, it)
		}
	}
	return out
}
