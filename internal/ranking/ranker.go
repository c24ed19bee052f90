package ranking

import (
	"sort"

	"github.com/hyperjump/radar/internal/models"
)

// SortByRecency returns a copy of items ordered newest first. The sort is stable.
// Items without a parseable date follow every dated item, in input order.
func SortByRecency(items []models.SearchResultItem) []models.SearchResultItem {
	type timed struct {
		item models.SearchResultItem
		ts   int64
	}
	dated := make([]timed, 0, len(items))
	var undated []models.SearchResultItem
	for _, it := range items {
		t, ok := ParseDate(it.Date)
		if !ok {
			undated = append(undated, it)
			continue
		}
		dated = append(dated, timed{item: it, ts: t.UnixNano()})
	}
	sort.SliceStable(dated, func(a, b int) bool {
		return dated[a].ts > dated[b].ts
	})
	out := make([]models.SearchResultItem, 0, len(items))
	for _, t := range dated {
		out = append(out, t.item)
	}
	return append(out, undated...)
}

// Newest returns up to n items from the front of an already sorted list.
func Newest(items []models.SearchResultItem, n int) []models.SearchResultItem {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}
