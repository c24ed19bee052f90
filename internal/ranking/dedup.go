package ranking

import (
	"strings"

	"github.com/hyperjump/radar/internal/models"
)

// DuplicateMarker prefixes titles of items whose url occurs more than once.
const DuplicateMarker = "🔁 "

// Deduplicate keeps the first item for each url and drops items without one.
func Deduplicate(items []models.SearchResultItem) []models.SearchResultItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.SearchResultItem, 0, len(items))
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		if _, dup := seen[it.URL]; dup {
			continue
		}
		seen[it.URL] = struct{}{}
		out = append(out, it)
	}
	return out
}

// MarkDuplicates flags every item whose url appears more than once and prefixes
// its title with DuplicateMarker. It returns the number of urls with duplicates.
func MarkDuplicates(items []models.SearchResultItem) ([]models.SearchResultItem, int) {
	counts := make(map[string]int, len(items))
	for _, it := range items {
		if it.URL != "" {
			counts[it.URL]++
		}
	}
	out := make([]models.SearchResultItem, len(items))
	for i, it := range items {
		if counts[it.URL] > 1 {
			it.Duplicate = true
			if !strings.HasPrefix(it.Title, DuplicateMarker) {
				it.Title = DuplicateMarker + it.Title
			}
		}
		out[i] = it
	}
	dupURLs := 0
	for _, c := range counts {
		if c > 1 {
			dupURLs++
		}
	}
	return out, dupURLs
}
