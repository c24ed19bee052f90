// Package ranking filters, deduplicates, orders, and scores search result items.
package ranking

import (
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/radar/internal/models"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseDate parses the date formats search providers emit. Bare integers are unix
// seconds, or milliseconds when larger than 1e12.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ItemTime resolves an item's timestamp. Missing or unparseable dates resolve to epoch 0.
func ItemTime(item models.SearchResultItem) time.Time {
	if t, ok := ParseDate(item.Date); ok {
		return t
	}
	return time.Unix(0, 0).UTC()
}
