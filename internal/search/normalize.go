package search

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hyperjump/radar/internal/models"
)

// Mode controls how items without a url are handled.
type Mode int

const (
	// KeepMissingURL keeps url-less items with an empty url.
	KeepMissingURL Mode = iota
	// DropMissingURL excludes items that have neither url nor link.
	DropMissingURL
)

// itemPaths lists where provider responses keep their item array, in priority order.
var itemPaths = []string{"results", "results.web", "hits", "items", "organic", "web.results"}

// fieldKeys maps each logical field to its candidate keys, first non-empty wins.
// Dotted keys address nested objects.
var fieldKeys = map[string][]string{
	"title":   {"title", "headline"},
	"url":     {"url", "link"},
	"snippet": {"snippet", "description", "snippets"},
	"source":  {"source", "domain"},
	"date":    {"date", "publishedDate", "createdAt", "page_age"},
	"image":   {"thumbnail_url", "thumbnail", "image", "media.thumbnail", "media.image"},
}

// ExtractItems returns the item objects of a provider response, or nil when none
// of the known paths holds an array.
func ExtractItems(resp map[string]any) []map[string]any {
	for _, path := range itemPaths {
		arr, ok := lookup(resp, path).([]any)
		if !ok {
			continue
		}
		out := make([]map[string]any, 0, len(arr))
		for _, el := range arr {
			if m, ok := el.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// Normalize maps a raw provider item onto a SearchResultItem. The bool is false when
// mode drops the item.
func Normalize(raw models.RawItem, mode Mode) (models.SearchResultItem, bool) {
	item := models.SearchResultItem{
		Title:   cleanText(field(raw.Fields, "title")),
		URL:     strings.TrimSpace(field(raw.Fields, "url")),
		Snippet: cleanText(field(raw.Fields, "snippet")),
		Source:  field(raw.Fields, "source"),
		Date:    field(raw.Fields, "date"),
		Image:   field(raw.Fields, "image"),
		Query:   raw.Query,
	}
	if item.URL == "" && mode == DropMissingURL {
		return models.SearchResultItem{}, false
	}
	return item, true
}

// NormalizeAll normalizes raws in order, skipping dropped items.
func NormalizeAll(raws []models.RawItem, mode Mode) []models.SearchResultItem {
	out := make([]models.SearchResultItem, 0, len(raws))
	for _, r := range raws {
		if it, ok := Normalize(r, mode); ok {
			out = append(out, it)
		}
	}
	return out
}

func field(m map[string]any, name string) string {
	for _, key := range fieldKeys[name] {
		if s := stringify(lookup(m, key)); s != "" {
			return s
		}
	}
	return ""
}

func lookup(m map[string]any, path string) any {
	var cur any = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[part]
	}
	return cur
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []any:
		// snippet arrays: first usable entry
		for _, el := range t {
			if s := stringify(el); s != "" {
				return s
			}
		}
	}
	return ""
}

// cleanText strips HTML markup such as <strong> highlights and collapses whitespace.
func cleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
