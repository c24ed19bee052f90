package synth

import (
	"fmt"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/pkg/utils"
)

const (
	fallbackMaxSections    = 6
	fallbackMaxPerSection  = 10
	fallbackMaxFlat        = 20
	fallbackTitleMax       = 50
	fallbackGeneralSection = "General Results"
	fallbackFlatSection    = "Search Results"
)

// Fallback builds a sectioned report straight from search results, one section per
// originating query. cause and raw are recorded under debug.parseError.
func Fallback(items []models.SearchResultItem, cause error, raw string) *models.Report {
	var (
		order  []string
		groups = make(map[string][]models.ReportItem)
	)
	for _, it := range items {
		q := it.Query
		if q == "" {
			q = fallbackGeneralSection
		}
		if _, ok := groups[q]; !ok {
			order = append(order, q)
		}
		groups[q] = append(groups[q], toSectionItem(it))
	}

	sections := make([]models.Section, 0, fallbackMaxSections)
	for _, q := range order {
		if len(sections) == fallbackMaxSections {
			break
		}
		its := groups[q]
		if len(its) > fallbackMaxPerSection {
			its = its[:fallbackMaxPerSection]
		}
		sections = append(sections, models.Section{Title: utils.Truncate(q, fallbackTitleMax), Items: its})
	}
	if len(sections) == 0 && len(items) > 0 {
		flat := items
		if len(flat) > fallbackMaxFlat {
			flat = flat[:fallbackMaxFlat]
		}
		sec := models.Section{Title: fallbackFlatSection}
		for _, it := range flat {
			sec.Items = append(sec.Items, toSectionItem(it))
		}
		sections = append(sections, sec)
	}

	r := &models.Report{
		Kind:     models.ReportSectioned,
		Summary:  fmt.Sprintf("Report generated from search results. Found %d unique sources across %d domains.", len(items), countDomains(items)),
		Sections: sections,
	}
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	unparsed := raw
	if block, ok := llm.FencedBlock(raw, "xml"); ok {
		unparsed = block
	}
	r.SetDebug("fallbackUsed", true)
	r.SetDebug("parseError", map[string]any{
		"message":         message,
		"unparsedContent": unparsed,
		"rawResponse":     raw,
	})
	return r
}

func toSectionItem(it models.SearchResultItem) models.ReportItem {
	return models.ReportItem{
		Headline: or(it.Title, "No title"),
		URL:      it.URL,
		Source:   or(it.Source, "Unknown"),
		Snippet:  it.Snippet,
		Tags:     []string{},
		Image:    it.Image,
	}
}

func countDomains(items []models.SearchResultItem) int {
	urls := make([]string, len(items))
	for i, it := range items {
		urls[i] = it.URL
	}
	return utils.CountDomains(urls)
}
