// Package cli renders reports and search hits for the radar command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value onto an OutputFormat. Unknown values are text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(s, string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

const rule = "─────────────────────────────────────────────────────────"

// WriteReport writes a report to w in the given format. A nil report prints a notice.
func WriteReport(w io.Writer, report *models.Report, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	if report == nil {
		fmt.Fprintln(w, "No reports yet.")
		return nil
	}

	fmt.Fprintf(w, "\nReport %s (%s)", report.ID, report.Kind)
	if !report.CreatedAt.IsZero() {
		fmt.Fprintf(w, " created %s", report.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(w)
	if report.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", report.Summary)
	}

	switch report.Kind {
	case models.ReportSectioned:
		for _, sec := range report.Sections {
			fmt.Fprintf(w, "\n=== %s (%d) ===\n", sec.Title, len(sec.Items))
			for _, it := range sec.Items {
				writeItem(w, it)
			}
		}
		if report.FallbackUsed() {
			fmt.Fprintln(w, "\n(sections built from raw results; synthesis output could not be parsed)")
		}
	case models.ReportFlat:
		fmt.Fprintf(w, "\n%d items kept from %d results across %d queries\n", len(report.Items), report.ResultCount, report.QueryCount)
		for _, it := range report.Items {
			writeItem(w, it)
		}
	}
	return nil
}

func writeItem(w io.Writer, it models.ReportItem) {
	fmt.Fprintln(w, rule)
	if it.Score != nil {
		fmt.Fprintf(w, "[%.1f] ", *it.Score)
	}
	fmt.Fprintf(w, "%s\n", it.Heading())
	meta := []string{}
	if it.Source != "" {
		meta = append(meta, it.Source)
	}
	if it.Date != "" {
		meta = append(meta, it.Date)
	}
	if len(it.Tags) > 0 {
		meta = append(meta, "#"+strings.Join(it.Tags, " #"))
	}
	if len(meta) > 0 {
		fmt.Fprintf(w, "%s\n", strings.Join(meta, " | "))
	}
	if it.URL != "" {
		fmt.Fprintf(w, "%s\n", it.URL)
	}
	if it.Snippet != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(it.Snippet, 200))
	}
}

// WriteSearchHits writes report search results to w in the given format.
func WriteSearchHits(w io.Writer, resp *models.ReportSearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d items for %q in %dms\n\n", resp.Total, resp.Query, resp.QueryTime)
	for i, h := range resp.Hits {
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%d. %s (score %.4f)\n", i+1, h.Headline, h.Score)
		if h.Source != "" {
			fmt.Fprintf(w, "%s\n", h.Source)
		}
		fmt.Fprintf(w, "%s\nReport: %s\n", h.URL, h.ReportID)
	}
	return nil
}

// WriteValue writes v as indented JSON, or as sorted key: value lines in text mode.
func WriteValue(w io.Writer, v map[string]interface{}, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, v)
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch val := v[k].(type) {
		case map[string]interface{}, []interface{}:
			data, _ := json.Marshal(val)
			fmt.Fprintf(w, "%s: %s\n", k, data)
		default:
			fmt.Fprintf(w, "%s: %v\n", k, val)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
