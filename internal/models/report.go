package models

import (
	"encoding/json"
	"time"
)

// ReportKind discriminates the two report layouts.
type ReportKind string

const (
	// ReportSectioned is the v1 layout: summary plus themed sections.
	ReportSectioned ReportKind = "sectioned"
	// ReportFlat is the v2 layout: summary plus a flat scored item list.
	ReportFlat ReportKind = "flat"
)

// ReportItem is a single entry shown in a report.
type ReportItem struct {
	Headline string   `json:"headline,omitempty"`
	Title    string   `json:"title,omitempty"`
	URL      string   `json:"url"`
	Source   string   `json:"source"`
	Snippet  string   `json:"snippet"`
	Tags     []string `json:"tags,omitempty"`
	Image    string   `json:"image,omitempty"`
	Date     string   `json:"date,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// Heading returns the headline for sectioned items and the title for flat ones.
func (it ReportItem) Heading() string {
	if it.Headline != "" {
		return it.Headline
	}
	return it.Title
}

// Section is a themed group of items in a sectioned report.
type Section struct {
	Title string       `json:"title"`
	Items []ReportItem `json:"items"`
}

// Metrics summarizes the sources behind a sectioned report.
type Metrics struct {
	TotalSources  int `json:"totalSources"`
	UniqueDomains int `json:"uniqueDomains"`
}

// FreshnessWindow is the time range a report's "new" badge is evaluated against.
type FreshnessWindow struct {
	FromISO string `json:"fromISO"`
	ToISO   string `json:"toISO"`
}

// ReportInputs identifies what a sectioned report was generated from.
type ReportInputs struct {
	QueryPlanHash string `json:"queryPlanHash"`
	APIVersion    string `json:"apiVersion"`
}

// Report is the output of one pipeline run. Kind selects which fields are populated.
type Report struct {
	ID      string     `json:"id,omitempty"`
	RadarID string     `json:"radarId,omitempty"`
	Kind    ReportKind `json:"kind"`
	Summary string     `json:"summary"`

	// sectioned
	Sections        []Section        `json:"sections,omitempty"`
	Metrics         *Metrics         `json:"metrics,omitempty"`
	FreshnessWindow *FreshnessWindow `json:"freshnessWindow,omitempty"`
	Inputs          *ReportInputs    `json:"inputs,omitempty"`

	// flat
	Items       []ReportItem `json:"items,omitempty"`
	QueryCount  int          `json:"queryCount,omitempty"`
	ResultCount int          `json:"resultCount,omitempty"`
	GeneratedAt string       `json:"generatedAt,omitempty"`
	Version     string       `json:"version,omitempty"`

	Debug     map[string]any `json:"debug,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// MarshalJSON always emits the fields of the report's layout, empty or not: sections
// for sectioned reports; items, queryCount and resultCount for flat ones.
func (r Report) MarshalJSON() ([]byte, error) {
	type plain Report
	switch r.Kind {
	case ReportSectioned:
		sections := r.Sections
		if sections == nil {
			sections = []Section{}
		}
		return json.Marshal(struct {
			plain
			Sections []Section `json:"sections"`
		}{plain(r), sections})
	case ReportFlat:
		items := r.Items
		if items == nil {
			items = []ReportItem{}
		}
		return json.Marshal(struct {
			plain
			Items       []ReportItem `json:"items"`
			QueryCount  int          `json:"queryCount"`
			ResultCount int          `json:"resultCount"`
		}{plain(r), items, r.QueryCount, r.ResultCount})
	default:
		return json.Marshal(plain(r))
	}
}

// AllItems returns every item in the report regardless of layout.
func (r *Report) AllItems() []ReportItem {
	switch r.Kind {
	case ReportSectioned:
		var out []ReportItem
		for _, s := range r.Sections {
			out = append(out, s.Items...)
		}
		return out
	case ReportFlat:
		return r.Items
	default:
		return nil
	}
}

// SetDebug stores v under key in the debug payload.
func (r *Report) SetDebug(key string, v any) {
	if r.Debug == nil {
		r.Debug = make(map[string]any)
	}
	r.Debug[key] = v
}

// FallbackUsed reports whether a sectioned report was built without LLM synthesis.
func (r *Report) FallbackUsed() bool {
	used, _ := r.Debug["fallbackUsed"].(bool)
	return used
}
