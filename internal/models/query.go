package models

import "fmt"

// ReportSearchQuery searches items of previously generated reports.
type ReportSearchQuery struct {
	RadarID string `json:"radarId"`
	Query   string `json:"query"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate ensures the query is non-empty and normalizes limit.
func (q *ReportSearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// ReportHit is one matching report item.
type ReportHit struct {
	ReportID string  `json:"reportId"`
	URL      string  `json:"url"`
	Headline string  `json:"headline"`
	Source   string  `json:"source,omitempty"`
	Score    float64 `json:"score"`
}

// ReportSearchResponse is the response for a report search request.
type ReportSearchResponse struct {
	Query     string       `json:"query"`
	Hits      []*ReportHit `json:"hits"`
	Total     int          `json:"total"`
	QueryTime int64        `json:"query_time_ms"`
}
