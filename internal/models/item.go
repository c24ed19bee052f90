package models

// RawItem is one provider result before normalization, tagged with the query that found it.
type RawItem struct {
	Query  string
	Fields map[string]any
}

// SearchResultItem is a normalized search hit. It lives for one report run only.
type SearchResultItem struct {
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Snippet   string   `json:"snippet"`
	Source    string   `json:"source"`
	Date      string   `json:"date"`
	Image     string   `json:"image,omitempty"`
	Query     string   `json:"query,omitempty"`
	Duplicate bool     `json:"duplicate,omitempty"`
	Score     *float64 `json:"score,omitempty"`
}

// SearchTrace records the outcome of one provider call for the report debug payload.
type SearchTrace struct {
	Query string   `json:"query"`
	OK    bool     `json:"ok"`
	Count int      `json:"count,omitempty"`
	Error string   `json:"error,omitempty"`
	Keys  []string `json:"keys,omitempty"`
}
