package models

import (
	"bytes"
	"encoding/json"
)

// MaxFinalQueries caps how many queries a plan executes.
const MaxFinalQueries = 15

// QueryPlan is the set of search queries and source hints derived from a profile.
type QueryPlan struct {
	Queries       []string `json:"queries"`
	FinalQueries  []string `json:"finalQueries"`
	SourcesHint   []string `json:"sourcesHint"`
	LastLLMPrompt string   `json:"lastLLMPrompt"`
}

// NewQueryPlan builds a plan whose finalQueries is the first MaxFinalQueries of queries.
func NewQueryPlan(queries, sourcesHint []string, prompt string) QueryPlan {
	final := queries
	if len(final) > MaxFinalQueries {
		final = final[:MaxFinalQueries]
	}
	return QueryPlan{
		Queries:       queries,
		FinalQueries:  append([]string(nil), final...),
		SourcesHint:   sourcesHint,
		LastLLMPrompt: prompt,
	}
}

// PlanRepresentation is a stored query plan: either a raw JSON string or a parsed plan.
// The zero value is an empty raw plan.
type PlanRepresentation struct {
	raw    string
	parsed *QueryPlan
}

// RawPlan wraps a JSON-encoded plan.
func RawPlan(s string) PlanRepresentation {
	return PlanRepresentation{raw: s}
}

// ParsedPlan wraps an already decoded plan.
func ParsedPlan(p QueryPlan) PlanRepresentation {
	return PlanRepresentation{parsed: &p}
}

// IsRaw reports whether the plan is held as a string.
func (p PlanRepresentation) IsRaw() bool {
	return p.parsed == nil
}

// Raw returns the string form, or "" for parsed plans.
func (p PlanRepresentation) Raw() string {
	return p.raw
}

// Resolve returns the plan as a QueryPlan. A raw plan that is empty or does not
// decode yields an empty plan rather than an error.
func (p PlanRepresentation) Resolve() QueryPlan {
	if p.parsed != nil {
		return *p.parsed
	}
	var qp QueryPlan
	if p.raw == "" {
		return qp
	}
	if err := json.Unmarshal([]byte(p.raw), &qp); err != nil {
		return QueryPlan{}
	}
	return qp
}

// MarshalJSON writes raw plans as a JSON string and parsed plans as an object.
func (p PlanRepresentation) MarshalJSON() ([]byte, error) {
	if p.parsed != nil {
		return json.Marshal(p.parsed)
	}
	return json.Marshal(p.raw)
}

// UnmarshalJSON accepts a JSON string, an object, or null.
func (p *PlanRepresentation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*p = PlanRepresentation{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &p.raw)
	}
	var qp QueryPlan
	if err := json.Unmarshal(data, &qp); err != nil {
		// keep the bytes; Resolve fails soft on them
		p.raw = string(data)
		return nil
	}
	p.parsed = &qp
	return nil
}
