package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/ranking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLM struct {
	content string
	err     error
	reqs    []llm.CompletionRequest
}

func (s *stubLLM) Complete(_ context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	s.reqs = append(s.reqs, req)
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Completion{Content: s.content}, nil
}

const xmlResponse = "Here is your report:\n```xml\n<report>\n<summary>Agents everywhere.</summary>\n<sections>\n<section>\n<title>Agents</title>\n<items>\n<item>\n<headline>Agent SDK ships</headline>\n<url>https://x.com/a?x=1&y=2</url>\n<source>x.com</source>\n<snippet>New SDK.</snippet>\n<tags><tag>ai</tag></tags>\n<image>https://x.com/i.png</image>\n</item>\n<item>\n<headline>Second</headline>\n<url>https://y.com/b</url>\n<tags>\n<tag>one</tag>\n<tag>two</tag>\n</tags>\n</item>\n</items>\n</section>\n</sections>\n</report>\n```"

func TestParseReport_xml(t *testing.T) {
	p, err := ParseReport(xmlResponse)
	require.NoError(t, err)
	assert.Equal(t, FormatXML, p.Format)
	assert.Equal(t, "Agents everywhere.", p.Summary)
	require.Len(t, p.Sections, 1)
	sec := p.Sections[0]
	assert.Equal(t, "Agents", sec.Title)
	require.Len(t, sec.Items, 2)
	assert.Equal(t, "Agent SDK ships", sec.Items[0].Headline)
	assert.Equal(t, "https://x.com/a?x=1&y=2", sec.Items[0].URL)
	assert.Equal(t, []string{"ai"}, sec.Items[0].Tags)
	assert.Equal(t, "https://x.com/i.png", sec.Items[0].Image)
	assert.Equal(t, []string{"one", "two"}, sec.Items[1].Tags)
	assert.Empty(t, sec.Items[1].Image)
}

func TestParseReport_bareXMLWithProse(t *testing.T) {
	content := "Sure thing. <report><summary>S &amp; T</summary><sections><section><title>One</title>" +
		"<items><item><headline>H</headline><url>u</url></item></items></section></sections></report> Hope it helps."
	p, err := ParseReport(content)
	require.NoError(t, err)
	assert.Equal(t, "S & T", p.Summary)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, "u", p.Sections[0].Items[0].URL)
}

func TestParseReport_missingWrappers(t *testing.T) {
	content := "<report><summary>S</summary><section><title>T</title><item><headline>H</headline></item></section></report>"
	p, err := ParseReport(content)
	require.NoError(t, err)
	require.Len(t, p.Sections, 1)
	require.Len(t, p.Sections[0].Items, 1)
}

func TestParseReport_unclosedTagsAreTolerated(t *testing.T) {
	content := "<report><summary>Cut short</summary><sections><section><title>T</title><items><item><headline>H</headline>"
	p, err := ParseReport(content)
	require.NoError(t, err)
	assert.Equal(t, "Cut short", p.Summary)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, "H", p.Sections[0].Items[0].Headline)
}

func TestParseReport_json(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"wrapped", "```json\n{\"report\":{\"summary\":\"S\",\"sections\":[{\"title\":\"T\",\"items\":[{\"headline\":\"H\",\"url\":\"u\",\"tags\":[\"a\",3]}]}]}}\n```"},
		{"bare object", "```json\n{\"summary\":\"S\",\"sections\":[{\"title\":\"T\",\"items\":[{\"headline\":\"H\",\"url\":\"u\",\"tags\":[\"a\"]}]}]}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseReport(tt.content)
			require.NoError(t, err)
			assert.Equal(t, FormatJSON, p.Format)
			assert.Equal(t, "S", p.Summary)
			require.Len(t, p.Sections, 1)
			assert.Equal(t, []string{"a"}, p.Sections[0].Items[0].Tags)
		})
	}
}

func TestParseReport_jsonWithoutShapeFallsThroughToXML(t *testing.T) {
	content := "```json\n{\"foo\":1}\n```\n<report><summary>from xml</summary></report>"
	p, err := ParseReport(content)
	require.NoError(t, err)
	assert.Equal(t, FormatXML, p.Format)
	assert.Equal(t, "from xml", p.Summary)
}

func TestParseReport_nothing(t *testing.T) {
	for _, content := range []string{"", "I could not find anything useful.", "```json\n{broken\n```", "<summary>no root</summary>"} {
		_, err := ParseReport(content)
		assert.ErrorIs(t, err, ErrNoReport, content)
	}
}

func resultItems(queries int, perQuery int) []models.SearchResultItem {
	var out []models.SearchResultItem
	for q := 0; q < queries; q++ {
		for i := 0; i < perQuery; i++ {
			out = append(out, models.SearchResultItem{
				Title: fmt.Sprintf("q%d-%d", q, i),
				URL:   fmt.Sprintf("https://site%d.com/%d", q, i),
				Query: fmt.Sprintf("query %d", q),
			})
		}
	}
	return out
}

func TestFallback_groupsByQuery(t *testing.T) {
	items := resultItems(8, 12)
	r := Fallback(items, errors.New("no report"), "garbage")

	assert.Equal(t, models.ReportSectioned, r.Kind)
	require.Len(t, r.Sections, 6)
	for i, s := range r.Sections {
		assert.Equal(t, fmt.Sprintf("query %d", i), s.Title)
		assert.Len(t, s.Items, 10)
	}
	assert.True(t, r.FallbackUsed())
	assert.Equal(t, "Report generated from search results. Found 96 unique sources across 8 domains.", r.Summary)
	pe := r.Debug["parseError"].(map[string]any)
	assert.Equal(t, "no report", pe["message"])
	assert.Equal(t, "garbage", pe["rawResponse"])
}

func TestFallback_defaultsAndTitles(t *testing.T) {
	long := strings.Repeat("x", 60)
	items := []models.SearchResultItem{
		{URL: "https://a.com/1", Query: long},
		{Title: "T", URL: "https://a.com/2", Source: "a", Image: "img"},
	}
	r := Fallback(items, nil, "```xml\n<broken\n```")
	require.Len(t, r.Sections, 2)
	assert.Equal(t, strings.Repeat("x", 50)+"...", r.Sections[0].Title)
	assert.Equal(t, "No title", r.Sections[0].Items[0].Headline)
	assert.Equal(t, "Unknown", r.Sections[0].Items[0].Source)
	assert.Equal(t, "General Results", r.Sections[1].Title)
	assert.Equal(t, "img", r.Sections[1].Items[0].Image)
	pe := r.Debug["parseError"].(map[string]any)
	assert.Equal(t, "<broken", pe["unparsedContent"])
}

func TestFallback_empty(t *testing.T) {
	r := Fallback(nil, nil, "")
	assert.Empty(t, r.Sections)
	assert.True(t, r.FallbackUsed())
}

func TestSynthesizeSections(t *testing.T) {
	stub := &stubLLM{content: xmlResponse}
	s := New(stub, zap.NewNop())
	profile := models.RadarProfile{Role: "PM", Industry: "Fintech", Priorities: []string{"AI"}}
	r, err := s.SynthesizeSections(context.Background(), resultItems(1, 2), profile)
	require.NoError(t, err)
	assert.False(t, r.FallbackUsed())
	assert.Equal(t, "Agents everywhere.", r.Summary)

	require.Len(t, stub.reqs, 1)
	assert.Equal(t, "synthesis", stub.reqs[0].Purpose)
	assert.Contains(t, stub.reqs[0].Prompt, "Role: PM\nIndustry: Fintech")
	assert.Contains(t, stub.reqs[0].Prompt, "Priorities: AI")
	assert.Contains(t, stub.reqs[0].Prompt, "Avoid: None")
	assert.Contains(t, stub.reqs[0].Prompt, "1. q0-0\n   URL: https://site0.com/0")
}

func TestSynthesizeSections_fallbackOnGarbage(t *testing.T) {
	s := New(&stubLLM{content: "no structure at all"}, nil)
	r, err := s.SynthesizeSections(context.Background(), resultItems(7, 11), models.RadarProfile{})
	require.NoError(t, err)
	assert.True(t, r.FallbackUsed())
	assert.LessOrEqual(t, len(r.Sections), 6)
	for _, sec := range r.Sections {
		assert.LessOrEqual(t, len(sec.Items), 10)
	}
}

func TestSynthesizeSections_transportErrorIsFatal(t *testing.T) {
	s := New(&stubLLM{err: llm.ErrMissingAPIKey}, nil)
	_, err := s.SynthesizeSections(context.Background(), nil, models.RadarProfile{})
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestAnnotate(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Report{Kind: models.ReportSectioned}
	items := []models.SearchResultItem{{URL: "https://a.com/1"}, {URL: "https://a.com/2"}, {URL: "https://b.com"}}
	plan := models.QueryPlan{Queries: []string{"a"}, FinalQueries: []string{"a"}}
	Annotate(r, items, plan, []models.SearchTrace{{Query: "a", OK: true}}, now)

	assert.Equal(t, &models.Metrics{TotalSources: 3, UniqueDomains: 2}, r.Metrics)
	assert.Equal(t, "2025-01-31T12:00:00Z", r.FreshnessWindow.FromISO)
	assert.Equal(t, "2025-02-01T12:00:00Z", r.FreshnessWindow.ToISO)
	assert.Equal(t, "1.0", r.Inputs.APIVersion)
	assert.Len(t, r.Inputs.QueryPlanHash, 64)
	assert.Equal(t, PlanHash(plan), r.Inputs.QueryPlanHash)
	assert.NotEqual(t, PlanHash(models.QueryPlan{}), r.Inputs.QueryPlanHash)
	assert.Contains(t, r.Debug, "searchResponses")
}

func score(v float64) *float64 { return &v }

func TestSynthesizeFlat(t *testing.T) {
	now := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	unique := []models.SearchResultItem{
		{Title: "recent", URL: "u1", Source: "s", Date: "2025-02-09", Snippet: "snip"},
		{Title: "old", URL: "u2", Date: "2025-01-01"},
	}
	kept := []models.SearchResultItem{{URL: "u1", Score: score(4.8)}}
	stub := &stubLLM{content: "  Agents dominate.  "}
	r := New(stub, nil).SynthesizeFlat(context.Background(), FlatInput{
		Kept: kept, Unique: unique, QueryCount: 3, Threshold: 4.5,
		Scoring: ranking.ScoreResult{Batches: 1}, Now: now,
	})

	assert.Equal(t, models.ReportFlat, r.Kind)
	assert.Equal(t, "v2", r.Version)
	assert.Equal(t, "Agents dominate.", r.Summary)
	assert.Equal(t, 3, r.QueryCount)
	assert.Equal(t, 2, r.ResultCount)
	require.Len(t, r.Items, 1)
	assert.Equal(t, "No title", r.Items[0].Title)
	assert.Equal(t, "Unknown", r.Items[0].Source)
	assert.Equal(t, 4.8, *r.Items[0].Score)
	assert.Equal(t, "2025-02-10T00:00:00Z", r.GeneratedAt)

	require.Len(t, stub.reqs, 1)
	assert.Equal(t, "summary", stub.reqs[0].Purpose)
	assert.Equal(t, "Summarize these items (title, source, optional snippet, date) from the past week:\n\n1. recent · s · 2025-02-09\n   snip", stub.reqs[0].Prompt)

	scoring := r.Debug["scoring"].(map[string]any)
	assert.Equal(t, 4.5, scoring["threshold"])
	assert.Equal(t, 1, scoring["kept"])
}

func TestSynthesizeFlat_summaryFallbacks(t *testing.T) {
	now := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	unique := []models.SearchResultItem{{Title: "old", URL: "u2", Date: "2024-01-01"}}

	stub := &stubLLM{err: errors.New("down")}
	r := New(stub, nil).SynthesizeFlat(context.Background(), FlatInput{Unique: unique, QueryCount: 2, Threshold: 4.5, Now: now})
	assert.Equal(t, "Kept 0 of 1 unique results (> 4.5) from 2 queries", r.Summary)
	require.Len(t, stub.reqs, 1)
	assert.Contains(t, stub.reqs[0].Prompt, "from recent items:")

	empty := &stubLLM{content: "x"}
	r = New(empty, nil).SynthesizeFlat(context.Background(), FlatInput{Threshold: 4.5, Now: now})
	assert.Empty(t, empty.reqs)
	assert.Equal(t, "Kept 0 of 0 unique results (> 4.5) from 0 queries", r.Summary)
	assert.NotNil(t, r.Items)
}

func TestEmptyReportsKeepLayoutFields(t *testing.T) {
	flat := New(&stubLLM{}, nil).SynthesizeFlat(context.Background(), FlatInput{QueryCount: 3, Threshold: 4.5})
	data, err := json.Marshal(flat)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []any{}, got["items"])
	assert.Equal(t, float64(0), got["resultCount"])
	assert.Equal(t, float64(3), got["queryCount"])

	data, err = json.Marshal(Fallback(nil, errors.New("no report"), ""))
	require.NoError(t, err)
	got = nil
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []any{}, got["sections"])
	assert.NotContains(t, got, "items")
}
