package synth

import (
	"fmt"
	"strings"

	"github.com/hyperjump/radar/internal/models"
)

const sectionSystemPrompt = `You are a report synthesizer that creates structured daily industry scan reports.

Given search results from multiple queries, synthesize them into a well-organized report with:
1. A clear summary paragraph (2-3 sentences)
2. Sections grouping related items by theme (e.g., "AI Personalization", "A/B Testing", "E-commerce Trends")
3. For each item: headline, url, source, snippet (1-2 sentences), and relevant tags
4. Optional image URL if available in search results

Use simple XML-like formatting. Formatting is flexible; focus on content quality over strict XML rules.

Output your response using this structure:

<report>
<summary>Top-line summary paragraph (2-3 sentences covering the main themes)</summary>
<sections>
<section>
<title>Section Name</title>
<items>
<item>
<headline>Article or item headline</headline>
<url>https://example.com/article</url>
<source>Source website name</source>
<snippet>A 1-2 sentence description of why this item is relevant</snippet>
<tags>
<tag>relevant-tag-1</tag>
<tag>relevant-tag-2</tag>
</tags>
<image>optional-image-url-if-available</image>
</item>
</items>
</section>
</sections>
</report>

Key requirements:
- Include 3-6 sections based on themes in the search results
- Each section should have 2-5 items
- Prioritize the most relevant and recent items
- Tags should be short, hyphenated keywords (e.g., "AI", "ecommerce", "conversion-optimization")
- All URLs must be complete and valid
- Image tags are optional; only include them if available`

const summarySystemPrompt = "You are a concise tech analyst. Given a set of recent links, produce a 2-4 sentence summary highlighting key themes, trends, and notable releases. Keep it objective and compact (max ~80 words)."

// BuildSectionPrompt renders the profile context and every item for sectioned synthesis.
func BuildSectionPrompt(items []models.SearchResultItem, profile models.RadarProfile) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		lines = append(lines, fmt.Sprintf("%d. %s\n   URL: %s\n   Source: %s\n   %s\n   Date: %s",
			i+1, or(it.Title, "No title"), it.URL, it.Source, it.Snippet, or(it.Date, "Unknown")))
	}

	var b strings.Builder
	b.WriteString("User profile context:\n")
	fmt.Fprintf(&b, "Role: %s\n", profile.Role)
	fmt.Fprintf(&b, "Industry: %s\n", profile.Industry)
	fmt.Fprintf(&b, "Audience: %s\n", profile.Audience)
	fmt.Fprintf(&b, "Priorities: %s\n", joinOr(profile.Priorities, "None specified"))
	fmt.Fprintf(&b, "Avoid: %s\n\n", joinOr(profile.Avoid, "None"))
	fmt.Fprintf(&b, "Search results (%d items):\n%s\n\n", len(items), strings.Join(lines, "\n\n"))
	b.WriteString(`Your task:
1. Group the search results into 3-6 logical sections based on themes and topics
2. For each section, select 2-5 of the most relevant and recent items
3. Write clear section titles that describe the theme
4. For each item provide headline, the exact URL, source, a 1-2 sentence snippet, and 2-4 short hyphenated tags
5. Write a summary paragraph (2-3 sentences) that synthesizes the key themes across all sections

Output your response using the XML-like format specified in the system prompt.`)
	return b.String()
}

// BuildSummaryPrompt lists items as "N. title · source · date" with an indented snippet.
func BuildSummaryPrompt(items []models.SearchResultItem, windowLabel string) string {
	lines := make([]string, 0, len(items))
	for i, it := range items {
		parts := []string{fmt.Sprintf("%d. %s", i+1, it.Title)}
		if it.Source != "" {
			parts = append(parts, "· "+it.Source)
		}
		if it.Date != "" {
			parts = append(parts, "· "+it.Date)
		}
		line := strings.Join(parts, " ")
		if it.Snippet != "" {
			line += "\n   " + it.Snippet
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("Summarize these items (title, source, optional snippet, date) from %s:\n\n%s",
		windowLabel, strings.Join(lines, "\n"))
}

func or(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func joinOr(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, ", ")
}
