package llm

import (
	"regexp"
	"strings"
)

var (
	anyFence  = regexp.MustCompile("```\\s*([\\s\\S]*?)```")
	jsonArray = regexp.MustCompile(`\[[\s\S]*\]`)
	fences    = map[string]*regexp.Regexp{
		"json":    regexp.MustCompile("```json\\s*([\\s\\S]*?)```"),
		"xml":     regexp.MustCompile("```xml\\s*([\\s\\S]*?)```"),
		"mermaid": regexp.MustCompile("```mermaid\\s*([\\s\\S]*?)```"),
	}
)

// FencedBlock returns the trimmed body of the first ```lang fenced block in content.
// An empty lang matches any fence.
func FencedBlock(content, lang string) (string, bool) {
	re := anyFence
	if lang != "" {
		var ok bool
		re, ok = fences[lang]
		if !ok {
			re = regexp.MustCompile("```" + regexp.QuoteMeta(lang) + "\\s*([\\s\\S]*?)```")
		}
	}
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// JSONArray returns the widest bracket-delimited span of content: from the first '['
// to the last ']'.
func JSONArray(content string) (string, bool) {
	m := jsonArray.FindString(content)
	return m, m != ""
}
