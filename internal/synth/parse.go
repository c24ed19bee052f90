package synth

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
)

// Parse formats reported on success.
const (
	FormatJSON = "JSON"
	FormatXML  = "XML"
)

// ErrNoReport is returned when the response holds neither a usable JSON object
// nor a <report> element.
var ErrNoReport = errors.New("no report found in response")

var xmlUnescaper = strings.NewReplacer(
	"&nbsp;", " ",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// Parsed is the summary and sections read out of an LLM response.
type Parsed struct {
	Summary  string
	Sections []models.Section
	Format   string
}

// ParseReport reads a sectioned report from content. A fenced JSON block wins when it
// holds a summary or sections; otherwise the XML-like <report> block is decoded.
func ParseReport(content string) (*Parsed, error) {
	if p, ok := parseJSON(content); ok {
		return p, nil
	}
	return parseXML(content)
}

func parseJSON(content string) (*Parsed, bool) {
	block, ok := llm.FencedBlock(content, "json")
	if !ok {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(block), &obj); err != nil {
		return nil, false
	}
	report := obj
	if inner, ok := obj["report"].(map[string]any); ok {
		report = inner
	}
	summary, _ := report["summary"].(string)
	rawSections, hasSections := report["sections"]
	if summary == "" && !hasSections {
		return nil, false
	}

	p := &Parsed{Summary: summary, Format: FormatJSON, Sections: []models.Section{}}
	secs, _ := rawSections.([]any)
	for _, s := range secs {
		sm, _ := s.(map[string]any)
		sec := models.Section{Title: jsonString(sm, "title"), Items: []models.ReportItem{}}
		items, _ := sm["items"].([]any)
		for _, it := range items {
			im, _ := it.(map[string]any)
			item := models.ReportItem{
				Headline: jsonString(im, "headline"),
				URL:      jsonString(im, "url"),
				Source:   jsonString(im, "source"),
				Snippet:  jsonString(im, "snippet"),
				Image:    jsonString(im, "image"),
				Tags:     []string{},
			}
			tags, _ := im["tags"].([]any)
			for _, tag := range tags {
				if ts, ok := tag.(string); ok {
					item.Tags = append(item.Tags, ts)
				}
			}
			sec.Items = append(sec.Items, item)
		}
		p.Sections = append(p.Sections, sec)
	}
	return p, true
}

func jsonString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// extractReportXML finds the XML-ish report text: an ```xml fence, then any fence,
// then the bare content cut down to <report ... </report>.
func extractReportXML(content string) string {
	xmlText, ok := llm.FencedBlock(content, "xml")
	if !ok {
		xmlText, ok = llm.FencedBlock(content, "")
		ok = ok && strings.Contains(xmlText, "<report")
	}
	if !ok {
		xmlText = content
	}
	if start := strings.Index(xmlText, "<report"); start >= 0 {
		xmlText = xmlText[start:]
		if end := strings.LastIndex(xmlText, "</report>"); end >= 0 {
			xmlText = xmlText[:end+len("</report>")]
		}
	}
	return strings.TrimSpace(xmlUnescaper.Replace(xmlText))
}

func parseXML(content string) (*Parsed, error) {
	root, err := decodeLenient(extractReportXML(content))
	report := root.find("report")
	if report == nil {
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoReport, err)
		}
		return nil, ErrNoReport
	}

	p := &Parsed{Summary: report.text("summary"), Format: FormatXML, Sections: []models.Section{}}
	for _, s := range report.list("sections", "section") {
		sec := models.Section{Title: s.text("title"), Items: []models.ReportItem{}}
		for _, it := range s.list("items", "item") {
			item := models.ReportItem{
				Headline: it.text("headline"),
				URL:      it.text("url"),
				Source:   it.text("source"),
				Snippet:  it.text("snippet"),
				Image:    it.text("image"),
				Tags:     []string{},
			}
			for _, tag := range it.list("tags", "tag") {
				if v := tag.value(); v != "" {
					item.Tags = append(item.Tags, v)
				}
			}
			sec.Items = append(sec.Items, item)
		}
		p.Sections = append(p.Sections, sec)
	}
	return p, nil
}

// node is a namespace-stripped element with its direct text and children.
type node struct {
	name     string
	chars    strings.Builder
	children []*node
}

func (n *node) value() string {
	return strings.TrimSpace(n.chars.String())
}

// child returns the first direct child named name.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// all returns every direct child named name; one or many both become a slice.
func (n *node) all(name string) []*node {
	var out []*node
	for _, c := range n.children {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

func (n *node) text(name string) string {
	if c := n.child(name); c != nil {
		return c.value()
	}
	return ""
}

// list returns wrapper/elem children, also accepting elem directly under n when the
// wrapper is missing.
func (n *node) list(wrapper, elem string) []*node {
	if w := n.child(wrapper); w != nil {
		return w.all(elem)
	}
	return n.all(elem)
}

// find returns the first element named name, depth first, including n itself.
func (n *node) find(name string) *node {
	if n == nil {
		return nil
	}
	if n.name == name {
		return n
	}
	for _, c := range n.children {
		if f := c.find(name); f != nil {
			return f
		}
	}
	return nil
}

// decodeLenient builds a tree from XML-like text. Decoding stops at the first error;
// whatever was read so far is returned along with it.
func decodeLenient(s string) (*node, error) {
	dec := xml.NewDecoder(strings.NewReader(s))
	dec.Strict = false
	dec.AutoClose = []string{"br", "hr", "img"}
	dec.Entity = xml.HTMLEntity

	root := &node{}
	stack := []*node{root}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return root, nil
		}
		if err != nil {
			return root, err
		}
		top := stack[len(stack)-1]
		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: strings.ToLower(t.Name.Local)}
			top.children = append(top.children, n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			top.chars.Write(t)
		}
	}
}
