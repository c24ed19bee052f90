package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/radar/internal/models"
)

const itemType = "item"

// itemDoc is the indexed form of one report item.
type itemDoc struct {
	ReportID string `json:"reportId"`
	RadarID  string `json:"radarId"`
	URL      string `json:"url"`
	Headline string `json:"headline"`
	Snippet  string `json:"snippet"`
	Source   string `json:"source"`
	Tags     string `json:"tags"`
}

// Type implements bleve's mapping.Classifier.
func (itemDoc) Type() string { return itemType }

var textFields = []string{"headline", "snippet", "source", "tags"}

// BleveIndex implements ReportIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory to rebuild it.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemIndex creates an in-memory index, for tests and one-shot CLI runs.
func NewMemIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	// standard analyzer: lowercase + tokenize, no stemming
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, f := range textFields {
		docMapping.AddFieldMappingsAt(f, text)
	}
	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("radarId", exact)
	docMapping.AddFieldMappingsAt("reportId", exact)
	stored := bleve.NewTextFieldMapping()
	stored.Index = false
	docMapping.AddFieldMappingsAt("url", stored)

	im.AddDocumentMapping(itemType, docMapping)
	im.DefaultMapping = docMapping
	return im
}

func itemID(reportID string, i int) string {
	return fmt.Sprintf("%s#%d", reportID, i)
}

// IndexReport indexes every item of report in one batch.
func (b *BleveIndex) IndexReport(ctx context.Context, report *models.Report) (int, error) {
	if report.ID == "" {
		return 0, fmt.Errorf("report has no id")
	}
	batch := b.index.NewBatch()
	items := report.AllItems()
	for i, it := range items {
		doc := itemDoc{
			ReportID: report.ID,
			RadarID:  report.RadarID,
			URL:      it.URL,
			Headline: it.Heading(),
			Snippet:  it.Snippet,
			Source:   it.Source,
			Tags:     strings.Join(it.Tags, " "),
		}
		if err := batch.Index(itemID(report.ID, i), doc); err != nil {
			return 0, fmt.Errorf("failed to index item %d: %w", i, err)
		}
	}
	if err := b.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("failed to index report %s: %w", report.ID, err)
	}
	return len(items), nil
}

// DeleteReport removes every item of report from the index.
func (b *BleveIndex) DeleteReport(ctx context.Context, report *models.Report) error {
	batch := b.index.NewBatch()
	for i := range report.AllItems() {
		batch.Delete(itemID(report.ID, i))
	}
	return b.index.Batch(batch)
}

// Search matches query against the items of one radar's reports. An empty radarID
// searches all radars.
func (b *BleveIndex) Search(ctx context.Context, radarID, query string, limit int, opts *SearchOptions) ([]*Hit, error) {
	headlineBoost := 2.0
	fuzzyEnabled := false
	fuzziness := 1
	if opts != nil {
		if opts.HeadlineBoost > 0 {
			headlineBoost = opts.HeadlineBoost
		}
		fuzzyEnabled = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
	}

	fieldQueries := make([]blevequery.Query, 0, len(textFields))
	for _, f := range textFields {
		var q blevequery.Query
		if fuzzyEnabled {
			q = buildFuzzyQuery(query, fuzziness, f)
		} else {
			mq := bleve.NewMatchQuery(query)
			mq.SetField(f)
			q = mq
		}
		if f == "headline" {
			if bq, ok := q.(blevequery.BoostableQuery); ok {
				bq.SetBoost(headlineBoost)
			}
		}
		fieldQueries = append(fieldQueries, q)
	}
	var q blevequery.Query = bleve.NewDisjunctionQuery(fieldQueries...)
	if radarID != "" {
		tq := bleve.NewTermQuery(radarID)
		tq.SetField("radarId")
		q = bleve.NewConjunctionQuery(tq, q)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.Fields = []string{"reportId", "url", "headline", "source"}
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Hit{
			ID:       hit.ID,
			ReportID: fieldString(hit.Fields, "reportId"),
			URL:      fieldString(hit.Fields, "url"),
			Headline: fieldString(hit.Fields, "headline"),
			Source:   fieldString(hit.Fields, "source"),
			Score:    hit.Score,
		}
	}
	return out, nil
}

func fieldString(fields map[string]interface{}, name string) string {
	s, _ := fields[name].(string)
	return s
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries for each term in the query,
// restricted to field.
func buildFuzzyQuery(queryStr string, fuzziness int, field string) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		return mq
	}
	if len(terms) == 1 {
		fq := bleve.NewFuzzyQuery(terms[0])
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		return fq
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of indexed items.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}
