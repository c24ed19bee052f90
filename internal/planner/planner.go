// Package planner turns a radar profile into a topic diagram and a search query plan,
// and writes share snippets for report items.
package planner

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/radar"
	"github.com/hyperjump/radar/internal/storage"
	"go.uber.org/zap"
)

const systemPrompt = `You are a research planner that creates personalized industry scanning radars.

Given a user's profile (role, industry, audience, geography, priorities, topics to avoid), you must output:

1. A Mermaid quadrantChart diagram showing the distribution of topics that will be covered in reports. The quadrants represent different areas of focus based on the user's priorities.

2. A query plan XML document with:
   - queries: 8-15 focused search query strings that capture the user's interests (these will be used directly)
   - sourcesHint: preferred source types (e.g., "company blogs", "GitHub releases", "news sites")
   - lastLLMPrompt: the exact prompt you received

Output MUST be in exactly two code blocks:
1. First block: ` + "```mermaid" + ` with the quadrantChart
2. Second block: ` + "```xml" + ` with the query plan document using this structure:

<queryPlan>
  <queries>
    <query>...</query>
  </queries>
  <sourcesHint>
    <source>...</source>
  </sourcesHint>
  <lastLLMPrompt>...</lastLLMPrompt>
</queryPlan>

The quadrantChart uses this structure:
quadrantChart
    title Distribution of Topics
    x-axis Low Relevance --> High Relevance
    y-axis Low Priority --> High Priority
    quadrant-1 Focus Areas
    quadrant-2 Key Topics
    quadrant-3 Watchlist
    quadrant-4 Secondary Interests
    Topic 1: [0.25, 0.75]

Each topic must have unique coordinates between 0.0 and 1.0, spread out within its quadrant.

Generate specific, actionable queries that find recent content. Avoid generic queries. Put query modifiers (site filters, date ranges) directly in the query strings.`

// Generated is one plan generation: the diagram, the plan, and the prompt that produced them.
type Generated struct {
	MermaidDiagram string
	Plan           models.QueryPlan
	UserPrompt     string
}

// Planner generates and stores radar plans.
type Planner struct {
	llm    llm.Completer
	store  storage.Storage
	logger *zap.Logger
}

// New creates a planner. A nil logger is replaced with a no-op logger.
func New(c llm.Completer, store storage.Storage, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{llm: c, store: store, logger: logger}
}

// BuildUserPrompt lists the profile one field per line. Optional fields are omitted
// when empty.
func BuildUserPrompt(p models.RadarProfile) string {
	parts := []string{
		"Role: " + p.Role,
		"Industry: " + p.Industry,
	}
	if p.ProductFocus != "" {
		parts = append(parts, "Product Focus: "+p.ProductFocus)
	}
	parts = append(parts, "Audience: "+p.Audience)
	if len(p.Geography) > 0 {
		parts = append(parts, "Geography: "+strings.Join(p.Geography, ", "))
	}
	if len(p.Priorities) > 0 {
		parts = append(parts, "Priorities: "+strings.Join(p.Priorities, ", "))
	}
	if len(p.Avoid) > 0 {
		parts = append(parts, "Avoid: "+strings.Join(p.Avoid, ", "))
	}
	return strings.Join(parts, "\n")
}

type planDoc struct {
	XMLName       xml.Name `xml:"queryPlan"`
	Queries       []string `xml:"queries>query"`
	Sources       []string `xml:"sourcesHint>source"`
	LastLLMPrompt string   `xml:"lastLLMPrompt"`
}

// ParsePlanResponse reads the ```mermaid and ```xml blocks of a plan response.
// lastLLMPrompt is always set to userPrompt, whatever the model echoed.
func ParsePlanResponse(content, userPrompt string) (*Generated, error) {
	mermaid, okM := llm.FencedBlock(content, "mermaid")
	xmlText, okX := llm.FencedBlock(content, "xml")
	if !okM || !okX {
		return nil, radar.ErrPlanParse
	}

	dec := xml.NewDecoder(strings.NewReader(xmlText))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	var doc planDoc
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", radar.ErrPlanParse, err)
	}

	return &Generated{
		MermaidDiagram: mermaid,
		Plan:           models.NewQueryPlan(trimAll(doc.Queries), trimAll(doc.Sources), userPrompt),
		UserPrompt:     userPrompt,
	}, nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Generate asks the LLM for a plan for profile. Non-empty notes are appended to the
// prompt as refinement notes.
func (p *Planner) Generate(ctx context.Context, profile models.RadarProfile, notes string) (*Generated, error) {
	prompt := BuildUserPrompt(profile)
	if notes != "" {
		prompt += "\n\nRefinement notes: " + notes
	}
	out, err := p.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: systemPrompt,
		Purpose:      "plan",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan: %w", err)
	}
	gen, err := ParsePlanResponse(out.Content, prompt)
	if err != nil {
		p.logger.Warn("plan.parse.error", zap.Error(err), zap.Int("response_len", len(out.Content)))
		return nil, err
	}
	p.logger.Info("plan.generated",
		zap.Int("queries", len(gen.Plan.Queries)),
		zap.Int("final_queries", len(gen.Plan.FinalQueries)),
		zap.Int("sources", len(gen.Plan.SourcesHint)))
	return gen, nil
}

// CreateInput is a create-or-regenerate request.
type CreateInput struct {
	RadarID string
	OwnerID string
	Title   string
	Profile *models.RadarProfile
}

// Create generates a plan for in.Profile and stores it on the radar, creating the radar
// when RadarID is empty or unknown. The plan is stored in its JSON string form.
func (p *Planner) Create(ctx context.Context, in CreateInput) (*models.Radar, error) {
	if in.Profile == nil {
		return nil, radar.Invalid("profile is required")
	}
	if err := in.Profile.Validate(); err != nil {
		return nil, radar.Invalid("%s", err.Error())
	}

	var existing *models.Radar
	if in.RadarID != "" {
		r, err := p.store.GetRadar(ctx, in.RadarID)
		switch {
		case err == nil:
			existing = r
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to load radar: %w", err)
		}
	}
	if existing == nil && in.OwnerID == "" {
		return nil, radar.Invalid("ownerId is required to create a radar")
	}

	gen, err := p.Generate(ctx, *in.Profile, "")
	if err != nil {
		return nil, err
	}
	planJSON, err := json.Marshal(gen.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}

	title := in.Title
	if title == "" {
		title = in.Profile.DefaultTitle()
	}

	if existing != nil {
		existing.Profile = *in.Profile
		existing.Title = title
		existing.MermaidDiagram = gen.MermaidDiagram
		existing.QueryPlan = models.RawPlan(string(planJSON))
		if err := p.store.UpdateRadar(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update radar: %w", err)
		}
		return existing, nil
	}

	id := in.RadarID
	if id == "" {
		id = uuid.New().String()
	}
	r := &models.Radar{
		ID:             id,
		OwnerID:        in.OwnerID,
		Title:          title,
		Profile:        *in.Profile,
		MermaidDiagram: gen.MermaidDiagram,
		QueryPlan:      models.RawPlan(string(planJSON)),
		Settings:       models.DefaultRadarSettings(),
	}
	if err := p.store.CreateRadar(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to create radar: %w", err)
	}
	return r, nil
}

// RefineResult is a refined radar plus the diagram it replaced.
type RefineResult struct {
	Radar                  *models.Radar
	PreviousMermaidDiagram string
}

// Refine regenerates a radar's plan with refinement notes. A non-nil profile replaces
// the stored one first. The new plan is stored parsed.
func (p *Planner) Refine(ctx context.Context, radarID, message string, profile *models.RadarProfile) (*RefineResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, radar.Invalid("refinementMessage is required")
	}
	r, err := p.store.GetRadar(ctx, radarID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, radar.ErrRadarNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load radar: %w", err)
	}
	if profile != nil {
		r.Profile = *profile
	}

	gen, err := p.Generate(ctx, r.Profile, message)
	if err != nil {
		return nil, err
	}
	previous := r.MermaidDiagram
	r.MermaidDiagram = gen.MermaidDiagram
	r.QueryPlan = models.ParsedPlan(gen.Plan)
	if err := p.store.UpdateRadar(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update radar: %w", err)
	}
	return &RefineResult{Radar: r, PreviousMermaidDiagram: previous}, nil
}
