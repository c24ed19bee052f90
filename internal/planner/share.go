package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperjump/radar/internal/llm"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/radar"
)

const shareUserPrompt = "Create a share snippet for this item in my voice."

// VoiceProfile describes how a user writes.
type VoiceProfile struct {
	ToneHints     []string `json:"toneHints"`
	SamplePhrases []string `json:"samplePhrases"`
}

// ShareRequest asks for a share snippet for one report item.
type ShareRequest struct {
	ReportID  string             `json:"reportId"`
	ItemIndex *int               `json:"itemIndex"`
	Item      *models.ReportItem `json:"item"`
	Voice     *VoiceProfile      `json:"voiceProfile,omitempty"`
}

// Validate checks the required fields.
func (r *ShareRequest) Validate() error {
	if r.ReportID == "" || r.ItemIndex == nil || r.Item == nil {
		return radar.Invalid("reportId, itemIndex, and item are required")
	}
	return nil
}

// BuildShareSystemPrompt describes the voice and the item to share.
func BuildShareSystemPrompt(item models.ReportItem, voice *VoiceProfile) string {
	tone, phrases := "professional, concise", "none provided"
	if voice != nil {
		if len(voice.ToneHints) > 0 {
			tone = strings.Join(voice.ToneHints, ", ")
		}
		if len(voice.SamplePhrases) > 0 {
			phrases = strings.Join(voice.SamplePhrases, "; ")
		}
	}
	heading := item.Heading()
	if heading == "" {
		heading = "No title"
	}
	return fmt.Sprintf(`You generate short, shareable snippets (140-220 characters) in the user's writing style.

User's voice profile:
- Tone hints: %s
- Sample phrases: %s

Item to share:
- Headline: %s
- Source: %s
- Snippet: %s
- URL: %s

Generate a shareable blip that:
- Is 140-220 characters
- Includes the item's URL
- Matches the user's writing style
- No hashtags unless the user typically uses them
- Engages the reader briefly`, tone, phrases, heading, item.Source, item.Snippet, item.URL)
}

// Share writes a share snippet for req.Item.
func (p *Planner) Share(ctx context.Context, req ShareRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	out, err := p.llm.Complete(ctx, llm.CompletionRequest{
		Prompt:       shareUserPrompt,
		SystemPrompt: BuildShareSystemPrompt(*req.Item, req.Voice),
		Purpose:      "share",
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate snippet: %w", err)
	}
	return strings.TrimSpace(out.Content), nil
}
