// Package narration adapts LLM providers to the analytics Narrator contract.
package narration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.0-flash"

const basePrompt = "You are a sales analyst for a distribution business writing for senior management. " +
	"Answer in at most three short paragraphs of plain text. " +
	"Do not invent numbers that are not in the JSON summary you receive. "

// kindPrompts describes each summary kind to the model
var kindPrompts = map[analytics.SummaryKind]string{
	analytics.SummaryForecast: "The summary holds monthly actual and forecast volume for one series. " +
		"Describe the recent trend, the expected direction of the forecast and any notable months.",
	analytics.SummaryConcentration: "The summary lists the largest customers of a period with their share of volume. " +
		"Assess how dependent the business is on its top customers and the risk that concentration carries.",
	analytics.SummaryCreditRatio: "The summary breaks revenue down by payment mode and sales channel. " +
		"Assess the balance of credit against cash sales and which channels drive credit exposure.",
	analytics.SummaryRegional: "The summary ranks regions by volume with month-over-month and year-over-year growth. " +
		"Point out the strongest and weakest regions and where growth is changing.",
	analytics.SummaryArea: "The summary ranks sales areas by volume with month-over-month and year-over-year growth. " +
		"Point out the strongest and weakest areas and where growth is changing.",
	analytics.SummaryTerritory: "The summary lists the top and bottom territories by volume with their growth. " +
		"Contrast the leaders with the laggards and suggest where attention is needed.",
}

// systemPrompt returns the instruction for kind
func systemPrompt(kind analytics.SummaryKind) string {
	if p, ok := kindPrompts[kind]; ok {
		return basePrompt + p
	}
	return basePrompt + "Describe the most important findings."
}

// ErrMissingAPIKey is returned when the narrator is built without credentials
var ErrMissingAPIKey = errors.New("narration: API key is required")

// contentGenerator is the part of the GenAI client the narrator needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig configures the Gemini narrator
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// GeminiNarrator implements analytics.Narrator on Google's Gemini models
type GeminiNarrator struct {
	models  contentGenerator
	model   string
	timeout time.Duration
}

var _ analytics.Narrator = (*GeminiNarrator)(nil)

// NewGeminiNarrator creates a narrator backed by the Gemini API
func NewGeminiNarrator(ctx context.Context, cfg GeminiConfig) (*GeminiNarrator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGeminiNarrator(client.Models, cfg), nil
}

func newGeminiNarrator(models contentGenerator, cfg GeminiConfig) *GeminiNarrator {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &GeminiNarrator{models: models, model: model, timeout: cfg.Timeout}
}

// Narrate asks the model for prose describing summary.
// Every failure is reported as ErrCollaboratorUnavailable.
func (n *GeminiNarrator) Narrate(ctx context.Context, kind analytics.SummaryKind, summary []byte) (string, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt(kind)}},
		},
	}

	result, err := n.models.GenerateContent(ctx, n.model, genai.Text(string(summary)), config)
	if err != nil {
		return "", analytics.ErrCollaboratorUnavailable.WithMessage("gemini generation failed").Wrap(err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", analytics.ErrCollaboratorUnavailable.WithMessage("gemini returned no text")
	}
	return text, nil
}
