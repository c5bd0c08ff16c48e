package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/andresuchdata/stockcast/internal/config"
	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

var ErrNoContent = errors.New("no text content received from AI")

// Narrator explains a reorder suggestion in a couple of sentences.
type Narrator interface {
	Enabled() bool
	Explain(ctx context.Context, p *domain.Product, s domain.ReorderSuggestion) (string, error)
	Close() error
}

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// NewNarrator returns a Gemini narrator, or a disabled one when no API key
// is configured.
func NewNarrator(ctx context.Context, cfg config.AIConfig) (Narrator, error) {
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return Disabled{}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultModel
	}
	model := client.GenerativeModel(name)
	model.SetTemperature(0.2)
	model.SetMaxOutputTokens(256)

	log.Info().Str("model", name).Msg("AI narrator enabled")
	return &GeminiNarrator{client: client, model: model}, nil
}

// Disabled never produces an insight.
type Disabled struct{}

func (Disabled) Enabled() bool { return false }

func (Disabled) Explain(context.Context, *domain.Product, domain.ReorderSuggestion) (string, error) {
	return "", nil
}

func (Disabled) Close() error { return nil }

type GeminiNarrator struct {
	client *genai.Client
	model  generator
}

func (g *GeminiNarrator) Enabled() bool { return true }

func (g *GeminiNarrator) Explain(ctx context.Context, p *domain.Product, s domain.ReorderSuggestion) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(p, s)))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiNarrator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// BuildPrompt describes the product and the suggestion for the model.
func BuildPrompt(p *domain.Product, s domain.ReorderSuggestion) string {
	var b strings.Builder
	b.WriteString("You are an inventory analyst for a small retail shop. ")
	b.WriteString("In at most two short sentences, explain the reorder advice below to the shop owner. ")
	b.WriteString("Do not invent numbers that are not given.\n\n")

	name := s.ProductName
	if name == "" {
		name = fmt.Sprintf("product #%d", s.ProductID)
	}
	fmt.Fprintf(&b, "Product: %s\n", name)
	if p != nil && p.SKU != "" {
		fmt.Fprintf(&b, "SKU: %s\n", p.SKU)
	}
	fmt.Fprintf(&b, "Current stock: %d units (minimum level %d)\n", s.CurrentStock, s.MinStockLevel)
	if math.IsInf(float64(s.DaysOfSupply), 1) {
		b.WriteString("Days of supply: no recent demand\n")
	} else {
		fmt.Fprintf(&b, "Days of supply: %.1f\n", float64(s.DaysOfSupply))
	}
	fmt.Fprintf(&b, "Forecast demand: %.1f units next 7 days, %.1f units next 30 days\n", s.PredictedDemand7d, s.PredictedDemand30d)
	if p != nil && p.PromotionActive {
		fmt.Fprintf(&b, "Promotion running at %.0f%% discount\n", p.CurrentDiscount)
	}
	if s.NeedsReorder {
		fmt.Fprintf(&b, "Decision: reorder %d units (urgency %s)\n", s.SuggestedQuantity, s.Urgency)
	} else {
		b.WriteString("Decision: no reorder\n")
	}
	fmt.Fprintf(&b, "Reason: %s\n", s.Reason)
	fmt.Fprintf(&b, "Forecast confidence: %s\n", s.Confidence)
	return b.String()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoContent
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", ErrNoContent
	}
	return out, nil
}
