package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prodpulse/prodpulse/internal/models"
)

const maxCommentsPerSummary = 200

type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonResponse bool) (string, error)
}

const summarizeSystemPrompt = `You summarize consumer feedback about a product.

Respond only with a valid JSON object:
{"overall": "...", "delights": ["..."], "pain_points": ["..."]}

"overall" is a short paragraph. "delights" and "pain_points" each list the
most frequently praised and criticized points, most common first.`

// Summarizer produces per-product feedback summaries from stored comment
// bodies.
type Summarizer struct {
	completer Completer
}

func NewSummarizer(completer Completer) *Summarizer {
	return &Summarizer{completer: completer}
}

// Summarize condenses up to 200 comment bodies into an overall summary plus
// delight/pain-point lists capped at five entries each.
func (s *Summarizer) Summarize(ctx context.Context, product string, bodies []string) (models.ProductSummary, error) {
	if len(bodies) > maxCommentsPerSummary {
		bodies = bodies[:maxCommentsPerSummary]
	}

	prompt := fmt.Sprintf("Product: %s\n\nComments:\n%s", product, strings.Join(bodies, "\n"))
	raw, err := s.completer.Complete(ctx, summarizeSystemPrompt, prompt, true)
	if err != nil {
		return models.ProductSummary{}, fmt.Errorf("[Summarizer] completion failed: %w", err)
	}

	var payload struct {
		Overall    *string  `json:"overall"`
		Delights   []string `json:"delights"`
		PainPoints []string `json:"pain_points"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return models.ProductSummary{}, fmt.Errorf("[Summarizer] failed to parse response: %w", err)
	}
	if payload.Overall == nil {
		return models.ProductSummary{}, fmt.Errorf("[Summarizer] response missing overall summary")
	}

	return models.ProductSummary{
		Product:    product,
		Overall:    *payload.Overall,
		Delights:   capList(payload.Delights, 5),
		PainPoints: capList(payload.PainPoints, 5),
	}, nil
}

func capList(items []string, max int) []string {
	if len(items) > max {
		return items[:max]
	}
	return items
}
