package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prodpulse/prodpulse/internal/models"
)

// Completer is the generative-text capability the classifier consumes.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, jsonResponse bool) (string, error)
}

const classifySystemPrompt = `You classify consumer product commentary.

For every input text, in the same order as given, produce one object with:
- "sentiment": exactly one of "positive", "neutral", "negative"
- "confidence": a number between 0 and 1
- "aspects": an object mapping any of the aspect keys
  price, battery, camera, performance, design, availability, software,
  support, other
  to the sentiment label expressed about that aspect. Omit aspects the text
  does not mention.

Respond only with a valid JSON object of the form:
{"results": [{"sentiment": "...", "confidence": 0.0, "aspects": {}}]}

The "results" array must contain exactly one object per input text, in input
order.`

// Classifier runs batched sentiment/aspect classification against a
// generative provider. Any failure, from transport errors to schema
// violations on a single item, is returned to the caller, which is expected
// to fall back to the lexicon path for the whole batch.
type Classifier struct {
	completer Completer
}

func NewClassifier(completer Completer) *Classifier {
	return &Classifier{completer: completer}
}

// Classify returns one result per input text, preserving input order.
func (c *Classifier) Classify(ctx context.Context, texts []string) ([]models.SentimentResult, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var prompt strings.Builder
	prompt.WriteString(fmt.Sprintf("Classify the following %d texts.\n", len(texts)))
	for i, text := range texts {
		prompt.WriteString(fmt.Sprintf("\n[%d] %s", i+1, text))
	}

	raw, err := c.completer.Complete(ctx, classifySystemPrompt, prompt.String(), true)
	if err != nil {
		return nil, fmt.Errorf("[Classifier] completion failed: %w", err)
	}

	var response struct {
		Results []sentimentPayload `json:"results"`
	}
	if err := json.Unmarshal([]byte(cleanResponse(raw)), &response); err != nil {
		return nil, fmt.Errorf("[Classifier] failed to unmarshal response: %w", err)
	}
	if len(response.Results) != len(texts) {
		return nil, fmt.Errorf("[Classifier] result count mismatch: got %d, want %d",
			len(response.Results), len(texts))
	}

	results := make([]models.SentimentResult, len(texts))
	for i, payload := range response.Results {
		result, err := parseSentimentPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("[Classifier] item %d: %w", i, err)
		}
		results[i] = result
	}
	return results, nil
}

// cleanResponse strips markdown code fences some models wrap JSON in.
func cleanResponse(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "\n"), "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimPrefix(cleaned, "\n"), "```")
	}
	return strings.TrimSpace(cleaned)
}
