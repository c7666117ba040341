package sentiment

import (
	"fmt"

	"github.com/prodpulse/prodpulse/internal/models"
)

// ExpectedAspects is the closed vocabulary of aspect keys. Provider responses
// mentioning anything else get that key silently dropped.
var ExpectedAspects = map[string]struct{}{
	"price":        {},
	"battery":      {},
	"camera":       {},
	"performance":  {},
	"design":       {},
	"availability": {},
	"software":     {},
	"support":      {},
	"other":        {},
}

// ParseError marks a provider payload that failed schema validation.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "sentiment payload parse error: " + e.Reason
}

// sentimentPayload mirrors one item of the provider's structured response.
type sentimentPayload struct {
	Sentiment  string            `json:"sentiment"`
	Confidence *float64          `json:"confidence"`
	Aspects    map[string]string `json:"aspects"`
}

// parseSentimentPayload validates a single response item: sentiment must be
// in the closed set, confidence must be present, and unknown aspect keys are
// filtered out without erroring.
func parseSentimentPayload(payload sentimentPayload) (models.SentimentResult, error) {
	switch payload.Sentiment {
	case models.SentimentPositive, models.SentimentNeutral, models.SentimentNegative:
	default:
		return models.SentimentResult{}, &ParseError{Reason: fmt.Sprintf("unsupported sentiment %q", payload.Sentiment)}
	}
	if payload.Confidence == nil {
		return models.SentimentResult{}, &ParseError{Reason: "missing confidence"}
	}

	aspects := make(map[string]string)
	for aspect, label := range payload.Aspects {
		if _, ok := ExpectedAspects[aspect]; !ok {
			continue
		}
		aspects[aspect] = label
	}

	return models.SentimentResult{
		Sentiment:  payload.Sentiment,
		Confidence: *payload.Confidence,
		Aspects:    aspects,
	}, nil
}

