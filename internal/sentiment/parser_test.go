package sentiment

import (
	"errors"
	"testing"
)

func floatPtr(f float64) *float64 { return &f }

func TestParseSentimentPayload_DropsUnknownAspects(t *testing.T) {
	result, err := parseSentimentPayload(sentimentPayload{
		Sentiment:  "positive",
		Confidence: floatPtr(0.9),
		Aspects: map[string]string{
			"battery":     "positive",
			"waterproof":  "positive",
			"screen_size": "negative",
			"price":       "negative",
		},
	})
	if err != nil {
		t.Fatalf("parseSentimentPayload: %v", err)
	}
	if len(result.Aspects) != 2 {
		t.Fatalf("got %d aspects, want 2: %v", len(result.Aspects), result.Aspects)
	}
	if result.Aspects["battery"] != "positive" || result.Aspects["price"] != "negative" {
		t.Errorf("kept aspects wrong: %v", result.Aspects)
	}
}

func TestParseSentimentPayload_UnsupportedSentiment(t *testing.T) {
	_, err := parseSentimentPayload(sentimentPayload{
		Sentiment:  "euphoric",
		Confidence: floatPtr(0.5),
	})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want *ParseError", err)
	}
}

func TestParseSentimentPayload_MissingConfidence(t *testing.T) {
	_, err := parseSentimentPayload(sentimentPayload{Sentiment: "neutral"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want *ParseError", err)
	}
}

func TestParseSentimentPayload_EmptyAspectsOK(t *testing.T) {
	result, err := parseSentimentPayload(sentimentPayload{
		Sentiment:  "negative",
		Confidence: floatPtr(0.3),
	})
	if err != nil {
		t.Fatalf("parseSentimentPayload: %v", err)
	}
	if len(result.Aspects) != 0 {
		t.Errorf("Aspects = %v, want empty", result.Aspects)
	}
}
