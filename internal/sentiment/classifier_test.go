package sentiment

import (
	"context"
	"errors"
	"testing"
)

type mockCompleter struct {
	response string
	err      error
	gotUser  string
}

func (m *mockCompleter) Complete(_ context.Context, _, userPrompt string, _ bool) (string, error) {
	m.gotUser = userPrompt
	return m.response, m.err
}

func TestClassify_FencedJSONInOrder(t *testing.T) {
	mock := &mockCompleter{response: "```json\n" + `{"results": [
		{"sentiment": "positive", "confidence": 0.92, "aspects": {"camera": "positive"}},
		{"sentiment": "negative", "confidence": 0.71, "aspects": {"battery": "negative"}}
	]}` + "\n```"}
	classifier := NewClassifier(mock)

	results, err := classifier.Classify(context.Background(), []string{"great camera", "battery dies fast"})
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Sentiment != "positive" || results[1].Sentiment != "negative" {
		t.Errorf("order not preserved: %q, %q", results[0].Sentiment, results[1].Sentiment)
	}
	if results[0].Aspects["camera"] != "positive" {
		t.Errorf("aspects = %v, want camera:positive", results[0].Aspects)
	}
	if results[0].Fallback || results[1].Fallback {
		t.Error("Fallback set on generative results")
	}
}

func TestClassify_InvalidJSON(t *testing.T) {
	classifier := NewClassifier(&mockCompleter{response: "sorry, I cannot help with that"})
	if _, err := classifier.Classify(context.Background(), []string{"text"}); err == nil {
		t.Fatal("got nil error, want unmarshal failure")
	}
}

func TestClassify_CountMismatch(t *testing.T) {
	classifier := NewClassifier(&mockCompleter{
		response: `{"results": [{"sentiment": "neutral", "confidence": 0.5, "aspects": {}}]}`,
	})
	if _, err := classifier.Classify(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("got nil error, want count mismatch")
	}
}

func TestClassify_CompleterError(t *testing.T) {
	classifier := NewClassifier(&mockCompleter{err: errors.New("rate limited")})
	if _, err := classifier.Classify(context.Background(), []string{"text"}); err == nil {
		t.Fatal("got nil error, want completion failure")
	}
}

func TestClassify_EmptyBatch(t *testing.T) {
	mock := &mockCompleter{}
	classifier := NewClassifier(mock)
	results, err := classifier.Classify(context.Background(), nil)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if results != nil {
		t.Errorf("got %v, want nil", results)
	}
	if mock.gotUser != "" {
		t.Error("completer called for empty batch")
	}
}

func TestClassify_ItemParseFailure(t *testing.T) {
	classifier := NewClassifier(&mockCompleter{
		response: `{"results": [{"sentiment": "positive", "aspects": {}}]}`,
	})
	_, err := classifier.Classify(context.Background(), []string{"text"})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("got %v, want wrapped *ParseError", err)
	}
}
