package vectorstore

import (
	"context"
	"testing"
)

func TestConnect_UnconfiguredEndpointDegrades(t *testing.T) {
	gateway := NewGateway("", "", 1536)
	if gateway.Connect(context.Background()) {
		t.Fatal("Connect = true for an empty endpoint")
	}
}

func TestUpsert_DegradedReturnsSyntheticID(t *testing.T) {
	gateway := NewGateway("", "", 1536)
	gateway.Connect(context.Background())

	id, err := gateway.Upsert(context.Background(), "", []float32{0.1, 0.2}, CommentMetadata{
		CommentID: 1,
		Product:   "Pixel 9",
		Platform:  "reddit",
		Sentiment: "positive",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id == "" {
		t.Fatal("got empty id, want a synthetic identity")
	}
}

func TestUpsert_DegradedReusesExistingID(t *testing.T) {
	gateway := NewGateway("", "", 1536)

	id, err := gateway.Upsert(context.Background(), "vec-known", []float32{0.1}, CommentMetadata{})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if id != "vec-known" {
		t.Fatalf("got %q, want vec-known", id)
	}
}

func TestNearest_DegradedReturnsEmpty(t *testing.T) {
	gateway := NewGateway("", "", 1536)

	matches, err := gateway.Nearest(context.Background(), []float32{0.1, 0.2}, 5)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", matches)
	}
}
