package search

import (
	"context"
	"errors"
	"testing"

	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ []string) ([][]float32, error) {
	return f.vectors, f.err
}

type fakeIndex struct {
	gotVector []float32
	gotLimit  int
	matches   []vectorstore.Match
}

func (f *fakeIndex) Nearest(_ context.Context, vector []float32, limit int) ([]vectorstore.Match, error) {
	f.gotVector = vector
	f.gotLimit = limit
	return f.matches, nil
}

func TestSearch_EmbedsQueryAndDelegates(t *testing.T) {
	index := &fakeIndex{matches: []vectorstore.Match{{ID: "vec-1", Distance: 0.3}}}
	service := NewService(&fakeEmbedder{vectors: [][]float32{{0.1, 0.2}}}, index)

	matches, err := service.Search(context.Background(), "battery life", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "vec-1" {
		t.Fatalf("matches = %v, want the index results", matches)
	}
	if index.gotLimit != 5 {
		t.Errorf("limit = %d, want 5", index.gotLimit)
	}
	if len(index.gotVector) != 2 {
		t.Errorf("vector = %v, want the embedded query", index.gotVector)
	}
}

func TestSearch_EmbedFailurePropagates(t *testing.T) {
	service := NewService(&fakeEmbedder{err: errors.New("quota exceeded")}, &fakeIndex{})
	if _, err := service.Search(context.Background(), "query", 5); err == nil {
		t.Fatal("got nil error, want embed failure")
	}
}

func TestSearch_UnexpectedVectorCountFails(t *testing.T) {
	service := NewService(&fakeEmbedder{vectors: [][]float32{{0.1}, {0.2}}}, &fakeIndex{})
	if _, err := service.Search(context.Background(), "query", 5); err == nil {
		t.Fatal("got nil error, want vector count failure")
	}
}
