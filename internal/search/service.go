package search

import (
	"context"
	"fmt"

	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type vectorIndex interface {
	Nearest(ctx context.Context, vector []float32, limit int) ([]vectorstore.Match, error)
}

// Service answers semantic queries by embedding the query text and running a
// nearest-neighbor lookup against the vector index.
type Service struct {
	embedder embedder
	vectors  vectorIndex
}

func NewService(embedder embedder, vectors vectorIndex) *Service {
	return &Service{embedder: embedder, vectors: vectors}
}

// Search returns up to limit matches ordered by ascending distance. With the
// vector store degraded the result is simply empty.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]vectorstore.Match, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("[Search] failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("[Search] expected one query vector, got %d", len(vectors))
	}

	return s.vectors.Nearest(ctx, vectors[0], limit)
}
