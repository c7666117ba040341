package classification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prodpulse/prodpulse/internal/db"
	"github.com/prodpulse/prodpulse/internal/models"
	"github.com/prodpulse/prodpulse/internal/sentiment"
	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

type classifier interface {
	Classify(ctx context.Context, texts []string) ([]models.SentimentResult, error)
}

type embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type vectorIndex interface {
	Upsert(ctx context.Context, existingID string, vector []float32, meta vectorstore.CommentMetadata) (string, error)
}

// Orchestrator classifies pending comments and keeps the relational store
// and the vector index in step. Comments are mutated one at a time, each in
// a single write that sets sentiment, confidence, aspects, vector identity
// and processed together; a failure mid-batch leaves earlier comments
// committed and later ones still selectable on the next run.
type Orchestrator struct {
	store      db.Store
	classifier classifier
	embedder   embedder
	vectors    vectorIndex
}

func NewOrchestrator(store db.Store, classifier classifier, embedder embedder, vectors vectorIndex) *Orchestrator {
	return &Orchestrator{
		store:      store,
		classifier: classifier,
		embedder:   embedder,
		vectors:    vectors,
	}
}

// Run classifies every unprocessed comment, optionally restricted to ids.
// Ids naming already-processed comments are silently ignored. No pending
// comments is a clean no-op.
func (o *Orchestrator) Run(ctx context.Context, commentIDs []int64) error {
	comments, err := o.store.ListUnprocessedComments(ctx, commentIDs)
	if err != nil {
		return fmt.Errorf("[Classification] failed to load pending comments: %w", err)
	}
	if len(comments) == 0 {
		slog.Info("[Classification] No comments pending classification")
		return nil
	}

	slog.Info("[Classification] Classifying batch", slog.Int("size", len(comments)))

	bodies := make([]string, len(comments))
	for i, comment := range comments {
		bodies[i] = comment.Body
	}

	results, err := o.classifier.Classify(ctx, bodies)
	if err != nil {
		slog.Warn("[Classification] Generative classification failed; using fallback",
			slog.String("error", err.Error()))
		results = sentiment.Fallback(bodies)
	}

	vectors, err := o.embedder.Embed(ctx, bodies)
	if err != nil {
		return fmt.Errorf("[Classification] failed to embed batch: %w", err)
	}
	if len(vectors) != len(comments) || len(results) != len(comments) {
		return fmt.Errorf("[Classification] batch misalignment: %d comments, %d results, %d vectors",
			len(comments), len(results), len(vectors))
	}

	for i, comment := range comments {
		result := results[i]

		aspectKeys := make([]string, 0, len(result.Aspects))
		for aspect := range result.Aspects {
			aspectKeys = append(aspectKeys, aspect)
		}

		existingID := ""
		if comment.VectorID != nil {
			existingID = *comment.VectorID
		}

		vectorID, err := o.vectors.Upsert(ctx, existingID, vectors[i], vectorstore.CommentMetadata{
			CommentID: comment.ID,
			Product:   comment.Product,
			Platform:  comment.Platform,
			Sentiment: result.Sentiment,
			Aspects:   aspectKeys,
			Text:      comment.Body,
		})
		if err != nil {
			return fmt.Errorf("[Classification] vector upsert failed for comment %d: %w", comment.ID, err)
		}

		confidence := int(result.Confidence * 100)
		if err := o.store.MarkClassified(ctx, comment.ID, result.Sentiment, confidence, result.Aspects, vectorID); err != nil {
			return fmt.Errorf("[Classification] failed to persist classification for comment %d: %w", comment.ID, err)
		}
	}

	slog.Info("[Classification] Batch complete", slog.Int("classified", len(comments)))
	return nil
}
