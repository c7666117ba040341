package classification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prodpulse/prodpulse/internal/models"
	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

type classifiedRow struct {
	sentiment  string
	confidence int
	aspects    map[string]string
	vectorID   string
}

type fakeStore struct {
	pending    []models.Comment
	listErr    error
	classified map[int64]classifiedRow
	markErr    map[int64]error
}

func newFakeStore(pending ...models.Comment) *fakeStore {
	return &fakeStore{
		pending:    pending,
		classified: make(map[int64]classifiedRow),
		markErr:    make(map[int64]error),
	}
}

func (s *fakeStore) GetOrCreateChannel(_ context.Context, channel models.SourceChannel) (models.SourceChannel, error) {
	return channel, nil
}

func (s *fakeStore) TouchChannelPolled(_ context.Context, _ int64) error { return nil }

func (s *fakeStore) ListChannels(_ context.Context, _ string) ([]models.SourceChannel, error) {
	return nil, nil
}

func (s *fakeStore) GetOrCreateContentItem(_ context.Context, item models.ContentItem) (models.ContentItem, error) {
	return item, nil
}

func (s *fakeStore) GetOrCreateComment(_ context.Context, comment models.Comment) (models.Comment, error) {
	return comment, nil
}

func (s *fakeStore) ListUnprocessedComments(_ context.Context, _ []int64) ([]models.Comment, error) {
	return s.pending, s.listErr
}

func (s *fakeStore) MarkClassified(_ context.Context, commentID int64, sentimentLabel string, confidence int, aspects map[string]string, vectorID string) error {
	if err := s.markErr[commentID]; err != nil {
		return err
	}
	s.classified[commentID] = classifiedRow{
		sentiment:  sentimentLabel,
		confidence: confidence,
		aspects:    aspects,
		vectorID:   vectorID,
	}
	return nil
}

func (s *fakeStore) ListRecentBodies(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, nil
}

type fakeClassifier struct {
	results []models.SentimentResult
	err     error
	calls   int
}

func (f *fakeClassifier) Classify(_ context.Context, texts []string) ([]models.SentimentResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i), 1.0}
	}
	return vectors, nil
}

type upsertCall struct {
	existingID string
	meta       vectorstore.CommentMetadata
}

type fakeVectorIndex struct {
	calls   []upsertCall
	failAt  int64
	nextSeq int
}

func (f *fakeVectorIndex) Upsert(_ context.Context, existingID string, _ []float32, meta vectorstore.CommentMetadata) (string, error) {
	if f.failAt != 0 && meta.CommentID == f.failAt {
		return "", errors.New("vector store write failed")
	}
	f.calls = append(f.calls, upsertCall{existingID: existingID, meta: meta})
	if existingID != "" {
		return existingID, nil
	}
	f.nextSeq++
	return fmt.Sprintf("vec-%d", f.nextSeq), nil
}

func pendingComment(id int64, body string) models.Comment {
	return models.Comment{
		ID:       id,
		Platform: models.PlatformReddit,
		Product:  "Pixel 9",
		Body:     body,
	}
}

func TestRun_PersistsGenerativeResults(t *testing.T) {
	store := newFakeStore(pendingComment(1, "great camera"), pendingComment(2, "battery drains fast"))
	classifier := &fakeClassifier{results: []models.SentimentResult{
		{Sentiment: "positive", Confidence: 0.9, Aspects: map[string]string{"camera": "positive"}},
		{Sentiment: "negative", Confidence: 0.8, Aspects: map[string]string{"battery": "negative"}},
	}}
	vectors := &fakeVectorIndex{}

	orch := NewOrchestrator(store, classifier, &fakeEmbedder{}, vectors)
	if err := orch.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.classified) != 2 {
		t.Fatalf("got %d classified comments, want 2", len(store.classified))
	}
	row := store.classified[1]
	if row.sentiment != "positive" || row.confidence != 90 {
		t.Errorf("comment 1 = %+v, want positive/90", row)
	}
	if row.aspects["camera"] != "positive" {
		t.Errorf("comment 1 aspects = %v", row.aspects)
	}
	if row.vectorID == "" {
		t.Error("comment 1 has no vector id")
	}
	if len(vectors.calls) != 2 {
		t.Fatalf("got %d upserts, want 2", len(vectors.calls))
	}
	if vectors.calls[0].meta.Sentiment != "positive" {
		t.Errorf("upsert metadata sentiment = %q", vectors.calls[0].meta.Sentiment)
	}
}

func TestRun_ClassifierFailureFallsBack(t *testing.T) {
	store := newFakeStore(pendingComment(1, "i love this phone"), pendingComment(2, "i hate the battery"))
	classifier := &fakeClassifier{err: errors.New("provider timeout")}

	orch := NewOrchestrator(store, classifier, &fakeEmbedder{}, &fakeVectorIndex{})
	if err := orch.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(store.classified) != 2 {
		t.Fatalf("got %d classified comments, want 2 from fallback", len(store.classified))
	}
	if store.classified[1].sentiment != "positive" {
		t.Errorf("comment 1 sentiment = %q, want positive", store.classified[1].sentiment)
	}
	if store.classified[2].sentiment != "negative" {
		t.Errorf("comment 2 sentiment = %q, want negative", store.classified[2].sentiment)
	}
	if len(store.classified[1].aspects) != 0 {
		t.Errorf("fallback aspects = %v, want empty", store.classified[1].aspects)
	}
}

func TestRun_NoPendingIsNoOp(t *testing.T) {
	store := newFakeStore()
	classifier := &fakeClassifier{}
	embedder := &fakeEmbedder{}

	orch := NewOrchestrator(store, classifier, embedder, &fakeVectorIndex{})
	if err := orch.Run(context.Background(), []int64{1, 2, 3}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if classifier.calls != 0 || embedder.calls != 0 {
		t.Error("providers called with nothing pending")
	}
}

func TestRun_ReusesExistingVectorID(t *testing.T) {
	existing := "vec-previous"
	comment := pendingComment(1, "still a great phone")
	comment.VectorID = &existing

	store := newFakeStore(comment)
	classifier := &fakeClassifier{results: []models.SentimentResult{
		{Sentiment: "positive", Confidence: 0.7, Aspects: map[string]string{}},
	}}
	vectors := &fakeVectorIndex{}

	orch := NewOrchestrator(store, classifier, &fakeEmbedder{}, vectors)
	if err := orch.Run(context.Background(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if vectors.calls[0].existingID != existing {
		t.Errorf("existingID = %q, want %q", vectors.calls[0].existingID, existing)
	}
	if store.classified[1].vectorID != existing {
		t.Errorf("stored vector id = %q, want %q", store.classified[1].vectorID, existing)
	}
}

func TestRun_MidBatchFailureKeepsEarlierCommits(t *testing.T) {
	store := newFakeStore(
		pendingComment(1, "first"),
		pendingComment(2, "second"),
		pendingComment(3, "third"),
	)
	classifier := &fakeClassifier{results: []models.SentimentResult{
		{Sentiment: "neutral", Confidence: 0.5, Aspects: map[string]string{}},
		{Sentiment: "neutral", Confidence: 0.5, Aspects: map[string]string{}},
		{Sentiment: "neutral", Confidence: 0.5, Aspects: map[string]string{}},
	}}
	vectors := &fakeVectorIndex{failAt: 2}

	orch := NewOrchestrator(store, classifier, &fakeEmbedder{}, vectors)
	err := orch.Run(context.Background(), nil)
	if err == nil {
		t.Fatal("got nil error, want vector upsert failure")
	}

	if _, ok := store.classified[1]; !ok {
		t.Error("comment 1 not committed before the failure")
	}
	if _, ok := store.classified[2]; ok {
		t.Error("comment 2 committed despite failed upsert")
	}
	if _, ok := store.classified[3]; ok {
		t.Error("comment 3 committed after the failure")
	}
}

func TestRun_EmbedFailureAborts(t *testing.T) {
	store := newFakeStore(pendingComment(1, "text"))
	classifier := &fakeClassifier{results: []models.SentimentResult{
		{Sentiment: "neutral", Confidence: 0.5, Aspects: map[string]string{}},
	}}

	orch := NewOrchestrator(store, classifier, &fakeEmbedder{err: errors.New("embedding quota")}, &fakeVectorIndex{})
	if err := orch.Run(context.Background(), nil); err == nil {
		t.Fatal("got nil error, want embed failure")
	}
	if len(store.classified) != 0 {
		t.Error("comments committed without vectors")
	}
}
