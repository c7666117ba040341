package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const collectionName = "product_comment"

// CommentMetadata is the payload stored beside each vector.
type CommentMetadata struct {
	CommentID int64    `json:"comment_id"`
	Product   string   `json:"product"`
	Platform  string   `json:"platform"`
	Sentiment string   `json:"sentiment"`
	Aspects   []string `json:"aspects"`
	Text      string   `json:"text"`
}

// Match is one nearest-neighbor hit; lower distance means more similar.
type Match struct {
	ID         string         `json:"id"`
	Distance   float32        `json:"distance"`
	Properties map[string]any `json:"properties"`
}

// Gateway owns the single comment collection in the vector store. It is
// constructed with configuration only; Connect establishes the connection
// and reports degraded mode instead of failing when the store is
// unconfigured or unreachable. In degraded mode upserts hand back a
// synthetic identity and searches return no matches, so the rest of the
// pipeline keeps working without the vector store provisioned.
type Gateway struct {
	endpoint  string
	apiKey    string
	vectorDim int

	client client.Client
}

func NewGateway(endpoint, apiKey string, vectorDim int) *Gateway {
	return &Gateway{
		endpoint:  endpoint,
		apiKey:    apiKey,
		vectorDim: vectorDim,
	}
}

// Connect opens the Milvus connection and ensures the collection exists.
// It returns whether the gateway is live; it never returns an error for an
// unconfigured or unreachable store.
func (g *Gateway) Connect(ctx context.Context) bool {
	if g.endpoint == "" {
		slog.Info("[VectorStore] Endpoint not configured, vector features disabled")
		return false
	}

	c, err := client.NewClient(ctx, client.Config{
		Address: g.endpoint,
		APIKey:  g.apiKey,
	})
	if err != nil {
		slog.Warn("[VectorStore] Failed to connect, vector features disabled",
			slog.String("endpoint", g.endpoint),
			slog.String("error", err.Error()))
		return false
	}
	g.client = c

	if err := g.ensureCollection(ctx); err != nil {
		slog.Warn("[VectorStore] Failed to ensure collection, vector features disabled",
			slog.String("error", err.Error()))
		g.client = nil
		return false
	}

	slog.Info("[VectorStore] Connected",
		slog.String("collection", collectionName),
		slog.Int("dim", g.vectorDim))
	return true
}

func (g *Gateway) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// ensureCollection creates the collection, index and load state if absent.
// Safe to call repeatedly.
func (g *Gateway) ensureCollection(ctx context.Context) error {
	has, err := g.client.HasCollection(ctx, collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if has {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: collectionName,
		Description:    "Classified product comment embeddings",
		Fields: []*entity.Field{
			{
				Name:       "vector_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{"max_length": "64"},
			},
			{
				Name:       "embedding",
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(g.vectorDim)},
			},
			{
				Name:     "comment_id",
				DataType: entity.FieldTypeInt64,
			},
			{
				Name:       "product",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "255"},
			},
			{
				Name:       "platform",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "20"},
			},
			{
				Name:       "sentiment",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "20"},
			},
			{
				Name:       "aspects",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "512"},
			},
			{
				Name:       "text",
				DataType:   entity.FieldTypeVarChar,
				TypeParams: map[string]string{"max_length": "8192"},
			},
		},
	}

	if err := g.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	if err := g.client.CreateIndex(ctx, collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	if err := g.client.LoadCollection(ctx, collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return nil
}

// Upsert writes one vector. A non-empty existingID updates in place; an
// empty one inserts under a fresh identity. The identity actually used is
// returned either way. In degraded mode a synthetic identity is returned
// without touching the store.
func (g *Gateway) Upsert(ctx context.Context, existingID string, vector []float32, meta CommentMetadata) (string, error) {
	id := existingID
	if id == "" {
		id = uuid.NewString()
	}

	if g.client == nil {
		slog.Debug("[VectorStore] Degraded mode, skipping upsert",
			slog.String("vector_id", id))
		return id, nil
	}

	aspects, err := json.Marshal(meta.Aspects)
	if err != nil {
		return "", fmt.Errorf("[VectorStore] failed to marshal aspects: %w", err)
	}

	_, err = g.client.Upsert(ctx, collectionName, "",
		entity.NewColumnVarChar("vector_id", []string{id}),
		entity.NewColumnFloatVector("embedding", g.vectorDim, [][]float32{vector}),
		entity.NewColumnInt64("comment_id", []int64{meta.CommentID}),
		entity.NewColumnVarChar("product", []string{meta.Product}),
		entity.NewColumnVarChar("platform", []string{meta.Platform}),
		entity.NewColumnVarChar("sentiment", []string{meta.Sentiment}),
		entity.NewColumnVarChar("aspects", []string{string(aspects)}),
		entity.NewColumnVarChar("text", []string{meta.Text}),
	)
	if err != nil {
		return "", fmt.Errorf("[VectorStore] failed to upsert vector: %w", err)
	}
	return id, nil
}

// Nearest runs a nearest-neighbor query, returning matches ordered by
// ascending distance. Degraded mode returns an empty list without error.
func (g *Gateway) Nearest(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if g.client == nil {
		slog.Debug("[VectorStore] Degraded mode, returning empty search results")
		return []Match{}, nil
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(16)
	if err != nil {
		return nil, fmt.Errorf("[VectorStore] failed to build search params: %w", err)
	}

	outputFields := []string{"comment_id", "product", "platform", "sentiment", "aspects", "text"}
	results, err := g.client.Search(ctx, collectionName, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, "embedding", entity.L2, limit, sp)
	if err != nil {
		return nil, fmt.Errorf("[VectorStore] search failed: %w", err)
	}

	var matches []Match
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			id, err := result.IDs.GetAsString(i)
			if err != nil {
				continue
			}

			properties := make(map[string]any, len(outputFields))
			for _, field := range outputFields {
				column := result.Fields.GetColumn(field)
				if column == nil {
					continue
				}
				if value, err := column.Get(i); err == nil {
					properties[field] = value
				}
			}

			matches = append(matches, Match{
				ID:         id,
				Distance:   result.Scores[i],
				Properties: properties,
			})
		}
	}
	return matches, nil
}
