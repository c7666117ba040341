package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/prodpulse/prodpulse/internal/db"
	"github.com/prodpulse/prodpulse/internal/discovery"
	"github.com/prodpulse/prodpulse/internal/metrics"
	"github.com/prodpulse/prodpulse/internal/models"
	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

const defaultSearchLimit = 5

type ingestRunner interface {
	Run(ctx context.Context, products []string) error
}

type classifyRunner interface {
	Run(ctx context.Context, commentIDs []int64) error
}

type summarizer interface {
	Summarize(ctx context.Context, product string, bodies []string) (models.ProductSummary, error)
}

type searcher interface {
	Search(ctx context.Context, query string, limit int) ([]vectorstore.Match, error)
}

// Deps carries everything the HTTP surface needs. The API reports coarse
// batch outcomes only; per-row failures stay observable through unprocessed
// rows, not through responses.
type Deps struct {
	Store           db.Store
	Aliases         *discovery.AliasExpander
	Discovery       *discovery.Engine
	Ingestion       ingestRunner
	Classification  classifyRunner
	Metrics         *metrics.Aggregator
	Summarizer      summarizer
	Search          searcher
	DefaultProducts []string
}

func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Post("/discover", handleDiscover(deps))
	r.Post("/ingest", handleIngest(deps))
	r.Post("/classify", handleClassify(deps))
	r.Get("/metrics", handleMetrics(deps))
	r.Get("/summary", handleSummary(deps))
	r.Get("/search", handleSearch(deps))
	r.Get("/health", handleHealth)

	return r
}

type productsRequest struct {
	Products []string `json:"products"`
}

func handleDiscover(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, ok := decodeProducts(w, r, nil)
		if !ok {
			return
		}

		aliases := deps.Aliases.Expand(r.Context(), products)
		terms := flattenAliases(products, aliases)

		writeJSON(w, http.StatusOK, deps.Discovery.Discover(r.Context(), terms))
	}
}

func handleIngest(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, ok := decodeProducts(w, r, deps.DefaultProducts)
		if !ok {
			return
		}

		if err := deps.Ingestion.Run(r.Context(), products); err != nil {
			httpError(w, http.StatusInternalServerError, "ingestion aborted: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "queued",
			"products": products,
		})
	}
}

type classifyRequest struct {
	CommentIDs []int64 `json:"comment_ids"`
}

func handleClassify(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req classifyRequest
		if r.Body != nil {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
				httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
				return
			}
		}

		if err := deps.Classification.Run(r.Context(), req.CommentIDs); err != nil {
			httpError(w, http.StatusInternalServerError, "classification failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
	}
}

func handleMetrics(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		products := queryProducts(r)

		sentimentDist, err := deps.Metrics.SentimentDistribution(ctx, products)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "metrics query failed: %v", err)
			return
		}
		voiceShare, err := deps.Metrics.VoiceShare(ctx, products)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "metrics query failed: %v", err)
			return
		}
		aspects, err := deps.Metrics.AspectSentiment(ctx, products)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "metrics query failed: %v", err)
			return
		}
		comparatives, err := deps.Metrics.Comparatives(ctx)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "metrics query failed: %v", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"sentiment":    sentimentDist,
			"voice_share":  voiceShare,
			"aspects":      aspects,
			"comparatives": comparatives,
		})
	}
}

func handleSummary(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		products := queryProducts(r)
		if len(products) == 0 {
			products = deps.DefaultProducts
		}

		var summaries []models.ProductSummary
		for _, product := range products {
			bodies, err := deps.Store.ListRecentBodies(ctx, product, 200)
			if err != nil {
				httpError(w, http.StatusInternalServerError, "failed to load comments: %v", err)
				return
			}
			if len(bodies) == 0 {
				continue
			}
			productSummary, err := deps.Summarizer.Summarize(ctx, product, bodies)
			if err != nil {
				slog.Warn("[API] Summary generation failed, skipping product",
					slog.String("product", product),
					slog.String("error", err.Error()))
				continue
			}
			summaries = append(summaries, productSummary)
		}
		writeJSON(w, http.StatusOK, summaries)
	}
}

func handleSearch(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("query"))
		if query == "" {
			httpError(w, http.StatusBadRequest, "query parameter is required")
			return
		}
		limit := defaultSearchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				httpError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = parsed
		}

		matches, err := deps.Search.Search(r.Context(), query, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "search failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeProducts reads the products payload, trimming blanks. When the
// cleaned list is empty it falls back to defaults, or rejects the request
// when no defaults apply.
func decodeProducts(w http.ResponseWriter, r *http.Request, defaults []string) ([]string, bool) {
	var req productsRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return nil, false
		}
	}

	var products []string
	for _, product := range req.Products {
		if product = strings.TrimSpace(product); product != "" {
			products = append(products, product)
		}
	}
	if len(products) == 0 {
		if len(defaults) == 0 {
			httpError(w, http.StatusBadRequest, "at least one product required")
			return nil, false
		}
		products = defaults
	}
	return products, true
}

// flattenAliases walks products in request order so repeated requests build
// the same term list; map iteration would reshuffle it per call.
func flattenAliases(products []string, aliases map[string][]string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, product := range products {
		for _, alias := range aliases[product] {
			if _, exists := seen[alias]; exists {
				continue
			}
			seen[alias] = struct{}{}
			terms = append(terms, alias)
		}
	}
	return terms
}

func queryProducts(r *http.Request) []string {
	var products []string
	for _, product := range r.URL.Query()["products"] {
		if product = strings.TrimSpace(product); product != "" {
			products = append(products, product)
		}
	}
	return products
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("[API] Failed to encode response", slog.String("error", err.Error()))
	}
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
