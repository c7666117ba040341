package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prodpulse/prodpulse/config"
	"github.com/prodpulse/prodpulse/internal/api"
	"github.com/prodpulse/prodpulse/internal/classification"
	"github.com/prodpulse/prodpulse/internal/clients"
	"github.com/prodpulse/prodpulse/internal/db"
	"github.com/prodpulse/prodpulse/internal/discovery"
	"github.com/prodpulse/prodpulse/internal/ingestion"
	"github.com/prodpulse/prodpulse/internal/logging"
	"github.com/prodpulse/prodpulse/internal/metrics"
	"github.com/prodpulse/prodpulse/internal/search"
	"github.com/prodpulse/prodpulse/internal/sentiment"
	"github.com/prodpulse/prodpulse/internal/summary"
	"github.com/prodpulse/prodpulse/internal/vectorstore"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.InitDB(ctx, cfg)
	if err != nil {
		slog.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		slog.Error("Failed to ensure schema", slog.String("error", err.Error()))
		os.Exit(1)
	}

	vectors := vectorstore.NewGateway(cfg.MilvusEndpoint, cfg.MilvusAPIKey, cfg.EmbeddingDim)
	if !vectors.Connect(ctx) {
		slog.Warn("Vector store running in degraded mode")
	}
	defer vectors.Close()

	valkey := clients.InitValkey(cfg.ValkeyAddress, cfg.ValkeyPassword)
	defer valkey.Close()

	openAI := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModelSentiment, cfg.OpenAIEmbeddingModel)
	summaryAI := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModelSummary, cfg.OpenAIEmbeddingModel)
	reddit := clients.NewRedditClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditUserAgent)
	youtube := clients.NewYouTubeClient(cfg.YouTubeAPIKey)

	store := db.NewPostgresStore(pool)
	aliases := discovery.NewAliasExpander(openAI)

	deps := api.Deps{
		Store:           store,
		Aliases:         aliases,
		Discovery:       discovery.NewEngine(aliases, reddit, youtube),
		Ingestion:       ingestion.NewEngine(store, reddit, youtube, valkey),
		Classification:  classification.NewOrchestrator(store, sentiment.NewClassifier(openAI), openAI, vectors),
		Metrics:         metrics.NewAggregator(pool),
		Summarizer:      summary.NewSummarizer(summaryAI),
		Search:          search.NewService(openAI, vectors),
		DefaultProducts: cfg.DefaultProducts,
	}

	addr := ":" + getPort()
	server := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Starting HTTP server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Forced shutdown", slog.String("error", err.Error()))
	}
}

func getPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8080"
}
