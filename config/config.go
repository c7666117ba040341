package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/subosito/gotenv"
)

// Config holds every setting the process needs, resolved once at startup.
// Services receive it by value and never read the environment themselves.
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedditClientID     string
	RedditClientSecret string
	RedditUserAgent    string

	YouTubeAPIKey string

	OpenAIAPIKey         string
	OpenAIModelSentiment string
	OpenAIModelSummary   string
	OpenAIEmbeddingModel string
	EmbeddingDim         int

	// Optional. Empty values put the affected feature in degraded mode.
	MilvusEndpoint string
	MilvusAPIKey   string
	ValkeyAddress  string
	ValkeyPassword string

	DefaultProducts []string
}

// LoadEnv reads config/envs/.env.<env> into the process environment when the
// file exists. Missing files are fine; deployed environments set real vars.
func LoadEnv(env string) {
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		slog.Warn("[Config] No .env file found, using OS environment",
			slog.String("env", env))
	}
}

// Load builds and validates a Config from the environment. Missing required
// variables fail fast rather than surfacing later as broken clients.
func Load() (*Config, error) {
	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUserAgent:    getEnvDefault("REDDIT_USER_AGENT", "prodpulse-bot/0.1"),

		YouTubeAPIKey: os.Getenv("YOUTUBE_API_KEY"),

		OpenAIAPIKey:         os.Getenv("OPENAI_API_KEY"),
		OpenAIModelSentiment: getEnvDefault("OPENAI_MODEL_SENTIMENT", "gpt-4o-mini"),
		OpenAIModelSummary:   getEnvDefault("OPENAI_MODEL_SUMMARY", "gpt-4o"),
		OpenAIEmbeddingModel: getEnvDefault("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),

		MilvusEndpoint: os.Getenv("MILVUS_ENDPOINT"),
		MilvusAPIKey:   os.Getenv("MILVUS_API_KEY"),
		ValkeyAddress:  os.Getenv("VALKEY_INIT_ADDRESS"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),
	}

	dim, err := strconv.Atoi(getEnvDefault("EMBEDDING_DIM", "1536"))
	if err != nil {
		return nil, fmt.Errorf("[Config] invalid EMBEDDING_DIM: %w", err)
	}
	cfg.EmbeddingDim = dim

	products := getEnvDefault("DEFAULT_PRODUCTS", "iPhone 16,iPhone 17")
	for _, p := range strings.Split(products, ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.DefaultProducts = append(cfg.DefaultProducts, p)
		}
	}

	required := map[string]string{
		"DB_HOST":              cfg.DBHost,
		"DB_USER":              cfg.DBUser,
		"DB_PASSWORD":          cfg.DBPassword,
		"DB_NAME":              cfg.DBName,
		"REDDIT_CLIENT_ID":     cfg.RedditClientID,
		"REDDIT_CLIENT_SECRET": cfg.RedditClientSecret,
		"YOUTUBE_API_KEY":      cfg.YouTubeAPIKey,
		"OPENAI_API_KEY":       cfg.OpenAIAPIKey,
	}
	var missing []string
	for name, value := range required {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("[Config] missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	return cfg, nil
}

// DatabaseURL renders the pgx connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
