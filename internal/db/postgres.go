package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodpulse/prodpulse/config"
)

// InitDB opens the connection pool and verifies connectivity.
func InitDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("[DB] unable to create connection pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("[DB] failed to ping PostgreSQL: %w", err)
	}

	slog.Info("[DB] Connected to PostgreSQL successfully")
	return pool, nil
}

// EnsureSchema creates the tables and unique constraints if absent. The
// unique constraints are the final safety net behind every resolve-or-create
// in the ingestion engine.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS source_channel (
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(20) NOT NULL,
			channel_id VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			meta_data JSONB,
			last_polled_at TIMESTAMPTZ,
			CONSTRAINT uq_platform_channel UNIQUE (platform, channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS content_item (
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(20) NOT NULL,
			item_id VARCHAR(255) NOT NULL,
			product VARCHAR(255) NOT NULL,
			title VARCHAR(512) NOT NULL,
			url VARCHAR(512) NOT NULL,
			author VARCHAR(255),
			published_at TIMESTAMPTZ NOT NULL,
			score INTEGER DEFAULT 0,
			meta_data JSONB,
			source_channel_id BIGINT NOT NULL REFERENCES source_channel(id),
			CONSTRAINT uq_platform_item UNIQUE (platform, item_id)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_content_item_product ON content_item (product)`,
		`CREATE TABLE IF NOT EXISTS comment (
			id BIGSERIAL PRIMARY KEY,
			platform VARCHAR(20) NOT NULL,
			comment_id VARCHAR(255) NOT NULL,
			product VARCHAR(255) NOT NULL,
			author VARCHAR(255),
			body TEXT NOT NULL,
			parent_id VARCHAR(255),
			published_at TIMESTAMPTZ NOT NULL,
			score INTEGER DEFAULT 0,
			sentiment VARCHAR(20),
			sentiment_confidence INTEGER,
			aspects JSONB,
			summary TEXT,
			vector_id VARCHAR(255),
			processed BOOLEAN NOT NULL DEFAULT FALSE,
			content_item_id BIGINT NOT NULL REFERENCES content_item(id),
			CONSTRAINT uq_platform_comment UNIQUE (platform, comment_id)
		)`,
		`CREATE INDEX IF NOT EXISTS ix_comment_product ON comment (product)`,
		`CREATE INDEX IF NOT EXISTS ix_comment_processed ON comment (processed)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("[DB] failed to ensure schema: %w", err)
		}
	}
	return nil
}
