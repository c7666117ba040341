package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prodpulse/prodpulse/internal/models"
)

const uniqueViolationCode = "23505"

// Store is the relational access surface the pipeline engines depend on.
// Resolve-or-create operations are read-then-insert with the unique
// constraint as the final safety net: losing a race surfaces as "already
// exists", never as a hard failure, and the first-written row is kept as is.
type Store interface {
	GetOrCreateChannel(ctx context.Context, channel models.SourceChannel) (models.SourceChannel, error)
	TouchChannelPolled(ctx context.Context, channelID int64) error
	ListChannels(ctx context.Context, platform string) ([]models.SourceChannel, error)

	GetOrCreateContentItem(ctx context.Context, item models.ContentItem) (models.ContentItem, error)
	GetOrCreateComment(ctx context.Context, comment models.Comment) (models.Comment, error)

	ListUnprocessedComments(ctx context.Context, ids []int64) ([]models.Comment, error)
	MarkClassified(ctx context.Context, commentID int64, sentiment string, confidence int, aspects map[string]string, vectorID string) error
	ListRecentBodies(ctx context.Context, product string, limit int) ([]string, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) GetOrCreateChannel(ctx context.Context, channel models.SourceChannel) (models.SourceChannel, error) {
	existing, err := s.findChannel(ctx, channel.Platform, channel.ChannelID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.SourceChannel{}, err
	}

	insertErr := s.pool.QueryRow(ctx,
		`INSERT INTO source_channel (platform, channel_id, name, meta_data)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		channel.Platform, channel.ChannelID, channel.Name, channel.Metadata,
	).Scan(&channel.ID)
	if insertErr == nil {
		return channel, nil
	}
	if isUniqueViolation(insertErr) {
		// Lost the race; the winner's row is authoritative.
		return s.findChannel(ctx, channel.Platform, channel.ChannelID)
	}
	return models.SourceChannel{}, fmt.Errorf("[Store] failed to insert channel: %w", insertErr)
}

func (s *PostgresStore) findChannel(ctx context.Context, platform, channelID string) (models.SourceChannel, error) {
	var ch models.SourceChannel
	err := s.pool.QueryRow(ctx,
		`SELECT id, platform, channel_id, name, COALESCE(meta_data, '{}'), last_polled_at
		 FROM source_channel WHERE platform = $1 AND channel_id = $2`,
		platform, channelID,
	).Scan(&ch.ID, &ch.Platform, &ch.ChannelID, &ch.Name, &ch.Metadata, &ch.LastPolledAt)
	return ch, err
}

func (s *PostgresStore) TouchChannelPolled(ctx context.Context, channelID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE source_channel SET last_polled_at = $1 WHERE id = $2`,
		time.Now().UTC(), channelID)
	if err != nil {
		return fmt.Errorf("[Store] failed to update last_polled_at: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListChannels(ctx context.Context, platform string) ([]models.SourceChannel, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, platform, channel_id, name, COALESCE(meta_data, '{}'), last_polled_at
		 FROM source_channel WHERE platform = $1`, platform)
	if err != nil {
		return nil, fmt.Errorf("[Store] failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []models.SourceChannel
	for rows.Next() {
		var ch models.SourceChannel
		if err := rows.Scan(&ch.ID, &ch.Platform, &ch.ChannelID, &ch.Name, &ch.Metadata, &ch.LastPolledAt); err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

func (s *PostgresStore) GetOrCreateContentItem(ctx context.Context, item models.ContentItem) (models.ContentItem, error) {
	existing, err := s.findContentItem(ctx, item.Platform, item.ItemID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.ContentItem{}, err
	}

	insertErr := s.pool.QueryRow(ctx,
		`INSERT INTO content_item (platform, item_id, product, title, url, author, published_at, score, meta_data, source_channel_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		item.Platform, item.ItemID, item.Product, item.Title, item.URL, item.Author,
		item.PublishedAt, item.Score, item.Metadata, item.SourceChannelID,
	).Scan(&item.ID)
	if insertErr == nil {
		return item, nil
	}
	if isUniqueViolation(insertErr) {
		return s.findContentItem(ctx, item.Platform, item.ItemID)
	}
	return models.ContentItem{}, fmt.Errorf("[Store] failed to insert content item: %w", insertErr)
}

func (s *PostgresStore) findContentItem(ctx context.Context, platform, itemID string) (models.ContentItem, error) {
	var item models.ContentItem
	err := s.pool.QueryRow(ctx,
		`SELECT id, platform, item_id, product, title, url, COALESCE(author, 'unknown'),
		        published_at, score, COALESCE(meta_data, '{}'), source_channel_id
		 FROM content_item WHERE platform = $1 AND item_id = $2`,
		platform, itemID,
	).Scan(&item.ID, &item.Platform, &item.ItemID, &item.Product, &item.Title, &item.URL,
		&item.Author, &item.PublishedAt, &item.Score, &item.Metadata, &item.SourceChannelID)
	return item, err
}

func (s *PostgresStore) GetOrCreateComment(ctx context.Context, comment models.Comment) (models.Comment, error) {
	existing, err := s.findComment(ctx, comment.Platform, comment.CommentID)
	if err == nil {
		// First write wins; the stored body is never re-normalized.
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.Comment{}, err
	}

	insertErr := s.pool.QueryRow(ctx,
		`INSERT INTO comment (platform, comment_id, product, author, body, parent_id, published_at, score, content_item_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		comment.Platform, comment.CommentID, comment.Product, comment.Author, comment.Body,
		comment.ParentID, comment.PublishedAt, comment.Score, comment.ContentItemID,
	).Scan(&comment.ID)
	if insertErr == nil {
		return comment, nil
	}
	if isUniqueViolation(insertErr) {
		return s.findComment(ctx, comment.Platform, comment.CommentID)
	}
	return models.Comment{}, fmt.Errorf("[Store] failed to insert comment: %w", insertErr)
}

func (s *PostgresStore) findComment(ctx context.Context, platform, commentID string) (models.Comment, error) {
	var c models.Comment
	err := s.pool.QueryRow(ctx,
		`SELECT id, platform, comment_id, product, COALESCE(author, 'unknown'), body,
		        COALESCE(parent_id, ''), published_at, score, sentiment, sentiment_confidence,
		        COALESCE(aspects, '{}'), summary, vector_id, processed, content_item_id
		 FROM comment WHERE platform = $1 AND comment_id = $2`,
		platform, commentID,
	).Scan(&c.ID, &c.Platform, &c.CommentID, &c.Product, &c.Author, &c.Body,
		&c.ParentID, &c.PublishedAt, &c.Score, &c.Sentiment, &c.SentimentConfidence,
		&c.Aspects, &c.Summary, &c.VectorID, &c.Processed, &c.ContentItemID)
	return c, err
}

// ListUnprocessedComments returns processed=false comments ordered by id.
// When ids is non-empty the selection is restricted to them; ids of
// already-processed comments are silently ignored.
func (s *PostgresStore) ListUnprocessedComments(ctx context.Context, ids []int64) ([]models.Comment, error) {
	query := `SELECT id, platform, comment_id, product, COALESCE(author, 'unknown'), body,
	                 COALESCE(parent_id, ''), published_at, score, sentiment, sentiment_confidence,
	                 COALESCE(aspects, '{}'), summary, vector_id, processed, content_item_id
	          FROM comment WHERE processed = FALSE`
	args := []any{}
	if len(ids) > 0 {
		query += ` AND id = ANY($1)`
		args = append(args, ids)
	}
	query += ` ORDER BY id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[Store] failed to list unprocessed comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Platform, &c.CommentID, &c.Product, &c.Author, &c.Body,
			&c.ParentID, &c.PublishedAt, &c.Score, &c.Sentiment, &c.SentimentConfidence,
			&c.Aspects, &c.Summary, &c.VectorID, &c.Processed, &c.ContentItemID); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// MarkClassified writes the classification outcome and processed=true in a
// single statement so a sentiment-set-but-unprocessed row is never visible.
func (s *PostgresStore) MarkClassified(ctx context.Context, commentID int64, sentiment string, confidence int, aspects map[string]string, vectorID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE comment
		 SET sentiment = $1, sentiment_confidence = $2, aspects = $3, vector_id = $4, processed = TRUE
		 WHERE id = $5`,
		sentiment, confidence, aspects, vectorID, commentID)
	if err != nil {
		return fmt.Errorf("[Store] failed to mark comment classified: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecentBodies(ctx context.Context, product string, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT body FROM comment WHERE product = $1 ORDER BY published_at DESC LIMIT $2`,
		product, limit)
	if err != nil {
		return nil, fmt.Errorf("[Store] failed to list recent bodies: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
