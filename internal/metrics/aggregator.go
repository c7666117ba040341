package metrics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Aggregator serves the read-side rollups over stored sentiment data.
type Aggregator struct {
	pool *pgxpool.Pool
}

func NewAggregator(pool *pgxpool.Pool) *Aggregator {
	return &Aggregator{pool: pool}
}

// SentimentDistribution counts comments by sentiment, keyed
// "product:platform". Unclassified comments land under "unknown".
func (a *Aggregator) SentimentDistribution(ctx context.Context, products []string) (map[string]map[string]int, error) {
	query := `SELECT product, platform, COALESCE(sentiment, 'unknown'), COUNT(id)
	          FROM comment`
	args := []any{}
	if len(products) > 0 {
		query += ` WHERE product = ANY($1)`
		args = append(args, products)
	}
	query += ` GROUP BY product, platform, sentiment`

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[Metrics] sentiment distribution query failed: %w", err)
	}
	defer rows.Close()

	distribution := make(map[string]map[string]int)
	for rows.Next() {
		var product, platform, sentiment string
		var count int
		if err := rows.Scan(&product, &platform, &sentiment, &count); err != nil {
			return nil, err
		}
		key := product + ":" + platform
		if distribution[key] == nil {
			distribution[key] = make(map[string]int)
		}
		distribution[key][sentiment] += count
	}
	return distribution, rows.Err()
}

// VoiceShare counts comments per platform.
func (a *Aggregator) VoiceShare(ctx context.Context, products []string) (map[string]int, error) {
	query := `SELECT platform, COUNT(id) FROM comment`
	args := []any{}
	if len(products) > 0 {
		query += ` WHERE product = ANY($1)`
		args = append(args, products)
	}
	query += ` GROUP BY platform`

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[Metrics] voice share query failed: %w", err)
	}
	defer rows.Close()

	share := make(map[string]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, err
		}
		share[platform] = count
	}
	return share, rows.Err()
}

// AspectSentiment counts the per-aspect sentiment labels per product.
func (a *Aggregator) AspectSentiment(ctx context.Context, products []string) (map[string]map[string]map[string]int, error) {
	query := `SELECT product, aspects FROM comment WHERE aspects IS NOT NULL`
	args := []any{}
	if len(products) > 0 {
		query += ` AND product = ANY($1)`
		args = append(args, products)
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("[Metrics] aspect sentiment query failed: %w", err)
	}
	defer rows.Close()

	result := make(map[string]map[string]map[string]int)
	for rows.Next() {
		var product string
		var aspects map[string]string
		if err := rows.Scan(&product, &aspects); err != nil {
			return nil, err
		}
		for aspect, label := range aspects {
			if result[product] == nil {
				result[product] = make(map[string]map[string]int)
			}
			if result[product][aspect] == nil {
				result[product][aspect] = make(map[string]int)
			}
			result[product][aspect][label]++
		}
	}
	return result, rows.Err()
}

// Comparatives counts content items per product.
func (a *Aggregator) Comparatives(ctx context.Context) (map[string]int, error) {
	rows, err := a.pool.Query(ctx,
		`SELECT product, COUNT(id) FROM content_item GROUP BY product`)
	if err != nil {
		return nil, fmt.Errorf("[Metrics] comparatives query failed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var product string
		var count int
		if err := rows.Scan(&product, &count); err != nil {
			return nil, err
		}
		counts[product] = count
	}
	return counts, rows.Err()
}
