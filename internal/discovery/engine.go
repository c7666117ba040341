package discovery

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/prodpulse/prodpulse/internal/models"
)

const (
	maxRankedChannels  = 20
	channelSampleLimit = 25
	querySearchLimit   = 100
	youtubeWindowDays  = 14
)

type redditSearcher interface {
	SearchPosts(ctx context.Context, subreddit, query, window string, limit int) ([]models.RedditPost, error)
}

type youtubeSearcher interface {
	SearchVideos(ctx context.Context, query, channelID string, publishedAfter time.Time, limit int) ([]models.YouTubeVideo, error)
	FetchVideoStats(ctx context.Context, videoIDs []string) (map[string]models.YouTubeVideo, error)
}

// Engine ranks candidate channels per platform by a weighted activity score.
// Two candidate sets are gathered independently, suggested channels measured
// directly and suggested queries run against the global scope, then merged
// keeping the higher-scored entry per channel.
type Engine struct {
	aliases *AliasExpander
	reddit  redditSearcher
	youtube youtubeSearcher
}

func NewEngine(aliases *AliasExpander, reddit redditSearcher, youtube youtubeSearcher) *Engine {
	return &Engine{aliases: aliases, reddit: reddit, youtube: youtube}
}

// Discover returns the ranked channels per platform. A failing branch logs
// and contributes an empty candidate set; Discover itself never fails.
func (e *Engine) Discover(ctx context.Context, products []string) map[string][]models.RankedChannel {
	return map[string][]models.RankedChannel{
		models.PlatformReddit:  e.discoverReddit(ctx, products),
		models.PlatformYouTube: e.discoverYouTube(ctx, products),
	}
}

func (e *Engine) discoverReddit(ctx context.Context, products []string) []models.RankedChannel {
	query := strings.Join(products, " OR ")

	// Branch one: measure each suggested subreddit directly.
	var suggested []models.RankedChannel
	for _, subreddit := range e.aliases.SuggestChannels(ctx, products, models.PlatformReddit) {
		posts, err := e.reddit.SearchPosts(ctx, subreddit, query, "week", channelSampleLimit)
		if err != nil {
			slog.Warn("[Discovery] Failed to sample subreddit, skipping",
				slog.String("subreddit", subreddit),
				slog.String("error", err.Error()))
			continue
		}
		if len(posts) == 0 {
			continue
		}

		var metrics models.ChannelMetrics
		for _, post := range posts {
			metrics.Mentions++
			metrics.AvgScore += float64(post.Score)
			metrics.Comments += post.NumComments
		}
		metrics.AvgScore /= float64(maxInt(metrics.Mentions, 1))

		suggested = append(suggested, models.RankedChannel{
			Platform:  models.PlatformReddit,
			ChannelID: subreddit,
			Name:      "r/" + subreddit,
			Metrics:   metrics,
			Score:     metrics.Score(),
		})
	}

	// Branch two: run suggested queries against the global scope and
	// accumulate activity per subreddit.
	accumulated := make(map[string]*models.ChannelMetrics)
	var order []string
	queries := e.aliases.SuggestQueries(ctx, products)
	if len(queries) == 0 {
		queries = []string{query}
	}
	for _, q := range queries {
		posts, err := e.reddit.SearchPosts(ctx, "all", q, "week", querySearchLimit)
		if err != nil {
			slog.Warn("[Discovery] Global reddit search failed, skipping query",
				slog.String("query", q),
				slog.String("error", err.Error()))
			continue
		}
		for _, post := range posts {
			metrics, ok := accumulated[post.Subreddit]
			if !ok {
				metrics = &models.ChannelMetrics{}
				accumulated[post.Subreddit] = metrics
				order = append(order, post.Subreddit)
			}
			metrics.Mentions++
			metrics.AvgScore += float64(post.Score)
			metrics.Comments += post.NumComments
		}
	}

	var searched []models.RankedChannel
	for _, subreddit := range order {
		metrics := *accumulated[subreddit]
		metrics.AvgScore /= float64(maxInt(metrics.Mentions, 1))
		searched = append(searched, models.RankedChannel{
			Platform:  models.PlatformReddit,
			ChannelID: subreddit,
			Name:      "r/" + subreddit,
			Metrics:   metrics,
			Score:     metrics.Score(),
		})
	}

	return rank(mergeBestScore(suggested, searched))
}

func (e *Engine) discoverYouTube(ctx context.Context, products []string) []models.RankedChannel {
	publishedAfter := time.Now().UTC().AddDate(0, 0, -youtubeWindowDays)

	var suggested []models.RankedChannel
	for _, term := range e.aliases.SuggestChannels(ctx, products, models.PlatformYouTube) {
		channels := e.measureYouTubeSearch(ctx, term, publishedAfter, channelSampleLimit)
		suggested = append(suggested, channels...)
	}

	var searched []models.RankedChannel
	queries := e.aliases.SuggestQueries(ctx, products)
	if len(queries) == 0 {
		queries = []string{strings.Join(products, " OR ")}
	}
	for _, q := range queries {
		channels := e.measureYouTubeSearch(ctx, q, publishedAfter, querySearchLimit)
		searched = append(searched, channels...)
	}

	return rank(mergeBestScore(suggested, searched))
}

// measureYouTubeSearch runs one video search and rolls the hits up into
// per-channel metrics; like counts act as the native item score.
func (e *Engine) measureYouTubeSearch(ctx context.Context, query string, publishedAfter time.Time, limit int) []models.RankedChannel {
	videos, err := e.youtube.SearchVideos(ctx, query, "", publishedAfter, limit)
	if err != nil {
		slog.Warn("[Discovery] YouTube search failed, skipping query",
			slog.String("query", query),
			slog.String("error", err.Error()))
		return nil
	}
	if len(videos) == 0 {
		return nil
	}

	ids := make([]string, 0, len(videos))
	for _, video := range videos {
		ids = append(ids, video.VideoID)
	}
	stats, err := e.youtube.FetchVideoStats(ctx, ids)
	if err != nil {
		slog.Warn("[Discovery] Failed to fetch video stats; ranking on search hits only",
			slog.String("error", err.Error()))
		stats = map[string]models.YouTubeVideo{}
	}

	accumulated := make(map[string]*models.RankedChannel)
	var order []string
	for _, video := range videos {
		channel, ok := accumulated[video.ChannelID]
		if !ok {
			channel = &models.RankedChannel{
				Platform:  models.PlatformYouTube,
				ChannelID: video.ChannelID,
				Name:      video.ChannelTitle,
			}
			accumulated[video.ChannelID] = channel
			order = append(order, video.ChannelID)
		}
		channel.Metrics.Mentions++
		if detail, ok := stats[video.VideoID]; ok {
			channel.Metrics.AvgScore += float64(detail.LikeCount)
			channel.Metrics.Comments += detail.CommentCount
		}
	}

	channels := make([]models.RankedChannel, 0, len(order))
	for _, channelID := range order {
		channel := *accumulated[channelID]
		channel.Metrics.AvgScore /= float64(maxInt(channel.Metrics.Mentions, 1))
		channel.Score = channel.Metrics.Score()
		channels = append(channels, channel)
	}
	return channels
}

// mergeBestScore merges two candidate sets by channel identity keeping, per
// channel, the entry with the strictly higher score. On an exact tie the
// first-seen entry is kept.
func mergeBestScore(first, second []models.RankedChannel) []models.RankedChannel {
	index := make(map[string]int)
	var merged []models.RankedChannel

	for _, candidate := range append(append([]models.RankedChannel{}, first...), second...) {
		at, exists := index[candidate.ChannelID]
		if !exists {
			index[candidate.ChannelID] = len(merged)
			merged = append(merged, candidate)
			continue
		}
		if candidate.Score > merged[at].Score {
			merged[at] = candidate
		}
	}
	return merged
}

// rank sorts candidates by score descending, keeping first-seen order on
// equal scores, and truncates to the top 20.
func rank(channels []models.RankedChannel) []models.RankedChannel {
	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].Score > channels[j].Score
	})
	if len(channels) > maxRankedChannels {
		channels = channels[:maxRankedChannels]
	}
	return channels
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
