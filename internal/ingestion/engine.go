package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/prodpulse/prodpulse/internal/db"
	"github.com/prodpulse/prodpulse/internal/models"
	"github.com/prodpulse/prodpulse/internal/textutil"
)

const (
	MAX_RETRIES     = 3
	INITIAL_BACKOFF = 1 * time.Second

	redditSearchWindow = "month"
	redditSearchLimit  = 50
	youtubeWindowDays  = 14
	youtubeSearchLimit = 25
	unknownAuthor      = "unknown"
)

type redditSource interface {
	SearchPosts(ctx context.Context, subreddit, query, window string, limit int) ([]models.RedditPost, error)
	FetchComments(ctx context.Context, subreddit, postID string) ([]models.RedditComment, error)
}

type youtubeSource interface {
	SearchVideos(ctx context.Context, query, channelID string, publishedAfter time.Time, limit int) ([]models.YouTubeVideo, error)
	FetchVideoStats(ctx context.Context, videoIDs []string) (map[string]models.YouTubeVideo, error)
	FetchCommentThreads(ctx context.Context, videoID string) ([]models.YouTubeComment, error)
}

type seenCache interface {
	IsSeen(ctx context.Context, platform, key string) bool
	MarkSeen(ctx context.Context, platform, key string) error
}

// Engine pulls recent content for each product from every configured source
// and persists channels, items and comments by natural key. Re-running over
// already-seen content is a silent no-op: the first-written row always wins.
type Engine struct {
	store   db.Store
	reddit  redditSource
	youtube youtubeSource
	seen    seenCache
}

func NewEngine(store db.Store, reddit redditSource, youtube youtubeSource, seen seenCache) *Engine {
	return &Engine{store: store, reddit: reddit, youtube: youtube, seen: seen}
}

// Run ingests every product from both sources. A product/source pair that
// exhausts its retries is logged and skipped; it never aborts the other
// pairs. The only error returned is context cancellation.
func (e *Engine) Run(ctx context.Context, products []string) error {
	slog.Info("[Ingestion] Starting ingestion", slog.Int("products", len(products)))

	for _, product := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.ingestRedditProduct(ctx, product); err != nil {
			slog.Error("[Ingestion] Reddit ingestion failed for product, skipping",
				slog.String("product", product),
				slog.String("error", err.Error()))
		}
		if err := e.ingestYouTubeProduct(ctx, product); err != nil {
			slog.Error("[Ingestion] YouTube ingestion failed for product, skipping",
				slog.String("product", product),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Ingestion] Ingestion run complete")
	return ctx.Err()
}

func (e *Engine) ingestRedditProduct(ctx context.Context, product string) error {
	var posts []models.RedditPost
	err := withRetries(ctx, "reddit search", func() error {
		var searchErr error
		posts, searchErr = e.reddit.SearchPosts(ctx, "all", product, redditSearchWindow, redditSearchLimit)
		return searchErr
	})
	if err != nil {
		return err
	}

	slog.Info("[Ingestion] Fetched reddit posts",
		slog.String("product", product),
		slog.Int("count", len(posts)))

	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return err
		}

		seenKey := product + ":" + post.PostID
		if e.seen.IsSeen(ctx, models.PlatformReddit, seenKey) {
			continue
		}

		channel, err := e.store.GetOrCreateChannel(ctx, models.SourceChannel{
			Platform:  models.PlatformReddit,
			ChannelID: post.Subreddit,
			Name:      "r/" + post.Subreddit,
			Metadata:  map[string]string{"subscribers": strconv.Itoa(post.Subscribers)},
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to resolve channel, skipping post",
				slog.String("subreddit", post.Subreddit),
				slog.String("error", err.Error()))
			continue
		}

		item, err := e.store.GetOrCreateContentItem(ctx, models.ContentItem{
			Platform:        models.PlatformReddit,
			ItemID:          post.PostID,
			Product:         product,
			Title:           post.Title,
			URL:             post.Permalink,
			Author:          orUnknown(post.Author),
			PublishedAt:     post.CreatedAt,
			Score:           post.Score,
			Metadata:        map[string]string{"num_comments": strconv.Itoa(post.NumComments)},
			SourceChannelID: channel.ID,
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to resolve content item, skipping post",
				slog.String("post_id", post.PostID),
				slog.String("error", err.Error()))
			continue
		}

		if err := e.ingestRedditComments(ctx, post, item, product); err != nil {
			slog.Warn("[Ingestion] Failed to ingest comments for post",
				slog.String("post_id", post.PostID),
				slog.String("error", err.Error()))
			continue
		}

		if err := e.seen.MarkSeen(ctx, models.PlatformReddit, seenKey); err != nil {
			slog.Warn("[Ingestion] Failed to mark post seen",
				slog.String("post_id", post.PostID),
				slog.String("error", err.Error()))
		}
		if err := e.store.TouchChannelPolled(ctx, channel.ID); err != nil {
			slog.Warn("[Ingestion] Failed to update channel poll time",
				slog.String("subreddit", post.Subreddit),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

func (e *Engine) ingestRedditComments(ctx context.Context, post models.RedditPost, item models.ContentItem, product string) error {
	var comments []models.RedditComment
	err := withRetries(ctx, "reddit comments", func() error {
		var fetchErr error
		comments, fetchErr = e.reddit.FetchComments(ctx, post.Subreddit, post.PostID)
		return fetchErr
	})
	if err != nil {
		return err
	}

	for _, comment := range comments {
		_, err := e.store.GetOrCreateComment(ctx, models.Comment{
			Platform:      models.PlatformReddit,
			CommentID:     comment.CommentID,
			Product:       product,
			Author:        orUnknown(comment.Author),
			Body:          textutil.Normalize(comment.Body),
			ParentID:      comment.ParentID,
			PublishedAt:   comment.CreatedAt,
			Score:         comment.Score,
			ContentItemID: item.ID,
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to persist comment, skipping",
				slog.String("comment_id", comment.CommentID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

func (e *Engine) ingestYouTubeProduct(ctx context.Context, product string) error {
	publishedAfter := time.Now().UTC().AddDate(0, 0, -youtubeWindowDays)

	var videos []models.YouTubeVideo
	err := withRetries(ctx, "youtube search", func() error {
		var searchErr error
		videos, searchErr = e.youtube.SearchVideos(ctx, product, "", publishedAfter, youtubeSearchLimit)
		return searchErr
	})
	if err != nil {
		return err
	}

	slog.Info("[Ingestion] Fetched youtube videos",
		slog.String("product", product),
		slog.Int("count", len(videos)))

	ids := make([]string, 0, len(videos))
	for _, video := range videos {
		ids = append(ids, video.VideoID)
	}
	stats, err := e.youtube.FetchVideoStats(ctx, ids)
	if err != nil {
		slog.Warn("[Ingestion] Failed to fetch video stats; ingesting without them",
			slog.String("error", err.Error()))
		stats = map[string]models.YouTubeVideo{}
	}

	for _, video := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}

		seenKey := product + ":" + video.VideoID
		if e.seen.IsSeen(ctx, models.PlatformYouTube, seenKey) {
			continue
		}

		detail, hasStats := stats[video.VideoID]
		if !hasStats {
			detail = video
		}

		channel, err := e.store.GetOrCreateChannel(ctx, models.SourceChannel{
			Platform:  models.PlatformYouTube,
			ChannelID: video.ChannelID,
			Name:      orUnknown(video.ChannelTitle),
			Metadata:  map[string]string{"view_count": strconv.Itoa(detail.ViewCount)},
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to resolve channel, skipping video",
				slog.String("channel_id", video.ChannelID),
				slog.String("error", err.Error()))
			continue
		}

		item, err := e.store.GetOrCreateContentItem(ctx, models.ContentItem{
			Platform:        models.PlatformYouTube,
			ItemID:          video.VideoID,
			Product:         product,
			Title:           video.Title,
			URL:             "https://www.youtube.com/watch?v=" + video.VideoID,
			Author:          orUnknown(video.ChannelTitle),
			PublishedAt:     video.PublishedAt,
			Score:           detail.LikeCount,
			Metadata:        map[string]string{"view_count": strconv.Itoa(detail.ViewCount)},
			SourceChannelID: channel.ID,
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to resolve content item, skipping video",
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()))
			continue
		}

		if err := e.ingestYouTubeComments(ctx, video.VideoID, item, product); err != nil {
			slog.Warn("[Ingestion] Failed to ingest comments for video",
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()))
			continue
		}

		if err := e.seen.MarkSeen(ctx, models.PlatformYouTube, seenKey); err != nil {
			slog.Warn("[Ingestion] Failed to mark video seen",
				slog.String("video_id", video.VideoID),
				slog.String("error", err.Error()))
		}
		if err := e.store.TouchChannelPolled(ctx, channel.ID); err != nil {
			slog.Warn("[Ingestion] Failed to update channel poll time",
				slog.String("channel_id", video.ChannelID),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

func (e *Engine) ingestYouTubeComments(ctx context.Context, videoID string, item models.ContentItem, product string) error {
	var comments []models.YouTubeComment
	err := withRetries(ctx, "youtube comments", func() error {
		var fetchErr error
		comments, fetchErr = e.youtube.FetchCommentThreads(ctx, videoID)
		return fetchErr
	})
	if err != nil {
		return err
	}

	for _, comment := range comments {
		_, err := e.store.GetOrCreateComment(ctx, models.Comment{
			Platform:      models.PlatformYouTube,
			CommentID:     comment.CommentID,
			Product:       product,
			Author:        orUnknown(comment.Author),
			Body:          textutil.Normalize(comment.Body),
			ParentID:      comment.ParentID,
			PublishedAt:   comment.PublishedAt,
			Score:         comment.LikeCount,
			ContentItemID: item.ID,
		})
		if err != nil {
			slog.Warn("[Ingestion] Failed to persist comment, skipping",
				slog.String("comment_id", comment.CommentID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// withRetries runs call up to MAX_RETRIES times with exponential backoff.
func withRetries(ctx context.Context, op string, call func() error) error {
	backoff := INITIAL_BACKOFF
	var err error

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		if err = call(); err == nil {
			return nil
		}

		slog.Warn("[Ingestion] Fetch failed, retrying",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt == MAX_RETRIES {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("%s failed after %d attempts: %w", op, MAX_RETRIES, err)
}

func orUnknown(author string) string {
	if author == "" || author == "[deleted]" {
		return unknownAuthor
	}
	return author
}
