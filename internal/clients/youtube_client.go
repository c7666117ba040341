package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prodpulse/prodpulse/internal/models"
)

const YOUTUBE_API_URL = "https://www.googleapis.com/youtube/v3"

type YouTubeClient struct {
	apiKey string
	client *http.Client
}

func NewYouTubeClient(apiKey string) *YouTubeClient {
	return &YouTubeClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchVideos returns recent videos matching query, ordered by date.
// channelID narrows the search to one channel when non-empty.
func (yc *YouTubeClient) SearchVideos(ctx context.Context, query, channelID string, publishedAfter time.Time, limit int) ([]models.YouTubeVideo, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))
	params.Set("publishedAfter", publishedAfter.UTC().Format("2006-01-02T15:04:05Z"))
	if channelID != "" {
		params.Set("channelId", channelID)
	}

	body, err := yc.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var search models.YouTubeSearchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return nil, fmt.Errorf("[YouTubeClient] failed to decode search response: %w", err)
	}

	videos := make([]models.YouTubeVideo, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID == "" {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		videos = append(videos, models.YouTubeVideo{
			VideoID:      item.ID.VideoID,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			Title:        item.Snippet.Title,
			PublishedAt:  publishedAt,
		})
	}
	return videos, nil
}

// FetchVideoStats fills like/view/comment counts for the given video ids.
func (yc *YouTubeClient) FetchVideoStats(ctx context.Context, videoIDs []string) (map[string]models.YouTubeVideo, error) {
	if len(videoIDs) == 0 {
		return map[string]models.YouTubeVideo{}, nil
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", joinIDs(videoIDs))

	body, err := yc.get(ctx, "/videos", params)
	if err != nil {
		return nil, err
	}

	var list models.YouTubeVideoListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("[YouTubeClient] failed to decode videos response: %w", err)
	}

	stats := make(map[string]models.YouTubeVideo, len(list.Items))
	for _, item := range list.Items {
		publishedAt, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		stats[item.ID] = models.YouTubeVideo{
			VideoID:      item.ID,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			Title:        item.Snippet.Title,
			PublishedAt:  publishedAt,
			LikeCount:    atoiSafe(item.Statistics.LikeCount),
			ViewCount:    atoiSafe(item.Statistics.ViewCount),
			CommentCount: atoiSafe(item.Statistics.CommentCount),
		}
	}
	return stats, nil
}

// FetchCommentThreads walks every comment thread of a video, replies
// included, following page tokens until exhausted.
func (yc *YouTubeClient) FetchCommentThreads(ctx context.Context, videoID string) ([]models.YouTubeComment, error) {
	var comments []models.YouTubeComment
	pageToken := ""

	for {
		params := url.Values{}
		params.Set("part", "snippet,replies")
		params.Set("videoId", videoID)
		params.Set("maxResults", "50")
		params.Set("textFormat", "plainText")
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		body, err := yc.get(ctx, "/commentThreads", params)
		if err != nil {
			return nil, err
		}

		var threads models.YouTubeCommentThreadsResponse
		if err := json.Unmarshal(body, &threads); err != nil {
			return nil, fmt.Errorf("[YouTubeClient] failed to decode comment threads: %w", err)
		}

		for _, item := range threads.Items {
			comments = append(comments, toYouTubeComment(item.Snippet.TopLevelComment))
			for _, reply := range item.Replies.Comments {
				comments = append(comments, toYouTubeComment(reply))
			}
		}

		if threads.NextPageToken == "" {
			return comments, nil
		}
		pageToken = threads.NextPageToken
	}
}

func toYouTubeComment(payload models.YouTubeCommentPayload) models.YouTubeComment {
	publishedAt, _ := time.Parse(time.RFC3339, payload.Snippet.PublishedAt)
	return models.YouTubeComment{
		CommentID:   payload.ID,
		Author:      payload.Snippet.AuthorDisplayName,
		Body:        payload.Snippet.TextDisplay,
		ParentID:    payload.Snippet.ParentID,
		LikeCount:   payload.Snippet.LikeCount,
		PublishedAt: publishedAt,
	}
}

func (yc *YouTubeClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	params.Set("key", yc.apiKey)
	endpoint := YOUTUBE_API_URL + path + "?" + params.Encode()

	backoff := INITIAL_BACKOFF
	var lastErr error

	for attempt := 1; attempt <= MAX_RETRIES; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		resp, err := yc.client.Do(req)
		if err == nil {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr == nil && resp.StatusCode == http.StatusOK {
				return body, nil
			}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, fmt.Errorf("[YouTubeClient] request failed with status %d", resp.StatusCode)
			}
			lastErr = fmt.Errorf("[YouTubeClient] status %d", resp.StatusCode)
		} else {
			lastErr = err
		}

		slog.Warn("[YouTubeClient] Request failed, retrying with backoff",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.String("error", lastErr.Error()))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}

	return nil, fmt.Errorf("[YouTubeClient] max retries reached: %w", lastErr)
}

func joinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
