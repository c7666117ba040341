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
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/prodpulse/prodpulse/internal/models"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
)

type RedditClient struct {
	config    *clientcredentials.Config
	client    *http.Client
	userAgent string
	mu        sync.Mutex
}

func NewRedditClient(clientID, clientSecret, userAgent string) *RedditClient {
	oauthConf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     REDDIT_AUTH_URL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	return &RedditClient{
		config:    oauthConf,
		client:    oauthConf.Client(context.Background()),
		userAgent: userAgent,
	}
}

func (rc *RedditClient) refreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.client = rc.config.Client(context.Background())
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.client
}

// SearchPosts searches a subreddit (or "all" for the global scope) for recent
// submissions matching query. window is a Reddit time filter ("week",
// "month"). Results keep Reddit's ordering.
func (rc *RedditClient) SearchPosts(ctx context.Context, subreddit, query, window string, limit int) ([]models.RedditPost, error) {
	parsedURL, err := url.Parse(fmt.Sprintf("%s/r/%s/search", REDDIT_API_URL, subreddit))
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to parse URL: %w", err)
	}
	queryParams := parsedURL.Query()
	queryParams.Add("q", query)
	queryParams.Add("sort", "new")
	queryParams.Add("t", window)
	queryParams.Add("limit", strconv.Itoa(limit))
	if subreddit != "all" {
		queryParams.Add("restrict_sr", "1")
	}
	parsedURL.RawQuery = queryParams.Encode()

	body, err := rc.get(ctx, parsedURL.String(), 0)
	if err != nil {
		return nil, err
	}

	var listing models.RedditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to decode search response: %w", err)
	}

	posts := make([]models.RedditPost, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		d := child.Data
		posts = append(posts, models.RedditPost{
			PostID:      d.ID,
			Subreddit:   d.Subreddit,
			Subscribers: d.SubredditSubscribers,
			Title:       d.Title,
			Selftext:    d.Selftext,
			Author:      d.Author,
			Permalink:   "https://www.reddit.com" + d.Permalink,
			Score:       d.Score,
			NumComments: d.NumComments,
			CreatedAt:   time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
	}
	return posts, nil
}

// FetchComments returns the full comment tree of a submission, flattened in
// depth-first order with nested replies included.
func (rc *RedditClient) FetchComments(ctx context.Context, subreddit, postID string) ([]models.RedditComment, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s?limit=100&depth=10", REDDIT_API_URL, subreddit, postID)

	body, err := rc.get(ctx, endpoint, 0)
	if err != nil {
		return nil, err
	}

	// The comments endpoint returns two listings: the submission itself and
	// the comment forest.
	var listings []models.RedditListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to decode comments response: %w", err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []models.RedditComment
	collectComments(listings[1].Data.Children, &comments)
	return comments, nil
}

func collectComments(children []models.RedditChild, out *[]models.RedditComment) {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		d := child.Data
		*out = append(*out, models.RedditComment{
			CommentID: d.ID,
			Author:    d.Author,
			Body:      d.Body,
			ParentID:  d.ParentID,
			Permalink: "https://www.reddit.com" + d.Permalink,
			Score:     d.Score,
			CreatedAt: time.Unix(int64(d.CreatedUTC), 0).UTC(),
		})
		if len(d.Replies) > 2 { // anything beyond `""`
			var nested models.RedditListing
			if err := json.Unmarshal(d.Replies, &nested); err == nil {
				collectComments(nested.Data.Children, out)
			}
		}
	}
}

func (rc *RedditClient) get(ctx context.Context, requestURL string, attempt int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", rc.userAgent)

	resp, err := rc.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusUnauthorized:
		if attempt >= MAX_RETRIES {
			return nil, fmt.Errorf("[RedditClient] token refresh did not recover authorization")
		}
		slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
		rc.refreshClient()
		return rc.get(ctx, requestURL, attempt+1)
	case http.StatusTooManyRequests:
		return rc.retryWithBackoff(ctx, requestURL, attempt)
	default:
		return nil, fmt.Errorf("[RedditClient] unexpected status %d", resp.StatusCode)
	}
}

func (rc *RedditClient) retryWithBackoff(ctx context.Context, requestURL string, attempt int) ([]byte, error) {
	backoff := INITIAL_BACKOFF
	for i := attempt + 1; i <= MAX_RETRIES; i++ {
		slog.Warn("[RedditClient] 429 Too Many Requests - Retrying with backoff",
			slog.Int("attempt", i), slog.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)

		data, err := rc.get(ctx, requestURL, i)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("[RedditClient] max retries reached, request failed")
}
