package models

import "time"

const (
	PlatformReddit  = "reddit"
	PlatformYouTube = "youtube"
)

// SourceChannel is a discovered content origin (a subreddit, a YouTube
// channel). Created lazily the first time content from it is observed.
// (platform, channel_id) is unique; rows are never deleted.
type SourceChannel struct {
	ID           int64             `json:"id"`
	Platform     string            `json:"platform"`
	ChannelID    string            `json:"channel_id"`
	Name         string            `json:"name"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastPolledAt *time.Time        `json:"last_polled_at,omitempty"`
}

// ContentItem is one post or video attributed to exactly one product.
// (platform, item_id) is unique; first writer wins.
type ContentItem struct {
	ID              int64             `json:"id"`
	Platform        string            `json:"platform"`
	ItemID          string            `json:"item_id"`
	Product         string            `json:"product"`
	Title           string            `json:"title"`
	URL             string            `json:"url"`
	Author          string            `json:"author"`
	PublishedAt     time.Time         `json:"published_at"`
	Score           int               `json:"score"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	SourceChannelID int64             `json:"source_channel_id"`
}

// Comment is one comment or reply attached to a content item. The body is
// stored normalized. (platform, comment_id) is unique; first writer wins and
// the body is never re-normalized on conflict. Processed stays false until
// the comment has been classified and its vector upserted, which happens in
// a single write.
type Comment struct {
	ID                  int64             `json:"id"`
	Platform            string            `json:"platform"`
	CommentID           string            `json:"comment_id"`
	Product             string            `json:"product"`
	Author              string            `json:"author"`
	Body                string            `json:"body"`
	ParentID            string            `json:"parent_id,omitempty"`
	PublishedAt         time.Time         `json:"published_at"`
	Score               int               `json:"score"`
	Sentiment           *string           `json:"sentiment,omitempty"`
	SentimentConfidence *int              `json:"sentiment_confidence,omitempty"`
	Aspects             map[string]string `json:"aspects,omitempty"`
	Summary             *string           `json:"summary,omitempty"`
	VectorID            *string           `json:"vector_id,omitempty"`
	Processed           bool              `json:"processed"`
	ContentItemID       int64             `json:"content_item_id"`
}
