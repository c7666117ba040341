package models

import "time"

// YouTubeVideo is one search hit, enriched with statistics from the videos
// endpoint when available.
type YouTubeVideo struct {
	VideoID      string
	ChannelID    string
	ChannelTitle string
	Title        string
	PublishedAt  time.Time
	LikeCount    int
	ViewCount    int
	CommentCount int
}

// YouTubeComment is one comment or reply from a video's comment threads.
type YouTubeComment struct {
	CommentID   string
	Author      string
	Body        string
	ParentID    string
	LikeCount   int
	PublishedAt time.Time
}

type YouTubeSearchResponse struct {
	NextPageToken string              `json:"nextPageToken"`
	Items         []YouTubeSearchItem `json:"items"`
}

type YouTubeSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet YouTubeSnippet `json:"snippet"`
}

type YouTubeSnippet struct {
	ChannelID    string `json:"channelId"`
	ChannelTitle string `json:"channelTitle"`
	Title        string `json:"title"`
	PublishedAt  string `json:"publishedAt"`
}

type YouTubeVideoListResponse struct {
	Items []struct {
		ID         string         `json:"id"`
		Snippet    YouTubeSnippet `json:"snippet"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type YouTubeCommentThreadsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment YouTubeCommentPayload `json:"topLevelComment"`
		} `json:"snippet"`
		Replies struct {
			Comments []YouTubeCommentPayload `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
}

type YouTubeCommentPayload struct {
	ID      string `json:"id"`
	Snippet struct {
		AuthorDisplayName string `json:"authorDisplayName"`
		TextDisplay       string `json:"textDisplay"`
		ParentID          string `json:"parentId"`
		LikeCount         int    `json:"likeCount"`
		PublishedAt       string `json:"publishedAt"`
	} `json:"snippet"`
}
