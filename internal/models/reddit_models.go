package models

import "time"

// RedditPost is one submission returned from a subreddit or global search.
type RedditPost struct {
	PostID      string
	Subreddit   string
	Subscribers int
	Title       string
	Selftext    string
	Author      string
	Permalink   string
	Score       int
	NumComments int
	CreatedAt   time.Time
}

// RedditComment is one comment from a submission's tree, flattened in
// depth-first order. ParentID keeps Reddit's fullname prefix (t1_/t3_).
type RedditComment struct {
	CommentID string
	Author    string
	Body      string
	ParentID  string
	Permalink string
	Score     int
	CreatedAt time.Time
}

type RedditListing struct {
	Data RedditListingData `json:"data"`
}

type RedditListingData struct {
	After    string        `json:"after"`
	Children []RedditChild `json:"children"`
}

type RedditChild struct {
	Kind string          `json:"kind"`
	Data RedditChildData `json:"data"`
}

type RedditChildData struct {
	ID                   string  `json:"id"`
	Subreddit            string  `json:"subreddit"`
	SubredditSubscribers int     `json:"subreddit_subscribers"`
	Author               string  `json:"author"`
	Title                string  `json:"title"`
	Selftext             string  `json:"selftext"`
	Body                 string  `json:"body"`
	ParentID             string  `json:"parent_id"`
	Permalink            string  `json:"permalink"`
	Score                int     `json:"score"`
	NumComments          int     `json:"num_comments"`
	CreatedUTC           float64 `json:"created_utc"`
	// Replies is "" for leaf comments and a nested listing otherwise, so it
	// has to be decoded lazily.
	Replies RawListing `json:"replies"`
}

// RawListing defers decoding of the polymorphic replies field.
type RawListing []byte

func (r *RawListing) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
