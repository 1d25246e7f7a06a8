package model

import "time"

// FeedItem marks a feed entry as seen. GUID is unique per feed source.
type FeedItem struct {
	ID           int64
	FeedSourceID int64
	GUID         string
	Title        string
	Link         string
	Author       *string
	Description  *string
	Content      *string
	ImageURL     *string
	PublishedAt  *time.Time
	Processed    bool
	ContentID    *int64
	CreatedAt    time.Time
}
