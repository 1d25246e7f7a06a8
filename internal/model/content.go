package model

import "time"

type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

// Content is a post assembled from a feed item.
type Content struct {
	ID                    int64
	FeedSourceID          *int64
	Slug                  string
	Title                 string
	Excerpt               string
	Body                  string
	Category              *string
	Author                *string
	FeaturedImageURL      *string
	FeaturedImageSmallURL *string
	SourceURL             *string
	Status                ContentStatus
	Featured              bool
	PublishedAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
