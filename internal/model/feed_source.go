package model

import "time"

// FeedSource is a configured third-party feed and its fetch health.
type FeedSource struct {
	ID                   int64
	Name                 string
	URL                  string
	Category             *string
	Author               *string
	Enabled              bool
	FetchIntervalMinutes int
	MaxItemsPerFetch     int
	AutoPublish          bool
	TitleTemplate        *string
	BodyTemplate         *string
	SiteImageURL         *string
	LastFetchedAt        *time.Time
	LastError            *string
	ErrorCount           int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
