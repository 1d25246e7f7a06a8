package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"feedpress/internal/db"
	"feedpress/internal/model"
	"feedpress/internal/snowflake"
)

// NewTestDB opens a migrated database in a temp dir that is closed with the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// SeedFeedSource inserts a feed source with sensible defaults and returns its id.
func SeedFeedSource(t *testing.T, database *sql.DB, feed model.FeedSource) int64 {
	t.Helper()
	if feed.ID == 0 {
		feed.ID = snowflake.NextID()
	}
	if feed.Name == "" {
		feed.Name = "Feed"
	}
	if feed.URL == "" {
		feed.URL = "https://example.com/feed-" + time.Now().Format("150405.000000000")
	}
	if feed.FetchIntervalMinutes == 0 {
		feed.FetchIntervalMinutes = 60
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := database.Exec(
		`INSERT INTO feed_sources (id, name, url, category, author, enabled, fetch_interval_minutes, max_items_per_fetch, auto_publish,
		   title_template, body_template, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feed.ID,
		feed.Name,
		feed.URL,
		feed.Category,
		feed.Author,
		boolInt(feed.Enabled),
		feed.FetchIntervalMinutes,
		feed.MaxItemsPerFetch,
		boolInt(feed.AutoPublish),
		feed.TitleTemplate,
		feed.BodyTemplate,
		now,
		now,
	)
	if err != nil {
		t.Fatalf("seed feed source: %v", err)
	}
	return feed.ID
}

// SeedContent inserts a post with the given slug and returns its id.
func SeedContent(t *testing.T, database *sql.DB, slug string) int64 {
	t.Helper()
	id := snowflake.NextID()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := database.Exec(
		`INSERT INTO contents (id, slug, title, status, created_at, updated_at) VALUES (?, ?, ?, 'draft', ?, ?)`,
		id,
		slug,
		slug,
		now,
		now,
	)
	if err != nil {
		t.Fatalf("seed content: %v", err)
	}
	return id
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
