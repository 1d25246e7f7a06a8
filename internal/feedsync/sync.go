package feedsync

import (
	"context"
	"fmt"
	"strings"

	"feedpress/internal/logger"
	"feedpress/internal/model"
	"feedpress/internal/repository"
)

// Result counts what Sync changed.
type Result struct {
	Created   int
	Updated   int
	Unchanged int
}

// Sync upserts every entry by URL. Feeds missing from the file are left alone.
func Sync(ctx context.Context, feeds repository.FeedSourceRepository, file *File) (Result, error) {
	var result Result
	for _, entry := range file.Feeds {
		existing, err := feeds.FindByURL(ctx, entry.URL)
		if err != nil {
			return result, fmt.Errorf("find feed %s: %w", entry.URL, err)
		}

		if existing == nil {
			created, err := feeds.Create(ctx, apply(model.FeedSource{URL: entry.URL}, entry))
			if err != nil {
				return result, fmt.Errorf("create feed %s: %w", entry.URL, err)
			}
			result.Created++
			logger.Info("feed created", "module", "feedsync", "action", "create", "resource", "feed", "result", "ok", "feed_id", created.ID, "url", entry.URL)
			continue
		}

		updated := apply(*existing, entry)
		if sameConfig(*existing, updated) {
			result.Unchanged++
			continue
		}
		if _, err := feeds.Update(ctx, updated); err != nil {
			return result, fmt.Errorf("update feed %s: %w", entry.URL, err)
		}
		result.Updated++
		logger.Info("feed updated", "module", "feedsync", "action", "update", "resource", "feed", "result", "ok", "feed_id", existing.ID, "url", entry.URL)
	}
	return result, nil
}

func apply(feed model.FeedSource, entry FeedEntry) model.FeedSource {
	feed.Name = entry.Name
	feed.Category = optional(entry.Category)
	feed.Author = optional(entry.Author)
	feed.Enabled = *entry.Enabled
	feed.FetchIntervalMinutes = entry.IntervalMinutes
	feed.MaxItemsPerFetch = entry.MaxItems
	feed.AutoPublish = entry.AutoPublish
	feed.TitleTemplate = optional(entry.TitleTemplate)
	feed.BodyTemplate = optional(entry.BodyTemplate)
	return feed
}

func sameConfig(a, b model.FeedSource) bool {
	return a.Name == b.Name &&
		equalPtr(a.Category, b.Category) &&
		equalPtr(a.Author, b.Author) &&
		a.Enabled == b.Enabled &&
		a.FetchIntervalMinutes == b.FetchIntervalMinutes &&
		a.MaxItemsPerFetch == b.MaxItemsPerFetch &&
		a.AutoPublish == b.AutoPublish &&
		equalPtr(a.TitleTemplate, b.TitleTemplate) &&
		equalPtr(a.BodyTemplate, b.BodyTemplate)
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
