package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feedpress/internal/model"
	"feedpress/internal/snowflake"
)

type FeedItemRepository interface {
	// Create inserts the item. Returns ErrDuplicate when the guid was
	// already recorded for the feed source.
	Create(ctx context.Context, item model.FeedItem) (model.FeedItem, error)
	// ExistingGUIDs reports which of guids are already recorded for the feed source.
	ExistingGUIDs(ctx context.Context, feedSourceID int64, guids []string) (map[string]bool, error)
	LinkContent(ctx context.Context, id int64, contentID int64) error
	ListByFeed(ctx context.Context, feedSourceID int64) ([]model.FeedItem, error)
}

type feedItemRepository struct {
	db dbtx
}

func NewFeedItemRepository(db dbtx) FeedItemRepository {
	return &feedItemRepository{db: db}
}

// sqlite caps bound parameters; stay well under the limit.
const guidBatchSize = 500

func (r *feedItemRepository) Create(ctx context.Context, item model.FeedItem) (model.FeedItem, error) {
	item.ID = snowflake.NextID()
	now := time.Now().UTC()
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO feed_items (id, feed_source_id, guid, title, link, author, description, content, image_url, published_at, processed, content_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(feed_source_id, guid) DO NOTHING`,
		item.ID,
		item.FeedSourceID,
		item.GUID,
		item.Title,
		item.Link,
		nullableString(item.Author),
		nullableString(item.Description),
		nullableString(item.Content),
		nullableString(item.ImageURL),
		nullableTime(item.PublishedAt),
		boolToInt(item.Processed),
		nullableInt64(item.ContentID),
		formatTime(now),
	)
	if err != nil {
		return model.FeedItem{}, fmt.Errorf("create feed item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.FeedItem{}, fmt.Errorf("create feed item: %w", err)
	}
	if affected == 0 {
		return model.FeedItem{}, ErrDuplicate
	}
	item.CreatedAt = now
	return item, nil
}

func (r *feedItemRepository) ExistingGUIDs(ctx context.Context, feedSourceID int64, guids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	for start := 0; start < len(guids); start += guidBatchSize {
		end := min(start+guidBatchSize, len(guids))
		batch := guids[start:end]

		args := make([]any, 0, len(batch)+1)
		args = append(args, feedSourceID)
		for _, guid := range batch {
			args = append(args, guid)
		}

		rows, err := r.db.QueryContext(
			ctx,
			`SELECT guid FROM feed_items WHERE feed_source_id = ? AND guid IN (`+placeholders(len(batch))+`)`,
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("query existing guids: %w", err)
		}
		for rows.Next() {
			var guid string
			if err := rows.Scan(&guid); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scan guid: %w", err)
			}
			existing[guid] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("iterate guids: %w", err)
		}
	}
	return existing, nil
}

func (r *feedItemRepository) LinkContent(ctx context.Context, id int64, contentID int64) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE feed_items SET content_id = ?, processed = 1 WHERE id = ?`,
		contentID,
		id,
	)
	if err != nil {
		return fmt.Errorf("link feed item content: %w", err)
	}
	return nil
}

func (r *feedItemRepository) ListByFeed(ctx context.Context, feedSourceID int64) ([]model.FeedItem, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, feed_source_id, guid, title, link, author, description, content, image_url, published_at, processed, content_id, created_at
		 FROM feed_items WHERE feed_source_id = ? ORDER BY created_at, id`,
		feedSourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list feed items: %w", err)
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed items: %w", err)
	}
	return items, nil
}

func scanFeedItem(s scanner) (model.FeedItem, error) {
	var item model.FeedItem
	var author, description, content, imageURL, publishedAt sql.NullString
	var contentID sql.NullInt64
	var processed int
	var createdAt string
	if err := s.Scan(
		&item.ID,
		&item.FeedSourceID,
		&item.GUID,
		&item.Title,
		&item.Link,
		&author,
		&description,
		&content,
		&imageURL,
		&publishedAt,
		&processed,
		&contentID,
		&createdAt,
	); err != nil {
		return model.FeedItem{}, err
	}
	item.Author = stringPtr(author)
	item.Description = stringPtr(description)
	item.Content = stringPtr(content)
	item.ImageURL = stringPtr(imageURL)
	item.Processed = processed == 1
	item.ContentID = int64Ptr(contentID)

	var err error
	if item.PublishedAt, err = timePtr(publishedAt); err != nil {
		return model.FeedItem{}, fmt.Errorf("parse feed item published_at: %w", err)
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.FeedItem{}, fmt.Errorf("parse feed item created_at: %w", err)
	}
	return item, nil
}
