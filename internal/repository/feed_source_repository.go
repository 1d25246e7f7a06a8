package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"feedpress/internal/model"
	"feedpress/internal/snowflake"
)

type FeedSourceRepository interface {
	Create(ctx context.Context, feed model.FeedSource) (model.FeedSource, error)
	GetByID(ctx context.Context, id int64) (model.FeedSource, error)
	FindByURL(ctx context.Context, url string) (*model.FeedSource, error)
	List(ctx context.Context) ([]model.FeedSource, error)
	ListEnabled(ctx context.Context) ([]model.FeedSource, error)
	Update(ctx context.Context, feed model.FeedSource) (model.FeedSource, error)
	RecordFetchSuccess(ctx context.Context, id int64, fetchedAt time.Time, siteImageURL *string) error
	RecordFetchError(ctx context.Context, id int64, fetchedAt time.Time, message string) error
}

type feedSourceRepository struct {
	db dbtx
}

func NewFeedSourceRepository(db dbtx) FeedSourceRepository {
	return &feedSourceRepository{db: db}
}

const feedSourceColumns = `id, name, url, category, author, enabled, fetch_interval_minutes, max_items_per_fetch, auto_publish,
	title_template, body_template, site_image_url, last_fetched_at, last_error, error_count, created_at, updated_at`

func (r *feedSourceRepository) Create(ctx context.Context, feed model.FeedSource) (model.FeedSource, error) {
	feed.ID = snowflake.NextID()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO feed_sources (id, name, url, category, author, enabled, fetch_interval_minutes, max_items_per_fetch, auto_publish,
		   title_template, body_template, site_image_url, last_fetched_at, last_error, error_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		feed.ID,
		feed.Name,
		feed.URL,
		nullableString(feed.Category),
		nullableString(feed.Author),
		boolToInt(feed.Enabled),
		feed.FetchIntervalMinutes,
		feed.MaxItemsPerFetch,
		boolToInt(feed.AutoPublish),
		nullableString(feed.TitleTemplate),
		nullableString(feed.BodyTemplate),
		nullableString(feed.SiteImageURL),
		nullableTime(feed.LastFetchedAt),
		nullableString(feed.LastError),
		feed.ErrorCount,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.FeedSource{}, fmt.Errorf("create feed source: %w", err)
	}
	feed.CreatedAt = now
	feed.UpdatedAt = now
	return feed, nil
}

func (r *feedSourceRepository) GetByID(ctx context.Context, id int64) (model.FeedSource, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedSourceColumns+` FROM feed_sources WHERE id = ?`, id)
	return scanFeedSource(row)
}

func (r *feedSourceRepository) FindByURL(ctx context.Context, url string) (*model.FeedSource, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+feedSourceColumns+` FROM feed_sources WHERE url = ?`, url)
	feed, err := scanFeedSource(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find feed source: %w", err)
	}
	return &feed, nil
}

func (r *feedSourceRepository) List(ctx context.Context) ([]model.FeedSource, error) {
	return r.list(ctx, `SELECT `+feedSourceColumns+` FROM feed_sources ORDER BY name, id`)
}

func (r *feedSourceRepository) ListEnabled(ctx context.Context) ([]model.FeedSource, error) {
	return r.list(ctx, `SELECT `+feedSourceColumns+` FROM feed_sources WHERE enabled = 1 ORDER BY last_fetched_at IS NOT NULL, last_fetched_at, id`)
}

func (r *feedSourceRepository) list(ctx context.Context, query string, args ...any) ([]model.FeedSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feed sources: %w", err)
	}
	defer rows.Close()

	var feeds []model.FeedSource
	for rows.Next() {
		feed, err := scanFeedSource(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed sources: %w", err)
	}
	return feeds, nil
}

// Update writes the configuration fields. Fetch health is only changed
// through RecordFetchSuccess and RecordFetchError.
func (r *feedSourceRepository) Update(ctx context.Context, feed model.FeedSource) (model.FeedSource, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE feed_sources SET name = ?, url = ?, category = ?, author = ?, enabled = ?, fetch_interval_minutes = ?,
		   max_items_per_fetch = ?, auto_publish = ?, title_template = ?, body_template = ?, updated_at = ?
		 WHERE id = ?`,
		feed.Name,
		feed.URL,
		nullableString(feed.Category),
		nullableString(feed.Author),
		boolToInt(feed.Enabled),
		feed.FetchIntervalMinutes,
		feed.MaxItemsPerFetch,
		boolToInt(feed.AutoPublish),
		nullableString(feed.TitleTemplate),
		nullableString(feed.BodyTemplate),
		formatTime(now),
		feed.ID,
	)
	if err != nil {
		return model.FeedSource{}, fmt.Errorf("update feed source: %w", err)
	}
	feed.UpdatedAt = now
	return feed, nil
}

func (r *feedSourceRepository) RecordFetchSuccess(ctx context.Context, id int64, fetchedAt time.Time, siteImageURL *string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE feed_sources SET last_fetched_at = ?, last_error = NULL, error_count = 0,
		   site_image_url = COALESCE(?, site_image_url), updated_at = ?
		 WHERE id = ?`,
		formatTime(fetchedAt),
		nullableString(siteImageURL),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("record fetch success: %w", err)
	}
	return nil
}

func (r *feedSourceRepository) RecordFetchError(ctx context.Context, id int64, fetchedAt time.Time, message string) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE feed_sources SET last_fetched_at = ?, last_error = ?, error_count = error_count + 1, updated_at = ?
		 WHERE id = ?`,
		formatTime(fetchedAt),
		message,
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("record fetch error: %w", err)
	}
	return nil
}

func scanFeedSource(s scanner) (model.FeedSource, error) {
	var feed model.FeedSource
	var category, author, titleTemplate, bodyTemplate, siteImageURL, lastFetchedAt, lastError sql.NullString
	var enabled, autoPublish int
	var createdAt, updatedAt string
	if err := s.Scan(
		&feed.ID,
		&feed.Name,
		&feed.URL,
		&category,
		&author,
		&enabled,
		&feed.FetchIntervalMinutes,
		&feed.MaxItemsPerFetch,
		&autoPublish,
		&titleTemplate,
		&bodyTemplate,
		&siteImageURL,
		&lastFetchedAt,
		&lastError,
		&feed.ErrorCount,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.FeedSource{}, err
	}
	feed.Category = stringPtr(category)
	feed.Author = stringPtr(author)
	feed.Enabled = enabled == 1
	feed.AutoPublish = autoPublish == 1
	feed.TitleTemplate = stringPtr(titleTemplate)
	feed.BodyTemplate = stringPtr(bodyTemplate)
	feed.SiteImageURL = stringPtr(siteImageURL)
	feed.LastError = stringPtr(lastError)

	var err error
	if feed.LastFetchedAt, err = timePtr(lastFetchedAt); err != nil {
		return model.FeedSource{}, fmt.Errorf("parse feed source last_fetched_at: %w", err)
	}
	if feed.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.FeedSource{}, fmt.Errorf("parse feed source created_at: %w", err)
	}
	if feed.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.FeedSource{}, fmt.Errorf("parse feed source updated_at: %w", err)
	}
	return feed, nil
}
