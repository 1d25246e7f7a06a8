package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"feedpress/internal/model"
	"feedpress/internal/snowflake"
)

type ContentListFilter struct {
	Status       *model.ContentStatus
	FeedSourceID *int64
	Limit        int
}

type ContentRepository interface {
	// Create inserts the post. Returns ErrSlugTaken when the slug is in use.
	Create(ctx context.Context, content model.Content) (model.Content, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetByID(ctx context.Context, id int64) (model.Content, error)
	GetBySlug(ctx context.Context, slug string) (model.Content, error)
	List(ctx context.Context, filter ContentListFilter) ([]model.Content, error)
}

type contentRepository struct {
	db dbtx
}

func NewContentRepository(db dbtx) ContentRepository {
	return &contentRepository{db: db}
}

const contentColumns = `id, feed_source_id, slug, title, excerpt, body, category, author, featured_image_url,
	featured_image_small_url, source_url, status, featured, published_at, created_at, updated_at`

func (r *contentRepository) Create(ctx context.Context, content model.Content) (model.Content, error) {
	content.ID = snowflake.NextID()
	now := time.Now().UTC()
	if content.Status == "" {
		content.Status = model.ContentStatusDraft
	}
	result, err := r.db.ExecContext(
		ctx,
		`INSERT INTO contents (`+contentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO NOTHING`,
		content.ID,
		nullableInt64(content.FeedSourceID),
		content.Slug,
		content.Title,
		content.Excerpt,
		content.Body,
		nullableString(content.Category),
		nullableString(content.Author),
		nullableString(content.FeaturedImageURL),
		nullableString(content.FeaturedImageSmallURL),
		nullableString(content.SourceURL),
		string(content.Status),
		boolToInt(content.Featured),
		nullableTime(content.PublishedAt),
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.Content{}, fmt.Errorf("create content: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.Content{}, fmt.Errorf("create content: %w", err)
	}
	if affected == 0 {
		return model.Content{}, ErrSlugTaken
	}
	content.CreatedAt = now
	content.UpdatedAt = now
	return content, nil
}

func (r *contentRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM contents WHERE slug = ?)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists == 1, nil
}

func (r *contentRepository) GetByID(ctx context.Context, id int64) (model.Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = ?`, id)
	return scanContent(row)
}

func (r *contentRepository) GetBySlug(ctx context.Context, slug string) (model.Content, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE slug = ?`, slug)
	return scanContent(row)
}

func (r *contentRepository) List(ctx context.Context, filter ContentListFilter) ([]model.Content, error) {
	var conditions []string
	var args []any
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.FeedSourceID != nil {
		conditions = append(conditions, "feed_source_id = ?")
		args = append(args, *filter.FeedSourceID)
	}

	query := `SELECT ` + contentColumns + ` FROM contents`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	defer rows.Close()

	var contents []model.Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contents: %w", err)
	}
	return contents, nil
}

func scanContent(s scanner) (model.Content, error) {
	var content model.Content
	var feedSourceID sql.NullInt64
	var category, author, featuredImageURL, featuredImageSmallURL, sourceURL, publishedAt sql.NullString
	var status string
	var featured int
	var createdAt, updatedAt string
	if err := s.Scan(
		&content.ID,
		&feedSourceID,
		&content.Slug,
		&content.Title,
		&content.Excerpt,
		&content.Body,
		&category,
		&author,
		&featuredImageURL,
		&featuredImageSmallURL,
		&sourceURL,
		&status,
		&featured,
		&publishedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return model.Content{}, err
	}
	content.FeedSourceID = int64Ptr(feedSourceID)
	content.Category = stringPtr(category)
	content.Author = stringPtr(author)
	content.FeaturedImageURL = stringPtr(featuredImageURL)
	content.FeaturedImageSmallURL = stringPtr(featuredImageSmallURL)
	content.SourceURL = stringPtr(sourceURL)
	content.Status = model.ContentStatus(status)
	content.Featured = featured == 1

	var err error
	if content.PublishedAt, err = timePtr(publishedAt); err != nil {
		return model.Content{}, fmt.Errorf("parse content published_at: %w", err)
	}
	if content.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Content{}, fmt.Errorf("parse content created_at: %w", err)
	}
	if content.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Content{}, fmt.Errorf("parse content updated_at: %w", err)
	}
	return content, nil
}
