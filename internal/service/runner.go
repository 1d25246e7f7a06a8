package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"feedpress/internal/logger"
	"feedpress/internal/model"
	"feedpress/internal/repository"
)

const defaultMaxItemsPerFetch = 10

type FeedRunner interface {
	// RunAll processes every enabled feed that is due.
	RunAll(ctx context.Context) (*RunReport, error)
	// RunFeed processes one feed now, whether or not it is due or enabled.
	RunFeed(ctx context.Context, feedID int64) (*RunReport, error)
	IsRunning() bool
}

type RunnerDeps struct {
	Feeds     repository.FeedSourceRepository
	Items     repository.FeedItemRepository
	Parser    FeedParser
	Extractor ContentExtractor
	Uploader  *MediaUploader
	Assembler *PostAssembler
}

type feedRunner struct {
	feeds           repository.FeedSourceRepository
	items           repository.FeedItemRepository
	parser          FeedParser
	extractor       ContentExtractor
	uploader        *MediaUploader
	assembler       *PostAssembler
	defaultMaxItems int
	now             func() time.Time

	mu      sync.Mutex
	running bool
}

func NewFeedRunner(deps RunnerDeps, defaultMaxItems int) FeedRunner {
	if defaultMaxItems <= 0 {
		defaultMaxItems = defaultMaxItemsPerFetch
	}
	return &feedRunner{
		feeds:           deps.Feeds,
		items:           deps.Items,
		parser:          deps.Parser,
		extractor:       deps.Extractor,
		uploader:        deps.Uploader,
		assembler:       deps.Assembler,
		defaultMaxItems: defaultMaxItems,
		now:             time.Now,
	}
}

func (r *feedRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *feedRunner) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return ErrAlreadyRunning
	}
	r.running = true
	return nil
}

func (r *feedRunner) end() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

func (r *feedRunner) newReport() *RunReport {
	return &RunReport{RunID: uuid.New().String(), StartedAt: r.now().UTC()}
}

func (r *feedRunner) RunAll(ctx context.Context) (*RunReport, error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	feeds, err := r.feeds.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}

	report := r.newReport()
	logger.Info("run started", "module", "service", "action", "run", "resource", "feed", "result", "started", "run_id", report.RunID, "feeds", len(feeds))

	session := r.uploader.NewSession()
	now := r.now()
	for _, feed := range feeds {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if !isDue(feed, now) {
			continue
		}
		report.FeedsConsidered++
		report.addFeed(r.processFeed(ctx, session, feed, report))
	}

	r.finish(report, session)
	return report, nil
}

func (r *feedRunner) RunFeed(ctx context.Context, feedID int64) (*RunReport, error) {
	if err := r.begin(); err != nil {
		return nil, err
	}
	defer r.end()

	feed, err := r.feeds.GetByID(ctx, feedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get feed: %w", err)
	}

	report := r.newReport()
	session := r.uploader.NewSession()
	report.FeedsConsidered = 1
	report.addFeed(r.processFeed(ctx, session, feed, report))
	r.finish(report, session)
	return report, nil
}

func (r *feedRunner) finish(report *RunReport, session *UploadSession) {
	report.FinishedAt = r.now().UTC()
	report.ImagesUploaded = session.Uploads()
	logger.Info("run finished", "module", "service", "action", "run", "resource", "feed", "result", "ok",
		"run_id", report.RunID,
		"feeds", report.FeedsConsidered,
		"feeds_ok", report.FeedsSucceeded,
		"posts", report.PostsCreated,
		"published", report.Published,
		"drafts", report.Drafts,
		"errors", len(report.Errors),
		"cancelled", report.Cancelled,
		"duration_ms", report.Duration().Milliseconds(),
	)
}

func isDue(feed model.FeedSource, now time.Time) bool {
	if !feed.Enabled {
		return false
	}
	if feed.LastFetchedAt == nil || feed.FetchIntervalMinutes <= 0 {
		return true
	}
	return now.Sub(*feed.LastFetchedAt) >= time.Duration(feed.FetchIntervalMinutes)*time.Minute
}

// processFeed runs one feed. It never returns an error: failures are
// recorded on the feed and in the report.
func (r *feedRunner) processFeed(ctx context.Context, session *UploadSession, feed model.FeedSource, report *RunReport) (summary FeedSummary) {
	summary = FeedSummary{FeedID: feed.ID, FeedName: feed.Name}
	defer func() {
		if rec := recover(); rec != nil {
			r.failFeed(ctx, feed, fmt.Sprintf("panic: %v", rec), &summary, report)
		}
	}()

	parsed, err := r.parser.Parse(ctx, feed.URL)
	if err != nil {
		r.failOrCancel(ctx, feed, err, &summary, report)
		return summary
	}
	summary.ItemsInFeed = len(parsed.Items)

	fresh, err := r.newItems(ctx, feed.ID, parsed.Items, &summary)
	if err != nil {
		r.failOrCancel(ctx, feed, err, &summary, report)
		return summary
	}

	limit := feed.MaxItemsPerFetch
	if limit <= 0 {
		limit = r.defaultMaxItems
	}
	if len(fresh) > limit {
		summary.Deferred = len(fresh) - limit
		fresh = fresh[:limit]
	}

	for _, item := range fresh {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		// Once started, an item runs to completion so its row and post stay consistent.
		r.processItem(context.WithoutCancel(ctx), session, feed, item, &summary, report)
	}

	if err := r.feeds.RecordFetchSuccess(context.WithoutCancel(ctx), feed.ID, r.now().UTC(), optionalString(parsed.ImageURL)); err != nil {
		logger.Error("record feed success failed", "module", "service", "action", "update", "resource", "feed", "result", "failed", "feed_id", feed.ID, "error", err)
	}
	logger.Info("feed processed", "module", "service", "action", "run", "resource", "feed", "result", "ok",
		"feed_id", feed.ID,
		"feed_name", feed.Name,
		"items", summary.ItemsInFeed,
		"new", summary.NewItems,
		"posts", summary.PostsCreated,
		"failed", summary.FailedItems,
	)
	return summary
}

// newItems drops items whose guid is already stored or repeats within the
// document, keeping document order.
func (r *feedRunner) newItems(ctx context.Context, feedID int64, items []ParsedItem, summary *FeedSummary) ([]ParsedItem, error) {
	guids := make([]string, 0, len(items))
	for _, item := range items {
		guids = append(guids, item.GUID)
	}
	existing, err := r.items.ExistingGUIDs(ctx, feedID, guids)
	if err != nil {
		return nil, fmt.Errorf("check seen items: %w", err)
	}

	seen := make(map[string]bool, len(items))
	fresh := make([]ParsedItem, 0, len(items))
	for _, item := range items {
		if existing[item.GUID] || seen[item.GUID] {
			summary.Duplicates++
			continue
		}
		seen[item.GUID] = true
		fresh = append(fresh, item)
	}
	summary.NewItems = len(fresh)
	return fresh, nil
}

func (r *feedRunner) processItem(ctx context.Context, session *UploadSession, feed model.FeedSource, item ParsedItem, summary *FeedSummary, report *RunReport) {
	defer func() {
		if rec := recover(); rec != nil {
			r.failItem(feed, item, fmt.Sprintf("panic: %v", rec), summary, report)
		}
	}()

	row, err := r.items.Create(ctx, model.FeedItem{
		FeedSourceID: feed.ID,
		GUID:         item.GUID,
		Title:        item.Title,
		Link:         item.Link,
		Author:       optionalString(item.Author),
		Description:  optionalString(item.Description),
		Content:      optionalString(item.Content),
		ImageURL:     optionalString(item.ImageURL),
		PublishedAt:  item.PublishedAt,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		summary.NewItems--
		summary.Duplicates++
		return
	}
	if err != nil {
		r.failItem(feed, item, fmt.Sprintf("record item: %v", err), summary, report)
		return
	}

	extraction := r.extractor.Extract(ctx, item.Link, item.Content)
	result, err := r.assembler.Assemble(ctx, session, feed, item, extraction)
	if err != nil {
		r.failItem(feed, item, fmt.Sprintf("assemble post: %v", err), summary, report)
		return
	}

	if err := r.items.LinkContent(ctx, row.ID, result.Content.ID); err != nil {
		r.failItem(feed, item, fmt.Sprintf("link post %d: %v", result.Content.ID, err), summary, report)
		return
	}

	summary.PostsCreated++
	if result.Content.Status == model.ContentStatusPublished {
		summary.Published++
	} else {
		summary.Drafts++
	}

	logger.Debug("post created", "module", "service", "action", "create", "resource", "content", "result", "ok",
		"feed_id", feed.ID,
		"guid", item.GUID,
		"slug", result.Content.Slug,
		"status", string(result.Content.Status),
		"featured_source", result.FeaturedSource,
	)
}

// failOrCancel marks the run cancelled instead of failing the feed when err
// came from the run context being cancelled.
func (r *feedRunner) failOrCancel(ctx context.Context, feed model.FeedSource, err error, summary *FeedSummary, report *RunReport) {
	if ctx.Err() != nil {
		report.Cancelled = true
		summary.Error = "cancelled"
		return
	}
	r.failFeed(ctx, feed, err.Error(), summary, report)
}

func (r *feedRunner) failFeed(ctx context.Context, feed model.FeedSource, message string, summary *FeedSummary, report *RunReport) {
	summary.Error = message
	report.Errors = append(report.Errors, RunError{FeedID: feed.ID, FeedName: feed.Name, Message: message})
	logger.Warn("feed failed", "module", "service", "action", "run", "resource", "feed", "result", "failed", "feed_id", feed.ID, "feed_name", feed.Name, "error", message)

	if err := r.feeds.RecordFetchError(context.WithoutCancel(ctx), feed.ID, r.now().UTC(), message); err != nil {
		logger.Error("record feed error failed", "module", "service", "action", "update", "resource", "feed", "result", "failed", "feed_id", feed.ID, "error", err)
	}
}

func (r *feedRunner) failItem(feed model.FeedSource, item ParsedItem, message string, summary *FeedSummary, report *RunReport) {
	summary.FailedItems++
	report.Errors = append(report.Errors, RunError{FeedID: feed.ID, FeedName: feed.Name, ItemGUID: item.GUID, Message: message})
	logger.Warn("item failed", "module", "service", "action", "run", "resource", "item", "result", "failed", "feed_id", feed.ID, "guid", item.GUID, "error", message)
}
