package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"feedpress/internal/logger"
	"feedpress/internal/model"
	"feedpress/internal/repository"
	"feedpress/internal/storage"
)

const (
	FeaturedFromMeta      = "meta"
	FeaturedFromContent   = "content"
	FeaturedFromEnclosure = "enclosure"

	maxSlugAttempts = 5
	excerptLength   = 300
	untitled        = "Untitled"
)

var DefaultFeaturedPriority = []string{FeaturedFromMeta, FeaturedFromContent, FeaturedFromEnclosure}

type AssemblerOptions struct {
	FeaturedPriority    []string
	PlaceholderPrefixes []string
}

// AssembleResult describes the post that was created.
type AssembleResult struct {
	Content        model.Content
	FeaturedSource string
	ImagesUploaded int
}

// PostAssembler turns an extracted item into a stored post.
type PostAssembler struct {
	contents  repository.ContentRepository
	validator *ImageValidator
	opts      AssemblerOptions
	now       func() time.Time
}

func NewPostAssembler(contents repository.ContentRepository, validator *ImageValidator, opts AssemblerOptions) *PostAssembler {
	if len(opts.FeaturedPriority) == 0 {
		opts.FeaturedPriority = DefaultFeaturedPriority
	}
	return &PostAssembler{contents: contents, validator: validator, opts: opts, now: time.Now}
}

// Assemble uploads the item's images, rewrites the body, applies the feed
// templates, decides the status and stores the post under a unique slug.
// Storage configuration errors fail the item.
func (a *PostAssembler) Assemble(ctx context.Context, session *UploadSession, feed model.FeedSource, item ParsedItem, extraction Extraction) (AssembleResult, error) {
	keyHint := item.Title

	uploaded, err := session.UploadAll(ctx, extraction.Images, keyHint)
	if err != nil {
		return AssembleResult{}, err
	}

	featured, featuredSource, err := a.selectFeatured(ctx, session, item, extraction, uploaded, keyHint)
	if err != nil {
		return AssembleResult{}, err
	}

	body := rewriteImageURLs(extraction.BodyHTML, extraction.Images, uploaded)

	author := derefOr(feed.Author, item.Author)
	values := TemplateValues{
		Content: body,
		Link:    item.Link,
		Title:   item.Title,
		Author:  author,
		Feed:    feed.Name,
	}
	title := item.Title
	if feed.TitleTemplate != nil && strings.TrimSpace(*feed.TitleTemplate) != "" {
		if title, err = RenderTemplate(*feed.TitleTemplate, values); err != nil {
			return AssembleResult{}, fmt.Errorf("title template: %w", err)
		}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = untitled
	}
	if feed.BodyTemplate != nil && strings.TrimSpace(*feed.BodyTemplate) != "" {
		if body, err = RenderTemplate(*feed.BodyTemplate, values.HTMLEscaped()); err != nil {
			return AssembleResult{}, fmt.Errorf("body template: %w", err)
		}
	}

	feedID := feed.ID
	content := model.Content{
		FeedSourceID: &feedID,
		Title:        title,
		Excerpt:      excerpt(item.Description, body),
		Body:         body,
		Category:     feed.Category,
		Author:       optionalString(author),
		SourceURL:    optionalString(item.Link),
		Status:       model.ContentStatusDraft,
	}
	if featured != "" {
		content.FeaturedImageURL = &featured
		content.FeaturedImageSmallURL = &featured
	}

	if feed.AutoPublish && hasVisibleBody(body) && featured != "" && !a.isPlaceholder(featured) {
		content.Status = model.ContentStatusPublished
		publishedAt := a.now().UTC()
		if item.PublishedAt != nil {
			publishedAt = *item.PublishedAt
		}
		content.PublishedAt = &publishedAt
	}

	created, err := a.create(ctx, content)
	if err != nil {
		return AssembleResult{}, err
	}
	return AssembleResult{Content: created, FeaturedSource: featuredSource, ImagesUploaded: len(uploaded)}, nil
}

func (a *PostAssembler) selectFeatured(ctx context.Context, session *UploadSession, item ParsedItem, extraction Extraction, uploaded map[string]*UploadedImage, keyHint string) (string, string, error) {
	for _, source := range a.opts.FeaturedPriority {
		var candidate string
		var err error
		switch source {
		case FeaturedFromMeta:
			candidate, err = a.uploadValidated(ctx, session, extraction.MetaImageURL, keyHint)
		case FeaturedFromContent:
			candidate = a.contentImage(extraction.Images, uploaded)
		case FeaturedFromEnclosure:
			candidate, err = a.uploadValidated(ctx, session, item.ImageURL, keyHint)
		}
		if err != nil {
			return "", "", err
		}
		if candidate != "" {
			return candidate, source, nil
		}
	}
	return "", "", nil
}

// uploadValidated uploads sourceURL and returns the stored URL if the image
// passes validation. Storage configuration errors are returned; other upload
// failures count as no image.
func (a *PostAssembler) uploadValidated(ctx context.Context, session *UploadSession, sourceURL, keyHint string) (string, error) {
	if sourceURL == "" || IsLogoLike(sourceURL) || a.isPlaceholder(sourceURL) {
		return "", nil
	}
	image, err := session.Upload(ctx, sourceURL, keyHint)
	if err != nil {
		if storage.IsConfigError(err) {
			return "", err
		}
		logger.Warn("featured image upload failed", "module", "service", "action", "upload", "resource", "image", "result", "failed", "url", sourceURL, "error", err)
		return "", nil
	}
	if image == nil || a.isPlaceholder(image.URL) {
		return "", nil
	}
	if ok, reason := a.validator.Validate(sourceURL, image.Data); !ok {
		logger.Debug("featured image rejected", "module", "service", "action", "validate", "resource", "image", "result", "rejected", "url", sourceURL, "reason", string(reason))
		return "", nil
	}
	return image.URL, nil
}

// contentImage prefers the first in-body image that passes validation and
// falls back to the first one that was stored at all.
func (a *PostAssembler) contentImage(images []string, uploaded map[string]*UploadedImage) string {
	var fallback string
	for _, sourceURL := range images {
		image, ok := uploaded[sourceURL]
		if !ok || a.isPlaceholder(sourceURL) || a.isPlaceholder(image.URL) {
			continue
		}
		if valid, _ := a.validator.Validate(sourceURL, image.Data); valid {
			return image.URL
		}
		if fallback == "" {
			fallback = image.URL
		}
	}
	return fallback
}

func (a *PostAssembler) isPlaceholder(imageURL string) bool {
	for _, prefix := range a.opts.PlaceholderPrefixes {
		if prefix != "" && strings.HasPrefix(imageURL, prefix) {
			return true
		}
	}
	return false
}

func (a *PostAssembler) create(ctx context.Context, content model.Content) (model.Content, error) {
	base := Slugify(content.Title, maxSlugLength)
	now := a.now()
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := slugCandidate(base, attempt, now)
		exists, err := a.contents.SlugExists(ctx, slug)
		if err != nil {
			return model.Content{}, err
		}
		if exists {
			continue
		}
		content.Slug = slug
		created, err := a.contents.Create(ctx, content)
		if errors.Is(err, repository.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return model.Content{}, err
		}
		return created, nil
	}
	return model.Content{}, fmt.Errorf("%w: %q", ErrSlugExhausted, base)
}

// rewriteImageURLs swaps every uploaded source URL in body for its public URL,
// in both raw and HTML-escaped form. Replacement is a single pass that tries
// longer URLs first, so a URL that prefixes another keeps its own target.
func rewriteImageURLs(body string, images []string, uploaded map[string]*UploadedImage) string {
	replacements := make(map[string]string, len(images)*2)
	for _, sourceURL := range images {
		image, ok := uploaded[sourceURL]
		if !ok || sourceURL == "" {
			continue
		}
		replacements[sourceURL] = image.URL
		if escaped := html.EscapeString(sourceURL); escaped != sourceURL {
			replacements[escaped] = html.EscapeString(image.URL)
		}
	}
	if len(replacements) == 0 {
		return body
	}

	olds := make([]string, 0, len(replacements))
	for old := range replacements {
		olds = append(olds, old)
	}
	sort.Slice(olds, func(i, j int) bool {
		if len(olds[i]) != len(olds[j]) {
			return len(olds[i]) > len(olds[j])
		}
		return olds[i] < olds[j]
	})
	pairs := make([]string, 0, len(olds)*2)
	for _, old := range olds {
		pairs = append(pairs, old, replacements[old])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}

func hasVisibleBody(body string) bool {
	if PlainText(body) != "" {
		return true
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return false
	}
	return doc.Find("img[src]").Length() > 0
}

func excerpt(description, body string) string {
	text := PlainText(description)
	if text == "" {
		text = PlainText(body)
	}
	runes := []rune(text)
	if len(runes) > excerptLength {
		return strings.TrimSpace(string(runes[:excerptLength]))
	}
	return text
}

func derefOr(value *string, fallback string) string {
	if value != nil && strings.TrimSpace(*value) != "" {
		return strings.TrimSpace(*value)
	}
	return strings.TrimSpace(fallback)
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
