package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"feedpress/internal/logger"
	"feedpress/internal/network"
)

const maxFeedBytes = 20 << 20

type ParsedItem struct {
	GUID        string
	Title       string
	Link        string
	Author      string
	Description string
	Content     string
	ImageURL    string
	PublishedAt *time.Time
}

type ParsedFeed struct {
	Title    string
	ImageURL string
	Items    []ParsedItem
}

type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (*ParsedFeed, error)
}

type feedParser struct {
	fetcher network.Fetcher
	timeout time.Duration
}

func NewFeedParser(fetcher network.Fetcher, timeout time.Duration) FeedParser {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &feedParser{fetcher: fetcher, timeout: timeout}
}

func (p *feedParser) Parse(ctx context.Context, feedURL string) (*ParsedFeed, error) {
	resp, err := p.fetcher.Fetch(ctx, network.Request{
		URL:      feedURL,
		Accept:   network.AcceptFeed,
		Timeout:  p.timeout,
		MaxBytes: maxFeedBytes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedFetch, err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFeedFetch, resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedParse, err)
	}

	base := resp.FinalURL
	if base == "" {
		base = feedURL
	}
	parsed := &ParsedFeed{
		Title: strings.TrimSpace(feed.Title),
		Items: make([]ParsedItem, 0, len(feed.Items)),
	}
	if feed.Image != nil {
		parsed.ImageURL = resolveURL(base, feed.Image.URL)
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		parsed.Items = append(parsed.Items, normalizeItem(item, base))
	}

	logger.Debug("feed parsed", "module", "service", "action", "parse", "resource", "feed", "result", "ok", "url", feedURL, "items", len(parsed.Items))
	return parsed, nil
}

func normalizeItem(item *gofeed.Item, base string) ParsedItem {
	parsed := ParsedItem{
		Title:       strings.TrimSpace(item.Title),
		Link:        resolveURL(base, strings.TrimSpace(item.Link)),
		Author:      itemAuthor(item),
		Description: strings.TrimSpace(item.Description),
		Content:     strings.TrimSpace(item.Content),
		ImageURL:    resolveURL(base, itemImage(item)),
	}
	if parsed.Content == "" {
		parsed.Content = parsed.Description
	}

	parsed.GUID = strings.TrimSpace(item.GUID)
	if parsed.GUID == "" {
		parsed.GUID = SyntheticGUID(parsed.Link, parsed.Title)
	}

	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		parsed.PublishedAt = &t
	} else if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		parsed.PublishedAt = &t
	}
	return parsed
}

// SyntheticGUID identifies an item that carries no guid of its own.
func SyntheticGUID(link, title string) string {
	sum := sha256.Sum256([]byte(link + "|" + title))
	return hex.EncodeToString(sum[:])
}

func itemAuthor(item *gofeed.Item) string {
	if item.Author != nil && strings.TrimSpace(item.Author.Name) != "" {
		return strings.TrimSpace(item.Author.Name)
	}
	for _, person := range item.Authors {
		if person != nil && strings.TrimSpace(person.Name) != "" {
			return strings.TrimSpace(person.Name)
		}
	}
	if item.DublinCoreExt != nil {
		for _, creator := range item.DublinCoreExt.Creator {
			if strings.TrimSpace(creator) != "" {
				return strings.TrimSpace(creator)
			}
		}
	}
	return ""
}

func itemImage(item *gofeed.Item) string {
	for _, enclosure := range item.Enclosures {
		if enclosure == nil || enclosure.URL == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enclosure.Type), "image/") || hasImageExtension(enclosure.URL) {
			return strings.TrimSpace(enclosure.URL)
		}
	}
	if media, ok := item.Extensions["media"]; ok {
		if imageURL := mediaImage(media); imageURL != "" {
			return imageURL
		}
	}
	if item.Image != nil {
		return strings.TrimSpace(item.Image.URL)
	}
	return ""
}

// mediaImage looks through media:content, media:thumbnail and media:group.
func mediaImage(media map[string][]ext.Extension) string {
	for _, content := range media["content"] {
		medium := strings.ToLower(content.Attrs["medium"])
		contentType := strings.ToLower(content.Attrs["type"])
		imageURL := strings.TrimSpace(content.Attrs["url"])
		if imageURL == "" {
			continue
		}
		if medium == "image" || strings.HasPrefix(contentType, "image/") || (medium == "" && contentType == "" && hasImageExtension(imageURL)) {
			return imageURL
		}
	}
	for _, thumbnail := range media["thumbnail"] {
		if imageURL := strings.TrimSpace(thumbnail.Attrs["url"]); imageURL != "" {
			return imageURL
		}
	}
	for _, group := range media["group"] {
		if imageURL := mediaImage(group.Children); imageURL != "" {
			return imageURL
		}
	}
	return ""
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".svg":  true,
}

func hasImageExtension(rawURL string) bool {
	return imageExtensions[urlExtension(rawURL)]
}

// urlExtension returns the lower-cased extension of the URL path, ignoring
// query and fragment.
func urlExtension(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}
	return strings.ToLower(path.Ext(p))
}

// resolveURL makes ref absolute against base. Protocol-relative refs get
// the base scheme. Unparseable refs are returned unchanged.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if refURL.IsAbs() {
		return refURL.String()
	}
	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
