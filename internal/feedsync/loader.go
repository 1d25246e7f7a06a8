// Package feedsync loads feed sources from a YAML file and upserts them
// into the database.
package feedsync

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"feedpress/internal/service"
)

const (
	defaultIntervalMinutes = 60
	defaultMaxItems        = 10
)

// File is the root of a feeds file.
type File struct {
	Feeds []FeedEntry `yaml:"feeds"`
}

// FeedEntry describes one feed source. Enabled defaults to true.
type FeedEntry struct {
	Name            string `yaml:"name"`
	URL             string `yaml:"url"`
	Category        string `yaml:"category"`
	Author          string `yaml:"author"`
	Enabled         *bool  `yaml:"enabled"`
	IntervalMinutes int    `yaml:"fetch_interval_minutes"`
	MaxItems        int    `yaml:"max_items_per_fetch"`
	AutoPublish     bool   `yaml:"auto_publish"`
	TitleTemplate   string `yaml:"title_template"`
	BodyTemplate    string `yaml:"body_template"`
}

// Load reads and validates the feeds file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a feeds document, applies defaults and validates every entry.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: parse feeds file: %v", service.ErrInvalid, err)
	}

	seen := make(map[string]int, len(file.Feeds))
	for i := range file.Feeds {
		entry := &file.Feeds[i]
		setDefaults(entry)
		if err := validate(entry); err != nil {
			return nil, fmt.Errorf("feed %d: %w", i, err)
		}
		if prev, ok := seen[entry.URL]; ok {
			return nil, fmt.Errorf("%w: feed %d repeats url of feed %d", service.ErrInvalid, i, prev)
		}
		seen[entry.URL] = i
	}
	return &file, nil
}

func setDefaults(entry *FeedEntry) {
	entry.Name = strings.TrimSpace(entry.Name)
	entry.URL = strings.TrimSpace(entry.URL)
	if entry.Enabled == nil {
		enabled := true
		entry.Enabled = &enabled
	}
	if entry.IntervalMinutes == 0 {
		entry.IntervalMinutes = defaultIntervalMinutes
	}
	if entry.MaxItems == 0 {
		entry.MaxItems = defaultMaxItems
	}
}

func validate(entry *FeedEntry) error {
	if entry.Name == "" {
		return fmt.Errorf("%w: name is required", service.ErrInvalid)
	}
	parsed, err := url.Parse(entry.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: url %q must be an absolute http(s) url", service.ErrInvalid, entry.URL)
	}
	if entry.IntervalMinutes < 0 {
		return fmt.Errorf("%w: fetch_interval_minutes must be positive", service.ErrInvalid)
	}
	if entry.MaxItems < 0 {
		return fmt.Errorf("%w: max_items_per_fetch must be positive", service.ErrInvalid)
	}
	if err := service.ValidateTemplate(entry.TitleTemplate); err != nil {
		return fmt.Errorf("title_template: %w", err)
	}
	if err := service.ValidateTemplate(entry.BodyTemplate); err != nil {
		return fmt.Errorf("body_template: %w", err)
	}
	return nil
}
