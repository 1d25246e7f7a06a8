package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

const (
	AppName    = "feedpress"
	AppVersion = "1.0.0"
)

// ChromeUserAgent is sent on article and image fetches; many publishers
// block non-browser agents. Must match the azuretls Chrome profile version.
const (
	ChromeUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36"
	ChromeSecChUa   = `"Google Chrome";v="135", "Chromium";v="135", "Not-A.Brand";v="8"`
)

const (
	ModeOnce = "once"
	ModeLoop = "loop"
)

const (
	StorageS3     = "s3"
	StorageLocal  = "local"
	StorageMemory = "memory"
)

// ErrHelp is returned by Load when --help was requested.
var ErrHelp = errors.New("help requested")

// DefaultPlaceholderPrefixes lists stock-photo and placeholder hosts whose
// images never count as a featured image.
var DefaultPlaceholderPrefixes = []string{
	"https://images.unsplash.com/",
	"https://source.unsplash.com/",
	"https://via.placeholder.com/",
	"https://placehold.co/",
	"https://picsum.photos/",
}

type Config struct {
	DataDir  string `long:"data-dir" env:"FEEDPRESS_DATA_DIR" default:"./data" description:"Directory for the database and local media"`
	DBPath   string `long:"db-path" env:"FEEDPRESS_DB_PATH" description:"SQLite database path (default: <data-dir>/feedpress.db)"`
	LogLevel string `long:"log-level" env:"FEEDPRESS_LOG_LEVEL" default:"info" description:"Log level: debug, info, warn, error"`
	NodeID   int64  `long:"node-id" env:"FEEDPRESS_NODE_ID" default:"1" description:"Snowflake node id (0-1023)"`

	Mode        string        `long:"mode" env:"FEEDPRESS_MODE" default:"once" choice:"once" choice:"loop" description:"Run once and exit, or loop on an interval"`
	RunInterval time.Duration `long:"run-interval" env:"FEEDPRESS_RUN_INTERVAL" default:"15m" description:"Interval between runs in loop mode"`
	RunTimeout  time.Duration `long:"run-timeout" env:"FEEDPRESS_RUN_TIMEOUT" default:"10m" description:"Deadline for a single run"`
	FeedsFile   string        `long:"feeds-file" env:"FEEDPRESS_FEEDS_FILE" description:"Optional YAML file of feed sources to sync before running"`
	FeedID      int64         `long:"feed-id" description:"Process only this feed now, ignoring its schedule (once mode)"`

	FeedTimeout    time.Duration `long:"feed-timeout" env:"FEEDPRESS_FEED_TIMEOUT" default:"30s" description:"Timeout for feed fetches"`
	ArticleTimeout time.Duration `long:"article-timeout" env:"FEEDPRESS_ARTICLE_TIMEOUT" default:"30s" description:"Timeout for article page fetches"`
	ImageTimeout   time.Duration `long:"image-timeout" env:"FEEDPRESS_IMAGE_TIMEOUT" default:"15s" description:"Timeout for image downloads"`
	UploadTimeout  time.Duration `long:"upload-timeout" env:"FEEDPRESS_UPLOAD_TIMEOUT" default:"30s" description:"Timeout for object storage uploads"`
	UserAgent      string        `long:"user-agent" env:"FEEDPRESS_USER_AGENT" description:"User agent for outbound requests (default: Chrome)"`
	BrowserFetch   bool          `long:"browser-fetch" env:"FEEDPRESS_BROWSER_FETCH" description:"Fetch articles and images with a Chrome TLS fingerprint"`
	ProxyURL       string        `long:"proxy" env:"FEEDPRESS_PROXY" description:"HTTP or SOCKS5 proxy for outbound requests"`
	HostQPS        float64       `long:"host-qps" env:"FEEDPRESS_HOST_QPS" default:"2" description:"Per-host request rate limit, 0 disables"`

	StorageBackend   string `long:"storage" env:"FEEDPRESS_STORAGE" default:"local" choice:"s3" choice:"local" choice:"memory" description:"Object storage backend"`
	StorageEndpoint  string `long:"storage-endpoint" env:"FEEDPRESS_STORAGE_ENDPOINT" description:"S3-compatible endpoint host[:port]"`
	StorageBucket    string `long:"storage-bucket" env:"FEEDPRESS_STORAGE_BUCKET" description:"Bucket name"`
	StorageAccessKey string `long:"storage-access-key" env:"FEEDPRESS_STORAGE_ACCESS_KEY" description:"Access key id"`
	StorageSecretKey string `long:"storage-secret-key" env:"FEEDPRESS_STORAGE_SECRET_KEY" description:"Secret access key"`
	StorageRegion    string `long:"storage-region" env:"FEEDPRESS_STORAGE_REGION" description:"Bucket region"`
	StorageUseSSL    bool   `long:"storage-ssl" env:"FEEDPRESS_STORAGE_SSL" description:"Use TLS for the storage endpoint"`
	StoragePublicURL string `long:"storage-public-url" env:"FEEDPRESS_STORAGE_PUBLIC_URL" description:"Public base URL objects are served from"`
	StorageDir       string `long:"storage-dir" env:"FEEDPRESS_STORAGE_DIR" description:"Directory for the local backend (default: <data-dir>/media)"`
	CacheControl     string `long:"cache-control" env:"FEEDPRESS_CACHE_CONTROL" default:"public, max-age=31536000, immutable" description:"Cache-Control header for uploaded objects"`

	PlaceholderPrefixes []string `long:"placeholder-prefix" env:"FEEDPRESS_PLACEHOLDER_PREFIXES" env-delim:"," description:"URL prefixes treated as placeholder images"`
	FeaturedPriority    []string `long:"featured-priority" env:"FEEDPRESS_FEATURED_PRIORITY" env-delim:"," description:"Featured image source order (meta, content, enclosure)"`
	ImageMinBytes       int      `long:"image-min-bytes" env:"FEEDPRESS_IMAGE_MIN_BYTES" default:"1024" description:"Minimum featured image size in bytes"`
	ImageMinWidth       int      `long:"image-min-width" env:"FEEDPRESS_IMAGE_MIN_WIDTH" default:"100" description:"Minimum featured image width"`
	ImageMinHeight      int      `long:"image-min-height" env:"FEEDPRESS_IMAGE_MIN_HEIGHT" default:"100" description:"Minimum featured image height"`
	NoReadability       bool     `long:"no-readability" env:"FEEDPRESS_NO_READABILITY" description:"Skip the readability pass when no article container matches"`
	UploadConcurrency   int      `long:"upload-concurrency" env:"FEEDPRESS_UPLOAD_CONCURRENCY" default:"2" description:"Concurrent in-body image uploads per item"`
	DefaultMaxItems     int      `long:"default-max-items" env:"FEEDPRESS_DEFAULT_MAX_ITEMS" default:"10" description:"Item cap for feeds without max_items_per_fetch"`
}

var validFeaturedSources = map[string]bool{
	"meta":      true,
	"content":   true,
	"enclosure": true,
}

// Load parses args and the environment into a Config.
func Load(args []string) (Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return Config{}, ErrHelp
		}
		return Config{}, fmt.Errorf("parse configuration: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.DataDir = filepath.Clean(c.DataDir)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "feedpress.db")
	}
	c.DBPath = filepath.Clean(c.DBPath)
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(c.DataDir, "media")
	}
	if c.StoragePublicURL == "" && c.StorageBackend != StorageS3 {
		c.StoragePublicURL = "/media"
	}
	if c.UserAgent == "" {
		c.UserAgent = ChromeUserAgent
	}
	if len(c.PlaceholderPrefixes) == 0 {
		c.PlaceholderPrefixes = append([]string(nil), DefaultPlaceholderPrefixes...)
	}
	if len(c.FeaturedPriority) == 0 {
		c.FeaturedPriority = []string{"meta", "content", "enclosure"}
	}
	for i, source := range c.FeaturedPriority {
		c.FeaturedPriority[i] = strings.ToLower(strings.TrimSpace(source))
	}
}

// Validate checks settings that flags cannot express.
func (c Config) Validate() error {
	if c.NodeID < 0 || c.NodeID > 1023 {
		return fmt.Errorf("node id %d out of range 0-1023", c.NodeID)
	}
	seen := make(map[string]bool)
	for _, source := range c.FeaturedPriority {
		if !validFeaturedSources[source] {
			return fmt.Errorf("unknown featured image source %q", source)
		}
		if seen[source] {
			return fmt.Errorf("duplicate featured image source %q", source)
		}
		seen[source] = true
	}
	if c.FeedID != 0 && c.Mode != ModeOnce {
		return fmt.Errorf("feed id is only supported in once mode")
	}
	if c.Mode == ModeLoop && c.RunInterval <= 0 {
		return fmt.Errorf("run interval must be positive in loop mode")
	}
	if c.StorageBackend == StorageS3 {
		if c.StorageEndpoint == "" || c.StorageBucket == "" {
			return fmt.Errorf("s3 storage requires endpoint and bucket")
		}
		if c.StoragePublicURL == "" {
			return fmt.Errorf("s3 storage requires a public url")
		}
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("upload concurrency must be at least 1")
	}
	return nil
}
