package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"feedpress/internal/logger"
	"feedpress/internal/network"
	"feedpress/internal/storage"
)

const maxImageBytes = 25 << 20

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".svg":  "image/svg+xml",
}

var contentTypeExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/avif":    ".avif",
	"image/svg+xml": ".svg",
}

type UploadedImage struct {
	SourceURL   string
	URL         string
	Key         string
	ContentType string
	Data        []byte
}

type UploaderOptions struct {
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
	CacheControl    string
	Concurrency     int
}

// MediaUploader copies remote images into object storage.
type MediaUploader struct {
	fetcher network.Fetcher
	store   storage.ObjectStore
	opts    UploaderOptions
	now     func() time.Time
}

func NewMediaUploader(fetcher network.Fetcher, store storage.ObjectStore, opts UploaderOptions) *MediaUploader {
	if opts.DownloadTimeout <= 0 {
		opts.DownloadTimeout = 15 * time.Second
	}
	if opts.UploadTimeout <= 0 {
		opts.UploadTimeout = 30 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &MediaUploader{fetcher: fetcher, store: store, opts: opts, now: time.Now}
}

// NewSession starts a memo scope. Each source URL is downloaded and uploaded
// at most once per session.
func (u *MediaUploader) NewSession() *UploadSession {
	return &UploadSession{
		uploader: u,
		results:  make(map[string]uploadResult),
	}
}

type uploadResult struct {
	image *UploadedImage
	err   error
}

type UploadSession struct {
	uploader *MediaUploader
	group    singleflight.Group

	mu      sync.Mutex
	results map[string]uploadResult
	uploads int
}

// Upload returns the stored copy of sourceURL. A nil image with a nil error
// means the source could not be downloaded. Storage failures are returned
// as errors wrapping the storage sentinels.
func (s *UploadSession) Upload(ctx context.Context, sourceURL, keyHint string) (*UploadedImage, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" || strings.HasPrefix(sourceURL, "data:") {
		return nil, nil
	}

	s.mu.Lock()
	if cached, ok := s.results[sourceURL]; ok {
		s.mu.Unlock()
		return cached.image, cached.err
	}
	s.mu.Unlock()

	value, _, _ := s.group.Do(sourceURL, func() (any, error) {
		s.mu.Lock()
		if cached, ok := s.results[sourceURL]; ok {
			s.mu.Unlock()
			return cached, nil
		}
		s.mu.Unlock()

		image, err := s.uploader.transfer(ctx, sourceURL, keyHint)
		result := uploadResult{image: image, err: err}

		s.mu.Lock()
		s.results[sourceURL] = result
		if image != nil {
			s.uploads++
		}
		s.mu.Unlock()
		return result, nil
	})
	result := value.(uploadResult)
	return result.image, result.err
}

// UploadAll uploads sourceURLs with bounded concurrency. The result maps each
// successfully stored source URL to its upload. The first storage
// configuration error, if any, is returned alongside the partial result.
func (s *UploadSession) UploadAll(ctx context.Context, sourceURLs []string, keyHint string) (map[string]*UploadedImage, error) {
	uploaded := make(map[string]*UploadedImage, len(sourceURLs))
	var mu sync.Mutex
	var configErr error

	g := new(errgroup.Group)
	g.SetLimit(s.uploader.opts.Concurrency)
	for _, sourceURL := range sourceURLs {
		g.Go(func() error {
			image, err := s.Upload(ctx, sourceURL, keyHint)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if storage.IsConfigError(err) && configErr == nil {
					configErr = err
				}
				return nil
			}
			if image != nil {
				uploaded[sourceURL] = image
			}
			return nil
		})
	}
	_ = g.Wait()
	return uploaded, configErr
}

// Uploads counts objects written by this session.
func (s *UploadSession) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

func (u *MediaUploader) transfer(ctx context.Context, sourceURL, keyHint string) (*UploadedImage, error) {
	resp, err := u.fetcher.Fetch(ctx, network.Request{
		URL:      sourceURL,
		Accept:   network.AcceptImage,
		Timeout:  u.opts.DownloadTimeout,
		MaxBytes: maxImageBytes,
	})
	if err != nil {
		logger.Debug("image download failed", "module", "service", "action", "download", "resource", "image", "result", "failed", "url", sourceURL, "error", err)
		return nil, nil
	}
	if !resp.OK() || len(resp.Body) == 0 {
		logger.Debug("image download failed", "module", "service", "action", "download", "resource", "image", "result", "failed", "url", sourceURL, "status_code", resp.StatusCode)
		return nil, nil
	}

	contentType := ContentTypeForURL(sourceURL)
	key := ObjectKey(u.now(), keyHint, sourceURL, contentType)

	// An upload that has started finishes even if the run is cancelled.
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.UploadTimeout)
	defer cancel()
	publicURL, err := u.store.PutObject(uploadCtx, storage.PutObjectInput{
		Key:          key,
		Data:         resp.Body,
		ContentType:  contentType,
		CacheControl: u.opts.CacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	logger.Debug("image uploaded", "module", "service", "action", "upload", "resource", "image", "result", "ok", "url", sourceURL, "key", key)
	return &UploadedImage{
		SourceURL:   sourceURL,
		URL:         publicURL,
		Key:         key,
		ContentType: contentType,
		Data:        resp.Body,
	}, nil
}

// ContentTypeForURL guesses the image type from the URL path extension,
// defaulting to JPEG.
func ContentTypeForURL(sourceURL string) string {
	if contentType, ok := contentTypes[urlExtension(sourceURL)]; ok {
		return contentType
	}
	return "image/jpeg"
}

// ObjectKey builds uploads/<yyyy>/<mm>/<hint>-<hash>.<ext> where hash is the
// first 16 hex digits of sha256(sourceURL).
func ObjectKey(now time.Time, keyHint, sourceURL, contentType string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	id := hex.EncodeToString(sum[:])[:16]
	if hint := Slugify(keyHint, 40); hint != "" && hint != defaultSlug {
		id = hint + "-" + id
	}
	ext, ok := contentTypeExtensions[contentType]
	if !ok {
		ext = ".jpg"
	}
	now = now.UTC()
	return fmt.Sprintf("uploads/%04d/%02d/%s%s", now.Year(), int(now.Month()), id, ext)
}
