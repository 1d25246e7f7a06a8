package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrAuth          = errors.New("storage authentication failed")
	ErrBucketMissing = errors.New("storage bucket does not exist")
	ErrPermission    = errors.New("storage permission denied")
	ErrUpload        = errors.New("storage upload failed")
	ErrInvalidKey    = errors.New("invalid object key")
)

type PutObjectInput struct {
	Key          string
	Data         []byte
	ContentType  string
	CacheControl string
}

// ObjectStore writes objects and maps keys to public URLs.
type ObjectStore interface {
	// PutObject stores the object and returns its public URL.
	PutObject(ctx context.Context, input PutObjectInput) (string, error)
	PublicURL(key string) string
}

// IsConfigError reports whether err means every later upload will fail too.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrAuth) || errors.Is(err, ErrBucketMissing) || errors.Is(err, ErrPermission)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
