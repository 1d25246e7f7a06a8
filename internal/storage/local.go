package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore writes objects below a directory. Whatever serves that
// directory is expected to do so at publicURL.
type LocalStore struct {
	dir       string
	publicURL string
}

func NewLocalStore(dir, publicURL string) *LocalStore {
	return &LocalStore{dir: filepath.Clean(dir), publicURL: publicURL}
}

func (s *LocalStore) PutObject(ctx context.Context, input PutObjectInput) (string, error) {
	if err := validateKey(input.Key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	fullPath := filepath.Join(s.dir, filepath.FromSlash(input.Key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: create dir: %v", ErrPermission, err)
	}

	// Readers must never see a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPermission, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(input.Data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return s.PublicURL(input.Key), nil
}

func (s *LocalStore) PublicURL(key string) string {
	return joinURL(s.publicURL, key)
}

// Path returns the filesystem path for key.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.dir, filepath.FromSlash(key))
}
