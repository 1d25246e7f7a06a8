package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"feedpress/internal/logger"
)

type MinioConfig struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	PublicURL string
}

// MinioStore writes to any S3-compatible service.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, publicURL: cfg.PublicURL}, nil
}

func (s *MinioStore) PutObject(ctx context.Context, input PutObjectInput) (string, error) {
	if err := validateKey(input.Key); err != nil {
		return "", err
	}
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		input.Key,
		bytes.NewReader(input.Data),
		int64(len(input.Data)),
		minio.PutObjectOptions{
			ContentType:  input.ContentType,
			CacheControl: input.CacheControl,
		},
	)
	if err != nil {
		classified := classifyMinioError(err)
		logger.Warn("object upload failed", "module", "storage", "action", "upload", "resource", "s3", "result", "failed", "bucket", s.bucket, "key", input.Key, "error", err)
		return "", classified
	}
	return s.PublicURL(input.Key), nil
}

func (s *MinioStore) PublicURL(key string) string {
	return joinURL(s.publicURL, key)
}

func classifyMinioError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return fmt.Errorf("%w: %s", ErrAuth, resp.Code)
	case "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrBucketMissing, resp.Code)
	case "AccessDenied":
		return fmt.Errorf("%w: %s", ErrPermission, resp.Code)
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrPermission, resp.StatusCode)
	}
	return fmt.Errorf("%w: %v", ErrUpload, err)
}
