package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sert121/sql-datagen/internal/storage"
)

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

// objectAPI is the slice of the S3 API run archives need.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error)
	StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket, region string) error
}

// Store writes run archives into one bucket under an optional key prefix.
// With AutoCreateBucket the bucket is checked on the first write, not at
// construction, so building a Store never touches the network.
type Store struct {
	api    objectAPI
	bucket string
	prefix string

	region     string
	autoCreate bool
	mu         sync.Mutex
	bucketOK   bool
}

func New(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	api, err := newMinioAPI(cfg)
	if err != nil {
		return nil, err
	}
	store, err := newStore(cfg.Bucket, cfg.Prefix, api)
	if err != nil {
		return nil, err
	}
	store.region = strings.TrimSpace(cfg.Region)
	store.autoCreate = cfg.AutoCreateBucket
	return store, nil
}

func newStore(bucket, prefix string, api objectAPI) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{api: api, bucket: bucket, prefix: cleanPrefix(prefix)}, nil
}

func (s *Store) Put(ctx context.Context, key string, body io.Reader, size int64, opts storage.PutOptions) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	if err := s.prepareBucket(ctx); err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.api.PutObject(ctx, s.bucket, objectKey, body, size, opts.ContentType)
	if err != nil {
		return storage.ObjectInfo{}, fmt.Errorf("put object %q: %w", objectKey, err)
	}
	return info, nil
}

// Stat reports what the bucket holds under key; a missing object or bucket
// is storage.ErrObjectNotFound.
func (s *Store) Stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	info, err := s.api.StatObject(ctx, s.bucket, objectKey)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", objectKey, storage.ErrObjectNotFound)
	case err != nil:
		return storage.ObjectInfo{}, fmt.Errorf("stat object %q: %w", objectKey, err)
	}
	return info, nil
}

func (s *Store) prepareBucket(ctx context.Context) error {
	if !s.autoCreate {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketOK {
		return nil
	}
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := s.api.MakeBucket(ctx, s.bucket, s.region); err != nil {
			return fmt.Errorf("create bucket %q: %w", s.bucket, err)
		}
	}
	s.bucketOK = true
	return nil
}

// objectKey joins key under the store prefix, refusing keys that would
// climb out of it.
func (s *Store) objectKey(key string) (string, error) {
	trimmed := strings.TrimSpace(strings.TrimLeft(key, "/"))
	if trimmed == "" {
		return "", fmt.Errorf("object key is required")
	}
	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key: %q", key)
	}
	return path.Join(s.prefix, cleaned), nil
}

func cleanPrefix(prefix string) string {
	prefix = strings.TrimSpace(strings.TrimLeft(prefix, "/"))
	if prefix == "" {
		return ""
	}
	if cleaned := path.Clean(prefix); cleaned != "." {
		return cleaned
	}
	return ""
}

// parseEndpoint accepts host:port or a full URL; an https scheme forces TLS.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("endpoint is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return raw, useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint URL: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("endpoint host is required")
	}
	return parsed.Host, useSSL || parsed.Scheme == "https", nil
}

type minioAPI struct {
	client *minio.Client
}

func newMinioAPI(cfg Config) (*minioAPI, error) {
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &minioAPI{client: client}, nil
}

func (m *minioAPI) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, contentType string) (storage.ObjectInfo, error) {
	uploaded, err := m.client.PutObject(ctx, bucket, key, body, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return storage.ObjectInfo{}, translateErr(err)
	}
	return storage.ObjectInfo{Key: uploaded.Key, Size: uploaded.Size, ETag: uploaded.ETag}, nil
}

func (m *minioAPI) StatObject(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	stat, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return storage.ObjectInfo{}, translateErr(err)
	}
	return storage.ObjectInfo{Key: stat.Key, Size: stat.Size, ETag: stat.ETag, LastModified: stat.LastModified}, nil
}

func (m *minioAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	return exists, translateErr(err)
}

func (m *minioAPI) MakeBucket(ctx context.Context, bucket, region string) error {
	return translateErr(m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}))
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return storage.ErrObjectNotFound
	}
	return err
}
