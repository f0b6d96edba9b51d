package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ogboNoble001/brightnal-backend/pkg/config"
	"go.uber.org/zap"
)

// MinioStore is the S3-compatible ObjectStore implementation.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     *zap.Logger
}

// NewMinioStore creates the object store client. The connection is not
// verified here; Probe does that at startup.
func NewMinioStore(cfg *config.StorageConfig, log *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	return &MinioStore{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		log:     log,
	}, nil
}

// Probe checks bucket reachability with a fixed number of attempts.
func (s *MinioStore) Probe(ctx context.Context, attempts int, interval time.Duration) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			time.Sleep(interval)
		}
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err == nil && exists {
			return nil
		}
		if err == nil {
			lastErr = fmt.Errorf("bucket %q does not exist", s.bucket)
		} else {
			lastErr = err
		}
		s.log.Warn("object storage probe failed",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", attempts),
			zap.Error(lastErr))
	}
	return fmt.Errorf("object storage unreachable after %d attempts: %w", attempts, lastErr)
}

// Upload stores the payload under folder/<uuid><ext> and returns the
// public URL with the object key as storage id.
func (s *MinioStore) Upload(ctx context.Context, folder string, data []byte, contentType string) (ObjectRef, error) {
	key := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), extensionFor(contentType))

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return ObjectRef{}, fmt.Errorf("upload object %q: %w", key, err)
	}

	return ObjectRef{
		URL:       fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key),
		StorageID: key,
	}, nil
}

// Delete removes an object by key. Removing a missing key succeeds.
func (s *MinioStore) Delete(ctx context.Context, storageID string) error {
	err := s.client.RemoveObject(ctx, s.bucket, storageID, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("delete object %q: %w", storageID, err)
	}
	return nil
}
