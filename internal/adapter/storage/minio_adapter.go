package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// MinioAdapter stores blobs as objects, one bucket per container. Buckets are
// created on first use.
type MinioAdapter struct {
	client  *minio.Client
	mu      sync.Mutex
	buckets map[string]bool
}

func NewMinioAdapter(client *minio.Client) *MinioAdapter {
	return &MinioAdapter{client: client, buckets: make(map[string]bool)}
}

func (m *MinioAdapter) PutBlob(ctx context.Context, container, name string, r io.Reader, size int64, contentType string) (string, error) {
	if err := m.ensureBucket(ctx, container); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, container, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", container, name, err)
	}
	return m.objectURL(container, name), nil
}

func (m *MinioAdapter) ensureBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.buckets[bucket] {
		return nil
	}
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if !exists {
		err := m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
		if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	m.buckets[bucket] = true
	return nil
}

func (m *MinioAdapter) objectURL(bucket, name string) string {
	u := url.URL{Scheme: "http", Host: m.client.EndpointURL().Host}
	if m.client.EndpointURL().Scheme != "" {
		u.Scheme = m.client.EndpointURL().Scheme
	}
	u.Path = path.Join("/", bucket, name)
	return u.String()
}
