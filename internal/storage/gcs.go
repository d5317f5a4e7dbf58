package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
)

// GCS stores objects in a Cloud Storage bucket.
type GCS struct {
	client     *storage.Client
	bucketName string
	publicBase string
}

// NewGCS creates a bucket-backed store. Objects are served from publicBase when set,
// otherwise from storage.googleapis.com.
func NewGCS(ctx context.Context, bucketName, publicBase string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if publicBase == "" {
		publicBase = "https://storage.googleapis.com/" + bucketName
	}
	return &GCS{client: client, bucketName: bucketName, publicBase: publicBase}, nil
}

// Put uploads data, replacing any existing object at objectPath.
func (s *GCS) Put(ctx context.Context, objectPath string, data io.Reader, contentType string) (string, error) {
	writer := s.client.Bucket(s.bucketName).Object(objectPath).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = cacheControl

	if _, err := io.Copy(writer, data); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write to storage: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}
	return joinURL(s.publicBase, objectPath), nil
}

// SignedURL creates a time-limited GET URL for a private bucket.
func (s *GCS) SignedURL(objectPath string, expiration time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(expiration),
	}
	url, err := s.client.Bucket(s.bucketName).SignedURL(objectPath, opts)
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return url, nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}
