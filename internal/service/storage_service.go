package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// StorageService stores uploaded images (avatars, course thumbnails) in an
// S3-compatible bucket. Like EmailService it runs disabled when unconfigured.
type StorageService struct {
	client    *s3.Client
	bucket    string
	publicURL string
	enabled   bool
}

// NewStorageService creates a new storage service
func NewStorageService(awsRegion, bucket, baseEndpoint, accessKey, secretKey, publicURL string) (*StorageService, error) {
	if bucket == "" {
		log.Println("Storage service disabled: S3_BUCKET not configured")
		return &StorageService{enabled: false}, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(awsRegion),
	}
	if accessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
			o.UsePathStyle = true
		}
	})

	log.Printf("Storage service enabled: bucket=%s", bucket)
	return &StorageService{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		enabled:   true,
	}, nil
}

// IsEnabled returns whether the storage service is enabled
func (s *StorageService) IsEnabled() bool {
	return s.enabled
}

// ObjectKey builds a collision-free key under the given prefix, preserving
// the original file extension.
func ObjectKey(prefix, filename string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), strings.ToLower(path.Ext(filename)))
}

// Upload writes the object and returns its public URL. Transient failures are
// retried with fibonacci backoff before giving up.
func (s *StorageService) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("storage service disabled")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload body: %w", err)
	}

	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(200*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return fmt.Sprintf("%s/%s", s.publicURL, key), nil
}

// Delete removes an object. Callers treat failures as best-effort cleanup.
func (s *StorageService) Delete(ctx context.Context, key string) error {
	if !s.enabled {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers the object key from a stored public URL, or "" when the
// URL was not produced by this service.
func (s *StorageService) KeyFromURL(url string) string {
	if s.publicURL == "" || !strings.HasPrefix(url, s.publicURL+"/") {
		return ""
	}
	return strings.TrimPrefix(url, s.publicURL+"/")
}
