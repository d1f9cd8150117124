package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	appconfig "event-registration-platform/internal/config"
)

// R2Service implements StorageService for Cloudflare R2. Certificate PDFs
// are stored under certificates/<id>.pdf.
type R2Service struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	config     appconfig.R2Config
}

// NewR2Service creates a new R2 storage service
func NewR2Service(cfg appconfig.R2Config) (*R2Service, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("R2 credentials not configured")
	}

	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		} else {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		}
		o.UsePathStyle = true
	})

	return &R2Service{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		config:     cfg,
	}, nil
}

// Upload uploads a document to R2 and returns the public URL
func (r *R2Service) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	key = strings.TrimPrefix(key, "/")

	input := &s3.PutObjectInput{
		Bucket:        aws.String(r.config.BucketName),
		Key:           aws.String(key),
		Body:          reader,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("private, max-age=0"),
	}

	result, err := r.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	url := r.GetURL(key)
	log.Printf("uploaded %s to R2: %s", key, result.Location)

	return url, nil
}

// Download retrieves a stored document from R2
func (r *R2Service) Download(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")

	buf := manager.NewWriteAtBuffer(nil)
	_, err := r.downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from R2: %w", err)
	}

	return buf.Bytes(), nil
}

// Delete removes a document from R2
func (r *R2Service) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")

	input := &s3.DeleteObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(key),
	}

	_, err := r.client.DeleteObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}

	return nil
}

// GetURL returns the public URL for a document
func (r *R2Service) GetURL(key string) string {
	key = strings.TrimPrefix(key, "/")

	if r.config.PublicURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(r.config.PublicURL, "/"), key)
	}

	return fmt.Sprintf("https://pub-%s.r2.dev/%s", r.config.AccountID, key)
}

// GeneratePresignedURL generates a time-limited download URL
func (r *R2Service) GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	key = strings.TrimPrefix(key, "/")

	input := &s3.GetObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(key),
	}

	presignClient := s3.NewPresignClient(r.client)
	result, err := presignClient.PresignGetObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = expiration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return result.URL, nil
}

// Exists checks if a document exists in R2
func (r *R2Service) Exists(ctx context.Context, key string) (bool, error) {
	key = strings.TrimPrefix(key, "/")

	input := &s3.HeadObjectInput{
		Bucket: aws.String(r.config.BucketName),
		Key:    aws.String(key),
	}

	_, err := r.client.HeadObject(ctx, input)
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check if object exists: %w", err)
	}

	return true, nil
}

// HealthCheck verifies that the R2 bucket is accessible
func (r *R2Service) HealthCheck(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.config.BucketName),
		MaxKeys: aws.Int32(1),
	}

	_, err := r.client.ListObjectsV2(ctx, input)
	if err != nil {
		return fmt.Errorf("R2 health check failed: %w", err)
	}

	return nil
}

// memoryStorage is an in-process StorageService used in development when R2
// credentials are absent, and by tests.
type memoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

// NewMemoryStorage creates a StorageService backed by a map
func NewMemoryStorage(baseURL string) StorageService {
	return &memoryStorage{
		objects: make(map[string][]byte),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (m *memoryStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error) {
	key = strings.TrimPrefix(key, "/")
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read upload body: %w", err)
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return m.GetURL(key), nil
}

func (m *memoryStorage) Download(ctx context.Context, key string) ([]byte, error) {
	key = strings.TrimPrefix(key, "/")
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return bytes.Clone(data), nil
}

func (m *memoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, strings.TrimPrefix(key, "/"))
	m.mu.Unlock()
	return nil
}

func (m *memoryStorage) GetURL(key string) string {
	return fmt.Sprintf("%s/%s", m.baseURL, strings.TrimPrefix(key, "/"))
}

func (m *memoryStorage) GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error) {
	return m.GetURL(key), nil
}

func (m *memoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.objects[strings.TrimPrefix(key, "/")]
	m.mu.RUnlock()
	return ok, nil
}
