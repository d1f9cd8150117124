package services

import (
	"context"
	"io"
	"time"
)

// StorageService defines the interface for document storage operations
type StorageService interface {
	// Upload uploads a document to storage and returns the public URL
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) (string, error)

	// Download retrieves a stored document
	Download(ctx context.Context, key string) ([]byte, error)

	// Delete removes a document from storage
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a document
	GetURL(key string) string

	// GeneratePresignedURL generates a time-limited download URL
	GeneratePresignedURL(ctx context.Context, key string, expiration time.Duration) (string, error)

	// Exists checks if a document exists in storage
	Exists(ctx context.Context, key string) (bool, error)
}
