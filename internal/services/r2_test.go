package services

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_RoundTrip(t *testing.T) {
	storage := NewMemoryStorage("http://localhost:8080/files/")
	ctx := context.Background()

	body := []byte("%PDF-1.4 test")
	url, err := storage.Upload(ctx, "/certificates/abc.pdf", bytes.NewReader(body), "application/pdf", int64(len(body)))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/certificates/abc.pdf", url)

	exists, err := storage.Exists(ctx, "certificates/abc.pdf")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := storage.Download(ctx, "certificates/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, body, data)

	require.NoError(t, storage.Delete(ctx, "certificates/abc.pdf"))

	_, err = storage.Download(ctx, "certificates/abc.pdf")
	assert.Error(t, err)
}

func TestMemoryStorage_ConcurrentAccess(t *testing.T) {
	storage := NewMemoryStorage("http://localhost:8080/files")
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("certificates/%d.pdf", n%5)
			body := []byte(fmt.Sprintf("document %d", n))

			if _, err := storage.Upload(ctx, key, bytes.NewReader(body), "application/pdf", int64(len(body))); err != nil {
				t.Errorf("Upload failed: %v", err)
				return
			}
			if _, err := storage.Exists(ctx, key); err != nil {
				t.Errorf("Exists failed: %v", err)
				return
			}
			if _, err := storage.Download(ctx, key); err != nil {
				t.Errorf("Download failed: %v", err)
			}
		}(i)
	}
	wg.Wait()
}
