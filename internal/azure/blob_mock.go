package azure

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// MockBlobStorageClient is an in-memory BlobStorage for tests and local runs
type MockBlobStorageClient struct {
	Storage map[string][]byte
	mu      sync.RWMutex
	logger  *zap.Logger

	// FailWith, when set, is returned by every operation
	FailWith error
}

// NewMockBlobStorageClient creates a new mock blob storage client
func NewMockBlobStorageClient(logger *zap.Logger) *MockBlobStorageClient {
	return &MockBlobStorageClient{
		Storage: make(map[string][]byte),
		logger:  logger,
	}
}

// UploadState stores a copy of data under the state blob name
func (c *MockBlobStorageClient) UploadState(ctx context.Context, name string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return c.FailWith
	}
	blobName := stateBlobName(name)
	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Debug("mock: state uploaded", zap.String("blob_name", blobName), zap.Int("size_bytes", len(data)))
	}
	return nil
}

// DownloadState returns a copy of the stored state blob
func (c *MockBlobStorageClient) DownloadState(ctx context.Context, name string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.FailWith != nil {
		return nil, c.FailWith
	}
	blobName := stateBlobName(name)
	data, exists := c.Storage[blobName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, blobName)
	}
	return bytes.Clone(data), nil
}

// DeleteState removes the state blob if present
func (c *MockBlobStorageClient) DeleteState(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return c.FailWith
	}
	delete(c.Storage, stateBlobName(name))
	return nil
}

// UploadPDF stores a PDF under the reports prefix
func (c *MockBlobStorageClient) UploadPDF(ctx context.Context, filename string, data []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailWith != nil {
		return "", c.FailWith
	}
	blobName := reportPrefix + filename
	c.Storage[blobName] = bytes.Clone(data)

	if c.logger != nil {
		c.logger.Info("mock: PDF uploaded", zap.String("blob_name", blobName), zap.Int("size_bytes", len(data)))
	}
	return blobName, nil
}

// Clear removes all data from in-memory storage
func (c *MockBlobStorageClient) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Storage = make(map[string][]byte)
}

// ListBlobs returns all blob names in storage, sorted
func (c *MockBlobStorageClient) ListBlobs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	blobs := make([]string, 0, len(c.Storage))
	for name := range c.Storage {
		blobs = append(blobs, name)
	}
	sort.Strings(blobs)
	return blobs
}
