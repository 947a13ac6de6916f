package repository

import (
	"context"
	"errors"

	"github.com/vcscsvcscs/runcoach/internal/azure"
)

// BlobStateStore keeps state slots as blobs in Azure Blob Storage
type BlobStateStore struct {
	blobs azure.BlobStorage
}

// NewBlobStateStore creates a store on top of a blob client
func NewBlobStateStore(blobs azure.BlobStorage) *BlobStateStore {
	return &BlobStateStore{blobs: blobs}
}

// Get downloads the blob for key
func (s *BlobStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.blobs.DownloadState(ctx, key)
	if errors.Is(err, azure.ErrBlobNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

// Put uploads data for key
func (s *BlobStateStore) Put(ctx context.Context, key string, data []byte) error {
	return s.blobs.UploadState(ctx, key, data)
}

// Delete removes the blob for key
func (s *BlobStateStore) Delete(ctx context.Context, key string) error {
	return s.blobs.DeleteState(ctx, key)
}
