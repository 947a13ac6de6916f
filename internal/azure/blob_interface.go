package azure

import (
	"context"
	"errors"
)

// ErrBlobNotFound is returned when a requested blob does not exist
var ErrBlobNotFound = errors.New("blob not found")

// BlobStorage defines the blob operations used for session state and report archives.
// The in-memory mock implements it for tests.
type BlobStorage interface {
	UploadState(ctx context.Context, name string, data []byte) error
	DownloadState(ctx context.Context, name string) ([]byte, error)
	DeleteState(ctx context.Context, name string) error
	UploadPDF(ctx context.Context, filename string, data []byte) (string, error)
}

var (
	_ BlobStorage = (*BlobStorageClient)(nil)
	_ BlobStorage = (*MockBlobStorageClient)(nil)
)
