package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key holds no value
var ErrNotFound = errors.New("state not found")

// StateStore is a key/value slot store for serialized session state.
// Put overwrites, Delete of a missing key is not an error.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

var (
	_ StateStore = (*MemoryStateStore)(nil)
	_ StateStore = (*FileStateStore)(nil)
	_ StateStore = (*PostgresStateStore)(nil)
	_ StateStore = (*BlobStateStore)(nil)
	_ StateStore = (*S3StateStore)(nil)
	_ StateStore = (*MongoStateStore)(nil)
)
