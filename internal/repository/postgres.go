package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresStateStore keeps state slots in the session_state table
type PostgresStateStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStateStore creates a new PostgresStateStore
func NewPostgresStateStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStateStore {
	return &PostgresStateStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the session_state table if it does not exist
func (r *PostgresStateStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS session_state (
			key        VARCHAR(255) PRIMARY KEY,
			payload    BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create session_state table: %w", err)
	}
	return nil
}

// Get retrieves the payload stored under key
func (r *PostgresStateStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT payload FROM session_state WHERE key = $1`

	var payload []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.Error("failed to get state", zap.Error(err), zap.String("key", key))
		return nil, fmt.Errorf("failed to get state %s: %w", key, err)
	}
	return payload, nil
}

// Put upserts the payload for key
func (r *PostgresStateStore) Put(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO session_state (key, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, key, data); err != nil {
		r.logger.Error("failed to put state", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to put state %s: %w", key, err)
	}
	return nil
}

// Delete removes the row for key
func (r *PostgresStateStore) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM session_state WHERE key = $1`, key); err != nil {
		r.logger.Error("failed to delete state", zap.Error(err), zap.String("key", key))
		return fmt.Errorf("failed to delete state %s: %w", key, err)
	}
	return nil
}
