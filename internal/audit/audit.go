package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Action is a state transition of the coaching session
type Action string

const (
	ActionPlanGenerated  Action = "PLAN_GENERATED"
	ActionPlanAdjusted   Action = "PLAN_ADJUSTED"
	ActionWorkoutUpdated Action = "WORKOUT_UPDATED"
	ActionSessionReset   Action = "SESSION_RESET"
	ActionDataExported   Action = "DATA_EXPORTED"
	ActionReportExported Action = "REPORT_EXPORTED"
)

// Entry is a single audit record
type Entry struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	PlanID    string         `json:"planId,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Details   map[string]any `json:"details,omitempty"`
}

// Sink persists audit entries
type Sink interface {
	Write(ctx context.Context, entry Entry) error
}

// Reader is implemented by sinks that can list what they stored
type Reader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// Logger writes audit entries to the structured log and, if configured, a sink
type Logger struct {
	sink   Sink
	logger *zap.Logger
}

// NewLogger creates a new audit logger. sink may be nil.
func NewLogger(sink Sink, logger *zap.Logger) *Logger {
	return &Logger{
		sink:   sink,
		logger: logger,
	}
}

// Record logs an audit entry
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if l == nil {
		return nil
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	l.logger.Info("audit log entry",
		zap.String("audit_id", entry.ID),
		zap.String("action", string(entry.Action)),
		zap.String("plan_id", entry.PlanID),
		zap.Time("timestamp", entry.Timestamp),
		zap.Any("details", entry.Details),
	)

	if l.sink == nil {
		return nil
	}
	if err := l.sink.Write(ctx, entry); err != nil {
		l.logger.Error("failed to persist audit log entry",
			zap.Error(err),
			zap.String("action", string(entry.Action)),
		)
		return fmt.Errorf("failed to persist audit entry: %w", err)
	}
	return nil
}

// Recent returns the latest persisted entries, newest first. It returns nil
// when there is no sink or the sink cannot be read back.
func (l *Logger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	reader, ok := l.sink.(Reader)
	if !ok {
		return nil, nil
	}
	entries, err := reader.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}
	return entries, nil
}

// PostgresSink stores audit entries in the audit_logs table
type PostgresSink struct {
	db *pgxpool.Pool
}

var _ Reader = (*PostgresSink)(nil)

// NewPostgresSink creates a new PostgresSink
func NewPostgresSink(db *pgxpool.Pool) *PostgresSink {
	return &PostgresSink{db: db}
}

// EnsureSchema creates the audit_logs table if it does not exist
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id         UUID PRIMARY KEY,
			action     VARCHAR(64) NOT NULL,
			plan_id    VARCHAR(255),
			timestamp  TIMESTAMPTZ NOT NULL,
			details    JSONB
		)
	`
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}
	return nil
}

// Write inserts entry
func (s *PostgresSink) Write(ctx context.Context, entry Entry) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, action, plan_id, timestamp, details)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.Exec(ctx, query, entry.ID, string(entry.Action), entry.PlanID, entry.Timestamp, details)
	return err
}

// Recent returns the latest entries, newest first
func (s *PostgresSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, action, plan_id, timestamp, details
		FROM audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			planID  *string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &planID, &e.Timestamp, &details); err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		if planID != nil {
			e.PlanID = *planID
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("failed to decode audit details: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
