package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/internal/repository"
	"github.com/vcscsvcscs/runcoach/internal/security"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

const (
	ProfileKey = "runai_profile"
	PlanKey    = "runai_plan"

	// CurrentSchemaVersion is written into every envelope. Slots saved without
	// an envelope load as version 0.
	CurrentSchemaVersion = 1
)

// envelope wraps a persisted slot value
type envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	SavedAt       time.Time       `json:"savedAt"`
	Encrypted     bool            `json:"encrypted,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// Snapshot is the persisted session state. Either field may be nil.
type Snapshot struct {
	Profile *model.UserProfile  `json:"profile"`
	Plan    *model.TrainingPlan `json:"plan"`
}

// StateService persists the profile and plan into two independent slots
type StateService struct {
	store     repository.StateStore
	encryptor *security.Encryptor
	logger    *zap.Logger
	now       func() time.Time
}

// NewStateService creates a new StateService. encryptor may be nil.
func NewStateService(store repository.StateStore, encryptor *security.Encryptor, logger *zap.Logger) *StateService {
	return &StateService{
		store:     store,
		encryptor: encryptor,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Load reads both slots. A missing, corrupt or undecryptable slot yields nil for
// that value and is never an error.
func (s *StateService) Load(ctx context.Context) Snapshot {
	var snap Snapshot

	var profile model.UserProfile
	if s.loadSlot(ctx, ProfileKey, &profile) {
		if err := plan.ValidateProfile(profile); err != nil {
			s.logger.Warn("discarding stored profile", zap.String("key", ProfileKey), zap.Error(err))
		} else {
			snap.Profile = &profile
		}
	}

	var stored model.TrainingPlan
	if s.loadSlot(ctx, PlanKey, &stored) {
		normalized, err := plan.Normalize(&stored)
		if err != nil {
			s.logger.Warn("discarding stored plan", zap.String("key", PlanKey), zap.Error(err))
		} else {
			snap.Plan = normalized
		}
	}

	s.logger.Info("session state loaded",
		zap.Bool("has_profile", snap.Profile != nil),
		zap.Bool("has_plan", snap.Plan != nil),
	)
	return snap
}

// Save writes each present value to its slot. Both writes are attempted even if
// one fails; the returned error joins every failure.
func (s *StateService) Save(ctx context.Context, profile *model.UserProfile, p *model.TrainingPlan) error {
	var errs []error
	if profile != nil {
		if err := s.saveSlot(ctx, ProfileKey, profile); err != nil {
			errs = append(errs, err)
		}
	}
	if p != nil {
		if err := s.saveSlot(ctx, PlanKey, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear deletes both slots
func (s *StateService) Clear(ctx context.Context) error {
	return errors.Join(
		s.store.Delete(ctx, ProfileKey),
		s.store.Delete(ctx, PlanKey),
	)
}

func (s *StateService) saveSlot(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	env := envelope{
		SchemaVersion: CurrentSchemaVersion,
		SavedAt:       s.now(),
		Data:          data,
	}
	if s.encryptor != nil {
		sealed, err := s.encryptor.Encrypt(string(data))
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", key, err)
		}
		quoted, err := json.Marshal(sealed)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", key, err)
		}
		env.Encrypted = true
		env.Data = quoted
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s envelope: %w", key, err)
	}
	if err := s.store.Put(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// loadSlot decodes key into out and reports whether a usable value was found
func (s *StateService) loadSlot(ctx context.Context, key string, out any) bool {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to read state slot", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	data, version, err := s.unwrap(raw)
	if err != nil {
		s.logger.Warn("discarding unreadable state slot", zap.String("key", key), zap.Error(err))
		return false
	}
	if version > CurrentSchemaVersion {
		s.logger.Warn("state slot written by a newer schema",
			zap.String("key", key),
			zap.Int("schema_version", version),
		)
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("discarding corrupt state slot", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// unwrap returns the slot payload and its schema version
func (s *StateService) unwrap(raw []byte) (json.RawMessage, int, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, 0, fmt.Errorf("slot is not a JSON object: %w", err)
	}
	if _, ok := fields["schemaVersion"]; !ok {
		return raw, 0, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, fmt.Errorf("invalid envelope: %w", err)
	}
	if !env.Encrypted {
		return env.Data, env.SchemaVersion, nil
	}

	if s.encryptor == nil {
		return nil, 0, errors.New("slot is encrypted but no encryption key is configured")
	}
	var sealed string
	if err := json.Unmarshal(env.Data, &sealed); err != nil {
		return nil, 0, fmt.Errorf("invalid encrypted payload: %w", err)
	}
	plaintext, err := s.encryptor.Decrypt(sealed)
	if err != nil {
		return nil, 0, err
	}
	return json.RawMessage(plaintext), env.SchemaVersion, nil
}
