package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vcscsvcscs/runcoach/internal/audit"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

// DataExport is everything the session knows about the runner
type DataExport struct {
	SchemaVersion int                 `json:"schemaVersion"`
	Profile       *model.UserProfile  `json:"profile"`
	Plan          *model.TrainingPlan `json:"plan"`
	Chat          []model.ChatMessage `json:"chat"`
	AuditTrail    []audit.Entry       `json:"auditTrail,omitempty"`
	ExportedAt    time.Time           `json:"exportedAt"`
}

// exportAuditLimit caps the audit entries included in an export
const exportAuditLimit = 200

// DataService handles export and erasure of the session data
type DataService struct {
	plans  *PlanService
	chat   *ChatService
	audit  *audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

// NewDataService creates a new DataService. chat and auditLogger may be nil.
func NewDataService(plans *PlanService, chat *ChatService, auditLogger *audit.Logger, logger *zap.Logger) *DataService {
	return &DataService{
		plans:  plans,
		chat:   chat,
		audit:  auditLogger,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ExportData returns the current profile, plan and chat history
func (s *DataService) ExportData(ctx context.Context) *DataExport {
	snap := s.plans.Snapshot()
	export := &DataExport{
		SchemaVersion: CurrentSchemaVersion,
		Profile:       snap.Profile,
		Plan:          snap.Plan,
		Chat:          []model.ChatMessage{},
		ExportedAt:    s.now(),
	}
	if s.chat != nil {
		export.Chat = s.chat.History()
	}

	trail, err := s.audit.Recent(ctx, exportAuditLimit)
	if err != nil {
		s.logger.Warn("audit trail not included in export", zap.Error(err))
	}
	export.AuditTrail = trail

	var planID string
	if snap.Plan != nil {
		planID = snap.Plan.ID
	}
	if err := s.audit.Record(ctx, audit.Entry{Action: audit.ActionDataExported, PlanID: planID}); err != nil {
		s.logger.Warn("audit entry not persisted", zap.Error(err))
	}

	s.logger.Info("session data exported",
		zap.Bool("has_profile", export.Profile != nil),
		zap.Bool("has_plan", export.Plan != nil),
		zap.Int("chat_messages", len(export.Chat)),
		zap.Int("audit_entries", len(export.AuditTrail)),
	)
	return export
}

// DeleteData forgets the profile, plan and coach conversation and wipes both
// persisted slots. Onboarding has to be completed again afterwards.
func (s *DataService) DeleteData(ctx context.Context) error {
	s.logger.Info("starting session data deletion")

	err := s.plans.Reset(ctx)
	if errors.Is(err, plan.ErrRequestInFlight) {
		return err
	}
	// the in-memory session is gone even when the store could not be wiped
	if s.chat != nil {
		s.chat.Reset()
	}
	if err != nil {
		return fmt.Errorf("failed to delete session data: %w", err)
	}

	s.logger.Info("session data deletion completed")
	return nil
}
