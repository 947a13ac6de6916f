package service

import (
	"context"

	"github.com/vcscsvcscs/runcoach/internal/plan"
	"go.uber.org/zap"
)

// ProgressService aggregates weekly volume and completion for the current plan
type ProgressService struct {
	plans  *PlanService
	logger *zap.Logger
}

// NewProgressService creates a new ProgressService
func NewProgressService(plans *PlanService, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		plans:  plans,
		logger: logger,
	}
}

// GetProgress returns the weekly summary of the current plan
func (s *ProgressService) GetProgress(_ context.Context) (*plan.Progress, error) {
	current := s.plans.Plan()
	if current == nil {
		return nil, plan.ErrNoPlan
	}

	progress := plan.WeeklyProgress(current)

	s.logger.Debug("plan progress computed",
		zap.String("plan_id", progress.PlanID),
		zap.Int("completed_workouts", progress.CompletedWorkouts),
		zap.Int("planned_workouts", progress.PlannedWorkouts),
	)

	return &progress, nil
}
