package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vcscsvcscs/runcoach/internal/audit"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

// PlanService owns the session's profile and training plan. Every accepted
// transition is persisted before the call returns. At most one generation or
// adjustment runs at a time.
type PlanService struct {
	generator PlanGenerator
	state     *StateService
	audit     *audit.Logger
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	profile  *model.UserProfile
	plan     *model.TrainingPlan
	inFlight bool
}

// NewPlanService creates a new PlanService. auditLogger may be nil.
func NewPlanService(generator PlanGenerator, state *StateService, auditLogger *audit.Logger, logger *zap.Logger) *PlanService {
	return &PlanService{
		generator: generator,
		state:     state,
		audit:     auditLogger,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Restore replaces the in-memory session with what the state store holds
func (s *PlanService) Restore(ctx context.Context) {
	snap := s.state.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = snap.Profile
	s.plan = snap.Plan
}

// Profile returns a copy of the current profile, or nil before onboarding
func (s *PlanService) Profile() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Plan returns a copy of the current plan, or nil before onboarding
func (s *PlanService) Plan() *model.TrainingPlan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan.Clone()
}

// FindWorkout returns the workout with the given id and the index of its week
func (s *PlanService) FindWorkout(workoutID string) (int, *model.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return -1, nil, plan.ErrNoPlan
	}
	index, w := plan.FindWorkout(s.plan, workoutID)
	if w == nil {
		return -1, nil, fmt.Errorf("%w: %s", plan.ErrWorkoutNotFound, workoutID)
	}
	return index, w, nil
}

// OnboardingComplete validates the profile, generates a full plan and installs
// both together. On failure the previous profile and plan are kept.
func (s *PlanService) OnboardingComplete(ctx context.Context, profile model.UserProfile) (*model.TrainingPlan, error) {
	profile.Name = strings.TrimSpace(profile.Name)
	if err := plan.ValidateProfile(profile); err != nil {
		return nil, err
	}

	if err := s.begin(); err != nil {
		return nil, err
	}
	defer s.end()

	start := time.Now()
	skeleton, err := s.generator.GeneratePlan(ctx, profile)
	if err != nil {
		return nil, s.generationFailed("plan generation", err)
	}

	hydrated, err := plan.HydratePlan(skeleton, profile.Goal.Label(), s.now())
	if err != nil {
		return nil, s.generationFailed("plan generation", err)
	}
	installed := plan.Install(hydrated)

	s.mu.Lock()
	s.profile = &profile
	s.plan = installed
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("training plan generated",
		zap.String("plan_id", installed.ID),
		zap.Int("weeks", len(installed.Weeks)),
		zap.Duration("duration", time.Since(start)),
	)
	s.record(ctx, audit.ActionPlanGenerated, installed.ID, map[string]any{
		"weeks": len(installed.Weeks),
		"goal":  string(profile.Goal),
	})

	return installed.Clone(), nil
}

// RequestAdjustment regenerates every week after weekIndex from free-text
// feedback and merges the result into the plan. weekIndex at or past the last
// week is a no-op that does not contact the generator.
func (s *PlanService) RequestAdjustment(ctx context.Context, weekIndex int, feedback string) (*model.TrainingPlan, plan.MergeResult, error) {
	s.mu.Lock()
	current := s.plan.Clone()
	s.mu.Unlock()
	if current == nil {
		return nil, plan.MergeResult{}, plan.ErrNoPlan
	}

	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		return nil, plan.MergeResult{}, plan.ErrEmptyFeedback
	}
	if weekIndex < 0 {
		return nil, plan.MergeResult{}, fmt.Errorf("%w: %d", plan.ErrInvalidWeekIndex, weekIndex)
	}
	if weekIndex >= len(current.Weeks)-1 {
		s.logger.Info("adjustment has no future weeks to replace",
			zap.String("plan_id", current.ID),
			zap.Int("week_index", weekIndex),
		)
		return current, plan.MergeResult{}, nil
	}

	if err := s.begin(); err != nil {
		return nil, plan.MergeResult{}, err
	}
	defer s.end()

	skeletons, err := s.generator.AdjustPlan(ctx, current, feedback, weekIndex)
	if err != nil {
		return nil, plan.MergeResult{}, s.generationFailed("plan adjustment", err)
	}
	if len(skeletons) == 0 {
		return nil, plan.MergeResult{}, s.generationFailed("plan adjustment", plan.ErrEmptyGenerationResult)
	}
	replacements, err := plan.HydrateWeeks(skeletons)
	if err != nil {
		return nil, plan.MergeResult{}, s.generationFailed("plan adjustment", err)
	}

	s.mu.Lock()
	if s.plan == nil || s.plan.ID != current.ID {
		s.mu.Unlock()
		return nil, plan.MergeResult{}, plan.ErrNoPlan
	}
	merged, result := plan.MergeAdjustment(s.plan, weekIndex, replacements)
	s.plan = merged
	if result.Replaced > 0 {
		s.persistLocked(ctx)
	}
	out := merged.Clone()
	s.mu.Unlock()

	s.logger.Info("training plan adjusted",
		zap.String("plan_id", merged.ID),
		zap.Int("week_index", weekIndex),
		zap.Int("replaced", result.Replaced),
		zap.Int("kept", result.Kept),
		zap.Int("discarded", result.Discarded),
	)
	if result.Discarded > 0 {
		s.logger.Warn("generator returned more weeks than remain in the plan",
			zap.Int("discarded", result.Discarded),
		)
	}
	s.record(ctx, audit.ActionPlanAdjusted, merged.ID, map[string]any{
		"week_index": weekIndex,
		"replaced":   result.Replaced,
		"kept":       result.Kept,
		"discarded":  result.Discarded,
	})

	return out, result, nil
}

// UpdateWorkout applies a partial update to one workout. A week index or
// workout id that no longer exists is ignored and reported as applied=false.
func (s *PlanService) UpdateWorkout(ctx context.Context, weekIndex int, workoutID string, update model.WorkoutUpdate) (*model.TrainingPlan, bool, error) {
	if err := plan.ValidateUpdate(update); err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plan == nil {
		return nil, false, plan.ErrNoPlan
	}

	next, applied := plan.UpdateWorkout(s.plan, weekIndex, workoutID, update)
	if !applied {
		s.logger.Debug("ignoring update for unknown workout",
			zap.Int("week_index", weekIndex),
			zap.String("workout_id", workoutID),
		)
		return s.plan.Clone(), false, nil
	}

	s.plan = next
	s.persistLocked(ctx)
	s.record(ctx, audit.ActionWorkoutUpdated, next.ID, map[string]any{
		"week_index": weekIndex,
		"workout_id": workoutID,
	})

	return next.Clone(), true, nil
}

// Reset forgets the profile and plan and clears the state store
func (s *PlanService) Reset(ctx context.Context) error {
	if err := s.begin(); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	var planID string
	if s.plan != nil {
		planID = s.plan.ID
	}
	s.profile = nil
	s.plan = nil
	err := s.state.Clear(ctx)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("failed to clear session state", zap.Error(err))
		return fmt.Errorf("failed to clear session state: %w", err)
	}

	s.record(ctx, audit.ActionSessionReset, planID, nil)
	return nil
}

// Snapshot returns copies of the current profile and plan
func (s *PlanService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	snap.Plan = s.plan.Clone()
	return snap
}

func (s *PlanService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return plan.ErrRequestInFlight
	}
	s.inFlight = true
	return nil
}

func (s *PlanService) end() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// persistLocked saves the current state. Write failures are logged; the
// transition itself has already been accepted. Callers hold s.mu.
func (s *PlanService) persistLocked(ctx context.Context) {
	if err := s.state.Save(ctx, s.profile, s.plan); err != nil {
		s.logger.Error("failed to persist session state", zap.Error(err))
	}
}

// generationFailed maps generator failures onto the plan error taxonomy
func (s *PlanService) generationFailed(op string, err error) error {
	s.logger.Warn(op+" rejected, keeping previous state", zap.Error(err))
	if errors.Is(err, plan.ErrMalformedPlanData) || errors.Is(err, plan.ErrGenerationUnavailable) ||
		errors.Is(err, plan.ErrNoPlan) {
		return err
	}
	return fmt.Errorf("%w: %v", plan.ErrGenerationUnavailable, err)
}

func (s *PlanService) record(ctx context.Context, action audit.Action, planID string, details map[string]any) {
	if err := s.audit.Record(ctx, audit.Entry{Action: action, PlanID: planID, Details: details}); err != nil {
		s.logger.Warn("audit entry not persisted", zap.Error(err))
	}
}
