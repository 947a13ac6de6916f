package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vcscsvcscs/runcoach/pkg/model"
)

// newID returns a fresh opaque identifier
var newID = func() string {
	return uuid.New().String()
}

// HydrateWorkout turns a generated workout into a plan workout.
// Identity and completion are always assigned here, never taken from the service.
func HydrateWorkout(s model.WorkoutSkeleton) (model.Workout, error) {
	if strings.TrimSpace(s.DayName) == "" {
		return model.Workout{}, malformed("workout is missing dayName")
	}
	workoutType, err := model.ParseWorkoutType(s.Type)
	if err != nil {
		return model.Workout{}, malformed("%v", err)
	}
	if s.DistanceKm == nil {
		return model.Workout{}, malformed("workout %q is missing distanceKm", s.DayName)
	}
	if s.DurationMinutes == nil {
		return model.Workout{}, malformed("workout %q is missing durationMinutes", s.DayName)
	}
	if !nonNegative(*s.DistanceKm) || !nonNegative(*s.DurationMinutes) {
		return model.Workout{}, malformed("workout %q has a negative distance or duration", s.DayName)
	}

	return model.Workout{
		ID:              newID(),
		DayName:         strings.TrimSpace(s.DayName),
		Type:            workoutType,
		DistanceKm:      *s.DistanceKm,
		DurationMinutes: *s.DurationMinutes,
		Description:     s.Description,
		PaceTarget:      paceTarget(s.PaceTarget),
		Completed:       false,
	}, nil
}

// HydrateWeek turns a generated week into a plan week with a recomputed total
func HydrateWeek(s model.WeekSkeleton) (model.WeekPlan, error) {
	if s.Workouts == nil {
		return model.WeekPlan{}, malformed("week %d is missing workouts", s.WeekNumber)
	}

	workouts := make([]model.Workout, 0, len(s.Workouts))
	for i, ws := range s.Workouts {
		w, err := HydrateWorkout(ws)
		if err != nil {
			return model.WeekPlan{}, fmt.Errorf("week %d workout %d: %w", s.WeekNumber, i+1, err)
		}
		workouts = append(workouts, w)
	}

	return model.WeekPlan{
		WeekNumber:    s.WeekNumber,
		Focus:         strings.TrimSpace(s.Focus),
		Workouts:      workouts,
		TotalDistance: TotalDistance(workouts),
	}, nil
}

// HydrateWeeks hydrates every week or none
func HydrateWeeks(skeletons []model.WeekSkeleton) ([]model.WeekPlan, error) {
	weeks := make([]model.WeekPlan, 0, len(skeletons))
	for _, s := range skeletons {
		week, err := HydrateWeek(s)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, nil
}

// HydratePlan builds a complete plan from a generated skeleton. Week numbers
// are repaired to 1..N in the returned order when the service got them wrong.
func HydratePlan(s *model.PlanSkeleton, fallbackGoal string, now time.Time) (*model.TrainingPlan, error) {
	if s == nil || len(s.Weeks) == 0 {
		return nil, ErrEmptyGenerationResult
	}

	weeks, err := HydrateWeeks(s.Weeks)
	if err != nil {
		return nil, err
	}
	Renumber(weeks)

	goal := strings.TrimSpace(s.GoalSummary)
	if goal == "" {
		goal = fallbackGoal
	}

	return &model.TrainingPlan{
		ID:        newID(),
		CreatedAt: now,
		Goal:      goal,
		Weeks:     weeks,
	}, nil
}

// Renumber sets week numbers to 1..N in slice order if they are not already.
// It reports whether anything changed.
func Renumber(weeks []model.WeekPlan) bool {
	if IsContiguous(weeks) {
		return false
	}
	for i := range weeks {
		weeks[i].WeekNumber = i + 1
	}
	return true
}

// IsContiguous reports whether weeks are numbered exactly 1..N in order
func IsContiguous(weeks []model.WeekPlan) bool {
	for i, week := range weeks {
		if week.WeekNumber != i+1 {
			return false
		}
	}
	return true
}

// TotalDistance sums the planned distance of workouts
func TotalDistance(workouts []model.Workout) float64 {
	var total float64
	for _, w := range workouts {
		total += w.DistanceKm
	}
	return total
}

// paceTarget treats blank and "N/A" style answers as not applicable
func paceTarget(s string) *string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "n/a", "na", "none", "-":
		return nil
	}
	return &s
}
