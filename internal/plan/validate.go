package plan

import (
	"fmt"
	"math"
	"strings"

	"github.com/vcscsvcscs/runcoach/pkg/model"
)

// ValidateProfile checks the onboarding profile
func ValidateProfile(p model.UserProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Age <= 0 {
		return fmt.Errorf("%w: age must be positive, got %d", ErrInvalidProfile, p.Age)
	}
	if !p.Level.Valid() {
		return fmt.Errorf("%w: unknown level %q", ErrInvalidProfile, p.Level)
	}
	if !p.Goal.Valid() {
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal)
	}
	if p.DaysPerWeek < 1 || p.DaysPerWeek > 7 {
		return fmt.Errorf("%w: days per week must be between 1 and 7, got %d", ErrInvalidProfile, p.DaysPerWeek)
	}
	if !nonNegative(p.CurrentWeeklyDistance) {
		return fmt.Errorf("%w: current weekly distance must be non-negative", ErrInvalidProfile)
	}
	return nil
}

// ValidateUpdate checks the values carried by a partial workout update
func ValidateUpdate(u model.WorkoutUpdate) error {
	if u.DayName != nil && strings.TrimSpace(*u.DayName) == "" {
		return fmt.Errorf("%w: day name cannot be blank", ErrInvalidUpdate)
	}
	if u.Type != nil && !u.Type.Valid() {
		return fmt.Errorf("%w: unknown workout type %q", ErrInvalidUpdate, *u.Type)
	}
	if u.DistanceKm != nil && !nonNegative(*u.DistanceKm) {
		return fmt.Errorf("%w: distance must be non-negative", ErrInvalidUpdate)
	}
	if u.DurationMinutes != nil && !nonNegative(*u.DurationMinutes) {
		return fmt.Errorf("%w: duration must be non-negative", ErrInvalidUpdate)
	}
	if u.ActualDistance.Value != nil && !nonNegative(*u.ActualDistance.Value) {
		return fmt.Errorf("%w: actual distance must be non-negative", ErrInvalidUpdate)
	}
	if u.ActualDuration.Value != nil && !nonNegative(*u.ActualDuration.Value) {
		return fmt.Errorf("%w: actual duration must be non-negative", ErrInvalidUpdate)
	}
	if u.Feeling.Value != nil && (*u.Feeling.Value < 1 || *u.Feeling.Value > 10) {
		return fmt.Errorf("%w: feeling must be between 1 and 10, got %d", ErrInvalidUpdate, *u.Feeling.Value)
	}
	return nil
}

// validateWorkout checks a workout that is already part of a plan
func validateWorkout(w model.Workout) error {
	if !w.Type.Valid() {
		return malformed("unknown workout type %q", w.Type)
	}
	if !nonNegative(w.DistanceKm) || !nonNegative(w.DurationMinutes) {
		return malformed("workout %s has a negative distance or duration", w.ID)
	}
	if w.ActualDistance != nil && !nonNegative(*w.ActualDistance) {
		return malformed("workout %s has a negative actual distance", w.ID)
	}
	if w.ActualDuration != nil && !nonNegative(*w.ActualDuration) {
		return malformed("workout %s has a negative actual duration", w.ID)
	}
	if w.Feeling != nil && (*w.Feeling < 1 || *w.Feeling > 10) {
		return malformed("workout %s has feeling %d outside 1-10", w.ID, *w.Feeling)
	}
	return nil
}

func nonNegative(f float64) bool {
	return f >= 0 && !math.IsInf(f, 0) && !math.IsNaN(f)
}
