package model

import (
	"bytes"
	"encoding/json"
)

// Optional is a field of a partial update that can be left alone, set, or cleared.
// A zero Optional means "omitted". Set with a nil Value means "clear".
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional that sets the field to v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Clear returns an Optional that removes the field
func Clear[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON marks the field as present; JSON null clears it
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// IsZero reports an omitted field so that omitzero drops it when encoding
func (o Optional[T]) IsZero() bool {
	return !o.Set
}

// MarshalJSON encodes a cleared field as null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// apply returns the field value after the update
func (o Optional[T]) apply(current *T) *T {
	if !o.Set {
		return current
	}
	if o.Value == nil {
		return nil
	}
	v := *o.Value
	return &v
}

// WorkoutUpdate is a partial update of a workout. Nil pointers and unset
// Optionals leave the field untouched. There is no ID field: ids never change.
type WorkoutUpdate struct {
	DayName         *string           `json:"dayName,omitempty"`
	Type            *WorkoutType      `json:"type,omitempty"`
	DistanceKm      *float64          `json:"distanceKm,omitempty"`
	DurationMinutes *float64          `json:"durationMinutes,omitempty"`
	Description     *string           `json:"description,omitempty"`
	PaceTarget      Optional[string]  `json:"paceTarget,omitzero"`
	Completed       *bool             `json:"completed,omitempty"`
	ActualDistance  Optional[float64] `json:"actualDistance,omitzero"`
	ActualDuration  Optional[float64] `json:"actualDuration,omitzero"`
	Feedback        Optional[string]  `json:"feedback,omitzero"`
	Feeling         Optional[int]     `json:"feeling,omitzero"`
}

// IsEmpty reports whether the update touches no field
func (u WorkoutUpdate) IsEmpty() bool {
	return u.DayName == nil && u.Type == nil && u.DistanceKm == nil &&
		u.DurationMinutes == nil && u.Description == nil && !u.PaceTarget.Set &&
		u.Completed == nil && !u.ActualDistance.Set && !u.ActualDuration.Set &&
		!u.Feedback.Set && !u.Feeling.Set
}

// ApplyTo returns w with the present fields overwritten
func (u WorkoutUpdate) ApplyTo(w Workout) Workout {
	if u.DayName != nil {
		w.DayName = *u.DayName
	}
	if u.Type != nil {
		w.Type = *u.Type
	}
	if u.DistanceKm != nil {
		w.DistanceKm = *u.DistanceKm
	}
	if u.DurationMinutes != nil {
		w.DurationMinutes = *u.DurationMinutes
	}
	if u.Description != nil {
		w.Description = *u.Description
	}
	if u.Completed != nil {
		w.Completed = *u.Completed
	}
	w.PaceTarget = u.PaceTarget.apply(w.PaceTarget)
	w.ActualDistance = u.ActualDistance.apply(w.ActualDistance)
	w.ActualDuration = u.ActualDuration.apply(w.ActualDuration)
	w.Feedback = u.Feedback.apply(w.Feedback)
	w.Feeling = u.Feeling.apply(w.Feeling)
	return w
}
