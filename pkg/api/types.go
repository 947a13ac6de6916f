// Package api holds the request and response bodies of the HTTP surface.
package api

import (
	"time"

	"github.com/vcscsvcscs/runcoach/pkg/model"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// OnboardingRequest is the profile collected by the onboarding wizard.
// Level and goal accept any spelling of the known values.
type OnboardingRequest struct {
	Name                  string  `json:"name" binding:"required"`
	Age                   int     `json:"age" binding:"required,gt=0"`
	Level                 string  `json:"level" binding:"required"`
	Goal                  string  `json:"goal" binding:"required"`
	DaysPerWeek           int     `json:"daysPerWeek" binding:"required,min=1,max=7"`
	CurrentWeeklyDistance float64 `json:"currentWeeklyDistance" binding:"gte=0"`
	Notes                 string  `json:"notes"`
}

// PlanResponse wraps the current plan
type PlanResponse struct {
	Plan *model.TrainingPlan `json:"plan"`
}

// AdjustmentRequest asks for the weeks after WeekIndex to be regenerated
type AdjustmentRequest struct {
	WeekIndex *int   `json:"weekIndex" binding:"required"`
	Feedback  string `json:"feedback" binding:"required"`
}

// AdjustmentResponse is the merged plan and how the adjustment was applied
type AdjustmentResponse struct {
	Plan      *model.TrainingPlan `json:"plan"`
	Replaced  int                 `json:"replaced"`
	Kept      int                 `json:"kept"`
	Discarded int                 `json:"discarded"`
}

// UpdateWorkoutResponse reports whether a workout update matched a workout
type UpdateWorkoutResponse struct {
	Plan    *model.TrainingPlan `json:"plan"`
	Applied bool                `json:"applied"`
}

// WorkoutResponse is a single workout with the index of its week
type WorkoutResponse struct {
	WeekIndex int            `json:"weekIndex"`
	Workout   *model.Workout `json:"workout"`
}

// ChatMessageRequest is one user turn
type ChatMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatMessageResponse carries the coach's reply and the full history
type ChatMessageResponse struct {
	Reply   model.ChatMessage   `json:"reply"`
	History []model.ChatMessage `json:"history"`
}

// ChatStateResponse is the chat panel state
type ChatStateResponse struct {
	Open    bool                `json:"open"`
	History []model.ChatMessage `json:"history"`
}

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
	Time    time.Time         `json:"time"`
}
