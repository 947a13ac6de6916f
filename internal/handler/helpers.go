package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"github.com/vcscsvcscs/runcoach/pkg/api"
	"go.uber.org/zap"
)

// stringPtr creates a pointer to a string
func stringPtr(s string) *string {
	return &s
}

// errorStatus maps service errors onto HTTP status codes and error codes
func errorStatus(err error) (int, string, string) {
	switch {
	case errors.Is(err, plan.ErrInvalidProfile),
		errors.Is(err, plan.ErrInvalidUpdate),
		errors.Is(err, plan.ErrInvalidWeekIndex),
		errors.Is(err, plan.ErrEmptyFeedback),
		errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request"
	case errors.Is(err, plan.ErrNoPlan):
		return http.StatusNotFound, "PLAN_NOT_FOUND", "No training plan, complete onboarding first"
	case errors.Is(err, plan.ErrWorkoutNotFound):
		return http.StatusNotFound, "WORKOUT_NOT_FOUND", "Workout not found"
	case errors.Is(err, plan.ErrRequestInFlight), errors.Is(err, service.ErrChatBusy):
		return http.StatusConflict, "REQUEST_IN_FLIGHT", "Another request is still being processed"
	case errors.Is(err, plan.ErrMalformedPlanData):
		return http.StatusBadGateway, "MALFORMED_PLAN_DATA", "The coach returned a plan that could not be read, please try again"
	case errors.Is(err, plan.ErrEmptyGenerationResult):
		return http.StatusBadGateway, "EMPTY_GENERATION_RESULT", "The coach returned no plan, please try again"
	case errors.Is(err, plan.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable, "GENERATION_UNAVAILABLE", "The coach is unavailable, please try again"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
	}
}

// respondError writes the uniform error body for err
func respondError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	status, code, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err), zap.Int("status", status))
		_ = c.Error(err)
	} else {
		logger.Warn(msg, zap.Error(err), zap.Int("status", status))
	}
	c.JSON(status, api.ErrorResponse{
		Code:    code,
		Message: message,
		Details: stringPtr(err.Error()),
	})
}

// respondValidation writes a 400 for a request that could not be bound
func respondValidation(c *gin.Context, logger *zap.Logger, message string, err error) {
	logger.Warn("invalid request", zap.Error(err), zap.String("path", c.FullPath()))
	c.JSON(http.StatusBadRequest, api.ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: message,
		Details: stringPtr(err.Error()),
	})
}
