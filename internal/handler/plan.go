package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"github.com/vcscsvcscs/runcoach/pkg/api"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

// PlanHandler implements onboarding, plan and workout endpoints
type PlanHandler struct {
	plans    *service.PlanService
	progress *service.ProgressService
	logger   *zap.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(plans *service.PlanService, progress *service.ProgressService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{
		plans:    plans,
		progress: progress,
		logger:   logger,
	}
}

// PostOnboarding completes onboarding and generates the first plan
// POST /api/v1/onboarding
func (h *PlanHandler) PostOnboarding(c *gin.Context) {
	var req api.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, h.logger, "Invalid request body", err)
		return
	}

	level, err := model.ParseLevel(req.Level)
	if err != nil {
		respondValidation(c, h.logger, "Invalid level", err)
		return
	}
	goal, err := model.ParseGoal(req.Goal)
	if err != nil {
		respondValidation(c, h.logger, "Invalid goal", err)
		return
	}

	p, err := h.plans.OnboardingComplete(c.Request.Context(), model.UserProfile{
		Name:                  req.Name,
		Age:                   req.Age,
		Level:                 level,
		Goal:                  goal,
		DaysPerWeek:           req.DaysPerWeek,
		CurrentWeeklyDistance: req.CurrentWeeklyDistance,
		Notes:                 req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, "onboarding failed", err)
		return
	}

	c.JSON(http.StatusCreated, api.PlanResponse{Plan: p})
}

// GetProfile returns the onboarding profile
// GET /api/v1/profile
func (h *PlanHandler) GetProfile(c *gin.Context) {
	profile := h.plans.Profile()
	if profile == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Code:    "PROFILE_NOT_FOUND",
			Message: "Onboarding has not been completed",
		})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetPlan returns the current training plan
// GET /api/v1/plan
func (h *PlanHandler) GetPlan(c *gin.Context) {
	p := h.plans.Plan()
	if p == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Code:    "PLAN_NOT_FOUND",
			Message: "No training plan, complete onboarding first",
		})
		return
	}
	c.JSON(http.StatusOK, api.PlanResponse{Plan: p})
}

// PostAdjustment regenerates the weeks after the given week from feedback
// POST /api/v1/plan/adjustments
func (h *PlanHandler) PostAdjustment(c *gin.Context) {
	var req api.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, h.logger, "Invalid request body", err)
		return
	}

	p, result, err := h.plans.RequestAdjustment(c.Request.Context(), *req.WeekIndex, req.Feedback)
	if err != nil {
		respondError(c, h.logger, "plan adjustment failed", err)
		return
	}

	c.JSON(http.StatusOK, newAdjustmentResponse(p, result))
}

func newAdjustmentResponse(p *model.TrainingPlan, result plan.MergeResult) api.AdjustmentResponse {
	return api.AdjustmentResponse{
		Plan:      p,
		Replaced:  result.Replaced,
		Kept:      result.Kept,
		Discarded: result.Discarded,
	}
}

// PatchWorkout applies a partial update to one workout
// PATCH /api/v1/plan/weeks/:weekIndex/workouts/:workoutId
func (h *PlanHandler) PatchWorkout(c *gin.Context) {
	weekIndex, err := strconv.Atoi(c.Param("weekIndex"))
	if err != nil {
		respondValidation(c, h.logger, "Invalid week index", err)
		return
	}
	workoutID := c.Param("workoutId")

	var update model.WorkoutUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondValidation(c, h.logger, "Invalid request body", err)
		return
	}
	if update.IsEmpty() {
		respondValidation(c, h.logger, "Invalid request body", fmt.Errorf("%w: no fields to update", plan.ErrInvalidUpdate))
		return
	}

	p, applied, err := h.plans.UpdateWorkout(c.Request.Context(), weekIndex, workoutID, update)
	if err != nil {
		respondError(c, h.logger, "workout update failed", err)
		return
	}

	c.JSON(http.StatusOK, api.UpdateWorkoutResponse{Plan: p, Applied: applied})
}

// GetWorkout returns one workout and the index of its week
// GET /api/v1/plan/workouts/:workoutId
func (h *PlanHandler) GetWorkout(c *gin.Context) {
	weekIndex, w, err := h.plans.FindWorkout(c.Param("workoutId"))
	if err != nil {
		respondError(c, h.logger, "workout lookup failed", err)
		return
	}
	c.JSON(http.StatusOK, api.WorkoutResponse{WeekIndex: weekIndex, Workout: w})
}

// GetProgress returns weekly volume and completion
// GET /api/v1/plan/progress
func (h *PlanHandler) GetProgress(c *gin.Context) {
	progress, err := h.progress.GetProgress(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "failed to compute progress", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
