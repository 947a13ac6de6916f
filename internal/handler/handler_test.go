package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/runcoach/internal/pdf"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/internal/repository"
	"github.com/vcscsvcscs/runcoach/internal/service"
	"github.com/vcscsvcscs/runcoach/pkg/api"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockPlanGenerator is a mock implementation of service.PlanGenerator
type MockPlanGenerator struct {
	mock.Mock
}

func (m *MockPlanGenerator) GeneratePlan(ctx context.Context, profile model.UserProfile) (*model.PlanSkeleton, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PlanSkeleton), args.Error(1)
}

func (m *MockPlanGenerator) AdjustPlan(ctx context.Context, current *model.TrainingPlan, feedback string, fromIndex int) ([]model.WeekSkeleton, error) {
	args := m.Called(ctx, current, feedback, fromIndex)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WeekSkeleton), args.Error(1)
}

func (m *MockPlanGenerator) Chat(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	args := m.Called(ctx, history, message)
	return args.String(0), args.Error(1)
}

func km(v float64) *float64 { return &v }

func week(number int, focus string, easy float64) model.WeekSkeleton {
	return model.WeekSkeleton{
		WeekNumber: number,
		Focus:      focus,
		Workouts: []model.WorkoutSkeleton{
			{DayName: "Tuesday", Type: "Easy Run", DistanceKm: km(easy), DurationMinutes: km(easy * 6), Description: "easy", PaceTarget: "6:30 min/km"},
			{DayName: "Thursday", Type: "Rest", DistanceKm: km(0), DurationMinutes: km(0), Description: "rest", PaceTarget: "N/A"},
		},
	}
}

type testServer struct {
	router    *gin.Engine
	generator *MockPlanGenerator
	plans     *service.PlanService
	store     *repository.MemoryStateStore
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	logger := zap.NewNop()
	generator := new(MockPlanGenerator)
	store := repository.NewMemoryStateStore()
	plans := service.NewPlanService(generator, service.NewStateService(store, nil, logger), nil, logger)
	chat := service.NewChatService(generator, logger)

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Plan: NewPlanHandler(plans, service.NewProgressService(plans, logger), logger),
		Chat: NewChatHandler(chat, logger),
		Data: NewDataHandler(
			service.NewDataService(plans, chat, nil, logger),
			service.NewReportService(plans, pdf.NewPlanPDFGenerator(logger), nil, nil, logger),
			logger,
		),
		Health: NewHealthHandler(checks, logger),
	})

	return &testServer{router: router, generator: generator, plans: plans, store: store}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

const onboardingBody = `{"name":"Ana","age":31,"level":"beginner","goal":"10k","daysPerWeek":3,"currentWeeklyDistance":12}`

func (s *testServer) onboard(t *testing.T) *model.TrainingPlan {
	t.Helper()
	s.generator.On("GeneratePlan", mock.Anything, mock.Anything).Return(&model.PlanSkeleton{
		GoalSummary: "First 10K",
		Weeks:       []model.WeekSkeleton{week(1, "Base", 4), week(2, "Build", 5), week(3, "Peak", 6)},
	}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/onboarding", onboardingBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp api.PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Plan
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestPlanHandler_Onboarding(t *testing.T) {
	s := newTestServer(t, nil)

	p := s.onboard(t)

	require.Len(t, p.Weeks, 3)
	assert.Equal(t, "First 10K", p.Goal)
	assert.Equal(t, model.WorkoutEasyRun, p.Weeks[0].Workouts[0].Type)
	assert.Nil(t, p.Weeks[0].Workouts[1].PaceTarget)

	w := s.do(http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile model.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, model.LevelBeginner, profile.Level)
	assert.Equal(t, model.Goal10K, profile.Goal)

	w = s.do(http.MethodGet, "/api/v1/plan", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got api.PlanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, p.ID, got.Plan.ID)
}

func TestPlanHandler_OnboardingGenerationFailure(t *testing.T) {
	s := newTestServer(t, nil)
	s.generator.On("GeneratePlan", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: i/o timeout")).Once()

	w := s.do(http.MethodPost, "/api/v1/onboarding", onboardingBody)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "GENERATION_UNAVAILABLE", decodeError(t, w).Code)
	assert.Nil(t, s.plans.Plan())
	assert.Nil(t, s.plans.Profile())
}

func TestPlanHandler_PatchWorkout(t *testing.T) {
	s := newTestServer(t, nil)
	p := s.onboard(t)
	id := p.Weeks[1].Workouts[0].ID

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/v1/plan/weeks/1/workouts/%s", id),
		`{"completed":true,"actualDistance":5.5,"feeling":8,"paceTarget":null}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.UpdateWorkoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Applied)
	updated := resp.Plan.Weeks[1].Workouts[0]
	assert.True(t, updated.Completed)
	assert.Equal(t, 5.5, *updated.ActualDistance)
	assert.Equal(t, 8, *updated.Feeling)
	assert.Nil(t, updated.PaceTarget)

	w = s.do(http.MethodPatch, "/api/v1/plan/weeks/0/workouts/gone", `{"completed":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Applied)
}

func TestPlanHandler_PatchWorkoutWithoutFields(t *testing.T) {
	s := newTestServer(t, nil)
	p := s.onboard(t)

	w := s.do(http.MethodPatch, fmt.Sprintf("/api/v1/plan/weeks/0/workouts/%s", p.Weeks[0].Workouts[0].ID), `{}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
	require.NotNil(t, resp.Details)
	assert.Contains(t, *resp.Details, "no fields to update")
	assert.Equal(t, p.Weeks[0].Workouts[0], s.plans.Plan().Weeks[0].Workouts[0])
}

func TestPlanHandler_GetWorkout(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/plan/workouts/anything", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "PLAN_NOT_FOUND", decodeError(t, w).Code)

	p := s.onboard(t)
	want := p.Weeks[2].Workouts[1]

	w = s.do(http.MethodGet, "/api/v1/plan/workouts/"+want.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.WorkoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.WeekIndex)
	assert.Equal(t, want, *resp.Workout)

	w = s.do(http.MethodGet, "/api/v1/plan/workouts/gone", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "WORKOUT_NOT_FOUND", decodeError(t, w).Code)
}

func TestPlanHandler_Adjustment(t *testing.T) {
	s := newTestServer(t, nil)
	s.onboard(t)
	s.generator.On("AdjustPlan", mock.Anything, mock.Anything, "knee pain", 0).
		Return([]model.WeekSkeleton{week(2, "Recovery", 2), week(3, "Easy", 3), week(4, "Extra", 9)}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/plan/adjustments", `{"weekIndex":0,"feedback":"knee pain"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.AdjustmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Replaced)
	assert.Equal(t, 1, resp.Discarded)
	require.Len(t, resp.Plan.Weeks, 3)
	assert.Equal(t, "Recovery", resp.Plan.Weeks[1].Focus)
	assert.Equal(t, 2, resp.Plan.Weeks[1].WeekNumber)
}

func TestPlanHandler_Progress(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(http.MethodGet, "/api/v1/plan/progress", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.onboard(t)
	w = s.do(http.MethodGet, "/api/v1/plan/progress", "")

	require.Equal(t, http.StatusOK, w.Code)
	var progress plan.Progress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &progress))
	assert.Len(t, progress.Weeks, 3)
	assert.Equal(t, 15.0, progress.PlannedDistance)
	assert.Equal(t, 3, progress.PlannedWorkouts)
}

func TestChatHandler(t *testing.T) {
	s := newTestServer(t, nil)
	s.generator.On("Chat", mock.Anything, mock.Anything, "What should I eat?").Return("", errors.New("503")).Once()

	w := s.do(http.MethodPost, "/api/v1/chat/open", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state api.ChatStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Open)
	require.Len(t, state.History, 1)
	assert.Equal(t, service.ChatGreeting, state.History[0].Text)

	w = s.do(http.MethodPost, "/api/v1/chat/messages", `{"message":"What should I eat?"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.ChatMessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.ChatApology, resp.Reply.Text)
	assert.Len(t, resp.History, 3)

	w = s.do(http.MethodPost, "/api/v1/chat/close", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Open)
	assert.Len(t, state.History, 3)
}

func TestDataHandler(t *testing.T) {
	s := newTestServer(t, nil)
	s.onboard(t)

	w := s.do(http.MethodGet, "/api/v1/plan/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "training-plan_")
	assert.Equal(t, "%PDF", w.Body.String()[:4])

	s.generator.On("Chat", mock.Anything, mock.Anything, "my knee hurts after 10km").Return("rest tomorrow", nil).Once()
	w = s.do(http.MethodPost, "/api/v1/chat/messages", `{"message":"my knee hurts after 10km"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	var export service.DataExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
	assert.NotNil(t, export.Plan)
	assert.Equal(t, "Ana", export.Profile.Name)

	w = s.do(http.MethodDelete, "/api/v1/data", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.store.Keys())

	w = s.do(http.MethodGet, "/api/v1/plan", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/chat", "")
	require.Equal(t, http.StatusOK, w.Code)
	var chat api.ChatStateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chat))
	require.Len(t, chat.History, 1)
	assert.Equal(t, service.ChatGreeting, chat.History[0].Text)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t, map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
	})
	w := s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "ok", resp.Checks["store"])

	s = newTestServer(t, map[string]HealthCheck{
		"store": func(context.Context) error { return errors.New("connection refused") },
	})
	w = s.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
