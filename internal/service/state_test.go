package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcscsvcscs/runcoach/internal/repository"
	"github.com/vcscsvcscs/runcoach/internal/security"
	"github.com/vcscsvcscs/runcoach/pkg/model"
	"go.uber.org/zap"
)

var stateNow = time.Date(2026, 4, 6, 7, 0, 0, 0, time.UTC)

func newTestStateService(store repository.StateStore, encryptor *security.Encryptor) *StateService {
	s := NewStateService(store, encryptor, zap.NewNop())
	s.now = func() time.Time { return stateNow }
	return s
}

func samplePlan() *model.TrainingPlan {
	pace := "6:00 min/km"
	return &model.TrainingPlan{
		ID:        "plan-1",
		CreatedAt: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC),
		Goal:      "First 10K",
		Weeks: []model.WeekPlan{
			{WeekNumber: 1, Focus: "Base", TotalDistance: 11, Workouts: []model.Workout{
				{ID: "w1", DayName: "Monday", Type: model.WorkoutEasyRun, DistanceKm: 5, DurationMinutes: 35, PaceTarget: &pace},
				{ID: "w2", DayName: "Thursday", Type: model.WorkoutTempo, DistanceKm: 6, DurationMinutes: 36},
			}},
			{WeekNumber: 2, Focus: "Build", TotalDistance: 8, Workouts: []model.Workout{
				{ID: "w3", DayName: "Saturday", Type: model.WorkoutLongRun, DistanceKm: 8, DurationMinutes: 55},
			}},
		},
	}
}

func TestStateService_SaveLoadRoundTrip(t *testing.T) {
	store := repository.NewMemoryStateStore()
	s := newTestStateService(store, nil)
	profile := testProfile()

	require.NoError(t, s.Save(context.Background(), &profile, samplePlan()))

	snap := s.Load(context.Background())
	require.NotNil(t, snap.Profile)
	require.NotNil(t, snap.Plan)
	assert.Equal(t, profile, *snap.Profile)
	assert.Equal(t, samplePlan(), snap.Plan)

	raw, err := store.Get(context.Background(), PlanKey)
	require.NoError(t, err)
	var env map[string]any
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.EqualValues(t, CurrentSchemaVersion, env["schemaVersion"])
	assert.Equal(t, "2026-04-06T07:00:00Z", env["savedAt"])
}

func TestStateService_LoadEmpty(t *testing.T) {
	snap := newTestStateService(repository.NewMemoryStateStore(), nil).Load(context.Background())

	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.Plan)
}

func TestStateService_SaveOnlyPresentValues(t *testing.T) {
	store := repository.NewMemoryStateStore()
	s := newTestStateService(store, nil)
	profile := testProfile()

	require.NoError(t, s.Save(context.Background(), &profile, nil))

	_, err := store.Get(context.Background(), PlanKey)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	snap := s.Load(context.Background())
	assert.NotNil(t, snap.Profile)
	assert.Nil(t, snap.Plan)
}

func TestStateService_CorruptSlotsLoadAsAbsent(t *testing.T) {
	ctx := context.Background()
	tests := map[string][]byte{
		"not json":           []byte("{{{"),
		"json array":         []byte(`[1,2]`),
		"wrong field types":  []byte(`{"schemaVersion": 1, "data": {"weeks": "many"}}`),
		"null data":          []byte(`{"schemaVersion": 1, "data": null}`),
		"plan without weeks": []byte(`{"schemaVersion": 1, "data": {"id": "p", "weeks": []}}`),
		"unknown workout type": []byte(`{"schemaVersion": 1, "data": {"id": "p", "weeks": [` +
			`{"weekNumber": 1, "workouts": [{"id": "w", "dayName": "Mon", "type": "Swim"}]}]}}`),
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			store := repository.NewMemoryStateStore()
			profile := testProfile()
			s := newTestStateService(store, nil)
			require.NoError(t, s.Save(ctx, &profile, nil))
			require.NoError(t, store.Put(ctx, PlanKey, raw))

			snap := s.Load(ctx)

			assert.Nil(t, snap.Plan)
			assert.NotNil(t, snap.Profile, "a corrupt plan slot must not affect the profile slot")
		})
	}
}

func TestStateService_InvalidProfileLoadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	tests := map[string]func(*model.UserProfile){
		"zero age":      func(p *model.UserProfile) { p.Age = 0 },
		"unknown level": func(p *model.UserProfile) { p.Level = "Elite" },
		"blank name":    func(p *model.UserProfile) { p.Name = "  " },
		"eight days":    func(p *model.UserProfile) { p.DaysPerWeek = 8 },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			store := repository.NewMemoryStateStore()
			s := newTestStateService(store, nil)
			profile := testProfile()
			corrupt(&profile)
			p := samplePlan()
			require.NoError(t, s.Save(ctx, &profile, p))

			snap := s.Load(ctx)

			assert.Nil(t, snap.Profile)
			assert.NotNil(t, snap.Plan, "an invalid profile slot must not affect the plan slot")
		})
	}
}

func TestStateService_LoadsLegacyUnversionedSlots(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStateStore()
	require.NoError(t, store.Put(ctx, ProfileKey, []byte(
		`{"name":"Luis","age":40,"level":"Advanced","goal":"Marathon","daysPerWeek":5,"currentWeeklyDistance":60,"notes":""}`)))
	require.NoError(t, store.Put(ctx, PlanKey, []byte(`{
		"id": "k2j3h4g5f",
		"createdAt": "2025-11-03T18:22:10.000Z",
		"goal": "Marathon",
		"weeks": [
			{"weekNumber": 1, "focus": "Base", "totalDistance": 999, "workouts": [
				{"id": "a1", "dayName": "Monday", "type": "EasyRun", "distanceKm": 10, "durationMinutes": 55, "description": "", "completed": true, "feeling": 7},
				{"id": "a2", "dayName": "Sunday", "type": "Long Run", "distanceKm": 24, "durationMinutes": 130, "description": "", "completed": false}
			]}
		]
	}`)))

	snap := newTestStateService(store, nil).Load(ctx)

	require.NotNil(t, snap.Profile)
	assert.Equal(t, model.GoalMarathon, snap.Profile.Goal)
	require.NotNil(t, snap.Plan)
	assert.Equal(t, "k2j3h4g5f", snap.Plan.ID)
	assert.Equal(t, 34.0, snap.Plan.Weeks[0].TotalDistance, "stored totals are recomputed")
	assert.Equal(t, model.WorkoutLongRun, snap.Plan.Weeks[0].Workouts[1].Type)
	assert.True(t, snap.Plan.Weeks[0].Workouts[0].Completed)
}

func TestStateService_Encryption(t *testing.T) {
	ctx := context.Background()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(31 - i)
	}
	encryptor, err := security.NewEncryptor(key)
	require.NoError(t, err)

	store := repository.NewMemoryStateStore()
	s := newTestStateService(store, encryptor)
	profile := testProfile()
	require.NoError(t, s.Save(ctx, &profile, samplePlan()))

	raw, err := store.Get(ctx, ProfileKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"name"`)
	assert.Contains(t, string(raw), `"encrypted":true`)

	snap := s.Load(ctx)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Ana", snap.Profile.Name)
	assert.Equal(t, samplePlan(), snap.Plan)

	// without the key, encrypted slots are unreadable and load as absent
	plain := newTestStateService(store, nil).Load(ctx)
	assert.Nil(t, plain.Profile)
	assert.Nil(t, plain.Plan)

	otherKey := make([]byte, 32)
	other, err := security.NewEncryptor(otherKey)
	require.NoError(t, err)
	wrong := newTestStateService(store, other).Load(ctx)
	assert.Nil(t, wrong.Profile)
}

// failingStore fails writes for one key
type failingStore struct {
	*repository.MemoryStateStore
	failKey string
}

func (f *failingStore) Put(ctx context.Context, key string, data []byte) error {
	if key == f.failKey {
		return errors.New("disk full")
	}
	return f.MemoryStateStore.Put(ctx, key, data)
}

func TestStateService_SaveWritesSlotsIndependently(t *testing.T) {
	store := &failingStore{MemoryStateStore: repository.NewMemoryStateStore(), failKey: ProfileKey}
	s := newTestStateService(store, nil)
	profile := testProfile()

	err := s.Save(context.Background(), &profile, samplePlan())

	assert.Error(t, err)
	snap := s.Load(context.Background())
	assert.Nil(t, snap.Profile)
	assert.NotNil(t, snap.Plan, "the plan slot is still written when the profile slot fails")
}

func TestStateService_Clear(t *testing.T) {
	store := repository.NewMemoryStateStore()
	s := newTestStateService(store, nil)
	profile := testProfile()
	require.NoError(t, s.Save(context.Background(), &profile, samplePlan()))

	require.NoError(t, s.Clear(context.Background()))

	assert.Equal(t, 0, store.Keys())
	snap := s.Load(context.Background())
	assert.Nil(t, snap.Profile)
	assert.Nil(t, snap.Plan)
}
