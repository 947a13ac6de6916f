package plan

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/vcscsvcscs/runcoach/pkg/model"
)

var (
	days     = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
)

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func stringPtr(s string) *string {
	return &s
}

// buildPlan returns a plan with weekCount contiguous weeks whose content is derived from seed
func buildPlan(weekCount int, seed int64) *model.TrainingPlan {
	rng := rand.New(rand.NewSource(seed))
	weeks := make([]model.WeekPlan, weekCount)
	for i := range weeks {
		workouts := make([]model.Workout, 1+rng.Intn(6))
		for j := range workouts {
			workouts[j] = model.Workout{
				ID:              fmt.Sprintf("w-%d-%d-%d", seed, i, j),
				DayName:         days[j%len(days)],
				Type:            model.WorkoutTypes[rng.Intn(len(model.WorkoutTypes))],
				DistanceKm:      float64(rng.Intn(250)) / 10,
				DurationMinutes: float64(20 + rng.Intn(100)),
				Description:     "steady",
				Completed:       rng.Intn(2) == 0,
			}
		}
		weeks[i] = model.WeekPlan{
			WeekNumber:    i + 1,
			Focus:         fmt.Sprintf("focus %d", i+1),
			Workouts:      workouts,
			TotalDistance: TotalDistance(workouts),
		}
	}
	return &model.TrainingPlan{
		ID:        fmt.Sprintf("plan-%d", seed),
		CreatedAt: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC),
		Goal:      "Sub 50 10K",
		Weeks:     weeks,
	}
}

// buildReplacements returns count hydrated weeks with deliberately wrong week numbers
func buildReplacements(count int, seed int64) []model.WeekPlan {
	skeletons := make([]model.WeekSkeleton, count)
	rng := rand.New(rand.NewSource(seed))
	for i := range skeletons {
		workouts := make([]model.WorkoutSkeleton, 1+rng.Intn(5))
		for j := range workouts {
			workouts[j] = model.WorkoutSkeleton{
				DayName:         days[j%len(days)],
				Type:            string(model.WorkoutTypes[rng.Intn(len(model.WorkoutTypes))]),
				DistanceKm:      floatPtr(float64(rng.Intn(200)) / 10),
				DurationMinutes: floatPtr(float64(15 + rng.Intn(90))),
				Description:     "adjusted",
			}
		}
		skeletons[i] = model.WeekSkeleton{
			WeekNumber: 100 + i,
			Focus:      fmt.Sprintf("adjusted %d", i),
			Workouts:   workouts,
		}
	}
	weeks, err := HydrateWeeks(skeletons)
	if err != nil {
		panic(err)
	}
	return weeks
}

func totalsConsistent(p *model.TrainingPlan) bool {
	for _, week := range p.Weeks {
		if week.TotalDistance != TotalDistance(week.Workouts) {
			return false
		}
	}
	return true
}
