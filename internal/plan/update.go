package plan

import "github.com/vcscsvcscs/runcoach/pkg/model"

// UpdateWorkout returns a new plan in which the workout workoutID of week
// weekIndex carries the fields present in u. A missing week or workout is a
// no-op and the input plan is returned with applied=false. p is never modified.
func UpdateWorkout(p *model.TrainingPlan, weekIndex int, workoutID string, u model.WorkoutUpdate) (next *model.TrainingPlan, applied bool) {
	if p == nil || weekIndex < 0 || weekIndex >= len(p.Weeks) {
		return p, false
	}

	week := p.Weeks[weekIndex]
	pos := -1
	for i, w := range week.Workouts {
		if w.ID == workoutID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return p, false
	}

	updated := week.Clone()
	updated.Workouts[pos] = u.ApplyTo(week.Workouts[pos])
	if u.DistanceKm != nil {
		updated.TotalDistance = TotalDistance(updated.Workouts)
	}

	weeks := make([]model.WeekPlan, len(p.Weeks))
	copy(weeks, p.Weeks)
	weeks[weekIndex] = updated

	out := *p
	out.Weeks = weeks
	return &out, true
}

// FindWorkout returns the week index and workout with the given id
func FindWorkout(p *model.TrainingPlan, workoutID string) (int, *model.Workout) {
	if p == nil {
		return -1, nil
	}
	for i := range p.Weeks {
		for j := range p.Weeks[i].Workouts {
			if p.Weeks[i].Workouts[j].ID == workoutID {
				w := p.Weeks[i].Workouts[j]
				return i, &w
			}
		}
	}
	return -1, nil
}
