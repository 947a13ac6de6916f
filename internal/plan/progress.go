package plan

import "github.com/vcscsvcscs/runcoach/pkg/model"

// WeekProgress is the weekly volume and completion of one plan week
type WeekProgress struct {
	WeekIndex         int     `json:"weekIndex"`
	WeekNumber        int     `json:"weekNumber"`
	Focus             string  `json:"focus"`
	PlannedDistance   float64 `json:"plannedDistance"`
	CompletedDistance float64 `json:"completedDistance"`
	PlannedWorkouts   int     `json:"plannedWorkouts"`
	CompletedWorkouts int     `json:"completedWorkouts"`
}

// Progress summarizes the whole plan
type Progress struct {
	PlanID            string         `json:"planId"`
	Goal              string         `json:"goal"`
	Weeks             []WeekProgress `json:"weeks"`
	PlannedDistance   float64        `json:"plannedDistance"`
	CompletedDistance float64        `json:"completedDistance"`
	PlannedWorkouts   int            `json:"plannedWorkouts"`
	CompletedWorkouts int            `json:"completedWorkouts"`
	CompletionRate    float64        `json:"completionRate"` // 0-1, rest days excluded
}

// WeeklyProgress computes per-week planned and completed volume. Rest days do
// not count as workouts. A completed workout counts its actual distance when
// one was logged, its planned distance otherwise.
func WeeklyProgress(p *model.TrainingPlan) Progress {
	if p == nil {
		return Progress{Weeks: []WeekProgress{}}
	}

	out := Progress{
		PlanID: p.ID,
		Goal:   p.Goal,
		Weeks:  make([]WeekProgress, 0, len(p.Weeks)),
	}
	for i, week := range p.Weeks {
		wp := WeekProgress{
			WeekIndex:       i,
			WeekNumber:      week.WeekNumber,
			Focus:           week.Focus,
			PlannedDistance: TotalDistance(week.Workouts),
		}
		for _, w := range week.Workouts {
			if w.Type == model.WorkoutRest {
				continue
			}
			wp.PlannedWorkouts++
			if !w.Completed {
				continue
			}
			wp.CompletedWorkouts++
			if w.ActualDistance != nil {
				wp.CompletedDistance += *w.ActualDistance
			} else {
				wp.CompletedDistance += w.DistanceKm
			}
		}

		out.PlannedDistance += wp.PlannedDistance
		out.CompletedDistance += wp.CompletedDistance
		out.PlannedWorkouts += wp.PlannedWorkouts
		out.CompletedWorkouts += wp.CompletedWorkouts
		out.Weeks = append(out.Weeks, wp)
	}

	if out.PlannedWorkouts > 0 {
		out.CompletionRate = float64(out.CompletedWorkouts) / float64(out.PlannedWorkouts)
	}
	return out
}
