package plan

import (
	"strings"

	"github.com/vcscsvcscs/runcoach/pkg/model"
)

// Normalize validates a plan read back from storage and repairs what can be
// derived: missing ids are assigned, week totals are recomputed and week
// numbers are made contiguous. Unknown workout types or out-of-range values
// make the whole plan malformed. p is never modified.
func Normalize(p *model.TrainingPlan) (*model.TrainingPlan, error) {
	if p == nil {
		return nil, malformed("plan is empty")
	}
	if len(p.Weeks) == 0 {
		return nil, malformed("plan has no weeks")
	}

	next := p.Clone()
	if strings.TrimSpace(next.ID) == "" {
		next.ID = newID()
	}

	seen := make(map[string]bool)
	for i := range next.Weeks {
		week := &next.Weeks[i]
		if week.Workouts == nil {
			week.Workouts = []model.Workout{}
		}
		for j := range week.Workouts {
			w := &week.Workouts[j]
			if w.ID == "" || seen[w.ID] {
				w.ID = newID()
			}
			seen[w.ID] = true

			if !w.Type.Valid() {
				parsed, err := model.ParseWorkoutType(string(w.Type))
				if err != nil {
					return nil, malformed("week %d: %v", i+1, err)
				}
				w.Type = parsed
			}
			if err := validateWorkout(*w); err != nil {
				return nil, err
			}
		}
		week.TotalDistance = TotalDistance(week.Workouts)
	}
	Renumber(next.Weeks)

	return next, nil
}
