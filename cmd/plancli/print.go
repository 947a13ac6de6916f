package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/vcscsvcscs/runcoach/internal/plan"
	"github.com/vcscsvcscs/runcoach/pkg/model"
)

var (
	titleColor = color.New(color.FgCyan, color.Bold)
	weekColor  = color.New(color.FgYellow, color.Bold)
	doneColor  = color.New(color.FgGreen)
	restColor  = color.New(color.FgHiBlack)
)

// printPlan writes a readable rendition of p. profile may be nil.
func printPlan(w io.Writer, profile *model.UserProfile, p *model.TrainingPlan) {
	titleColor.Fprintf(w, "%s\n", p.Goal)
	if profile != nil {
		fmt.Fprintf(w, "%s, %d, %s, %d days/week\n", profile.Name, profile.Age, profile.Level, profile.DaysPerWeek)
	}

	progress := plan.WeeklyProgress(p)
	for i, week := range p.Weeks {
		fmt.Fprintln(w)
		weekColor.Fprintf(w, "Week %d: %s (%.1f km)\n", week.WeekNumber, week.Focus, week.TotalDistance)

		for _, workout := range week.Workouts {
			line := formatWorkout(workout)
			switch {
			case workout.Completed:
				doneColor.Fprintf(w, "  [x] %s\n", line)
			case workout.Type == model.WorkoutRest:
				restColor.Fprintf(w, "  [ ] %s\n", line)
			default:
				fmt.Fprintf(w, "  [ ] %s\n", line)
			}
		}

		wp := progress.Weeks[i]
		fmt.Fprintf(w, "  %d/%d workouts, %.1f/%.1f km\n",
			wp.CompletedWorkouts, wp.PlannedWorkouts, wp.CompletedDistance, wp.PlannedDistance)
	}
}

func formatWorkout(w model.Workout) string {
	if w.Type == model.WorkoutRest {
		return fmt.Sprintf("%-9s %s", w.DayName, w.Type)
	}
	line := fmt.Sprintf("%-9s %s %.1f km, %.0f min", w.DayName, w.Type, w.DistanceKm, w.DurationMinutes)
	if w.PaceTarget != nil {
		line += " @ " + *w.PaceTarget
	}
	return line
}
