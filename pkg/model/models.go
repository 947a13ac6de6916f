package model

import "time"

// UserProfile is the runner profile captured during onboarding
type UserProfile struct {
	Name                  string  `json:"name"`
	Age                   int     `json:"age"`
	Level                 Level   `json:"level"`
	Goal                  Goal    `json:"goal"`
	DaysPerWeek           int     `json:"daysPerWeek"`
	CurrentWeeklyDistance float64 `json:"currentWeeklyDistance"` // km
	Notes                 string  `json:"notes"`
}

// Workout is a single session inside a week.
// ID is assigned at hydration and never changes afterwards.
type Workout struct {
	ID              string      `json:"id"`
	DayName         string      `json:"dayName"`
	Type            WorkoutType `json:"type"`
	DistanceKm      float64     `json:"distanceKm"`
	DurationMinutes float64     `json:"durationMinutes"`
	Description     string      `json:"description"`
	PaceTarget      *string     `json:"paceTarget,omitempty"`
	Completed       bool        `json:"completed"`
	ActualDistance  *float64    `json:"actualDistance,omitempty"`
	ActualDuration  *float64    `json:"actualDuration,omitempty"`
	Feedback        *string     `json:"feedback,omitempty"`
	Feeling         *int        `json:"feeling,omitempty"` // 1-10
}

// WeekPlan groups the workouts of one training week.
// TotalDistance is derived from Workouts and recomputed on every structural change.
type WeekPlan struct {
	WeekNumber    int       `json:"weekNumber"`
	Focus         string    `json:"focus"`
	Workouts      []Workout `json:"workouts"`
	TotalDistance float64   `json:"totalDistance"`
}

// Clone returns a copy of the week that shares no slice with the receiver
func (w WeekPlan) Clone() WeekPlan {
	if w.Workouts != nil {
		workouts := make([]Workout, len(w.Workouts))
		copy(workouts, w.Workouts)
		w.Workouts = workouts
	}
	return w
}

// TrainingPlan is the multi-week schedule owned by the session
type TrainingPlan struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	Goal      string     `json:"goal"`
	Weeks     []WeekPlan `json:"weeks"`
}

// Clone returns a deep copy of the plan's week and workout slices
func (p *TrainingPlan) Clone() *TrainingPlan {
	if p == nil {
		return nil
	}
	next := *p
	if p.Weeks != nil {
		next.Weeks = make([]WeekPlan, len(p.Weeks))
		for i, week := range p.Weeks {
			next.Weeks[i] = week.Clone()
		}
	}
	return &next
}

// ChatRole identifies the author of a chat message
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleCoach ChatRole = "coach"
)

// ChatMessage is one entry of the coach conversation
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanSkeleton is the unhydrated plan returned by the generation service
type PlanSkeleton struct {
	GoalSummary string         `json:"goalSummary"`
	Weeks       []WeekSkeleton `json:"weeks"`
}

// WeekSkeleton is an unhydrated week. Workouts is nil when the field was absent.
type WeekSkeleton struct {
	WeekNumber int               `json:"weekNumber"`
	Focus      string            `json:"focus"`
	Workouts   []WorkoutSkeleton `json:"workouts"`
}

// WorkoutSkeleton is an unhydrated workout: no identity, no completion state.
// Numeric fields are pointers so that a missing field can be told apart from zero.
type WorkoutSkeleton struct {
	DayName         string   `json:"dayName"`
	Type            string   `json:"type"`
	DistanceKm      *float64 `json:"distanceKm"`
	DurationMinutes *float64 `json:"durationMinutes"`
	Description     string   `json:"description"`
	PaceTarget      string   `json:"paceTarget,omitempty"`
}
