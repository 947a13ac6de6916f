package plan

import "github.com/vcscsvcscs/runcoach/pkg/model"

// MergeResult describes how an adjustment was reconciled with the plan
type MergeResult struct {
	Replaced  int // weeks whose content was replaced
	Kept      int // remaining weeks the adjustment did not cover
	Discarded int // surplus replacement weeks that had no slot
}

// Install replaces any prior plan with a freshly hydrated one. Week numbers
// are verified and, if needed, renumbered 1..N preserving order.
func Install(next *model.TrainingPlan) *model.TrainingPlan {
	if next == nil {
		return nil
	}
	installed := next.Clone()
	Renumber(installed.Weeks)
	for i := range installed.Weeks {
		installed.Weeks[i].TotalDistance = TotalDistance(installed.Weeks[i].Workouts)
	}
	return installed
}

// MergeAdjustment splices hydrated replacement weeks into p after fromIndex.
//
// Weeks 0..fromIndex are frozen history and are carried over untouched.
// Replacement k lands at index fromIndex+1+k and keeps the week number that
// was already there. Remaining weeks without a replacement are kept, and
// surplus replacements are dropped, so the week count never changes. Plan id,
// creation time and goal are preserved. When no week is eligible the input
// plan is returned as is. A negative fromIndex freezes nothing.
//
// p is never modified; the result shares frozen and kept weeks with it.
func MergeAdjustment(p *model.TrainingPlan, fromIndex int, replacements []model.WeekPlan) (*model.TrainingPlan, MergeResult) {
	if p == nil {
		return nil, MergeResult{Discarded: len(replacements)}
	}

	start := fromIndex + 1
	if start < 0 {
		start = 0
	}
	if start >= len(p.Weeks) {
		return p, MergeResult{Discarded: len(replacements)}
	}

	weeks := make([]model.WeekPlan, len(p.Weeks))
	copy(weeks, p.Weeks)

	var result MergeResult
	for i := start; i < len(weeks); i++ {
		k := i - start
		if k >= len(replacements) {
			result.Kept++
			continue
		}

		week := replacements[k].Clone()
		week.WeekNumber = p.Weeks[i].WeekNumber
		week.TotalDistance = TotalDistance(week.Workouts)
		weeks[i] = week
		result.Replaced++
	}
	result.Discarded = len(replacements) - result.Replaced

	next := *p
	next.Weeks = weeks
	return &next, result
}
