package model

import (
	"fmt"
	"strings"
)

// Level represents the runner's experience level
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists every valid Level
var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

// Valid reports whether l is one of the known levels
func (l Level) Valid() bool {
	for _, known := range Levels {
		if l == known {
			return true
		}
	}
	return false
}

// Goal represents the race or fitness target of a profile
type Goal string

const (
	Goal5K           Goal = "5K"
	Goal10K          Goal = "10K"
	GoalHalfMarathon Goal = "HalfMarathon"
	GoalMarathon     Goal = "Marathon"
	GoalFitness      Goal = "Fitness"
)

// Goals lists every valid Goal
var Goals = []Goal{Goal5K, Goal10K, GoalHalfMarathon, GoalMarathon, GoalFitness}

// Valid reports whether g is one of the known goals
func (g Goal) Valid() bool {
	for _, known := range Goals {
		if g == known {
			return true
		}
	}
	return false
}

// Label returns a human readable goal name
func (g Goal) Label() string {
	switch g {
	case Goal5K:
		return "5K"
	case Goal10K:
		return "10K"
	case GoalHalfMarathon:
		return "Half Marathon"
	case GoalMarathon:
		return "Marathon"
	case GoalFitness:
		return "General Fitness"
	}
	return string(g)
}

// WorkoutType is one of exactly seven session kinds
type WorkoutType string

const (
	WorkoutRest      WorkoutType = "Rest"
	WorkoutEasyRun   WorkoutType = "EasyRun"
	WorkoutTempo     WorkoutType = "Tempo"
	WorkoutIntervals WorkoutType = "Intervals"
	WorkoutLongRun   WorkoutType = "LongRun"
	WorkoutRecovery  WorkoutType = "Recovery"
	WorkoutStrength  WorkoutType = "Strength"
)

// WorkoutTypes lists every valid WorkoutType
var WorkoutTypes = []WorkoutType{
	WorkoutRest,
	WorkoutEasyRun,
	WorkoutTempo,
	WorkoutIntervals,
	WorkoutLongRun,
	WorkoutRecovery,
	WorkoutStrength,
}

// Valid reports whether t is one of the seven workout types
func (t WorkoutType) Valid() bool {
	for _, known := range WorkoutTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseLevel matches s against the known levels ignoring case, spaces, '-' and '_'
func ParseLevel(s string) (Level, error) {
	key := enumKey(s)
	for _, known := range Levels {
		if enumKey(string(known)) == key {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// ParseGoal matches s against the known goals ignoring case, spaces, '-' and '_'
func ParseGoal(s string) (Goal, error) {
	key := enumKey(s)
	for _, known := range Goals {
		if enumKey(string(known)) == key || enumKey(known.Label()) == key {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown goal %q", s)
}

// ParseWorkoutType matches s against the seven type labels ignoring case, spaces, '-' and '_'
func ParseWorkoutType(s string) (WorkoutType, error) {
	key := enumKey(s)
	for _, known := range WorkoutTypes {
		if enumKey(string(known)) == key {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown workout type %q", s)
}

func enumKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
