package plan

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPlanData means generated or stored data could not be hydrated
	ErrMalformedPlanData = errors.New("malformed plan data")

	// ErrGenerationUnavailable means the generation service failed
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// ErrEmptyGenerationResult means the service answered without usable content.
	// It matches ErrGenerationUnavailable under errors.Is.
	ErrEmptyGenerationResult = fmt.Errorf("%w: empty generation result", ErrGenerationUnavailable)

	ErrInvalidProfile   = errors.New("invalid profile")
	ErrInvalidUpdate    = errors.New("invalid workout update")
	ErrInvalidWeekIndex = errors.New("invalid week index")
	ErrNoPlan           = errors.New("no training plan")
	ErrRequestInFlight  = errors.New("a generation request is already in flight")
	ErrEmptyFeedback    = errors.New("adjustment feedback is required")
	ErrWorkoutNotFound  = errors.New("workout not found")
)

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPlanData, fmt.Sprintf(format, args...))
}
