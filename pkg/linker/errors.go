package linker

import "errors"

// Linker-specific errors
var (
	// ErrNoPeriods is returned when there are no sub-models to link
	ErrNoPeriods = errors.New("no period sub-models to link")
	// ErrModeMismatch is returned when a sub-model was built for a different mode
	ErrModeMismatch = errors.New("sub-model mode does not match linker mode")
	// ErrRosterMismatch is returned when sub-models disagree on the plant roster
	ErrRosterMismatch = errors.New("sub-model plant roster differs from the first period")
	// ErrDuplicatePeriod is returned when two sub-models share a period index
	ErrDuplicatePeriod = errors.New("duplicate period index")
	// ErrNonContiguous is returned when period indices do not form a single chain
	ErrNonContiguous = errors.New("period indices are not contiguous")
	// ErrUnknownPeriod is returned when a period index is not part of the program
	ErrUnknownPeriod = errors.New("unknown period")
)
