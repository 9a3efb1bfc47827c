package solver

import (
	"errors"
	"fmt"
)

// Solver-specific errors
var (
	// ErrTimeout is returned when the solve exceeds its wall-clock budget
	ErrTimeout = errors.New("timeout")
	// ErrNodeLimit is returned when branch-and-bound exhausts its node budget
	ErrNodeLimit = errors.New("node limit reached")
	// ErrNumerical is returned when the LP engine cannot complete a relaxation
	ErrNumerical = errors.New("numerical failure")
	// ErrInvalidModel is returned when the model cannot be handed to the LP engine
	ErrInvalidModel = errors.New("invalid model")
	// ErrInvalidTolerance is returned when a configured tolerance is not positive
	ErrInvalidTolerance = errors.New("tolerance must be positive")
	// ErrInvalidMaxNodes is returned when the node budget is not positive
	ErrInvalidMaxNodes = errors.New("maxNodes must be positive")
	// ErrInvalidTimeout is returned when the timeout is negative
	ErrInvalidTimeout = errors.New("timeout must not be negative")
)

// Error reports a solve that ended without a usable status: the solver was
// unreachable, timed out, or failed numerically.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil || e.Err.Error() == e.Reason {
		return fmt.Sprintf("solver error: %s", e.Reason)
	}

	return fmt.Sprintf("solver error: %s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
