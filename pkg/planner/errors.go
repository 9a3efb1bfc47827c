package planner

import "errors"

var (
	// ErrInvalidLogging is returned when the logging level is not a logrus level
	ErrInvalidLogging = errors.New("invalid logging level")
	// ErrNoPlan is returned by callers that require an optimal plan when the linked program has none
	ErrNoPlan = errors.New("no optimal plan")
	// ErrInvalidWorkers is returned when diagnoseWorkers is not positive
	ErrInvalidWorkers = errors.New("diagnoseWorkers must be positive")
)
