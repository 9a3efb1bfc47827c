// Package solver submits assembled programs to a MILP engine and reports the outcome
package solver

import (
	"context"
	"fmt"

	"github.com/ethpandaops/decarb/pkg/milp"
)

// Status is the outcome of a completed solve.
type Status uint8

const (
	// StatusOptimal means an optimal assignment was found
	StatusOptimal Status = iota
	// StatusInfeasible means no assignment satisfies the constraints
	StatusInfeasible
	// StatusUnbounded means the objective can decrease without limit
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Result is the outcome of a solve. Values is only populated when Status is
// StatusOptimal.
type Result struct {
	Status      Status
	Objective   float64
	Values      milp.Assignment
	Nodes       int
	Relaxations int
}

// Solver solves a flat MILP. Failures to reach a status are returned as *Error.
type Solver interface {
	Solve(ctx context.Context, m milp.Model) (*Result, error)
}
