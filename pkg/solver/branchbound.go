package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/sirupsen/logrus"
)

// BranchAndBound solves MILPs by depth-first branch-and-bound over the
// binary variables, using simplex for every LP relaxation. Solve is safe
// for concurrent use.
type BranchAndBound struct {
	config *Config
	log    logrus.FieldLogger
}

// New creates a branch-and-bound solver
func New(log logrus.FieldLogger, cfg *Config) (*BranchAndBound, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid solver configuration: %w", err)
	}

	return &BranchAndBound{
		config: cfg,
		log:    log.WithField("service", "solver"),
	}, nil
}

type node struct {
	lower []float64
	upper []float64
	depth int
}

type outcome struct {
	result *Result
	err    error
}

// Solve runs branch-and-bound under the configured wall-clock budget.
func (s *BranchAndBound) Solve(ctx context.Context, m milp.Model) (*Result, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)

	go func() {
		res, err := s.search(ctx, m)
		done <- outcome{result: res, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	}
}

func (s *BranchAndBound) search(ctx context.Context, m milp.Model) (*Result, error) {
	prepared, err := compile(m)
	if err != nil {
		return nil, &Error{Reason: "model rejected", Err: err}
	}

	root := node{
		lower: make([]float64, len(m.Vars)),
		upper: make([]float64, len(m.Vars)),
	}

	for j, v := range m.Vars {
		root.lower[j] = v.Lower
		root.upper[j] = v.Upper
	}

	var (
		stack       = []node{root}
		incumbent   []float64
		bestObj     = math.Inf(1)
		nodes       int
		relaxations int
	)

	for len(stack) > 0 {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, contextError(ctxErr)
		}

		if nodes >= s.config.MaxNodes {
			return nil, &Error{Reason: fmt.Sprintf("node limit reached after %d nodes", nodes), Err: ErrNodeLimit}
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		rel, solveErr := prepared.solve(current.lower, current.upper, s.config.Tolerance)
		relaxations++

		if solveErr != nil {
			return nil, &Error{Reason: "lp relaxation failed", Err: solveErr}
		}

		switch rel.status {
		case StatusInfeasible:
			continue
		case StatusUnbounded:
			// A restriction of an unbounded relaxation may still be unbounded,
			// but the root decides the status of the whole program.
			return &Result{Status: StatusUnbounded, Objective: math.Inf(-1), Nodes: nodes, Relaxations: relaxations}, nil
		case StatusOptimal:
		}

		if rel.objective >= bestObj-pruneGap(bestObj) {
			continue
		}

		branchVar, value := s.mostFractional(prepared, rel.x)
		if branchVar < 0 {
			incumbent = rel.x
			bestObj = rel.objective

			s.log.WithFields(logrus.Fields{
				"objective": bestObj,
				"node":      nodes,
				"depth":     current.depth,
			}).Debug("New incumbent")

			continue
		}

		down := current.child()
		down.upper[branchVar] = math.Floor(value)

		up := current.child()
		up.lower[branchVar] = math.Ceil(value)

		// The branch nearer to the relaxed value is explored first.
		if value-math.Floor(value) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	if incumbent == nil {
		return &Result{Status: StatusInfeasible, Nodes: nodes, Relaxations: relaxations}, nil
	}

	values := make(milp.Assignment, len(incumbent))
	copy(values, incumbent)

	for j := range values {
		if prepared.integer[j] {
			values[j] = math.Round(values[j])
		}
	}

	return &Result{
		Status:      StatusOptimal,
		Objective:   bestObj,
		Values:      values,
		Nodes:       nodes,
		Relaxations: relaxations,
	}, nil
}

func (s *BranchAndBound) mostFractional(c *compiled, x []float64) (int, float64) {
	best := -1
	bestDist := s.config.IntegralityTolerance

	for j, isInt := range c.integer {
		if !isInt {
			continue
		}

		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)

		if dist > bestDist {
			best = j
			bestDist = dist
		}
	}

	if best < 0 {
		return -1, 0
	}

	return best, x[best]
}

func (n node) child() node {
	return node{
		lower: append([]float64(nil), n.lower...),
		upper: append([]float64(nil), n.upper...),
		depth: n.depth + 1,
	}
}

func pruneGap(best float64) float64 {
	if math.IsInf(best, 1) {
		return 0
	}

	return 1e-9 * math.Max(1, math.Abs(best))
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Reason: "timeout", Err: ErrTimeout}
	}

	return &Error{Reason: "cancelled", Err: err}
}
