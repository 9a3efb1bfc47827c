// Package planner orchestrates a planning run: it builds every period
// sub-model, links them, solves the linked program and extracts the plan.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/decarb/pkg/linker"
	"github.com/ethpandaops/decarb/pkg/observability"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/results"
	"github.com/ethpandaops/decarb/pkg/solver"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service plans decarbonisation runs
type Service interface {
	// Link builds and links every period without solving
	Link(reg *registry.Registry) (*linker.Program, error)
	// Plan builds, links and solves the registry and extracts the plan
	Plan(ctx context.Context, reg *registry.Registry) (*results.Plan, error)
}

type service struct {
	config *Config
	log    logrus.FieldLogger
	solver solver.Solver
}

// NewService creates a planner. A nil solver selects the built-in
// branch-and-bound solver configured from cfg.Solver.
func NewService(log logrus.FieldLogger, cfg *Config, s solver.Solver) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if s == nil {
		bb, err := solver.New(log, &cfg.Solver)
		if err != nil {
			return nil, err
		}

		s = bb
	}

	return &service{
		config: cfg,
		log:    log.WithField("service", "planner"),
		solver: s,
	}, nil
}

func (s *service) mode(reg *registry.Registry) (submodel.Mode, error) {
	mode, err := s.config.ResolveMode(reg.CostDriven)
	if err != nil {
		return "", &submodel.ModelError{Err: err}
	}

	return mode, nil
}

// Link builds each period independently and links the sub-models.
func (s *service) Link(reg *registry.Registry) (*linker.Program, error) {
	mode, err := s.mode(reg)
	if err != nil {
		return nil, err
	}

	return s.link(reg, mode)
}

func (s *service) link(reg *registry.Registry, mode submodel.Mode) (*linker.Program, error) {
	periods := make([]*submodel.PeriodModel, 0, len(reg.Periods))

	for _, period := range reg.Periods {
		pm, err := submodel.Build(reg.Plants, period, mode)
		if err != nil {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"period":      period.Index,
			"variables":   pm.Block.NumVars(),
			"constraints": len(pm.Block.Constraints()),
		}).Debug("Built period sub-model")

		periods = append(periods, pm)
	}

	lp, err := linker.Link(periods, mode)
	if err != nil {
		return nil, err
	}

	stats := lp.Stats()
	observability.RecordProgram(stats.Vars, stats.Binaries, stats.Constraints, stats.Links)

	s.log.WithFields(logrus.Fields{
		"periods":     stats.Periods,
		"plants":      stats.Plants,
		"variables":   stats.Vars,
		"binaries":    stats.Binaries,
		"constraints": stats.Constraints,
		"links":       stats.Links,
	}).Info("Linked multi-period program")

	return lp, nil
}

// Plan runs one planning pass. Infeasible and unbounded outcomes are
// returned as plan statuses, not errors; data, model and solver failures
// are errors.
func (s *service) Plan(ctx context.Context, reg *registry.Registry) (*results.Plan, error) {
	mode, err := s.mode(reg)
	if err != nil {
		observability.RecordError("planner", "model")

		return nil, err
	}

	runID := uuid.New().String()
	log := s.log.WithFields(logrus.Fields{"run_id": runID, "mode": mode})

	lp, err := s.link(reg, mode)
	if err != nil {
		observability.RecordError("planner", "model")

		return nil, err
	}

	model, err := lp.Model()
	if err != nil {
		return nil, fmt.Errorf("failed to flatten program: %w", err)
	}

	start := time.Now()

	res, err := s.solver.Solve(ctx, model)
	duration := time.Since(start)

	if err != nil {
		observability.RecordError("solver", solverErrorType(err))
		observability.RecordSolve(mode.String(), "error", duration.Seconds(), 0, 0)
		log.WithError(err).Error("Solve failed")

		return nil, err
	}

	observability.RecordSolve(mode.String(), res.Status.String(), duration.Seconds(), res.Nodes, res.Relaxations)

	plan := &results.Plan{
		RunID:  runID,
		Mode:   mode,
		Status: res.Status,
	}

	log = log.WithFields(logrus.Fields{
		"status":   res.Status,
		"nodes":    res.Nodes,
		"duration": duration,
	})

	if res.Status != solver.StatusOptimal {
		log.Warn("Linked program has no optimal solution")

		if s.config.Diagnose {
			plan.Diagnostics = s.diagnose(ctx, lp)
		}

		return plan, nil
	}

	plan.Objective = res.Objective

	periods, err := results.ExtractAll(lp, res)
	if err != nil {
		return nil, err
	}

	plan.Periods = periods

	log.WithField("objective", res.Objective).Info("Plan solved")

	return plan, nil
}

// solverErrorType maps a solve failure to a bounded metric label.
func solverErrorType(err error) string {
	switch {
	case errors.Is(err, solver.ErrTimeout):
		return "timeout"
	case errors.Is(err, solver.ErrNodeLimit):
		return "node_limit"
	case errors.Is(err, solver.ErrNumerical):
		return "numerical"
	case errors.Is(err, solver.ErrInvalidModel):
		return "invalid_model"
	default:
		return "unknown"
	}
}

// diagnose solves every period's sub-model on its own with its local
// objective, to locate periods that cannot be satisfied in isolation.
func (s *service) diagnose(ctx context.Context, lp *linker.Program) []results.Diagnostic {
	periods := lp.Periods()
	out := make([]results.Diagnostic, len(periods))

	var g errgroup.Group

	g.SetLimit(s.config.DiagnoseWorkers)

	for i, pm := range periods {
		i, pm := i, pm

		g.Go(func() error {
			out[i] = s.diagnosePeriod(ctx, lp.Mode(), pm)

			return nil
		})
	}

	_ = g.Wait()

	return out
}

func (s *service) diagnosePeriod(ctx context.Context, mode submodel.Mode, pm *submodel.PeriodModel) results.Diagnostic {
	log := s.log.WithField("period", pm.Index())
	d := results.Diagnostic{Period: pm.Index()}

	model, err := pm.Block.Model()
	if err != nil {
		d.Err = err

		return d
	}

	res, err := s.solver.Solve(ctx, model)
	if err != nil {
		log.WithError(err).Warn("Standalone period solve failed")

		d.Err = err

		return d
	}

	d.Status = res.Status

	if res.Status == solver.StatusInfeasible {
		observability.RecordInfeasiblePeriod(mode.String())
		log.Warn("Period is infeasible on its own")
	}

	return d
}
