package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// PlansTotal counts planning runs by regime and outcome
	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decarb_plans_total",
			Help: "Total number of planning runs",
		},
		[]string{"mode", "status"}, // status: optimal, infeasible, unbounded, error
	)

	// SolveDuration measures the wall-clock time of a single solve in seconds
	SolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "decarb_solve_duration_seconds",
			Help:    "Solve duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
		},
		[]string{"mode", "status"},
	)

	// BranchNodes counts branch-and-bound nodes explored
	BranchNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decarb_branch_nodes_total",
			Help: "Total number of branch-and-bound nodes explored",
		},
		[]string{"mode"},
	)

	// Relaxations counts LP relaxations solved
	Relaxations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decarb_lp_relaxations_total",
			Help: "Total number of LP relaxations solved",
		},
		[]string{"mode"},
	)

	// ProgramVariables tracks the size of the last linked program
	ProgramVariables = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "decarb_program_variables",
			Help: "Number of variables in the last linked program",
		},
		[]string{"domain"}, // domain: continuous, binary
	)

	// ProgramConstraints tracks the constraint count of the last linked program
	ProgramConstraints = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "decarb_program_constraints",
			Help: "Number of constraints in the last linked program",
		},
		[]string{"kind"}, // kind: period, link
	)

	// PeriodsInfeasible counts periods found infeasible when solved on their own
	PeriodsInfeasible = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decarb_periods_infeasible_total",
			Help: "Total number of periods infeasible in standalone diagnosis",
		},
		[]string{"mode"},
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decarb_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordProgram records the size of a linked program
func RecordProgram(vars, binaries, constraints, links int) {
	ProgramVariables.WithLabelValues("continuous").Set(float64(vars - binaries))
	ProgramVariables.WithLabelValues("binary").Set(float64(binaries))
	ProgramConstraints.WithLabelValues("period").Set(float64(constraints - links))
	ProgramConstraints.WithLabelValues("link").Set(float64(links))
}

// RecordSolve records solve completion
func RecordSolve(mode, status string, duration float64, nodes, relaxations int) {
	PlansTotal.WithLabelValues(mode, status).Inc()
	SolveDuration.WithLabelValues(mode, status).Observe(duration)
	BranchNodes.WithLabelValues(mode).Add(float64(nodes))
	Relaxations.WithLabelValues(mode).Add(float64(relaxations))
}

// RecordInfeasiblePeriod records a period that is infeasible on its own
func RecordInfeasiblePeriod(mode string) {
	PeriodsInfeasible.WithLabelValues(mode).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
