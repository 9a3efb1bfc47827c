package results

import (
	"github.com/ethpandaops/decarb/pkg/solver"
	"github.com/ethpandaops/decarb/pkg/submodel"
)

// Diagnostic is the outcome of solving one period on its own after the
// linked program failed to reach an optimum.
type Diagnostic struct {
	Period int
	Status solver.Status
	// Err is set when the standalone solve itself failed.
	Err error
}

// Plan is the outcome of one planning run. Periods is only populated when
// Status is optimal; Diagnostics only when it is not.
type Plan struct {
	RunID     string
	Mode      submodel.Mode
	Status    solver.Status
	Objective float64

	Periods     []PeriodReport
	Diagnostics []Diagnostic
}

// Optimal reports whether the plan carries extracted periods.
func (p *Plan) Optimal() bool {
	return p.Status == solver.StatusOptimal
}

// InfeasiblePeriods returns the periods diagnosed as infeasible on their own.
func (p *Plan) InfeasiblePeriods() []int {
	var out []int

	for _, d := range p.Diagnostics {
		if d.Err == nil && d.Status == solver.StatusInfeasible {
			out = append(out, d.Period)
		}
	}

	return out
}
