// Package linker composes independently built period sub-models into one
// multi-period program coupled by CCS monotonicity constraints.
package linker

import (
	"fmt"
	"slices"

	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/submodel"
)

// Objective names of the global objective per mode.
const (
	ObjectiveTotalCost     = "sum-total-cost"
	ObjectiveTotalEmission = "sum-total-emission"
)

// Program is the linked multi-period program. Periods are held in
// ascending index order and each owns one block of the underlying program.
type Program struct {
	mode    submodel.Mode
	program *milp.Program
	periods []*submodel.PeriodModel
	blocks  map[int]int
}

// Stats summarises the size of a linked program.
type Stats struct {
	Periods     int
	Plants      int
	Vars        int
	Binaries    int
	Constraints int
	Links       int
}

// Link absorbs the sub-models into one program. Local objectives are
// dropped, every plant's CCS extents are constrained to be non-decreasing
// from one period to the next, and a single global objective is installed.
func Link(periods []*submodel.PeriodModel, mode submodel.Mode) (*Program, error) {
	if err := mode.Validate(); err != nil {
		return nil, &submodel.ModelError{Err: err}
	}

	if len(periods) == 0 {
		return nil, &submodel.ModelError{Err: ErrNoPeriods}
	}

	roster := periods[0].PlantIDs()
	indices := make([]int, 0, len(periods))
	byIndex := make(map[int]*submodel.PeriodModel, len(periods))

	for _, pm := range periods {
		if pm.Mode != mode {
			return nil, &submodel.ModelError{
				Period: pm.Index(),
				Err:    fmt.Errorf("%w: built for %s, linking for %s", ErrModeMismatch, pm.Mode, mode),
			}
		}

		if !slices.Equal(pm.PlantIDs(), roster) {
			return nil, &submodel.ModelError{Period: pm.Index(), Err: ErrRosterMismatch}
		}

		indices = append(indices, pm.Index())
		byIndex[pm.Index()] = pm
	}

	chain, err := buildChain(indices)
	if err != nil {
		return nil, &submodel.ModelError{Err: err}
	}

	order, err := chain.order()
	if err != nil {
		return nil, &submodel.ModelError{Err: err}
	}

	lp := &Program{
		mode:    mode,
		program: milp.NewProgram(),
		periods: make([]*submodel.PeriodModel, 0, len(order)),
		blocks:  make(map[int]int, len(order)),
	}

	for _, index := range order {
		pm := byIndex[index]
		lp.blocks[index] = lp.program.AddBlock(pm.Block.WithoutObjective())
		lp.periods = append(lp.periods, pm)
	}

	for i := 0; i+1 < len(lp.periods); i++ {
		lp.linkCCS(lp.periods[i], lp.periods[i+1])
	}

	lp.program.SetObjective(lp.globalObjective())

	return lp, nil
}

// linkCCS adds ccs_k[p, next] - ccs_k[p, prev] >= 0 for every plant and option.
func (lp *Program) linkCCS(prev, next *submodel.PeriodModel) {
	prevBlock := lp.blocks[prev.Index()]
	nextBlock := lp.blocks[next.Index()]

	for i, pv := range prev.Plants {
		nv := next.Plants[i]

		for k := 0; k < submodel.NumCCS; k++ {
			lp.program.AddLink(milp.Constraint{
				Name: fmt.Sprintf("ccs%d-monotone[%s,%d-%d]", k+1, pv.Plant.ID, prev.Index(), next.Index()),
				Expr: milp.Sum(
					milp.Unit(lp.program.Global(nextBlock, nv.CCS[k])),
					milp.Scaled(-1, lp.program.Global(prevBlock, pv.CCS[k])),
				),
				Sense: milp.GreaterEqual,
				RHS:   0,
			})
		}
	}
}

func (lp *Program) globalObjective() milp.Objective {
	name := ObjectiveTotalEmission
	if lp.mode == submodel.ModeCost {
		name = ObjectiveTotalCost
	}

	terms := make([]milp.Term, 0, len(lp.periods))

	for _, pm := range lp.periods {
		total := pm.TotalEmission
		if lp.mode == submodel.ModeCost {
			total = pm.TotalCost
		}

		terms = append(terms, milp.Unit(lp.program.Global(lp.blocks[pm.Index()], total)))
	}

	return milp.Objective{Name: name, Expr: milp.Sum(terms...)}
}

// Mode returns the regime the program was linked for.
func (lp *Program) Mode() submodel.Mode {
	return lp.mode
}

// Periods returns the sub-models in ascending period order.
func (lp *Program) Periods() []*submodel.PeriodModel {
	return append([]*submodel.PeriodModel(nil), lp.periods...)
}

// Period returns the sub-model of a period index.
func (lp *Program) Period(index int) (*submodel.PeriodModel, error) {
	block, ok := lp.blocks[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPeriod, index)
	}

	return lp.periods[block], nil
}

// Model flattens the linked program for a solver.
func (lp *Program) Model() (milp.Model, error) {
	return lp.program.Model()
}

// Objective returns the global objective.
func (lp *Program) Objective() milp.Objective {
	obj, _ := lp.program.Objective()

	return obj
}

// Links returns the cross-period constraints in program-wide variables.
func (lp *Program) Links() []milp.Constraint {
	return lp.program.Links()
}

// Assignment slices a solved value vector down to one period's block, so
// it can be read with the sub-model's own variable handles.
func (lp *Program) Assignment(values []float64, index int) (milp.Assignment, error) {
	block, ok := lp.blocks[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPeriod, index)
	}

	return lp.program.BlockAssignment(values, block)
}

// Stats reports the program size.
func (lp *Program) Stats() Stats {
	s := Stats{
		Periods:     len(lp.periods),
		Vars:        lp.program.NumVars(),
		Constraints: lp.program.NumConstraints(),
		Links:       len(lp.program.Links()),
	}

	if len(lp.periods) > 0 {
		s.Plants = len(lp.periods[0].Plants)
	}

	for _, pm := range lp.periods {
		for _, def := range pm.Block.Vars() {
			if def.Domain == milp.Binary {
				s.Binaries++
			}
		}
	}

	return s
}
