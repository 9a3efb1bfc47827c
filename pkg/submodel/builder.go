package submodel

import (
	"fmt"
	"math"

	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
)

// Constraint names shared with callers that inspect a built block.
const (
	ConstraintDemand   = "demand"
	ConstraintBalance  = "balance"
	ConstraintEmission = "emission"
	ConstraintCost     = "cost"
	ConstraintRegime   = "regime"
)

// linear accumulates terms, skipping zero coefficients.
type linear []milp.Term

func (l *linear) add(coef float64, v milp.Var) {
	if coef == 0 {
		return
	}

	*l = append(*l, milp.Term{Var: v, Coef: coef})
}

func (l linear) expr() milp.Expr {
	return milp.Sum(l...)
}

func plantName(kind, id string) string {
	return fmt.Sprintf("%s[%s]", kind, id)
}

// Build constructs the sub-model of one period for the plant roster. The
// local objective is minimize total cost in ModeCost and minimize total
// emission in ModeEmission; the other quantity is bound by the regime
// constraint. Structural violations are reported as *ModelError.
func Build(plants []registry.Plant, period registry.Period, mode Mode) (*PeriodModel, error) {
	if err := mode.Validate(); err != nil {
		return nil, &ModelError{Period: period.Index, Err: err}
	}

	if len(plants) == 0 {
		return nil, &ModelError{Period: period.Index, Err: ErrEmptyRoster}
	}

	b := milp.NewBlockBuilder(fmt.Sprintf("period-%d", period.Index))

	pm := &PeriodModel{
		Period: period,
		Mode:   mode,
		Plants: make([]PlantVars, 0, len(plants)),
	}

	for i := range pm.PlantIntegrated {
		pm.PlantIntegrated[i] = newOption(b, FamilyPlantIntegrated, i, period.PlantIntegrated[i])
	}

	for i := range pm.Compensating {
		pm.Compensating[i] = newOption(b, FamilyCompensating, i, period.Compensating[i])
	}

	for i := range pm.Compensatory {
		pm.Compensatory[i] = newOption(b, FamilyCompensatory, i, period.Compensatory[i])
	}

	pm.TotalEmission = b.NonNegative("total-emission")
	pm.TotalCost = b.NonNegative("total-cost")

	var (
		demand   linear
		balance  linear
		emission linear
		cost     linear
	)

	for _, p := range plants {
		pv, err := buildPlant(b, p, &period)
		if err != nil {
			return nil, err
		}

		pm.Plants = append(pm.Plants, pv)

		demand.add(1, pv.Energy)

		balance.add(1, pv.Net)
		emission.add(p.CarbonIntensity, pv.Net)
		cost.add(period.Prices.For(p.Fuel), pv.Net)

		for k := 0; k < NumCCS; k++ {
			tech := period.CCS[k]

			balance.add(1, pv.NetCCS[k])
			emission.add(pv.DeratedIntensity[k], pv.NetCCS[k])
			cost.add(tech.VariableCost, pv.NetCCS[k])
			cost.add(tech.FixedCost, pv.Selected[k])
		}

		for _, alt := range pv.Alt {
			balance.add(1, alt.Var)
			emission.add(alt.Option.CarbonIntensity, alt.Var)
			cost.add(alt.Option.Cost, alt.Var)
		}
	}

	for _, o := range pm.Options() {
		switch o.Family {
		case FamilyPlantIntegrated, FamilyCompensatory:
			balance.add(1, o.Var)
		case FamilyCompensating:
			balance.add(-1, o.Var)
		}

		emission.add(o.Option.CarbonIntensity, o.Var)
		cost.add(o.Option.Cost, o.Var)
	}

	emission.add(-1, pm.TotalEmission)
	cost.add(-1, pm.TotalCost)

	b.Add(ConstraintDemand, demand.expr(), milp.Equal, period.Demand)
	b.Add(ConstraintBalance, balance.expr(), milp.Equal, period.Demand)
	b.Add(ConstraintEmission, emission.expr(), milp.Equal, 0)
	b.Add(ConstraintCost, cost.expr(), milp.Equal, 0)

	switch mode {
	case ModeCost:
		b.Add(ConstraintRegime, milp.Sum(milp.Unit(pm.TotalEmission)), milp.Equal, period.EmissionLimit)
		b.Minimize("total-cost", milp.Sum(milp.Unit(pm.TotalCost)))
	case ModeEmission:
		b.Add(ConstraintRegime, milp.Sum(milp.Unit(pm.TotalCost)), milp.LessEqual, period.Budget)
		b.Minimize("total-emission", milp.Sum(milp.Unit(pm.TotalEmission)))
	}

	pm.Block = b.Build()

	return pm, nil
}

func newOption(b *milp.BlockBuilder, family OptionFamily, i int, o registry.Option) OptionVar {
	name := fmt.Sprintf("%s-%d", family, i+1)

	return OptionVar{
		Name:   name,
		Family: family,
		Option: o,
		Var:    b.Continuous(name, 0, o.Ceiling),
	}
}

func buildPlant(b *milp.BlockBuilder, p registry.Plant, period *registry.Period) (PlantVars, error) {
	if math.IsInf(p.UpperBound, 0) || math.IsNaN(p.UpperBound) {
		return PlantVars{}, &ModelError{Period: period.Index, Plant: p.ID, Err: ErrUnboundedPlant}
	}

	pv := PlantVars{Plant: p}

	for k := 0; k < NumCCS; k++ {
		ci, err := DeratedIntensity(p.CarbonIntensity, period.CCS[k])
		if err != nil {
			return PlantVars{}, &ModelError{Period: period.Index, Plant: p.ID, CCS: k + 1, Err: err}
		}

		pv.DeratedIntensity[k] = ci
	}

	pv.Energy = b.Continuous(plantName("energy", p.ID), p.LowerBound, p.UpperBound)
	pv.Net = b.NonNegative(plantName("net", p.ID))
	pv.CCSTotal = b.NonNegative(plantName("ccs", p.ID))

	for k := 0; k < NumCCS; k++ {
		pv.CCS[k] = b.NonNegative(plantName(fmt.Sprintf("ccs%d", k+1), p.ID))
		pv.Selected[k] = b.Binary(plantName(fmt.Sprintf("selected%d", k+1), p.ID))
		pv.NetCCS[k] = b.NonNegative(plantName(fmt.Sprintf("net-ccs%d", k+1), p.ID))

		if !p.Fuel.Retrofittable() {
			b.Fix(pv.CCS[k], 0)
			b.Fix(pv.Selected[k], 0)
		}
	}

	if grades, ok := period.AltFuel(p.Fuel.AltFuel()); ok {
		family := p.Fuel.AltFuel()
		for g, opt := range grades {
			name := plantName(fmt.Sprintf("%s%d", family, g+1), p.ID)
			pv.Alt = append(pv.Alt, AltFuelVar{Name: name, Option: opt, Var: b.NonNegative(name)})
		}
	}

	b.Add(plantName("ccs-split", p.ID),
		milp.Sum(milp.Unit(pv.CCSTotal), milp.Scaled(-1, pv.CCS[0]), milp.Scaled(-1, pv.CCS[1])),
		milp.Equal, 0)
	b.Add(plantName("ccs-cap", p.ID),
		milp.Sum(milp.Unit(pv.CCSTotal), milp.Scaled(-1, pv.Energy)),
		milp.LessEqual, 0)

	for k := 0; k < NumCCS; k++ {
		tech := period.CCS[k]

		b.Add(plantName(fmt.Sprintf("ccs-derate%d", k+1), p.ID),
			milp.Sum(milp.Unit(pv.NetCCS[k]), milp.Scaled(-(1-tech.ParasiticLoss), pv.CCS[k])),
			milp.Equal, 0)
		b.Add(plantName(fmt.Sprintf("ccs-gate%d", k+1), p.ID),
			milp.Sum(milp.Unit(pv.CCS[k]), milp.Scaled(-p.UpperBound, pv.Selected[k])),
			milp.LessEqual, 0)
	}

	conservation := linear{milp.Unit(pv.Net)}

	switch p.Fuel {
	case registry.FuelRenewable:
	case registry.FuelNaturalGas, registry.FuelCoal:
		conservation.add(1, pv.CCS[0])
		conservation.add(1, pv.CCS[1])

		for _, alt := range pv.Alt {
			conservation.add(1, alt.Var)
		}
	case registry.FuelOil:
		conservation.add(1, pv.CCS[0])
		conservation.add(1, pv.CCS[1])
	default:
		return PlantVars{}, &ModelError{
			Period: period.Index,
			Plant:  p.ID,
			Err:    fmt.Errorf("%w: %s", ErrUnknownFuel, p.Fuel),
		}
	}

	conservation.add(-1, pv.Energy)
	b.Add(plantName("conservation", p.ID), conservation.expr(), milp.Equal, 0)

	return pv, nil
}

// DeratedIntensity is the carbon intensity of energy delivered by a plant
// retrofitted with tech: ci * (1 - removal) / (1 - parasitic).
func DeratedIntensity(ci float64, tech registry.CCSTechnology) (float64, error) {
	x := tech.ParasiticLoss
	if math.IsNaN(x) || x < 0 || x >= 1 {
		return 0, fmt.Errorf("%w: got %g", ErrParasiticLoss, x)
	}

	rr := tech.RemovalRatio
	if math.IsNaN(rr) || rr < 0 || rr > 1 {
		return 0, fmt.Errorf("%w: got %g", ErrRemovalRatio, rr)
	}

	return ci * (1 - rr) / (1 - x), nil
}
