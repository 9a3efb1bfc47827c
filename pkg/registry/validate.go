package registry

import (
	"fmt"
	"math"
)

type field struct {
	name        string
	value       float64
	nonNegative bool
}

func nonNegative(name string, v float64) field { return field{name: name, value: v, nonNegative: true} }

func signed(name string, v float64) field { return field{name: name, value: v} }

// Validate checks the registry invariants: a non-empty roster with unique
// ids, non-negative ordered bounds, contiguous 1-based periods and
// non-negative quantities and costs. CCS ratios are left to the model builder.
func (r *Registry) Validate() error {
	if len(r.Plants) == 0 {
		return &DataError{Sheet: SheetPlants, Err: ErrNoPlants}
	}

	if len(r.Periods) == 0 {
		return &DataError{Sheet: SheetPeriods, Err: ErrNoPeriods}
	}

	seen := make(map[string]struct{}, len(r.Plants))

	for _, p := range r.Plants {
		if err := validatePlant(p); err != nil {
			return err
		}

		if _, dup := seen[p.ID]; dup {
			return &DataError{Sheet: SheetPlants, Plant: p.ID, Err: ErrDuplicatePlant}
		}

		seen[p.ID] = struct{}{}
	}

	for i := range r.Periods {
		p := &r.Periods[i]
		if p.Index != i+1 {
			return &DataError{
				Sheet:  SheetPeriods,
				Period: p.Index,
				Err:    fmt.Errorf("%w: position %d has index %d", ErrNonContiguousPeriods, i+1, p.Index),
			}
		}

		if err := validatePeriod(p); err != nil {
			return err
		}
	}

	return nil
}

func validatePlant(p Plant) error {
	if p.ID == "" {
		return &DataError{Sheet: SheetPlants, Err: ErrMissingPlantID}
	}

	if _, err := ParseFuelKind(p.Fuel.String()); err != nil {
		return &DataError{Sheet: SheetPlants, Plant: p.ID, Field: "fuel", Err: err}
	}

	if err := checkFields(SheetPlants, 0, p.ID,
		nonNegative("carbonIntensity", p.CarbonIntensity),
		nonNegative("lowerBound", p.LowerBound),
		nonNegative("upperBound", p.UpperBound),
	); err != nil {
		return err
	}

	if p.LowerBound > p.UpperBound {
		return &DataError{
			Sheet: SheetPlants,
			Plant: p.ID,
			Err:   fmt.Errorf("%w: %g > %g", ErrInvertedBounds, p.LowerBound, p.UpperBound),
		}
	}

	return nil
}

func validatePeriod(p *Period) error {
	if err := checkFields(SheetPeriods, p.Index, "",
		nonNegative("demand", p.Demand),
		nonNegative("emissionLimit", p.EmissionLimit),
		nonNegative("budget", p.Budget),
	); err != nil {
		return err
	}

	if err := checkFields(SheetEnergyPrices, p.Index, "",
		nonNegative("renewable", p.Prices.Renewable),
		nonNegative("naturalGas", p.Prices.NaturalGas),
		nonNegative("oil", p.Prices.Oil),
		nonNegative("coal", p.Prices.Coal),
	); err != nil {
		return err
	}

	groups := []struct {
		sheet   string
		prefix  string
		options []Option
	}{
		{SheetPeriods, "comp", p.Compensatory[:]},
		{SheetAltSolid, "solid", p.AltSolid[:]},
		{SheetAltGas, "gas", p.AltGas[:]},
		{SheetNETCost, "ep", p.PlantIntegrated[:]},
		{SheetNETCost, "ec", p.Compensating[:]},
	}

	for _, g := range groups {
		for i, o := range g.options {
			name := fmt.Sprintf("%s%d", g.prefix, i+1)
			if err := checkFields(g.sheet, p.Index, "",
				signed(name+".carbonIntensity", o.CarbonIntensity),
				nonNegative(name+".cost", o.Cost),
			); err != nil {
				return err
			}

			if math.IsNaN(o.Ceiling) || o.Ceiling < 0 {
				return &DataError{Sheet: SheetCeilings, Period: p.Index, Field: name, Err: ErrNegativeValue}
			}
		}
	}

	for i, t := range p.CCS {
		name := fmt.Sprintf("ccs%d", i+1)
		if err := checkFields(SheetCCS, p.Index, "",
			signed(name+".removalRatio", t.RemovalRatio),
			signed(name+".parasiticLoss", t.ParasiticLoss),
			nonNegative(name+".variableCost", t.VariableCost),
			nonNegative(name+".fixedCost", t.FixedCost),
		); err != nil {
			return err
		}
	}

	return nil
}

func checkFields(sheet string, period int, plant string, fields ...field) error {
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &DataError{Sheet: sheet, Period: period, Plant: plant, Field: f.name, Err: ErrNotFinite}
		}

		if f.nonNegative && f.value < 0 {
			return &DataError{
				Sheet:  sheet,
				Period: period,
				Plant:  plant,
				Field:  f.name,
				Err:    fmt.Errorf("%w: %g", ErrNegativeValue, f.value),
			}
		}
	}

	return nil
}
