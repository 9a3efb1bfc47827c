package testutil

import (
	"math"

	"github.com/ethpandaops/decarb/pkg/registry"
)

// Tolerance is the absolute tolerance used when comparing solved values.
const Tolerance = 1e-6

// PeriodOption is a functional option for customizing test periods.
type PeriodOption func(*registry.Period)

// WithDemand sets the period demand.
func WithDemand(demand float64) PeriodOption {
	return func(p *registry.Period) {
		p.Demand = demand
	}
}

// WithEmissionLimit sets the period emission limit.
func WithEmissionLimit(limit float64) PeriodOption {
	return func(p *registry.Period) {
		p.EmissionLimit = limit
	}
}

// WithBudget sets the period budget.
func WithBudget(budget float64) PeriodOption {
	return func(p *registry.Period) {
		p.Budget = budget
	}
}

// WithPrices sets the base energy prices.
func WithPrices(prices registry.Prices) PeriodOption {
	return func(p *registry.Period) {
		p.Prices = prices
	}
}

// WithCCS sets both CCS technology options.
func WithCCS(first, second registry.CCSTechnology) PeriodOption {
	return func(p *registry.Period) {
		p.CCS = [2]registry.CCSTechnology{first, second}
	}
}

// WithCeiling caps every compensatory and NET option at ceiling.
func WithCeiling(ceiling float64) PeriodOption {
	return func(p *registry.Period) {
		for i := range p.Compensatory {
			p.Compensatory[i].Ceiling = ceiling
		}

		for i := range p.PlantIntegrated {
			p.PlantIntegrated[i].Ceiling = ceiling
		}

		for i := range p.Compensating {
			p.Compensating[i].Ceiling = ceiling
		}
	}
}

// WithNETCeiling caps every plant-integrated and compensating NET option at
// ceiling, leaving compensatory energy uncapped.
func WithNETCeiling(ceiling float64) PeriodOption {
	return func(p *registry.Period) {
		for i := range p.PlantIntegrated {
			p.PlantIntegrated[i].Ceiling = ceiling
		}

		for i := range p.Compensating {
			p.Compensating[i].Ceiling = ceiling
		}
	}
}

// WithoutRemoval makes every NET option carbon neutral, leaving plants as
// the only source of emission reductions.
func WithoutRemoval() PeriodOption {
	return func(p *registry.Period) {
		for i := range p.Compensating {
			p.Compensating[i].CarbonIntensity = 0
		}
	}
}

func option(ci, cost float64) registry.Option {
	return registry.Option{CarbonIntensity: ci, Cost: cost, Ceiling: math.Inf(1)}
}

// NewPeriod returns a period with demand 100, emission limit 0, budget
// 1000, unit base prices, and priced options that are never cheaper than
// a plant's base price. Post-hoc compensating NET removes one unit of
// carbon per unit deployed.
func NewPeriod(index int, opts ...PeriodOption) registry.Period {
	p := registry.Period{
		Index:         index,
		Demand:        100,
		EmissionLimit: 0,
		Budget:        1000,
		Prices:        registry.Prices{Renewable: 1, NaturalGas: 1, Oil: 1, Coal: 1},
		Compensatory:  [2]registry.Option{option(0, 10), option(0, 12)},
		AltSolid:      [2]registry.Option{option(0.2, 3), option(0, 6)},
		AltGas:        [2]registry.Option{option(0.1, 3), option(0, 6)},
		CCS: [2]registry.CCSTechnology{
			{RemovalRatio: 0.9, ParasiticLoss: 0.2, VariableCost: 1, FixedCost: 5},
			{RemovalRatio: 0.5, ParasiticLoss: 0.1, VariableCost: 0.5, FixedCost: 2},
		},
		PlantIntegrated: [3]registry.Option{option(0, 10), option(0, 11), option(0, 12)},
		Compensating:    [3]registry.Option{option(-1, 10), option(-1, 11), option(-1, 12)},
	}

	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Renewable returns a renewable plant with zero carbon intensity.
func Renewable(id string, lower, upper float64) registry.Plant {
	return registry.Plant{ID: id, Fuel: registry.FuelRenewable, LowerBound: lower, UpperBound: upper}
}

// Coal returns a coal plant.
func Coal(id string, ci, lower, upper float64) registry.Plant {
	return registry.Plant{ID: id, Fuel: registry.FuelCoal, CarbonIntensity: ci, LowerBound: lower, UpperBound: upper}
}

// Gas returns a natural gas plant.
func Gas(id string, ci, lower, upper float64) registry.Plant {
	return registry.Plant{ID: id, Fuel: registry.FuelNaturalGas, CarbonIntensity: ci, LowerBound: lower, UpperBound: upper}
}

// Oil returns an oil plant.
func Oil(id string, ci, lower, upper float64) registry.Plant {
	return registry.Plant{ID: id, Fuel: registry.FuelOil, CarbonIntensity: ci, LowerBound: lower, UpperBound: upper}
}

// NewRegistry returns a registry over the plants and periods.
func NewRegistry(costDriven bool, plants []registry.Plant, periods ...registry.Period) *registry.Registry {
	return &registry.Registry{
		Plants:     plants,
		Periods:    periods,
		CostDriven: costDriven,
	}
}

// SingleRenewable is a single renewable plant in [0, 100] against a demand
// of 100, an emission limit of 0 and a renewable price of 1.
func SingleRenewable(costDriven bool) *registry.Registry {
	return NewRegistry(costDriven,
		[]registry.Plant{Renewable("wind", 0, 100)},
		NewPeriod(1),
	)
}

// Mixed is a three-period coal, gas and wind roster with a tightening
// emission trajectory.
func Mixed(costDriven bool) *registry.Registry {
	plants := []registry.Plant{
		Coal("coal", 1, 0, 100),
		Gas("gas", 0.5, 0, 100),
		Renewable("wind", 0, 40),
	}

	prices := registry.Prices{Renewable: 2, NaturalGas: 1.5, Oil: 1.5, Coal: 1}

	return NewRegistry(costDriven, plants,
		NewPeriod(1, WithPrices(prices), WithEmissionLimit(40), WithBudget(400)),
		NewPeriod(2, WithPrices(prices), WithEmissionLimit(25), WithBudget(450)),
		NewPeriod(3, WithPrices(prices), WithEmissionLimit(10), WithBudget(500)),
	)
}

// Infeasible asks for more energy than every plant together can dispatch,
// with all compensatory and NET options capped at zero.
func Infeasible(costDriven bool) *registry.Registry {
	return NewRegistry(costDriven,
		[]registry.Plant{Renewable("wind", 0, 50), Coal("coal", 1, 0, 50)},
		NewPeriod(1, WithDemand(60), WithEmissionLimit(10), WithCeiling(0)),
		NewPeriod(2, WithDemand(150), WithEmissionLimit(10), WithCeiling(0)),
	)
}

// CCSRatchet is an emission-driven single oil plant over two periods. The
// first budget affords capture on all 100 units, the second only on 25, so
// on its own the second period would capture less than the first. The
// second CCS option removes nothing and is never worth selecting.
func CCSRatchet() *registry.Registry {
	capture := registry.CCSTechnology{RemovalRatio: 0.9, ParasiticLoss: 0.2, VariableCost: 1, FixedCost: 5}
	inert := registry.CCSTechnology{RemovalRatio: 0, ParasiticLoss: 0.1, VariableCost: 0.5, FixedCost: 2}

	return NewRegistry(false,
		[]registry.Plant{Oil("oil", 1, 0, 200)},
		NewPeriod(1, WithBudget(400), WithCCS(capture, inert), WithNETCeiling(0)),
		NewPeriod(2, WithBudget(150), WithCCS(capture, inert), WithNETCeiling(0)),
	)
}
