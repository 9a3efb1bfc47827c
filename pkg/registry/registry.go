package registry

import (
	"fmt"
	"math"

	"github.com/ethpandaops/decarb/pkg/workbook"
)

// Sheet names used in data errors.
const (
	SheetPlants       = "plants"
	SheetPeriods      = "periods"
	SheetEnergyPrices = "energyPrices"
	SheetAltSolid     = "altSolid"
	SheetAltGas       = "altGas"
	SheetCCS          = "ccs"
	SheetNETIntensity = "netIntensity"
	SheetNETCost      = "netCost"
	SheetCeilings     = "ceilings"
)

// FromWorkbook joins the workbook sheets by period into validated records.
func FromWorkbook(wb *workbook.Workbook) (*Registry, error) {
	if missing := wb.Missing(); len(missing) > 0 {
		cell := missing[0]

		return nil, &DataError{
			Sheet:  cell.Sheet,
			Period: cell.Period,
			Plant:  cell.ID,
			Field:  cell.Column,
			Err:    fmt.Errorf("%w: row %d", ErrMissingValue, cell.Row),
		}
	}

	plants, err := parsePlants(wb.Plants)
	if err != nil {
		return nil, err
	}

	periods, err := parsePeriods(wb)
	if err != nil {
		return nil, err
	}

	reg := &Registry{
		Plants:     plants,
		Periods:    periods,
		CostDriven: wb.Settings.CostDriven,
	}

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	return reg, nil
}

func parsePlants(rows []workbook.PlantRow) ([]Plant, error) {
	plants := make([]Plant, 0, len(rows))

	for _, row := range rows {
		fuel, err := ParseFuelKind(row.Fuel)
		if err != nil {
			return nil, &DataError{Sheet: SheetPlants, Plant: row.ID, Field: "fuel", Err: err}
		}

		plants = append(plants, Plant{
			ID:              row.ID,
			Fuel:            fuel,
			CarbonIntensity: row.CarbonIntensity,
			LowerBound:      row.LowerBound,
			UpperBound:      row.UpperBound,
		})
	}

	return plants, nil
}

func parsePeriods(wb *workbook.Workbook) ([]Period, error) {
	n := len(wb.Periods)
	if n == 0 {
		return nil, &DataError{Sheet: SheetPeriods, Err: ErrNoPeriods}
	}

	for i, row := range wb.Periods {
		if row.Period != i+1 {
			return nil, &DataError{
				Sheet:  SheetPeriods,
				Period: row.Period,
				Err:    fmt.Errorf("%w: row %d has index %d", ErrNonContiguousPeriods, i+1, row.Period),
			}
		}
	}

	prices, err := byPeriod(SheetEnergyPrices, wb.EnergyPrices, func(r workbook.PriceRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	solid, err := byPeriod(SheetAltSolid, wb.AltSolid, func(r workbook.AltFuelRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	gas, err := byPeriod(SheetAltGas, wb.AltGas, func(r workbook.AltFuelRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	ccs, err := byPeriod(SheetCCS, wb.CCS, func(r workbook.CCSRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	intensity, err := byPeriod(SheetNETIntensity, wb.NETIntensity, func(r workbook.NETRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	cost, err := byPeriod(SheetNETCost, wb.NETCost, func(r workbook.NETRow) int { return r.Period }, n, true)
	if err != nil {
		return nil, err
	}

	ceilings, err := byPeriod(SheetCeilings, wb.Ceilings, func(r workbook.CeilingRow) int { return r.Period }, n, false)
	if err != nil {
		return nil, err
	}

	periods := make([]Period, n)

	for i, row := range wb.Periods {
		c := ceilings[i]
		ci := intensity[i]
		co := cost[i]

		periods[i] = Period{
			Index:         row.Period,
			Demand:        row.Demand,
			EmissionLimit: row.EmissionLimit,
			Budget:        row.Budget,
			Prices: Prices{
				Renewable:  prices[i].Renewable,
				NaturalGas: prices[i].NaturalGas,
				Oil:        prices[i].Oil,
				Coal:       prices[i].Coal,
			},
			Compensatory: [2]Option{
				option(row.CompCI1, row.CompCost1, c.Comp1),
				option(row.CompCI2, row.CompCost2, c.Comp2),
			},
			AltSolid: [2]Option{
				option(solid[i].CI1, solid[i].Cost1, nil),
				option(solid[i].CI2, solid[i].Cost2, nil),
			},
			AltGas: [2]Option{
				option(gas[i].CI1, gas[i].Cost1, nil),
				option(gas[i].CI2, gas[i].Cost2, nil),
			},
			CCS: [2]CCSTechnology{
				{
					RemovalRatio:  ccs[i].RemovalRatio1,
					ParasiticLoss: ccs[i].Parasitic1,
					VariableCost:  ccs[i].Cost1,
					FixedCost:     ccs[i].FixedCost1,
				},
				{
					RemovalRatio:  ccs[i].RemovalRatio2,
					ParasiticLoss: ccs[i].Parasitic2,
					VariableCost:  ccs[i].Cost2,
					FixedCost:     ccs[i].FixedCost2,
				},
			},
			PlantIntegrated: [3]Option{
				option(ci.EP1, co.EP1, c.EP1),
				option(ci.EP2, co.EP2, c.EP2),
				option(ci.EP3, co.EP3, c.EP3),
			},
			Compensating: [3]Option{
				option(ci.EC1, co.EC1, c.EC1),
				option(ci.EC2, co.EC2, c.EC2),
				option(ci.EC3, co.EC3, c.EC3),
			},
		}
	}

	return periods, nil
}

// byPeriod indexes sheet rows by period. Optional sheets may omit periods,
// leaving zero rows in their place.
func byPeriod[T any](sheet string, rows []T, period func(T) int, n int, required bool) ([]T, error) {
	out := make([]T, n)
	seen := make([]bool, n)

	for _, row := range rows {
		idx := period(row)
		if idx < 1 || idx > n {
			return nil, &DataError{Sheet: sheet, Period: idx, Err: ErrUnknownPeriod}
		}

		if seen[idx-1] {
			return nil, &DataError{Sheet: sheet, Period: idx, Err: ErrDuplicateRow}
		}

		seen[idx-1] = true
		out[idx-1] = row
	}

	if required {
		for i, ok := range seen {
			if !ok {
				return nil, &DataError{Sheet: sheet, Period: i + 1, Err: ErrMissingRow}
			}
		}
	}

	return out, nil
}

func option(ci, cost float64, ceiling *float64) Option {
	o := Option{CarbonIntensity: ci, Cost: cost, Ceiling: math.Inf(1)}
	if ceiling != nil {
		o.Ceiling = *ceiling
	}

	return o
}
