// Package results reads solved variable values back into per-period
// reporting rows. Extraction is a pure read of a solver assignment.
package results

import (
	"errors"
	"fmt"
	"math"

	"github.com/ethpandaops/decarb/pkg/linker"
	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/solver"
	"github.com/ethpandaops/decarb/pkg/submodel"
)

var (
	// ErrNotOptimal is returned when extraction is requested for a result without an optimal assignment
	ErrNotOptimal = errors.New("result is not optimal")
)

// zeroTolerance snaps solver noise around zero to an exact zero.
const zeroTolerance = 1e-9

// PlantRow is the solved state of one plant in one period.
type PlantRow struct {
	ID              string
	Fuel            registry.FuelKind
	Energy          float64
	CarbonIntensity float64

	CCSSelected      [submodel.NumCCS]bool
	CCSExtent        [submodel.NumCCS]float64
	DeratedIntensity [submodel.NumCCS]float64
	NetCCS           [submodel.NumCCS]float64

	// AltFuel holds the two blend grades; both stay zero for plants that
	// cannot blend.
	AltFamily registry.AltFuelFamily
	AltFuel   [2]float64

	// Net is the energy delivered without CCS; NetEnergy adds the CCS derated output.
	Net        float64
	NetEnergy  float64
	CarbonLoad float64
	Cost       float64
}

// OptionRow is the solved deployment of one NET or compensatory option.
type OptionRow struct {
	Name            string
	Family          submodel.OptionFamily
	CarbonIntensity float64
	Cost            float64
	Energy          float64
	CarbonLoad      float64
}

// PeriodReport is everything reported for one period.
type PeriodReport struct {
	Period        int
	Mode          submodel.Mode
	Demand        float64
	EmissionLimit float64
	Budget        float64

	Plants  []PlantRow
	Options []OptionRow

	TotalEmission float64
	TotalCost     float64
}

// RecomputedEmission sums the carbon loads of every plant and option.
func (r *PeriodReport) RecomputedEmission() float64 {
	total := 0.0
	for _, p := range r.Plants {
		total += p.CarbonLoad
	}

	for _, o := range r.Options {
		total += o.CarbonLoad
	}

	return total
}

// RecomputedCost sums the cost of every plant and option.
func (r *PeriodReport) RecomputedCost() float64 {
	total := 0.0
	for _, p := range r.Plants {
		total += p.Cost
	}

	for _, o := range r.Options {
		total += o.Cost * o.Energy
	}

	return total
}

// Extract reads one period's values from an assignment local to its block.
func Extract(pm *submodel.PeriodModel, a milp.Assignment) PeriodReport {
	period := pm.Period

	report := PeriodReport{
		Period:        period.Index,
		Mode:          pm.Mode,
		Demand:        period.Demand,
		EmissionLimit: period.EmissionLimit,
		Budget:        period.Budget,
		Plants:        make([]PlantRow, 0, len(pm.Plants)),
		Options:       make([]OptionRow, 0, 8),
		TotalEmission: value(a, pm.TotalEmission),
		TotalCost:     value(a, pm.TotalCost),
	}

	for _, pv := range pm.Plants {
		report.Plants = append(report.Plants, plantRow(pv, &period, a))
	}

	for _, o := range pm.Options() {
		energy := value(a, o.Var)

		report.Options = append(report.Options, OptionRow{
			Name:            o.Name,
			Family:          o.Family,
			CarbonIntensity: o.Option.CarbonIntensity,
			Cost:            o.Option.Cost,
			Energy:          energy,
			CarbonLoad:      energy * o.Option.CarbonIntensity,
		})
	}

	return report
}

func plantRow(pv submodel.PlantVars, period *registry.Period, a milp.Assignment) PlantRow {
	p := pv.Plant

	row := PlantRow{
		ID:               p.ID,
		Fuel:             p.Fuel,
		Energy:           value(a, pv.Energy),
		CarbonIntensity:  p.CarbonIntensity,
		DeratedIntensity: pv.DeratedIntensity,
		AltFamily:        p.Fuel.AltFuel(),
		Net:              value(a, pv.Net),
	}

	row.NetEnergy = row.Net
	row.CarbonLoad = row.Net * p.CarbonIntensity
	row.Cost = row.Net * period.Prices.For(p.Fuel)

	for k := 0; k < submodel.NumCCS; k++ {
		row.CCSSelected[k] = value(a, pv.Selected[k]) > 0.5
		row.CCSExtent[k] = value(a, pv.CCS[k])
		row.NetCCS[k] = value(a, pv.NetCCS[k])

		row.NetEnergy += row.NetCCS[k]
		row.CarbonLoad += row.NetCCS[k] * pv.DeratedIntensity[k]
		row.Cost += row.NetCCS[k] * period.CCS[k].VariableCost

		if row.CCSSelected[k] {
			row.Cost += period.CCS[k].FixedCost
		}
	}

	for g, alt := range pv.Alt {
		if g >= len(row.AltFuel) {
			break
		}

		row.AltFuel[g] = value(a, alt.Var)
		row.NetEnergy += row.AltFuel[g]
		row.CarbonLoad += row.AltFuel[g] * alt.Option.CarbonIntensity
		row.Cost += row.AltFuel[g] * alt.Option.Cost
	}

	return row
}

// ExtractAll extracts every period of a solved linked program. Only an
// optimal result carries an assignment; anything else is refused.
func ExtractAll(lp *linker.Program, res *solver.Result) ([]PeriodReport, error) {
	if res == nil {
		return nil, fmt.Errorf("%w: no result", ErrNotOptimal)
	}

	if res.Status != solver.StatusOptimal {
		return nil, fmt.Errorf("%w: status %s", ErrNotOptimal, res.Status)
	}

	periods := lp.Periods()
	reports := make([]PeriodReport, 0, len(periods))

	for _, pm := range periods {
		a, err := lp.Assignment(res.Values, pm.Index())
		if err != nil {
			return nil, fmt.Errorf("failed to read period %d: %w", pm.Index(), err)
		}

		reports = append(reports, Extract(pm, a))
	}

	return reports, nil
}

func value(a milp.Assignment, v milp.Var) float64 {
	x := a.Value(v)
	if math.Abs(x) < zeroTolerance {
		return 0
	}

	return x
}
