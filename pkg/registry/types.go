// Package registry holds the validated plant roster and per-period planning
// parameters. Records are immutable once loaded.
package registry

import (
	"fmt"
	"math"
	"strings"
)

// FuelKind is the fuel a plant burns.
type FuelKind uint8

const (
	// FuelRenewable plants emit at their intensity and never take CCS
	FuelRenewable FuelKind = iota + 1
	// FuelNaturalGas plants may blend alternative gas fuels
	FuelNaturalGas
	// FuelOil plants take CCS but have no alternative fuel
	FuelOil
	// FuelCoal plants may blend alternative solid fuels
	FuelCoal
)

// FuelKinds lists every fuel kind in roster order.
var FuelKinds = []FuelKind{FuelRenewable, FuelNaturalGas, FuelOil, FuelCoal} //nolint:gochecknoglobals // Read-only enumeration

func (f FuelKind) String() string {
	switch f {
	case FuelRenewable:
		return "REN"
	case FuelNaturalGas:
		return "NG"
	case FuelOil:
		return "OIL"
	case FuelCoal:
		return "COAL"
	default:
		return fmt.Sprintf("fuel(%d)", uint8(f))
	}
}

// ParseFuelKind accepts the sheet markers (REN, NG, OIL, COAL) and their long names.
func ParseFuelKind(s string) (FuelKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "REN", "RENEWABLE":
		return FuelRenewable, nil
	case "NG", "GAS", "NATURALGAS", "NATURAL_GAS":
		return FuelNaturalGas, nil
	case "OIL":
		return FuelOil, nil
	case "COAL":
		return FuelCoal, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFuel, s)
	}
}

// AltFuelFamily is the family of alternative fuels a plant can blend.
type AltFuelFamily uint8

const (
	// AltFuelNone means the plant cannot blend alternative fuel
	AltFuelNone AltFuelFamily = iota
	// AltFuelGas is biomethane-type gas blended into natural gas plants
	AltFuelGas
	// AltFuelSolid is biomass-type solid fuel blended into coal plants
	AltFuelSolid
)

func (a AltFuelFamily) String() string {
	switch a {
	case AltFuelNone:
		return "none"
	case AltFuelGas:
		return "gas"
	case AltFuelSolid:
		return "solid"
	default:
		return fmt.Sprintf("altfuel(%d)", uint8(a))
	}
}

// AltFuel returns the alternative fuel family the kind can blend.
func (f FuelKind) AltFuel() AltFuelFamily {
	switch f {
	case FuelNaturalGas:
		return AltFuelGas
	case FuelCoal:
		return AltFuelSolid
	case FuelRenewable, FuelOil:
		return AltFuelNone
	default:
		return AltFuelNone
	}
}

// Retrofittable reports whether CCS can be applied to the kind.
func (f FuelKind) Retrofittable() bool {
	switch f {
	case FuelNaturalGas, FuelOil, FuelCoal:
		return true
	case FuelRenewable:
		return false
	default:
		return false
	}
}

// Plant is one generation source.
type Plant struct {
	ID              string
	Fuel            FuelKind
	CarbonIntensity float64
	LowerBound      float64
	UpperBound      float64
}

// Option is a priced energy or removal option with a carbon intensity.
// Ceiling is +Inf when deployment is uncapped.
type Option struct {
	CarbonIntensity float64
	Cost            float64
	Ceiling         float64
}

// Capped reports whether the option has a deployment ceiling.
func (o Option) Capped() bool {
	return !math.IsInf(o.Ceiling, 1)
}

// CCSTechnology is one carbon capture retrofit option.
type CCSTechnology struct {
	RemovalRatio  float64
	ParasiticLoss float64
	VariableCost  float64
	FixedCost     float64
}

// Prices are the base energy prices per fuel kind.
type Prices struct {
	Renewable  float64
	NaturalGas float64
	Oil        float64
	Coal       float64
}

// For returns the base price of the fuel kind.
func (p Prices) For(f FuelKind) float64 {
	switch f {
	case FuelRenewable:
		return p.Renewable
	case FuelNaturalGas:
		return p.NaturalGas
	case FuelOil:
		return p.Oil
	case FuelCoal:
		return p.Coal
	default:
		return 0
	}
}

// Period holds the exogenous parameters of one planning interval.
type Period struct {
	Index         int
	Demand        float64
	EmissionLimit float64
	Budget        float64
	Prices        Prices

	Compensatory    [2]Option
	AltSolid        [2]Option
	AltGas          [2]Option
	CCS             [2]CCSTechnology
	PlantIntegrated [3]Option
	Compensating    [3]Option
}

// AltFuel returns the alternative fuel grades of a family.
func (p *Period) AltFuel(family AltFuelFamily) ([2]Option, bool) {
	switch family {
	case AltFuelGas:
		return p.AltGas, true
	case AltFuelSolid:
		return p.AltSolid, true
	case AltFuelNone:
		return [2]Option{}, false
	default:
		return [2]Option{}, false
	}
}

// Registry is the validated input of one planning run.
type Registry struct {
	Plants     []Plant
	Periods    []Period
	CostDriven bool
}

// Plant looks up a plant by id.
func (r *Registry) Plant(id string) (Plant, bool) {
	for _, p := range r.Plants {
		if p.ID == id {
			return p, true
		}
	}

	return Plant{}, false
}

// Period looks up a period by its 1-based index.
func (r *Registry) Period(index int) (Period, bool) {
	if index < 1 || index > len(r.Periods) {
		return Period{}, false
	}

	return r.Periods[index-1], true
}
