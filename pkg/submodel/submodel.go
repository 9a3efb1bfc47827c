// Package submodel builds the decision variables, constraints and local
// objective of a single planning period.
package submodel

import (
	"fmt"

	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
)

// NumCCS is the number of CCS technology options per period.
const NumCCS = 2

// OptionFamily groups the period-wide energy and removal options.
type OptionFamily uint8

const (
	// FamilyPlantIntegrated is plant-integrated NET (EP), counted as supply
	FamilyPlantIntegrated OptionFamily = iota
	// FamilyCompensating is post-hoc compensating NET (EC), counted as load
	FamilyCompensating
	// FamilyCompensatory is compensatory low-carbon energy, counted as supply
	FamilyCompensatory
)

func (f OptionFamily) String() string {
	switch f {
	case FamilyPlantIntegrated:
		return "EP-NET"
	case FamilyCompensating:
		return "EC-NET"
	case FamilyCompensatory:
		return "COMP"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// OptionVar is a period-wide deployment quantity.
type OptionVar struct {
	Name   string
	Family OptionFamily
	Option registry.Option
	Var    milp.Var
}

// AltFuelVar is an alternative fuel blend of one plant.
type AltFuelVar struct {
	Name   string
	Option registry.Option
	Var    milp.Var
}

// PlantVars are the decision variables owned by one plant in one period.
type PlantVars struct {
	Plant    registry.Plant
	Energy   milp.Var
	Net      milp.Var
	CCSTotal milp.Var
	CCS      [NumCCS]milp.Var
	Selected [NumCCS]milp.Var
	NetCCS   [NumCCS]milp.Var
	// Alt is empty for fuel kinds without alternative fuel blending.
	Alt []AltFuelVar
	// DeratedIntensity is the carbon intensity of energy produced under each CCS option.
	DeratedIntensity [NumCCS]float64
}

// PeriodModel is the immutable sub-model of one period.
type PeriodModel struct {
	Period registry.Period
	Mode   Mode
	Block  milp.Block
	Plants []PlantVars

	PlantIntegrated [3]OptionVar
	Compensating    [3]OptionVar
	Compensatory    [2]OptionVar

	TotalEmission milp.Var
	TotalCost     milp.Var
}

// Index returns the period index.
func (pm *PeriodModel) Index() int {
	return pm.Period.Index
}

// Options returns the NET and compensatory quantities in report order.
func (pm *PeriodModel) Options() []OptionVar {
	out := make([]OptionVar, 0, len(pm.PlantIntegrated)+len(pm.Compensating)+len(pm.Compensatory))
	out = append(out, pm.PlantIntegrated[:]...)
	out = append(out, pm.Compensating[:]...)
	out = append(out, pm.Compensatory[:]...)

	return out
}

// Plant looks up the variables of a plant by id.
func (pm *PeriodModel) Plant(id string) (PlantVars, bool) {
	for _, pv := range pm.Plants {
		if pv.Plant.ID == id {
			return pv, true
		}
	}

	return PlantVars{}, false
}

// PlantIDs returns the plant ids in roster order.
func (pm *PeriodModel) PlantIDs() []string {
	ids := make([]string, len(pm.Plants))
	for i, pv := range pm.Plants {
		ids[i] = pv.Plant.ID
	}

	return ids
}
