package submodel

import (
	"errors"
	"math"
	"testing"

	"github.com/ethpandaops/decarb/internal/testutil"
	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedRoster() []registry.Plant {
	return []registry.Plant{
		testutil.Coal("coal", 1, 0, 100),
		testutil.Gas("gas", 0.5, 0, 100),
		testutil.Oil("oil", 0.8, 0, 50),
		testutil.Renewable("wind", 0, 40),
	}
}

func TestBuild_Objective(t *testing.T) {
	tests := []struct {
		mode      Mode
		objective string
		regime    milp.Sense
		rhs       float64
	}{
		{mode: ModeCost, objective: "total-cost", regime: milp.Equal, rhs: 25},
		{mode: ModeEmission, objective: "total-emission", regime: milp.LessEqual, rhs: 300},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			period := testutil.NewPeriod(1, testutil.WithEmissionLimit(25), testutil.WithBudget(300))

			pm, err := Build(mixedRoster(), period, tt.mode)
			require.NoError(t, err)

			assert.Equal(t, tt.mode, pm.Mode)
			assert.Equal(t, 1, pm.Index())

			obj, ok := pm.Block.Objective()
			require.True(t, ok, "local objective is active after construction")
			assert.Equal(t, tt.objective, obj.Name)

			regime, ok := pm.Block.Constraint(ConstraintRegime)
			require.True(t, ok)
			assert.Equal(t, tt.regime, regime.Sense)
			assert.InDelta(t, tt.rhs, regime.RHS, 0)
		})
	}
}

func TestBuild_Variables(t *testing.T) {
	pm, err := Build(mixedRoster(), testutil.NewPeriod(2), ModeCost)
	require.NoError(t, err)

	assert.Equal(t, []string{"coal", "gas", "oil", "wind"}, pm.PlantIDs())
	assert.Len(t, pm.Options(), 8)
	assert.Equal(t, "EP-NET-1", pm.PlantIntegrated[0].Name)
	assert.Equal(t, "EC-NET-3", pm.Compensating[2].Name)
	assert.Equal(t, "COMP-2", pm.Compensatory[1].Name)

	tests := []struct {
		id          string
		alt         int
		ccsFixed    bool
		energyUpper float64
	}{
		{id: "coal", alt: 2, energyUpper: 100},
		{id: "gas", alt: 2, energyUpper: 100},
		{id: "oil", alt: 0, energyUpper: 50},
		{id: "wind", alt: 0, ccsFixed: true, energyUpper: 40},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			pv, ok := pm.Plant(tt.id)
			require.True(t, ok)

			assert.Len(t, pv.Alt, tt.alt)
			assert.InDelta(t, tt.energyUpper, pm.Block.Var(pv.Energy).Upper, 0)

			for k := 0; k < NumCCS; k++ {
				assert.Equal(t, milp.Binary, pm.Block.Var(pv.Selected[k]).Domain)
				assert.Equal(t, tt.ccsFixed, pm.Block.Var(pv.CCS[k]).Fixed())
				assert.Equal(t, tt.ccsFixed, pm.Block.Var(pv.Selected[k]).Fixed())
			}
		})
	}

	_, ok := pm.Plant("missing")
	assert.False(t, ok)
}

func TestBuild_AltFuelNames(t *testing.T) {
	pm, err := Build(mixedRoster(), testutil.NewPeriod(1), ModeCost)
	require.NoError(t, err)

	coal, _ := pm.Plant("coal")
	gas, _ := pm.Plant("gas")

	assert.Equal(t, "solid1[coal]", coal.Alt[0].Name)
	assert.Equal(t, "gas2[gas]", gas.Alt[1].Name)
	assert.InDelta(t, 0.2, coal.Alt[0].Option.CarbonIntensity, 0)
	assert.InDelta(t, 0.1, gas.Alt[0].Option.CarbonIntensity, 0)
}

func TestBuild_DeratedIntensity(t *testing.T) {
	pm, err := Build(mixedRoster(), testutil.NewPeriod(1), ModeCost)
	require.NoError(t, err)

	coal, _ := pm.Plant("coal")

	// 1 * (1 - 0.9) / (1 - 0.2) and 1 * (1 - 0.5) / (1 - 0.1)
	assert.InDelta(t, 0.125, coal.DeratedIntensity[0], 1e-12)
	assert.InDelta(t, 0.5/0.9, coal.DeratedIntensity[1], 1e-12)

	derate, ok := pm.Block.Constraint("ccs-derate1[coal]")
	require.True(t, ok)
	assert.Equal(t, milp.Equal, derate.Sense)
	assert.InDelta(t, -0.8, derate.Expr.Coefficients()[coal.CCS[0]], 1e-12)
}

func TestBuild_Ceilings(t *testing.T) {
	pm, err := Build(mixedRoster(), testutil.NewPeriod(1, testutil.WithCeiling(7)), ModeEmission)
	require.NoError(t, err)

	for _, o := range pm.Options() {
		assert.InDelta(t, 7.0, pm.Block.Var(o.Var).Upper, 0, o.Name)
	}

	pm, err = Build(mixedRoster(), testutil.NewPeriod(1), ModeEmission)
	require.NoError(t, err)

	for _, o := range pm.Options() {
		assert.True(t, math.IsInf(pm.Block.Var(o.Var).Upper, 1), o.Name)
	}
}

func TestBuild_Balance(t *testing.T) {
	pm, err := Build(mixedRoster(), testutil.NewPeriod(1), ModeCost)
	require.NoError(t, err)

	balance, ok := pm.Block.Constraint(ConstraintBalance)
	require.True(t, ok)

	coefs := balance.Expr.Coefficients()

	for _, o := range pm.PlantIntegrated {
		assert.InDelta(t, 1.0, coefs[o.Var], 0)
	}

	for _, o := range pm.Compensatory {
		assert.InDelta(t, 1.0, coefs[o.Var], 0)
	}

	for _, o := range pm.Compensating {
		assert.InDelta(t, -1.0, coefs[o.Var], 0, "post-hoc NET sits on the demand side")
	}

	assert.InDelta(t, 100.0, balance.RHS, 0)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name        string
		plants      []registry.Plant
		period      registry.Period
		mode        Mode
		expectedErr error
		plant       string
		ccs         int
	}{
		{
			name:   "parasitic loss of one",
			plants: mixedRoster(),
			period: testutil.NewPeriod(1, testutil.WithCCS(
				registry.CCSTechnology{RemovalRatio: 0.9, ParasiticLoss: 1},
				registry.CCSTechnology{RemovalRatio: 0.5, ParasiticLoss: 0.1},
			)),
			mode:        ModeCost,
			expectedErr: ErrParasiticLoss,
			plant:       "coal",
			ccs:         1,
		},
		{
			name:   "negative parasitic loss",
			plants: mixedRoster(),
			period: testutil.NewPeriod(1, testutil.WithCCS(
				registry.CCSTechnology{RemovalRatio: 0.9, ParasiticLoss: 0.2},
				registry.CCSTechnology{RemovalRatio: 0.5, ParasiticLoss: -0.1},
			)),
			mode:        ModeEmission,
			expectedErr: ErrParasiticLoss,
			plant:       "coal",
			ccs:         2,
		},
		{
			name:   "removal ratio above one",
			plants: mixedRoster(),
			period: testutil.NewPeriod(1, testutil.WithCCS(
				registry.CCSTechnology{RemovalRatio: 1.5, ParasiticLoss: 0.2},
				registry.CCSTechnology{RemovalRatio: 0.5, ParasiticLoss: 0.1},
			)),
			mode:        ModeCost,
			expectedErr: ErrRemovalRatio,
			plant:       "coal",
			ccs:         1,
		},
		{
			name:        "empty roster",
			period:      testutil.NewPeriod(1),
			mode:        ModeCost,
			expectedErr: ErrEmptyRoster,
		},
		{
			name:        "unbounded plant",
			plants:      []registry.Plant{testutil.Renewable("wind", 0, math.Inf(1))},
			period:      testutil.NewPeriod(1),
			mode:        ModeCost,
			expectedErr: ErrUnboundedPlant,
			plant:       "wind",
		},
		{
			name:        "invalid mode",
			plants:      mixedRoster(),
			period:      testutil.NewPeriod(1),
			mode:        Mode("cheapest"),
			expectedErr: ErrInvalidMode,
		},
		{
			name:        "unknown fuel kind",
			plants:      []registry.Plant{{ID: "peat", Fuel: registry.FuelKind(42), UpperBound: 10}},
			period:      testutil.NewPeriod(1),
			mode:        ModeCost,
			expectedErr: ErrUnknownFuel,
			plant:       "peat",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm, err := Build(tt.plants, tt.period, tt.mode)
			require.Error(t, err)
			assert.Nil(t, pm)
			require.ErrorIs(t, err, tt.expectedErr)

			var merr *ModelError
			require.True(t, errors.As(err, &merr))
			assert.Equal(t, 1, merr.Period)
			assert.Equal(t, tt.plant, merr.Plant)
			assert.Equal(t, tt.ccs, merr.CCS)
		})
	}
}

func TestDeratedIntensity(t *testing.T) {
	ci, err := DeratedIntensity(2, registry.CCSTechnology{RemovalRatio: 0.5, ParasiticLoss: 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, ci, 1e-12)

	ci, err = DeratedIntensity(2, registry.CCSTechnology{RemovalRatio: 1, ParasiticLoss: 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, ci, 0)

	_, err = DeratedIntensity(2, registry.CCSTechnology{ParasiticLoss: math.NaN()})
	require.ErrorIs(t, err, ErrParasiticLoss)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input    string
		expected Mode
		wantErr  bool
	}{
		{input: "cost", expected: ModeCost},
		{input: "min_budget", expected: ModeCost},
		{input: " Emission ", expected: ModeEmission},
		{input: "min_emission", expected: ModeEmission},
		{input: "cheapest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseMode(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidMode)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}

	assert.Equal(t, ModeCost, ModeFromCostDriven(true))
	assert.Equal(t, ModeEmission, ModeFromCostDriven(false))
}

func TestModelError(t *testing.T) {
	err := &ModelError{Period: 3, Plant: "coal", CCS: 2, Err: ErrParasiticLoss}
	assert.Equal(t, "model error (period 3, plant coal, ccs option 2): parasitic loss must lie in [0, 1)", err.Error())
	assert.Equal(t, "model error: plant roster is empty", (&ModelError{Err: ErrEmptyRoster}).Error())
}
