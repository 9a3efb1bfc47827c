package results

import (
	"context"
	"testing"

	"github.com/ethpandaops/decarb/internal/testutil"
	"github.com/ethpandaops/decarb/pkg/linker"
	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/solver"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func link(t *testing.T, reg *registry.Registry) *linker.Program {
	t.Helper()

	mode := submodel.ModeFromCostDriven(reg.CostDriven)
	periods := make([]*submodel.PeriodModel, 0, len(reg.Periods))

	for _, p := range reg.Periods {
		pm, err := submodel.Build(reg.Plants, p, mode)
		require.NoError(t, err)

		periods = append(periods, pm)
	}

	lp, err := linker.Link(periods, mode)
	require.NoError(t, err)

	return lp
}

func solve(t *testing.T, lp *linker.Program) *solver.Result {
	t.Helper()

	m, err := lp.Model()
	require.NoError(t, err)

	return solveModel(t, m)
}

func solveModel(t *testing.T, m milp.Model) *solver.Result {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	s, err := solver.New(log, &solver.Config{
		Tolerance:            1e-9,
		IntegralityTolerance: 1e-6,
		MaxNodes:             100000,
	})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)

	return res
}

func TestExtractAll_SingleRenewable(t *testing.T) {
	lp := link(t, testutil.SingleRenewable(true))
	res := solve(t, lp)
	require.Equal(t, solver.StatusOptimal, res.Status)

	reports, err := ExtractAll(lp, res)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.Equal(t, 1, r.Period)
	assert.Equal(t, submodel.ModeCost, r.Mode)
	assert.InDelta(t, 0.0, r.TotalEmission, testutil.Tolerance)
	assert.InDelta(t, 100.0, r.TotalCost, testutil.Tolerance)
	assert.InDelta(t, 100.0, res.Objective, testutil.Tolerance)

	require.Len(t, r.Plants, 1)
	wind := r.Plants[0]
	assert.Equal(t, "wind", wind.ID)
	assert.Equal(t, registry.FuelRenewable, wind.Fuel)
	assert.InDelta(t, 100.0, wind.Energy, testutil.Tolerance)
	assert.InDelta(t, wind.Energy, wind.NetEnergy, testutil.Tolerance)
	assert.Equal(t, [2]float64{0, 0}, wind.CCSExtent)
	assert.Equal(t, [2]bool{false, false}, wind.CCSSelected)
	assert.Equal(t, registry.AltFuelNone, wind.AltFamily)

	require.Len(t, r.Options, 8)
	for _, o := range r.Options {
		assert.InDelta(t, 0.0, o.Energy, testutil.Tolerance, o.Name)
	}
}

func TestExtractAll_CostMode(t *testing.T) {
	reg := testutil.Mixed(true)
	lp := link(t, reg)
	res := solve(t, lp)
	require.Equal(t, solver.StatusOptimal, res.Status)

	reports, err := ExtractAll(lp, res)
	require.NoError(t, err)
	require.Len(t, reports, len(reg.Periods))

	total := 0.0

	for i := range reports {
		r := &reports[i]
		period := reg.Periods[i]

		assert.Equal(t, period.Index, r.Period)
		assert.InDelta(t, period.EmissionLimit, r.TotalEmission, testutil.Tolerance, "period %d", r.Period)
		assert.InDelta(t, r.TotalEmission, r.RecomputedEmission(), testutil.Tolerance, "period %d", r.Period)
		assert.InDelta(t, r.TotalCost, r.RecomputedCost(), 1e-5, "period %d", r.Period)

		dispatched := 0.0
		for _, p := range r.Plants {
			dispatched += p.Energy
		}

		assert.InDelta(t, period.Demand, dispatched, testutil.Tolerance)

		total += r.TotalCost
	}

	assert.InDelta(t, total, res.Objective, 1e-5)

	assertMonotoneCCS(t, reports)
	assertRenewablesClean(t, reports)
}

func TestExtractAll_CCSRatchet(t *testing.T) {
	reg := testutil.CCSRatchet()
	lp := link(t, reg)

	// Solved on their own, the periods capture 100 and then 25 units.
	standalone := make([]float64, 0, len(reg.Periods))

	for _, pm := range lp.Periods() {
		m, err := pm.Block.Model()
		require.NoError(t, err)

		res := solveModel(t, m)
		require.Equal(t, solver.StatusOptimal, res.Status, "period %d", pm.Index())

		standalone = append(standalone, res.Values.Value(pm.Plants[0].CCS[0]))
	}

	assert.InDelta(t, 100.0, standalone[0], testutil.Tolerance)
	assert.InDelta(t, 25.0, standalone[1], testutil.Tolerance)

	// Linked, the first period cannot capture more than the second affords.
	res := solve(t, lp)
	require.Equal(t, solver.StatusOptimal, res.Status)

	reports, err := ExtractAll(lp, res)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	first := reports[0].Plants[0]
	second := reports[1].Plants[0]

	assert.InDelta(t, 25.0, first.CCSExtent[0], testutil.Tolerance)
	assert.InDelta(t, 25.0, second.CCSExtent[0], testutil.Tolerance)
	assert.GreaterOrEqual(t, second.CCSExtent[0], first.CCSExtent[0]-testutil.Tolerance)
	assert.InDelta(t, 0.0, first.CCSExtent[1], testutil.Tolerance)
	assert.InDelta(t, 0.0, second.CCSExtent[1], testutil.Tolerance)

	assert.InDelta(t, 77.5, reports[0].TotalEmission, testutil.Tolerance)
	assert.InDelta(t, 77.5, reports[1].TotalEmission, testutil.Tolerance)
	assert.InDelta(t, 155.0, res.Objective, testutil.Tolerance)
	assert.LessOrEqual(t, reports[1].TotalCost, reg.Periods[1].Budget+testutil.Tolerance)

	assertMonotoneCCS(t, reports)
}

func TestExtractAll_EmissionMode(t *testing.T) {
	reg := testutil.Mixed(false)
	lp := link(t, reg)
	res := solve(t, lp)
	require.Equal(t, solver.StatusOptimal, res.Status)

	reports, err := ExtractAll(lp, res)
	require.NoError(t, err)

	total := 0.0

	for i := range reports {
		r := &reports[i]

		assert.Equal(t, submodel.ModeEmission, r.Mode)
		assert.LessOrEqual(t, r.TotalCost, reg.Periods[i].Budget+testutil.Tolerance, "period %d", r.Period)
		assert.InDelta(t, r.TotalEmission, r.RecomputedEmission(), testutil.Tolerance, "period %d", r.Period)

		total += r.TotalEmission
	}

	assert.InDelta(t, total, res.Objective, 1e-5)

	assertMonotoneCCS(t, reports)
	assertRenewablesClean(t, reports)
}

func assertMonotoneCCS(t *testing.T, reports []PeriodReport) {
	t.Helper()

	for i := 1; i < len(reports); i++ {
		prev, next := reports[i-1], reports[i]

		for j := range prev.Plants {
			for k := 0; k < submodel.NumCCS; k++ {
				assert.GreaterOrEqual(t, next.Plants[j].CCSExtent[k], prev.Plants[j].CCSExtent[k]-testutil.Tolerance,
					"plant %s ccs%d periods %d-%d", prev.Plants[j].ID, k+1, prev.Period, next.Period)
			}
		}
	}
}

func assertRenewablesClean(t *testing.T, reports []PeriodReport) {
	t.Helper()

	for _, r := range reports {
		for _, p := range r.Plants {
			if p.Fuel != registry.FuelRenewable {
				continue
			}

			assert.InDelta(t, p.Energy, p.NetEnergy, testutil.Tolerance, p.ID)
			assert.Equal(t, [2]float64{0, 0}, p.CCSExtent, p.ID)
		}
	}
}

func TestExtractAll_RefusesNonOptimal(t *testing.T) {
	lp := link(t, testutil.SingleRenewable(true))

	tests := []struct {
		name string
		res  *solver.Result
	}{
		{name: "nil result"},
		{name: "infeasible", res: &solver.Result{Status: solver.StatusInfeasible}},
		{name: "unbounded", res: &solver.Result{Status: solver.StatusUnbounded}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, err := ExtractAll(lp, tt.res)
			require.ErrorIs(t, err, ErrNotOptimal)
			assert.Nil(t, reports)
		})
	}
}

func TestExtract_Loads(t *testing.T) {
	reg := testutil.NewRegistry(true,
		[]registry.Plant{testutil.Coal("coal", 2, 0, 100)},
		testutil.NewPeriod(1),
	)

	pm, err := submodel.Build(reg.Plants, reg.Periods[0], submodel.ModeCost)
	require.NoError(t, err)

	coal := pm.Plants[0]

	a := make([]float64, pm.Block.NumVars())
	a[coal.Energy] = 100
	a[coal.Net] = 50
	a[coal.CCS[0]] = 30
	a[coal.CCSTotal] = 30
	a[coal.Selected[0]] = 1
	a[coal.NetCCS[0]] = 24
	a[coal.Alt[0].Var] = 20
	a[pm.Compensating[0].Var] = 4

	r := Extract(pm, a)
	row := r.Plants[0]

	assert.True(t, row.CCSSelected[0])
	assert.False(t, row.CCSSelected[1])
	assert.InDelta(t, 30.0, row.CCSExtent[0], 0)
	assert.InDelta(t, 20.0, row.AltFuel[0], 0)
	assert.InDelta(t, 50+24+20, row.NetEnergy, 1e-12)
	assert.Equal(t, registry.AltFuelSolid, row.AltFamily)

	// net * 2 + net-ccs * 2 * 0.1 / 0.8 + solid * 0.2
	assert.InDelta(t, 100+24*0.25+20*0.2, row.CarbonLoad, 1e-12)
	// net * 1 + net-ccs * 1 + fixed 5 + solid * 3
	assert.InDelta(t, 50+24+5+60, row.Cost, 1e-12)

	ec := r.Options[3]
	assert.Equal(t, "EC-NET-1", ec.Name)
	assert.InDelta(t, -4.0, ec.CarbonLoad, 1e-12)
	assert.InDelta(t, row.CarbonLoad-4, r.RecomputedEmission(), 1e-12)
}

func TestPlan_InfeasiblePeriods(t *testing.T) {
	plan := &Plan{
		Status: solver.StatusInfeasible,
		Diagnostics: []Diagnostic{
			{Period: 1, Status: solver.StatusOptimal},
			{Period: 2, Status: solver.StatusInfeasible},
			{Period: 3, Err: assert.AnError},
		},
	}

	assert.False(t, plan.Optimal())
	assert.Equal(t, []int{2}, plan.InfeasiblePeriods())
}
