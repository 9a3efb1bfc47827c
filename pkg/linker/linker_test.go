package linker

import (
	"errors"
	"testing"

	"github.com/ethpandaops/decarb/internal/testutil"
	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPeriods(t *testing.T, reg *registry.Registry, mode submodel.Mode) []*submodel.PeriodModel {
	t.Helper()

	periods := make([]*submodel.PeriodModel, 0, len(reg.Periods))

	for _, p := range reg.Periods {
		pm, err := submodel.Build(reg.Plants, p, mode)
		require.NoError(t, err)

		periods = append(periods, pm)
	}

	return periods
}

func TestLink(t *testing.T) {
	reg := testutil.Mixed(true)
	periods := buildPeriods(t, reg, submodel.ModeCost)

	lp, err := Link(periods, submodel.ModeCost)
	require.NoError(t, err)

	assert.Equal(t, submodel.ModeCost, lp.Mode())
	require.Len(t, lp.Periods(), 3)

	// Two CCS options per plant per consecutive pair, none after the last period.
	links := lp.Links()
	assert.Len(t, links, len(reg.Plants)*submodel.NumCCS*(len(reg.Periods)-1))

	for _, l := range links {
		assert.Equal(t, milp.GreaterEqual, l.Sense)
		assert.InDelta(t, 0.0, l.RHS, 0)
	}

	assert.Equal(t, "ccs1-monotone[coal,1-2]", links[0].Name)

	obj := lp.Objective()
	assert.Equal(t, ObjectiveTotalCost, obj.Name)
	require.Len(t, obj.Expr.Terms, 3)

	m, err := lp.Model()
	require.NoError(t, err)

	for i, pm := range lp.Periods() {
		offset := 0
		for _, prev := range lp.Periods()[:i] {
			offset += prev.Block.NumVars()
		}

		assert.Equal(t, milp.Var(offset+int(pm.TotalCost)), obj.Expr.Terms[i].Var)
		assert.Equal(t, "total-cost", m.Vars[offset+int(pm.TotalCost)].Name)

		// Local objectives stay on the sub-models; the program carries only the global one.
		_, ok := pm.Block.Objective()
		assert.True(t, ok)
	}

	stats := lp.Stats()
	assert.Equal(t, 3, stats.Periods)
	assert.Equal(t, 3, stats.Plants)
	assert.Equal(t, len(m.Vars), stats.Vars)
	assert.Equal(t, len(m.Constraints), stats.Constraints)
	assert.Equal(t, len(links), stats.Links)
	assert.Equal(t, 3*3*submodel.NumCCS, stats.Binaries)
}

func TestLink_MonotoneLinkTerms(t *testing.T) {
	reg := testutil.Mixed(false)
	lp, err := Link(buildPeriods(t, reg, submodel.ModeEmission), submodel.ModeEmission)
	require.NoError(t, err)

	p1, err := lp.Period(1)
	require.NoError(t, err)
	p2, err := lp.Period(2)
	require.NoError(t, err)

	coal1, _ := p1.Plant("coal")
	coal2, _ := p2.Plant("coal")

	link := lp.Links()[0]
	coefs := link.Expr.Coefficients()

	offset2 := p1.Block.NumVars()
	assert.InDelta(t, 1.0, coefs[milp.Var(offset2+int(coal2.CCS[0]))], 0)
	assert.InDelta(t, -1.0, coefs[coal1.CCS[0]], 0)

	assert.Equal(t, ObjectiveTotalEmission, lp.Objective().Name)
}

func TestLink_OrdersPeriods(t *testing.T) {
	periods := buildPeriods(t, testutil.Mixed(true), submodel.ModeCost)
	shuffled := []*submodel.PeriodModel{periods[2], periods[0], periods[1]}

	lp, err := Link(shuffled, submodel.ModeCost)
	require.NoError(t, err)

	ordered := lp.Periods()
	for i, pm := range ordered {
		assert.Equal(t, i+1, pm.Index())
	}

	assert.Equal(t, "ccs1-monotone[coal,1-2]", lp.Links()[0].Name)
}

func TestLink_SinglePeriod(t *testing.T) {
	lp, err := Link(buildPeriods(t, testutil.SingleRenewable(true), submodel.ModeCost), submodel.ModeCost)
	require.NoError(t, err)

	assert.Empty(t, lp.Links())
	assert.Len(t, lp.Periods(), 1)
}

func TestLink_Errors(t *testing.T) {
	costPeriods := buildPeriods(t, testutil.Mixed(true), submodel.ModeCost)

	otherRoster := testutil.Mixed(true)
	otherRoster.Plants = otherRoster.Plants[:2]
	shortPeriods := buildPeriods(t, otherRoster, submodel.ModeCost)

	tests := []struct {
		name        string
		periods     []*submodel.PeriodModel
		mode        submodel.Mode
		expectedErr error
	}{
		{
			name:        "no periods",
			mode:        submodel.ModeCost,
			expectedErr: ErrNoPeriods,
		},
		{
			name:        "mode mismatch",
			periods:     costPeriods,
			mode:        submodel.ModeEmission,
			expectedErr: ErrModeMismatch,
		},
		{
			name:        "invalid mode",
			periods:     costPeriods,
			mode:        submodel.Mode("balanced"),
			expectedErr: submodel.ErrInvalidMode,
		},
		{
			name:        "roster mismatch",
			periods:     []*submodel.PeriodModel{costPeriods[0], shortPeriods[1]},
			mode:        submodel.ModeCost,
			expectedErr: ErrRosterMismatch,
		},
		{
			name:        "duplicate period",
			periods:     []*submodel.PeriodModel{costPeriods[0], costPeriods[0]},
			mode:        submodel.ModeCost,
			expectedErr: ErrDuplicatePeriod,
		},
		{
			name:        "gap between periods",
			periods:     []*submodel.PeriodModel{costPeriods[0], costPeriods[2]},
			mode:        submodel.ModeCost,
			expectedErr: ErrNonContiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lp, err := Link(tt.periods, tt.mode)
			require.Error(t, err)
			assert.Nil(t, lp)
			require.ErrorIs(t, err, tt.expectedErr)

			var merr *submodel.ModelError
			assert.True(t, errors.As(err, &merr))
		})
	}
}

func TestProgram_Assignment(t *testing.T) {
	lp, err := Link(buildPeriods(t, testutil.Mixed(true), submodel.ModeCost), submodel.ModeCost)
	require.NoError(t, err)

	values := make([]float64, lp.Stats().Vars)
	for i := range values {
		values[i] = float64(i)
	}

	p2, err := lp.Period(2)
	require.NoError(t, err)

	a, err := lp.Assignment(values, 2)
	require.NoError(t, err)
	assert.Len(t, a, p2.Block.NumVars())

	p1, _ := lp.Period(1)
	assert.InDelta(t, float64(p1.Block.NumVars()+int(p2.TotalCost)), a.Value(p2.TotalCost), 0)

	_, err = lp.Assignment(values, 9)
	require.ErrorIs(t, err, ErrUnknownPeriod)

	_, err = lp.Period(0)
	require.ErrorIs(t, err, ErrUnknownPeriod)
}
