package solver

import (
	"context"
	"math"
	"testing"

	"github.com/ethpandaops/decarb/internal/testutil"
	"github.com/ethpandaops/decarb/pkg/linker"
	"github.com/ethpandaops/decarb/pkg/milp"
	"github.com/ethpandaops/decarb/pkg/registry"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func linkedModel(t *testing.T, reg *registry.Registry) milp.Model {
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

	m, err := lp.Model()
	require.NoError(t, err)

	return m
}

// enumerate solves the model once per fixing of its free binaries and
// returns the best objective found, or +Inf when every fixing is infeasible.
func enumerate(t *testing.T, s *BranchAndBound, m milp.Model) float64 {
	t.Helper()

	var free []int

	for j, v := range m.Vars {
		if v.Domain == milp.Binary && !v.Fixed() {
			free = append(free, j)
		}
	}

	require.LessOrEqual(t, len(free), 10)

	best := math.Inf(1)

	for mask := 0; mask < 1<<len(free); mask++ {
		fixed := m
		fixed.Vars = append([]milp.VarDef(nil), m.Vars...)

		for bit, j := range free {
			value := float64((mask >> bit) & 1)
			fixed.Vars[j].Lower = value
			fixed.Vars[j].Upper = value
		}

		res, err := s.Solve(context.Background(), fixed)
		require.NoError(t, err, "fixing %b", mask)

		if res.Status == StatusOptimal && res.Objective < best {
			best = res.Objective
		}
	}

	return best
}

func TestBranchAndBound_PlanningMatchesEnumeration(t *testing.T) {
	for _, costDriven := range []bool{true, false} {
		t.Run(string(submodel.ModeFromCostDriven(costDriven)), func(t *testing.T) {
			reg := testutil.Mixed(costDriven)
			reg.Periods = reg.Periods[:2]

			m := linkedModel(t, reg)
			s := newTestSolver(t, nil)

			res, err := s.Solve(context.Background(), m)
			require.NoError(t, err)
			require.Equal(t, StatusOptimal, res.Status)

			best := enumerate(t, s, m)
			require.False(t, math.IsInf(best, 1))
			assert.InDelta(t, best, res.Objective, 1e-6)

			for _, con := range m.Constraints {
				assert.True(t, con.Satisfied(res.Values, 1e-6), con.Name)
			}
		})
	}
}

func TestBranchAndBound_PlanningThreePeriods(t *testing.T) {
	for _, costDriven := range []bool{true, false} {
		t.Run(string(submodel.ModeFromCostDriven(costDriven)), func(t *testing.T) {
			m := linkedModel(t, testutil.Mixed(costDriven))

			res, err := newTestSolver(t, nil).Solve(context.Background(), m)
			require.NoError(t, err)
			require.Equal(t, StatusOptimal, res.Status)

			for _, con := range m.Constraints {
				assert.True(t, con.Satisfied(res.Values, 1e-6), con.Name)
			}

			for j, v := range m.Vars {
				assert.GreaterOrEqual(t, res.Values[j], v.Lower-1e-9, v.Name)
				assert.LessOrEqual(t, res.Values[j], v.Upper+1e-9, v.Name)
			}
		})
	}
}

func TestSolveStandardForm(t *testing.T) {
	tests := []struct {
		name      string
		a         []float64
		rows      int
		b         []float64
		c         []float64
		basic     []int
		expected  Status
		objective float64
	}{
		{
			// x + y = 2 stated twice and once scaled, so two rows are redundant.
			name:      "redundant equalities",
			rows:      3,
			a:         []float64{1, 1, 1, 1, 2, 2},
			b:         []float64{2, 2, 4},
			c:         []float64{1, 2},
			basic:     []int{-1, -1, -1},
			expected:  StatusOptimal,
			objective: 2,
		},
		{
			// x + s = 1 with s starting basic, and x - y = 0.
			name:      "slack and artificial start",
			rows:      2,
			a:         []float64{1, 0, 1, 1, -1, 0},
			b:         []float64{1, 0},
			c:         []float64{-1, -1, 0},
			basic:     []int{2, -1},
			expected:  StatusOptimal,
			objective: -2,
		},
		{
			name:     "contradiction",
			rows:     2,
			a:        []float64{1, 1, 1, 1},
			b:        []float64{1, 2},
			c:        []float64{0, 0},
			basic:    []int{-1, -1},
			expected: StatusInfeasible,
		},
		{
			// x - y = 0 while minimizing -x.
			name:     "ray",
			rows:     1,
			a:        []float64{1, -1},
			b:        []float64{0},
			c:        []float64{-1, 0},
			basic:    []int{-1},
			expected: StatusUnbounded,
		},
		{
			// A degenerate vertex shared by many rows.
			name:      "degenerate vertex",
			rows:      3,
			a:         []float64{1, -1, 1, 0, 0, 1, -2, 0, 1, 0, 1, 1, 0, 0, 1},
			b:         []float64{0, 0, 4},
			c:         []float64{-1, -1, 0, 0, 0},
			basic:     []int{2, 3, 4},
			expected:  StatusOptimal,
			objective: -4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols := len(tt.a) / tt.rows
			sf := standardForm{
				a:     mat.NewDense(tt.rows, cols, tt.a),
				b:     tt.b,
				c:     tt.c,
				basic: tt.basic,
			}

			status, x, err := solveStandardForm(sf, 1e-9)
			require.NoError(t, err)
			require.Equal(t, tt.expected, status)

			if tt.expected != StatusOptimal {
				assert.Nil(t, x)

				return
			}

			require.Len(t, x, cols)

			objective := 0.0
			for j, v := range x {
				objective += tt.c[j] * v
				assert.GreaterOrEqual(t, v, 0.0)
			}

			assert.InDelta(t, tt.objective, objective, tol)

			for i := 0; i < tt.rows; i++ {
				lhs := mat.Dot(sf.a.RowView(i), mat.NewVecDense(cols, x))
				assert.InDelta(t, tt.b[i], lhs, tol, "row %d", i)
			}
		})
	}
}
