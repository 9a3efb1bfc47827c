package solver

import (
	"fmt"
	"math"

	"github.com/ethpandaops/decarb/pkg/milp"
	"gonum.org/v1/gonum/mat"
)

const (
	// feasibilityTolerance bounds the residual accepted on rows emptied by presolve.
	feasibilityTolerance = 1e-9
)

type sparseRow struct {
	cols  []int
	coefs []float64
	sense milp.Sense
	rhs   float64
}

// compiled is a model prepared once and re-solved under different bounds.
type compiled struct {
	numVars  int
	obj      []float64
	objConst float64
	rows     []sparseRow
	integer  []bool
}

type denseRow struct {
	coefs map[int]float64
	sense milp.Sense
	rhs   float64
}

type relaxation struct {
	status    Status
	objective float64
	x         []float64
}

func compile(m milp.Model) (*compiled, error) {
	n := len(m.Vars)
	c := &compiled{
		numVars:  n,
		obj:      make([]float64, n),
		objConst: m.Objective.Expr.Constant,
		rows:     make([]sparseRow, 0, len(m.Constraints)),
		integer:  make([]bool, n),
	}

	for j, v := range m.Vars {
		if math.IsInf(v.Lower, 0) || math.IsNaN(v.Lower) || math.IsNaN(v.Upper) {
			return nil, fmt.Errorf("%w: variable %s has no finite lower bound", ErrInvalidModel, v.Name)
		}

		c.integer[j] = v.Domain == milp.Binary
	}

	for v, coef := range m.Objective.Expr.Coefficients() {
		if int(v) < 0 || int(v) >= n {
			return nil, fmt.Errorf("%w: objective references variable %d", ErrInvalidModel, v)
		}

		c.obj[v] = coef
	}

	for _, con := range m.Constraints {
		row := sparseRow{sense: con.Sense, rhs: con.RHS - con.Expr.Constant}

		for v, coef := range con.Expr.Coefficients() {
			if int(v) < 0 || int(v) >= n {
				return nil, fmt.Errorf("%w: constraint %s references variable %d", ErrInvalidModel, con.Name, v)
			}

			if coef == 0 {
				continue
			}

			row.cols = append(row.cols, int(v))
			row.coefs = append(row.coefs, coef)
		}

		c.rows = append(c.rows, row)
	}

	return c, nil
}

// solve solves the LP relaxation under the given bounds. Variables are
// shifted to their lower bound, fixed variables are substituted out,
// finite upper bounds become rows, and the remaining problem is put in
// standard form for the two-phase simplex.
func (c *compiled) solve(lower, upper []float64, tol float64) (relaxation, error) {
	infeasible := relaxation{status: StatusInfeasible}

	column := make([]int, c.numVars)
	numCols := 0
	objConst := c.objConst

	for j := 0; j < c.numVars; j++ {
		if upper[j] < lower[j]-feasibilityTolerance {
			return infeasible, nil
		}

		objConst += c.obj[j] * lower[j]

		if upper[j]-lower[j] <= 0 {
			column[j] = -1

			continue
		}

		column[j] = numCols
		numCols++
	}

	rows := make([]denseRow, 0, len(c.rows)+numCols)

	for _, r := range c.rows {
		row := denseRow{coefs: make(map[int]float64, len(r.cols)), sense: r.sense, rhs: r.rhs}

		for k, j := range r.cols {
			row.rhs -= r.coefs[k] * lower[j]
			if column[j] >= 0 {
				row.coefs[column[j]] += r.coefs[k]
			}
		}

		rows = append(rows, row)
	}

	for j := 0; j < c.numVars; j++ {
		if column[j] < 0 || math.IsInf(upper[j], 1) {
			continue
		}

		rows = append(rows, denseRow{
			coefs: map[int]float64{column[j]: 1},
			sense: milp.LessEqual,
			rhs:   upper[j] - lower[j],
		})
	}

	// Presolve: empty rows are either trivially satisfied or prove infeasibility.
	kept := rows[:0]

	for _, row := range rows {
		for col, coef := range row.coefs {
			if coef == 0 {
				delete(row.coefs, col)
			}
		}

		if len(row.coefs) == 0 {
			if !emptyRowHolds(row.sense, row.rhs) {
				return infeasible, nil
			}

			continue
		}

		kept = append(kept, row)
	}

	rows = kept

	used := make([]bool, numCols)

	for _, row := range rows {
		for col := range row.coefs {
			used[col] = true
		}
	}

	// Presolve: unused columns sit at their lower bound unless they can
	// decrease the objective without limit.
	structural := make([]int, numCols)
	numStructural := 0
	objective := make([]float64, 0, numCols)

	for j := 0; j < c.numVars; j++ {
		col := column[j]
		if col < 0 {
			continue
		}

		if !used[col] {
			if c.obj[j] < 0 {
				return relaxation{status: StatusUnbounded, objective: math.Inf(-1)}, nil
			}

			structural[col] = -1

			continue
		}

		structural[col] = numStructural
		numStructural++

		objective = append(objective, c.obj[j])
	}

	x := append([]float64(nil), lower...)

	if len(rows) == 0 {
		return relaxation{status: StatusOptimal, objective: objConst, x: x}, nil
	}

	numSlack := 0
	for _, row := range rows {
		if row.sense != milp.Equal {
			numSlack++
		}
	}

	m := len(rows)
	sf := standardForm{
		a:     mat.NewDense(m, numStructural+numSlack, nil),
		b:     make([]float64, m),
		c:     make([]float64, numStructural+numSlack),
		basic: make([]int, m),
	}
	copy(sf.c, objective)

	slack := numStructural

	for i, row := range rows {
		sign := 1.0
		if row.rhs < 0 {
			sign = -1
		}

		for col, coef := range row.coefs {
			sf.a.Set(i, structural[col], sign*coef)
		}

		sf.b[i] = sign * row.rhs
		sf.basic[i] = -1

		switch row.sense {
		case milp.LessEqual:
			sf.a.Set(i, slack, sign)
		case milp.GreaterEqual:
			sf.a.Set(i, slack, -sign)
		case milp.Equal:
			continue
		}

		// A slack with a unit coefficient starts in the basis.
		if sf.a.At(i, slack) == 1 {
			sf.basic[i] = slack
		}

		slack++
	}

	status, optX, err := solveStandardForm(sf, tol)
	if err != nil {
		return relaxation{}, err
	}

	switch status {
	case StatusInfeasible:
		return infeasible, nil
	case StatusUnbounded:
		return relaxation{status: StatusUnbounded, objective: math.Inf(-1)}, nil
	case StatusOptimal:
	}

	objectiveValue := objConst

	for j := 0; j < c.numVars; j++ {
		col := column[j]
		if col < 0 || structural[col] < 0 {
			continue
		}

		x[j] = lower[j] + optX[structural[col]]
		objectiveValue += c.obj[j] * optX[structural[col]]
	}

	return relaxation{status: StatusOptimal, objective: objectiveValue, x: x}, nil
}

func emptyRowHolds(sense milp.Sense, rhs float64) bool {
	switch sense {
	case milp.LessEqual:
		return rhs >= -feasibilityTolerance
	case milp.GreaterEqual:
		return rhs <= feasibilityTolerance
	case milp.Equal:
		return math.Abs(rhs) <= feasibilityTolerance
	default:
		return false
	}
}
