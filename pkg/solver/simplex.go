package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	// pivotTolerance is the smallest magnitude accepted as a pivot element.
	pivotTolerance = 1e-9
	// ratioTolerance separates ratio-test candidates that count as ties.
	ratioTolerance = 1e-12
	// phaseOneTolerance is the relative artificial mass still treated as zero.
	phaseOneTolerance = 1e-8
	// degenerateLimit is the run of degenerate pivots after which Bland's
	// rule replaces Dantzig pricing until the objective moves again.
	degenerateLimit = 50
)

// standardForm is min c·x subject to Ax = b, x >= 0, with b >= 0. basic[i]
// names a column that is the unit vector of row i, or -1 when the row
// starts from an artificial variable.
type standardForm struct {
	a     *mat.Dense
	b     []float64
	c     []float64
	basic []int
}

// tableau is a dense two-phase simplex tableau. Rows 0..m-1 are the
// constraints and row m the reduced costs. The last column is the
// right-hand side; in the cost row it holds the negated objective.
type tableau struct {
	rows    [][]float64
	m       int
	cols    int
	rhs     int
	basis   []int
	dead    []bool
	blocked []bool
	tol     float64
	pivots  int
	limit   int
}

func newTableau(sf standardForm, tol float64) *tableau {
	m, n := sf.a.Dims()

	artificial := 0

	for _, col := range sf.basic {
		if col < 0 {
			artificial++
		}
	}

	width := n + artificial + 1
	data := mat.NewDense(m+1, width, nil)

	tab := &tableau{
		rows:    make([][]float64, m+1),
		m:       m,
		cols:    n,
		rhs:     width - 1,
		basis:   make([]int, m),
		dead:    make([]bool, m),
		blocked: make([]bool, width-1),
		tol:     tol,
		limit:   100*(m+width) + 1000,
	}

	next := n

	for i := 0; i <= m; i++ {
		tab.rows[i] = data.RawRowView(i)
	}

	for i := 0; i < m; i++ {
		row := tab.rows[i]
		copy(row[:n], sf.a.RawRowView(i))
		row[tab.rhs] = sf.b[i]

		if sf.basic[i] >= 0 {
			tab.basis[i] = sf.basic[i]

			continue
		}

		// Artificial columns never re-enter the basis once they leave.
		row[next] = 1
		tab.basis[i] = next
		tab.blocked[next] = true
		next++
	}

	return tab
}

// solveStandardForm runs both simplex phases and returns the status and,
// when optimal, the primal solution.
func solveStandardForm(sf standardForm, tol float64) (Status, []float64, error) {
	tab := newTableau(sf, tol)

	if tab.rhs > tab.cols {
		cost := make([]float64, tab.rhs)
		for j := tab.cols; j < tab.rhs; j++ {
			cost[j] = 1
		}

		tab.price(cost)

		if _, err := tab.optimize(); err != nil {
			return 0, nil, err
		}

		mass := 0.0
		for _, v := range sf.b {
			mass += v
		}

		if -tab.rows[tab.m][tab.rhs] > phaseOneTolerance*math.Max(1, mass) {
			return StatusInfeasible, nil, nil
		}

		tab.retireArtificials()
	}

	cost := make([]float64, tab.rhs)
	copy(cost, sf.c)
	tab.price(cost)

	bounded, err := tab.optimize()
	if err != nil {
		return 0, nil, err
	}

	if !bounded {
		return StatusUnbounded, nil, nil
	}

	x := make([]float64, tab.cols)

	for i, col := range tab.basis {
		if tab.dead[i] || col >= tab.cols {
			continue
		}

		v := tab.rows[i][tab.rhs]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, nil, fmt.Errorf("%w: basic value of column %d is %v", ErrNumerical, col, v)
		}

		x[col] = math.Max(0, v)
	}

	return StatusOptimal, x, nil
}

// price rewrites the cost row as the reduced costs of cost under the
// current basis.
func (tab *tableau) price(cost []float64) {
	obj := tab.rows[tab.m]
	copy(obj, cost)
	obj[tab.rhs] = 0

	for i, col := range tab.basis {
		if tab.dead[i] || cost[col] == 0 {
			continue
		}

		floats.AddScaled(obj, -cost[col], tab.rows[i])
	}
}

// optimize pivots until no column prices out. It reports false when an
// entering column has no blocking row.
func (tab *tableau) optimize() (bool, error) {
	obj := tab.rows[tab.m]
	degenerate := 0

	for {
		if tab.pivots >= tab.limit {
			return false, fmt.Errorf("%w: simplex exceeded %d pivots", ErrNumerical, tab.limit)
		}

		bland := degenerate >= degenerateLimit

		enter := tab.entering(obj, bland)
		if enter < 0 {
			return true, nil
		}

		leave := tab.leaving(enter, bland)
		if leave < 0 {
			return false, nil
		}

		if tab.rows[leave][tab.rhs]/tab.rows[leave][enter] <= pivotTolerance {
			degenerate++
		} else {
			degenerate = 0
		}

		tab.pivot(leave, enter)
	}
}

func (tab *tableau) entering(obj []float64, bland bool) int {
	best := -1
	bestCost := -tab.tol

	for j := 0; j < tab.rhs; j++ {
		if tab.blocked[j] || obj[j] >= -tab.tol {
			continue
		}

		if bland {
			return j
		}

		if obj[j] < bestCost {
			best = j
			bestCost = obj[j]
		}
	}

	return best
}

// leaving is the minimum ratio test. Ties go to the lowest basic column
// under Bland's rule and to the largest pivot element otherwise.
func (tab *tableau) leaving(enter int, bland bool) int {
	leave := -1

	var bestRatio, bestPivot float64

	for i := 0; i < tab.m; i++ {
		if tab.dead[i] {
			continue
		}

		a := tab.rows[i][enter]
		if a <= pivotTolerance {
			continue
		}

		ratio := tab.rows[i][tab.rhs] / a

		switch {
		case leave < 0 || ratio < bestRatio-ratioTolerance:
			leave, bestRatio, bestPivot = i, ratio, a
		case ratio <= bestRatio+ratioTolerance:
			better := a > bestPivot
			if bland {
				better = tab.basis[i] < tab.basis[leave]
			}

			if better {
				leave, bestPivot = i, a
				bestRatio = math.Min(bestRatio, ratio)
			}
		}
	}

	return leave
}

func (tab *tableau) pivot(leave, enter int) {
	pr := tab.rows[leave]
	floats.Scale(1/pr[enter], pr)
	pr[enter] = 1

	if math.Abs(pr[tab.rhs]) < feasibilityTolerance {
		pr[tab.rhs] = 0
	}

	for i, row := range tab.rows {
		if i == leave || (i < tab.m && tab.dead[i]) {
			continue
		}

		f := row[enter]
		if f == 0 {
			continue
		}

		floats.AddScaled(row, -f, pr)
		row[enter] = 0

		if i < tab.m && row[tab.rhs] < 0 && row[tab.rhs] > -feasibilityTolerance {
			row[tab.rhs] = 0
		}
	}

	tab.basis[leave] = enter
	tab.pivots++
}

// retireArtificials pivots every artificial still basic at zero out of the
// basis. A row with no structural entry left is a linear combination of
// the others and is dropped.
func (tab *tableau) retireArtificials() {
	for i := 0; i < tab.m; i++ {
		if tab.basis[i] < tab.cols {
			continue
		}

		row := tab.rows[i]
		enter := -1
		largest := pivotTolerance

		for j := 0; j < tab.cols; j++ {
			if math.Abs(row[j]) > largest {
				enter = j
				largest = math.Abs(row[j])
			}
		}

		if enter < 0 {
			tab.dead[i] = true

			continue
		}

		row[tab.rhs] = 0
		tab.pivot(i, enter)
	}
}
