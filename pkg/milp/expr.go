package milp

// Term is a coefficient applied to a variable.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is an affine expression: the sum of its terms plus a constant.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Sum builds an expression from terms.
func Sum(terms ...Term) Expr {
	return Expr{Terms: append([]Term(nil), terms...)}
}

// Scaled returns the term coef*v.
func Scaled(coef float64, v Var) Term {
	return Term{Var: v, Coef: coef}
}

// Unit returns the term 1*v.
func Unit(v Var) Term {
	return Term{Var: v, Coef: 1}
}

// Plus returns a copy of e with an extra term. Zero coefficients are dropped.
func (e Expr) Plus(coef float64, v Var) Expr {
	if coef == 0 {
		return e
	}

	out := Expr{Terms: make([]Term, len(e.Terms), len(e.Terms)+1), Constant: e.Constant}
	copy(out.Terms, e.Terms)
	out.Terms = append(out.Terms, Term{Var: v, Coef: coef})

	return out
}

// Add returns the sum of two expressions.
func (e Expr) Add(o Expr) Expr {
	out := Expr{Terms: make([]Term, 0, len(e.Terms)+len(o.Terms)), Constant: e.Constant + o.Constant}
	out.Terms = append(out.Terms, e.Terms...)
	out.Terms = append(out.Terms, o.Terms...)

	return out
}

// Eval computes the expression value under an assignment.
func (e Expr) Eval(a Assignment) float64 {
	total := e.Constant
	for _, t := range e.Terms {
		total += t.Coef * a.Value(t.Var)
	}

	return total
}

// Coefficients collapses repeated variables into one coefficient each.
func (e Expr) Coefficients() map[Var]float64 {
	coefs := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		coefs[t.Var] += t.Coef
	}

	return coefs
}

func (e Expr) shift(offset int) Expr {
	out := Expr{Terms: make([]Term, len(e.Terms)), Constant: e.Constant}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: Var(int(t.Var) + offset), Coef: t.Coef}
	}

	return out
}
