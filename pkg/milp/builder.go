package milp

import "math"

// BlockBuilder accumulates variables and constraints for a single Block.
// It is not safe for concurrent use and must not be reused after Build.
type BlockBuilder struct {
	name        string
	vars        []VarDef
	constraints []Constraint
	objective   *Objective
}

// NewBlockBuilder creates a builder for a block with the given name.
func NewBlockBuilder(name string) *BlockBuilder {
	return &BlockBuilder{name: name}
}

// Continuous adds a continuous variable with the given bounds. Use
// math.Inf(1) for an unbounded upper limit.
func (b *BlockBuilder) Continuous(name string, lower, upper float64) Var {
	b.vars = append(b.vars, VarDef{Name: name, Domain: Continuous, Lower: lower, Upper: upper})

	return Var(len(b.vars) - 1)
}

// NonNegative adds a continuous variable bounded below by zero.
func (b *BlockBuilder) NonNegative(name string) Var {
	return b.Continuous(name, 0, math.Inf(1))
}

// Binary adds a 0/1 variable.
func (b *BlockBuilder) Binary(name string) Var {
	b.vars = append(b.vars, VarDef{Name: name, Domain: Binary, Lower: 0, Upper: 1})

	return Var(len(b.vars) - 1)
}

// Fix pins a variable to value.
func (b *BlockBuilder) Fix(v Var, value float64) {
	b.vars[v].Lower = value
	b.vars[v].Upper = value
}

// Add records a constraint.
func (b *BlockBuilder) Add(name string, e Expr, sense Sense, rhs float64) {
	b.constraints = append(b.constraints, Constraint{Name: name, Expr: e, Sense: sense, RHS: rhs})
}

// Minimize sets the local objective.
func (b *BlockBuilder) Minimize(name string, e Expr) {
	b.objective = &Objective{Name: name, Expr: e}
}

// Build returns the immutable block.
func (b *BlockBuilder) Build() Block {
	blk := Block{
		name:        b.name,
		vars:        append([]VarDef(nil), b.vars...),
		constraints: append([]Constraint(nil), b.constraints...),
	}

	if b.objective != nil {
		obj := *b.objective
		blk.objective = &obj
	}

	return blk
}
