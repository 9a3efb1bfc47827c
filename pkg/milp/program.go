// Package milp holds the mixed-integer linear program representation shared
// by the sub-model builder, the linker and the solver adapter.
package milp

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoObjective is returned when a model is requested from a block or program without an objective
	ErrNoObjective = errors.New("no active objective")
	// ErrUnknownBlock is returned when a block index is out of range
	ErrUnknownBlock = errors.New("unknown block")
	// ErrAssignmentSize is returned when a value vector does not match the program size
	ErrAssignmentSize = errors.New("assignment size does not match program")
)

// Domain is the value domain of a decision variable.
type Domain uint8

const (
	// Continuous variables take any value within their bounds
	Continuous Domain = iota
	// Binary variables take the value 0 or 1
	Binary
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("domain(%d)", uint8(d))
	}
}

// Var references a decision variable by position. Inside a Block the
// position is local to the block, inside a Model it is global.
type Var int

// VarDef describes a decision variable.
type VarDef struct {
	Name   string
	Domain Domain
	Lower  float64
	Upper  float64
}

// Fixed reports whether the variable bounds pin it to a single value.
func (v VarDef) Fixed() bool {
	return v.Lower == v.Upper
}

// Sense is the relation between a constraint expression and its right-hand side.
type Sense uint8

const (
	// LessEqual is expr <= rhs
	LessEqual Sense = iota
	// Equal is expr == rhs
	Equal
	// GreaterEqual is expr >= rhs
	GreaterEqual
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case Equal:
		return "=="
	case GreaterEqual:
		return ">="
	default:
		return fmt.Sprintf("sense(%d)", uint8(s))
	}
}

// Constraint is a named linear relation.
type Constraint struct {
	Name  string
	Expr  Expr
	Sense Sense
	RHS   float64
}

// Satisfied reports whether the constraint holds for the assignment within tol.
func (c Constraint) Satisfied(a Assignment, tol float64) bool {
	lhs := c.Expr.Eval(a)
	switch c.Sense {
	case LessEqual:
		return lhs <= c.RHS+tol
	case GreaterEqual:
		return lhs >= c.RHS-tol
	case Equal:
		return math.Abs(lhs-c.RHS) <= tol
	default:
		return false
	}
}

func (c Constraint) shift(offset int) Constraint {
	return Constraint{Name: c.Name, Expr: c.Expr.shift(offset), Sense: c.Sense, RHS: c.RHS}
}

// Objective is a named expression to be minimized.
type Objective struct {
	Name string
	Expr Expr
}

// Model is a flat program in global variable positions, ready for a solver.
type Model struct {
	Vars        []VarDef
	Constraints []Constraint
	Objective   Objective
}

// Assignment holds one value per variable, indexed by Var.
type Assignment []float64

// Value returns the value of v, or zero when v is out of range.
func (a Assignment) Value(v Var) float64 {
	if int(v) < 0 || int(v) >= len(a) {
		return 0
	}

	return a[v]
}

// Block is an immutable set of variables and constraints with an optional
// local objective. Blocks are produced by a BlockBuilder.
type Block struct {
	name        string
	vars        []VarDef
	constraints []Constraint
	objective   *Objective
}

// Name returns the block name.
func (b Block) Name() string { return b.name }

// NumVars returns the number of variables owned by the block.
func (b Block) NumVars() int { return len(b.vars) }

// Var returns the definition of a local variable.
func (b Block) Var(v Var) VarDef { return b.vars[v] }

// Vars returns a copy of the variable definitions.
func (b Block) Vars() []VarDef {
	return append([]VarDef(nil), b.vars...)
}

// Constraints returns a copy of the block constraints.
func (b Block) Constraints() []Constraint {
	return append([]Constraint(nil), b.constraints...)
}

// Constraint looks up a constraint by name.
func (b Block) Constraint(name string) (Constraint, bool) {
	for _, c := range b.constraints {
		if c.Name == name {
			return c, true
		}
	}

	return Constraint{}, false
}

// Objective returns the local objective if one is active.
func (b Block) Objective() (Objective, bool) {
	if b.objective == nil {
		return Objective{}, false
	}

	return *b.objective, true
}

// WithoutObjective returns a copy of the block with its local objective removed.
func (b Block) WithoutObjective() Block {
	b.objective = nil

	return b
}

// Model returns the block as a standalone model minimizing its local objective.
func (b Block) Model() (Model, error) {
	if b.objective == nil {
		return Model{}, fmt.Errorf("%w: block %s", ErrNoObjective, b.name)
	}

	return Model{
		Vars:        b.Vars(),
		Constraints: b.Constraints(),
		Objective:   *b.objective,
	}, nil
}

// Program composes blocks, cross-block constraints and a single objective.
type Program struct {
	blocks    []Block
	offsets   []int
	numVars   int
	links     []Constraint
	objective *Objective
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{}
}

// AddBlock appends a block and returns its index.
func (p *Program) AddBlock(b Block) int {
	p.blocks = append(p.blocks, b)
	p.offsets = append(p.offsets, p.numVars)
	p.numVars += b.NumVars()

	return len(p.blocks) - 1
}

// Block returns the block at index i.
func (p *Program) Block(i int) (Block, error) {
	if i < 0 || i >= len(p.blocks) {
		return Block{}, fmt.Errorf("%w: %d", ErrUnknownBlock, i)
	}

	return p.blocks[i], nil
}

// NumBlocks returns the number of blocks.
func (p *Program) NumBlocks() int { return len(p.blocks) }

// NumVars returns the total number of variables across all blocks.
func (p *Program) NumVars() int { return p.numVars }

// Global converts a block-local variable into a program-wide one.
func (p *Program) Global(block int, v Var) Var {
	return Var(p.offsets[block] + int(v))
}

// AddLink adds a constraint expressed in program-wide variables.
func (p *Program) AddLink(c Constraint) {
	p.links = append(p.links, c)
}

// Links returns a copy of the cross-block constraints.
func (p *Program) Links() []Constraint {
	return append([]Constraint(nil), p.links...)
}

// SetObjective installs the program objective, replacing any previous one.
func (p *Program) SetObjective(o Objective) {
	p.objective = &o
}

// Objective returns the program objective if one is set.
func (p *Program) Objective() (Objective, bool) {
	if p.objective == nil {
		return Objective{}, false
	}

	return *p.objective, true
}

// NumConstraints returns the number of block and link constraints.
func (p *Program) NumConstraints() int {
	n := len(p.links)
	for _, b := range p.blocks {
		n += len(b.constraints)
	}

	return n
}

// Model flattens the program into global variable positions. Block
// objectives are ignored; only the program objective is carried.
func (p *Program) Model() (Model, error) {
	if p.objective == nil {
		return Model{}, ErrNoObjective
	}

	m := Model{
		Vars:        make([]VarDef, 0, p.numVars),
		Constraints: make([]Constraint, 0, p.NumConstraints()),
		Objective:   *p.objective,
	}

	for i, b := range p.blocks {
		m.Vars = append(m.Vars, b.vars...)
		for _, c := range b.constraints {
			m.Constraints = append(m.Constraints, c.shift(p.offsets[i]))
		}
	}

	m.Constraints = append(m.Constraints, p.links...)

	return m, nil
}

// BlockAssignment slices a program-wide value vector down to one block.
func (p *Program) BlockAssignment(values []float64, block int) (Assignment, error) {
	if block < 0 || block >= len(p.blocks) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, block)
	}

	if len(values) != p.numVars {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrAssignmentSize, len(values), p.numVars)
	}

	start := p.offsets[block]

	return Assignment(values[start : start+p.blocks[block].NumVars()]), nil
}
