// Package milp is a small 0/1 mixed-integer linear program solver. Models are
// built from binary and continuous variables, linear constraints and a single
// maximization objective; Solve runs branch-and-bound over the binary
// variables with LP relaxations handled by gonum's simplex.
package milp

import "fmt"

// Var indexes a variable within its Model.
type Var int

type varKind int

const (
	kindBinary varKind = iota
	kindContinuous
)

type variable struct {
	kind varKind
	name string
	// lower bound; binaries are always [0,1], continuous variables are
	// [lb, +inf)
	lb float64
}

// Op is a constraint comparison operator.
type Op int

const (
	LE Op = iota
	GE
	EQ
)

func (o Op) String() string {
	switch o {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "="
	}
}

// Expr is a linear expression over model variables.
type Expr struct {
	coefs  map[Var]float64
	offset float64
}

// NewExpr returns the zero expression.
func NewExpr() *Expr {
	return &Expr{coefs: map[Var]float64{}}
}

// Term adds coef*v to the expression.
func (e *Expr) Term(v Var, coef float64) *Expr {
	e.coefs[v] += coef
	return e
}

// Const adds a constant to the expression.
func (e *Expr) Const(c float64) *Expr {
	e.offset += c
	return e
}

// AddScaled adds scale*o to the expression.
func (e *Expr) AddScaled(o *Expr, scale float64) *Expr {
	for v, c := range o.coefs {
		e.coefs[v] += scale * c
	}
	e.offset += scale * o.offset
	return e
}

// Minus returns a fresh expression equal to e - o.
func (e *Expr) Minus(o *Expr) *Expr {
	out := NewExpr()
	out.AddScaled(e, 1)
	out.AddScaled(o, -1)
	return out
}

type constraint struct {
	expr *Expr
	op   Op
	rhs  float64
}

// Model is a mutable MILP under construction.
type Model struct {
	vars []variable
	cons []constraint
	obj  *Expr // maximized
}

func NewModel() *Model {
	return &Model{obj: NewExpr()}
}

// Binary adds a {0,1} variable.
func (m *Model) Binary(name string) Var {
	m.vars = append(m.vars, variable{kind: kindBinary, name: name})
	return Var(len(m.vars) - 1)
}

// Continuous adds a variable bounded below by lb and unbounded above.
func (m *Model) Continuous(name string, lb float64) Var {
	m.vars = append(m.vars, variable{kind: kindContinuous, name: name, lb: lb})
	return Var(len(m.vars) - 1)
}

func (m *Model) add(e *Expr, op Op, rhs float64) {
	m.cons = append(m.cons, constraint{expr: e, op: op, rhs: rhs})
}

func (m *Model) AddLE(e *Expr, rhs float64) { m.add(e, LE, rhs) }
func (m *Model) AddGE(e *Expr, rhs float64) { m.add(e, GE, rhs) }
func (m *Model) AddEQ(e *Expr, rhs float64) { m.add(e, EQ, rhs) }

// AbsDiff adds a nonnegative variable d constrained by d >= a-b and d >= b-a,
// so that minimizing d (or maximizing -d) makes d equal |a-b|. The same
// linearization backs team balance, judge balance and speaker spread.
func (m *Model) AbsDiff(a, b *Expr, name string) Var {
	d := m.Continuous(name, 0)
	diff := a.Minus(b)
	diff.Term(d, -1)
	m.AddLE(diff, 0)
	neg := b.Minus(a)
	neg.Term(d, -1)
	m.AddLE(neg, 0)
	return d
}

// Maximize sets the objective. Later calls replace earlier ones.
func (m *Model) Maximize(e *Expr) {
	m.obj = e
}

func (m *Model) NumVars() int        { return len(m.vars) }
func (m *Model) NumConstraints() int { return len(m.cons) }

// Name reports the variable's name for diagnostics.
func (m *Model) Name(v Var) string {
	if int(v) < 0 || int(v) >= len(m.vars) {
		return fmt.Sprintf("var(%d)", v)
	}
	return m.vars[v].name
}
