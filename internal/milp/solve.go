package milp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

var (
	ErrInfeasible = errors.New("milp: problem is infeasible")
	ErrNodeLimit  = errors.New("milp: node limit reached without a feasible solution")
)

// Options tunes the branch-and-bound search.
type Options struct {
	// MaxNodes bounds the number of explored branch-and-bound nodes. When
	// the limit is hit the best incumbent found so far is returned, or
	// ErrNodeLimit if there is none.
	MaxNodes int
	// IntTol is the tolerance for treating a relaxation value as integral.
	IntTol float64
}

func DefaultOptions() Options {
	return Options{MaxNodes: 500000, IntTol: 1e-5}
}

// Solution holds variable values for a solved model.
type Solution struct {
	Objective float64
	values    []float64
	Nodes     int
}

func (s *Solution) Value(v Var) float64 {
	return s.values[v]
}

type node struct {
	fixed map[Var]float64
}

// Solve maximizes the model's objective subject to its constraints, requiring
// integral values for all binary variables.
func Solve(m *Model, opts Options) (*Solution, error) {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultOptions().MaxNodes
	}
	if opts.IntTol <= 0 {
		opts.IntTol = DefaultOptions().IntTol
	}

	stack := []node{{fixed: map[Var]float64{}}}
	var (
		incumbent    *Solution
		incumbentVal = math.Inf(-1)
		nodes        int
	)

	for len(stack) > 0 {
		if nodes >= opts.MaxNodes {
			break
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		values, bound, err := m.relax(n.fixed)
		if err != nil {
			if errors.Is(err, lp.ErrInfeasible) {
				continue
			}
			return nil, fmt.Errorf("milp: relaxation failed: %w", err)
		}
		if bound <= incumbentVal+1e-9 {
			continue
		}

		branch, ok := m.fractionalBinary(values, n.fixed, opts.IntTol)
		if !ok {
			// integral on every binary: candidate solution
			rounded := make([]float64, len(values))
			copy(rounded, values)
			for v := range m.vars {
				if m.vars[v].kind == kindBinary {
					rounded[v] = math.Round(values[v])
				}
			}
			incumbent = &Solution{Objective: bound, values: rounded}
			incumbentVal = bound
			continue
		}

		down := map[Var]float64{branch: 0}
		up := map[Var]float64{branch: 1}
		for v, val := range n.fixed {
			down[v] = val
			up[v] = val
		}
		stack = append(stack, node{fixed: down}, node{fixed: up})
	}

	if incumbent == nil {
		if nodes >= opts.MaxNodes {
			return nil, ErrNodeLimit
		}
		return nil, ErrInfeasible
	}
	incumbent.Nodes = nodes
	return incumbent, nil
}

// fractionalBinary picks the unfixed binary variable whose relaxation value
// is furthest from integral (closest to one half).
func (m *Model) fractionalBinary(values []float64, fixed map[Var]float64, tol float64) (Var, bool) {
	best := Var(-1)
	bestDist := tol
	for i := range m.vars {
		v := Var(i)
		if m.vars[i].kind != kindBinary {
			continue
		}
		if _, ok := fixed[v]; ok {
			continue
		}
		dist := math.Abs(values[v] - math.Round(values[v]))
		if dist > bestDist {
			best = v
			bestDist = dist
		}
	}
	return best, best >= 0
}

// relax solves the LP relaxation of the model with the given binaries fixed.
// It returns a value per model variable and an upper bound on the (maximized)
// objective over the node's subtree. Every row carries an artificial column
// with a big-M cost and the simplex is started from that identity basis;
// letting it search for a basis instead fails on the rank-deficient row
// patterns GE/LE pairs and forced-zero variables produce.
func (m *Model) relax(fixed map[Var]float64) ([]float64, float64, error) {
	colOf := make([]int, len(m.vars))
	var free []Var
	for i := range m.vars {
		v := Var(i)
		if _, ok := fixed[v]; ok {
			colOf[i] = -1
			continue
		}
		colOf[i] = len(free)
		free = append(free, v)
	}

	// columns: free variables, one slack per inequality row and per
	// free-binary upper bound, then one artificial per row. Free variables
	// with a nonzero lower bound are shifted so every column is nonnegative.
	nIneq := 0
	for _, c := range m.cons {
		if c.op != EQ {
			nIneq++
		}
	}
	nBinRows := 0
	for _, v := range free {
		if m.vars[v].kind == kindBinary {
			nBinRows++
		}
	}
	rows := len(m.cons) + nBinRows
	artStart := len(free) + nIneq + nBinRows
	cols := artStart + rows

	a := mat.NewDense(rows, cols, nil)
	b := make([]float64, rows)
	slack := len(free)

	row := 0
	for _, c := range m.cons {
		rhs := c.rhs - c.expr.offset
		for v, coef := range c.expr.coefs {
			if coef == 0 {
				continue
			}
			if val, ok := fixed[v]; ok {
				rhs -= coef * val
				continue
			}
			rhs -= coef * m.vars[v].lb
			a.Set(row, colOf[v], a.At(row, colOf[v])+coef)
		}
		switch c.op {
		case LE:
			a.Set(row, slack, 1)
			slack++
		case GE:
			a.Set(row, slack, -1)
			slack++
		}
		b[row] = rhs
		row++
	}
	for _, v := range free {
		if m.vars[v].kind != kindBinary {
			continue
		}
		a.Set(row, colOf[v], 1)
		a.Set(row, slack, 1)
		slack++
		b[row] = 1
		row++
	}

	// simplex wants b >= 0
	for r := 0; r < rows; r++ {
		if b[r] < 0 {
			b[r] = -b[r]
			for j := 0; j < cols; j++ {
				if a.At(r, j) != 0 {
					a.Set(r, j, -a.At(r, j))
				}
			}
		}
	}

	// artificials enter after the sign flip so they stay an identity block
	for r := 0; r < rows; r++ {
		a.Set(r, artStart+r, 1)
	}

	// minimize the negated objective
	c := make([]float64, cols)
	objConst := m.obj.offset
	for v, coef := range m.obj.coefs {
		if val, ok := fixed[v]; ok {
			objConst += coef * val
			continue
		}
		objConst += coef * m.vars[v].lb
		c[colOf[v]] -= coef
	}

	bigM := 1.0
	for j := 0; j < artStart; j++ {
		if v := math.Abs(c[j]); v > bigM {
			bigM = v
		}
	}
	bigM *= 1e6
	for r := 0; r < rows; r++ {
		c[artStart+r] = bigM
	}

	basic := make([]int, rows)
	for r := range basic {
		basic[r] = artStart + r
	}

	optF, x, err := lp.Simplex(c, a, b, 1e-10, basic)
	if err != nil {
		return nil, 0, err
	}

	// a positive artificial at the optimum means no feasible point exists
	residual := 0.0
	for r := 0; r < rows; r++ {
		residual += x[artStart+r]
	}
	if residual > 1e-6 {
		return nil, 0, lp.ErrInfeasible
	}

	values := make([]float64, len(m.vars))
	for i := range m.vars {
		v := Var(i)
		if val, ok := fixed[v]; ok {
			values[i] = val
			continue
		}
		values[i] = x[colOf[v]] + m.vars[v].lb
	}
	return values, -optF + objConst, nil
}
