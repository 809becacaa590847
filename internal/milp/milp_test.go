package milp

import (
	"errors"
	"math"
	"testing"
)

func TestSolveKnapsack(t *testing.T) {
	m := NewModel()
	x := m.Binary("x")
	y := m.Binary("y")
	z := m.Binary("z")
	w := m.Binary("w")

	weight := NewExpr().Term(x, 5).Term(y, 7).Term(z, 4).Term(w, 3)
	m.AddLE(weight, 14)
	m.Maximize(NewExpr().Term(x, 8).Term(y, 11).Term(z, 6).Term(w, 4))

	sol, err := Solve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-21) > 1e-6 {
		t.Fatalf("expected objective 21, got %v", sol.Objective)
	}
	if sol.Value(x) > 0.5 || sol.Value(y) < 0.5 || sol.Value(z) < 0.5 || sol.Value(w) < 0.5 {
		t.Fatalf("expected y,z,w selected, got x=%v y=%v z=%v w=%v",
			sol.Value(x), sol.Value(y), sol.Value(z), sol.Value(w))
	}
}

func TestAbsDiffTracksDifference(t *testing.T) {
	m := NewModel()
	x := m.Continuous("x", 0)
	m.AddLE(NewExpr().Term(x, 1), 10)

	target := NewExpr().Const(7)
	d := m.AbsDiff(NewExpr().Term(x, 1), target, "d")
	m.Maximize(NewExpr().Term(d, -1))

	sol, err := Solve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Value(x)-7) > 1e-6 {
		t.Fatalf("expected x=7, got %v", sol.Value(x))
	}
	if math.Abs(sol.Value(d)) > 1e-6 {
		t.Fatalf("expected |x-7|=0, got %v", sol.Value(d))
	}
}

func TestSolveInfeasible(t *testing.T) {
	m := NewModel()
	x := m.Binary("x")
	m.AddGE(NewExpr().Term(x, 1), 1)
	m.AddLE(NewExpr().Term(x, 1), 0)
	m.Maximize(NewExpr().Term(x, 1))

	if _, err := Solve(m, DefaultOptions()); !errors.Is(err, ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible, got %v", err)
	}
}

func TestContinuousLowerBound(t *testing.T) {
	m := NewModel()
	x := m.Continuous("x", -5)
	m.AddGE(NewExpr().Term(x, 1), -5)
	m.Maximize(NewExpr().Term(x, -1))

	sol, err := Solve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Value(x)+5) > 1e-6 {
		t.Fatalf("expected x=-5, got %v", sol.Value(x))
	}
}

func TestSolvePairedRowsWithForcedZeros(t *testing.T) {
	// an exactly-one constraint written as a >=1 / <=1 pair next to
	// forced-zero rows used to leave the relaxation without a usable
	// starting basis
	m := NewModel()
	a := m.Binary("a")
	b := m.Binary("b")
	c := m.Binary("c")

	sum := NewExpr().Term(a, 1).Term(b, 1).Term(c, 1)
	m.AddGE(sum, 1)
	m.AddLE(sum, 1)
	m.AddLE(NewExpr().Term(b, 1), 0)
	m.Maximize(NewExpr().Term(a, 1).Term(c, 2))

	sol, err := Solve(m, DefaultOptions())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(sol.Objective-2) > 1e-6 {
		t.Fatalf("expected objective 2, got %v", sol.Objective)
	}
	if math.Abs(sol.Value(c)-1) > 1e-6 || math.Abs(sol.Value(b)) > 1e-6 {
		t.Fatalf("expected c=1 b=0, got c=%v b=%v", sol.Value(c), sol.Value(b))
	}
}
