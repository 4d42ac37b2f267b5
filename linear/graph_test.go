// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linear

import (
	"math"
	"slices"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func mustJacobian(t *testing.T, b []float64, terms ...Term) *Jacobian {
	t.Helper()
	f, err := NewJacobian(b, terms...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func mustConstraint(t *testing.T, b []float64, terms ...Term) *Jacobian {
	t.Helper()
	f, err := NewConstraint(b, terms...)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSolveUnconstrained(t *testing.T) {

	// ½(x−1)² + ½(y−5)²
	g := Graph{
		mustJacobian(t, []float64{1}, Row(1, 1)),
		mustJacobian(t, []float64{5}, Row(2, 1)),
	}

	sol, err := g.Solve()
	switch {
	case err != nil:
		t.Fatal(err)
	case !vecNear(sol.At(1), []float64{1}, 1e-12):
		t.Fatal("TestSolveUnconstrained: Bad Solution For Key 1")
	case !vecNear(sol.At(2), []float64{5}, 1e-12):
		t.Fatal("TestSolveUnconstrained: Bad Solution For Key 2")
	case math.Abs(g.Error(sol)) > 1e-12:
		t.Fatal("TestSolveUnconstrained: Nonzero Error At Minimum")
	}
}

func TestSolveEqualityConstrained(t *testing.T) {

	// ½(x−1)² + ½(y−5)² subject to x − y = 0
	g := Graph{
		mustJacobian(t, []float64{1}, Row(1, 1)),
		mustJacobian(t, []float64{5}, Row(2, 1)),
		mustConstraint(t, []float64{0}, Row(1, 1), Row(2, -1)),
	}

	sol, err := g.Solve()
	switch {
	case err != nil:
		t.Fatal(err)
	case !vecNear(sol.At(1), []float64{3}, 1e-12):
		t.Fatal("TestSolveEqualityConstrained: Bad Solution For Key 1")
	case !vecNear(sol.At(2), []float64{3}, 1e-12):
		t.Fatal("TestSolveEqualityConstrained: Bad Solution For Key 2")
	}
}

func TestSolveVectorKey(t *testing.T) {

	// ½‖p − (1,2)‖² subject to p₁ + p₂ = 5
	eye := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	g := Graph{
		mustJacobian(t, []float64{1, 2}, Term{Key: 7, A: eye}),
		mustConstraint(t, []float64{5}, Row(7, 1, 1)),
	}

	sol, err := g.Solve()
	switch {
	case err != nil:
		t.Fatal(err)
	case !vecNear(sol.At(7), []float64{2, 3}, 1e-12):
		t.Fatal("TestSolveVectorKey: Bad Solution")
	}
}

func TestSolveHessianCost(t *testing.T) {

	// Same objective as TestSolveEqualityConstrained in information form.
	hes, err := NewHessian(
		[]Key{1, 2},
		[][]*mat.Dense{
			{mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{0})},
			{mat.NewDense(1, 1, []float64{1})},
		},
		[]*mat.VecDense{mat.NewVecDense(1, []float64{1}), mat.NewVecDense(1, []float64{5})},
		13)
	if err != nil {
		t.Fatal(err)
	}
	g := Graph{hes, mustConstraint(t, []float64{0}, Row(1, 1), Row(2, -1))}

	sol, err := g.Solve()
	switch {
	case err != nil:
		t.Fatal(err)
	case !vecNear(sol.At(1), []float64{3}, 1e-12) || !vecNear(sol.At(2), []float64{3}, 1e-12):
		t.Fatal("TestSolveHessianCost: Bad Solution")
	}
}

func TestSolveSingular(t *testing.T) {

	// ½(x+y−1)² alone cannot determine both variables.
	g := Graph{mustJacobian(t, []float64{1}, Row(1, 1), Row(2, 1))}

	if _, err := g.Solve(); err == nil {
		t.Fatal("TestSolveSingular: Singular System Accepted")
	} else if !strings.Contains(err.Error(), "singular") {
		t.Fatal("TestSolveSingular: Unexpected Error Kind")
	}
}

func TestSolveEmptyGraph(t *testing.T) {
	sol, err := Graph{}.Solve()
	if err != nil || len(sol) != 0 {
		t.Fatal("TestSolveEmptyGraph: Bad Empty Solve")
	}
}

func TestDimensionMismatch(t *testing.T) {

	g := Graph{
		mustJacobian(t, []float64{1}, Row(1, 1)),
		mustJacobian(t, []float64{1, 2}, Term{Key: 1, A: mat.NewDense(2, 2, nil)}),
	}
	if _, err := g.Solve(); err == nil {
		t.Fatal("TestDimensionMismatch: Inconsistent Dimensions Accepted")
	}
}

func TestVariableIndex(t *testing.T) {

	g := Graph{
		mustJacobian(t, []float64{1}, Row(1, 1)),
		mustJacobian(t, []float64{1}, Row(2, 1)),
		mustJacobian(t, []float64{0}, Row(1, 1), Row(2, -1)),
	}

	idx := NewVariableIndex(g)
	switch {
	case !slices.Equal(idx[1], []int{0, 2}):
		t.Fatal("TestVariableIndex: Bad Index For Key 1")
	case !slices.Equal(idx[2], []int{1, 2}):
		t.Fatal("TestVariableIndex: Bad Index For Key 2")
	case idx[3] != nil:
		t.Fatal("TestVariableIndex: Index For Foreign Key")
	case !slices.Equal(g.Keys(), []Key{1, 2}):
		t.Fatal("TestVariableIndex: Bad Graph Keys")
	}
}
