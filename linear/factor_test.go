// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linear

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vecNear(v *mat.VecDense, want []float64, tol float64) bool {
	if v == nil || v.Len() != len(want) {
		return false
	}
	for i, w := range want {
		if math.Abs(v.AtVec(i)-w) > tol {
			return false
		}
	}
	return true
}

func TestJacobianFactor(t *testing.T) {

	// ½‖[1;2]·x − (1,2)‖² over key 1
	f, err := NewJacobian([]float64{1, 2}, Term{Key: 1, A: mat.NewDense(2, 1, []float64{1, 2})})
	if err != nil {
		t.Fatal(err)
	}

	x := Values{}
	x.Insert(1, []float64{2})

	switch {
	case f.Dim(1) != 1 || f.Dim(2) != 0:
		t.Fatal("TestJacobianFactor: Bad Dimension")
	case !vecNear(f.Residual(x), []float64{1, 2}, 0):
		t.Fatal("TestJacobianFactor: Bad Residual")
	case math.Abs(f.Error(x)-2.5) > 1e-15:
		t.Fatal("TestJacobianFactor: Bad Error")
	case !vecNear(f.Gradient(1, x), []float64{5}, 0):
		t.Fatal("TestJacobianFactor: Bad Gradient")
	case f.Gradient(2, x) != nil:
		t.Fatal("TestJacobianFactor: Gradient For Foreign Key")
	}
}

func TestJacobianValidation(t *testing.T) {

	cases := []struct {
		b     []float64
		terms []Term
	}{
		{b: []float64{1}, terms: nil},
		{b: nil, terms: []Term{Row(1, 1)}},
		{b: []float64{1, 2}, terms: []Term{Row(1, 1)}},
		{b: []float64{1}, terms: []Term{Row(1, 1), Row(1, 2)}},
		{b: []float64{1}, terms: []Term{{Key: 1, A: nil}}},
	}
	for i, c := range cases {
		if _, err := NewJacobian(c.b, c.terms...); err == nil {
			t.Fatalf("TestJacobianValidation: Case %d Accepted", i)
		}
	}
}

func TestHessianMatchesJacobian(t *testing.T) {

	// The same objective in both forms: G = AᵀA, g = Aᵀb, f = ½‖b‖².
	jac, err := NewJacobian([]float64{1, 2}, Term{Key: 1, A: mat.NewDense(2, 1, []float64{1, 2})})
	if err != nil {
		t.Fatal(err)
	}
	hes, err := NewHessian(
		[]Key{1},
		[][]*mat.Dense{{mat.NewDense(1, 1, []float64{5})}},
		[]*mat.VecDense{mat.NewVecDense(1, []float64{5})},
		2.5)
	if err != nil {
		t.Fatal(err)
	}

	for _, xv := range []float64{-1, 0, 0.5, 2, 7} {
		x := Values{}
		x.Insert(1, []float64{xv})
		if math.Abs(jac.Error(x)-hes.Error(x)) > 1e-12 {
			t.Fatalf("TestHessianMatchesJacobian: Error Mismatch At %v", xv)
		}
		gj, gh := jac.Gradient(1, x), hes.Gradient(1, x)
		if math.Abs(gj.AtVec(0)-gh.AtVec(0)) > 1e-12 {
			t.Fatalf("TestHessianMatchesJacobian: Gradient Mismatch At %v", xv)
		}
	}
}

func TestHessianCrossBlocks(t *testing.T) {

	// ½(x+y)² over two scalar keys: G = [1 1; 1 1], g = 0.
	hes, err := NewHessian(
		[]Key{1, 2},
		[][]*mat.Dense{
			{mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{1})},
			{mat.NewDense(1, 1, []float64{1})},
		},
		[]*mat.VecDense{mat.NewVecDense(1, nil), mat.NewVecDense(1, nil)},
		0)
	if err != nil {
		t.Fatal(err)
	}

	x := Values{}
	x.Insert(1, []float64{2})
	x.Insert(2, []float64{3})

	switch {
	case math.Abs(hes.Error(x)-12.5) > 1e-12:
		t.Fatal("TestHessianCrossBlocks: Bad Error")
	case !vecNear(hes.Gradient(1, x), []float64{5}, 1e-12):
		t.Fatal("TestHessianCrossBlocks: Bad Gradient For First Key")
	case !vecNear(hes.Gradient(2, x), []float64{5}, 1e-12):
		t.Fatal("TestHessianCrossBlocks: Bad Gradient For Second Key")
	}
}

func TestHessianValidation(t *testing.T) {

	d11 := mat.NewDense(1, 1, []float64{1})
	g1 := mat.NewVecDense(1, nil)

	cases := []struct {
		keys []Key
		G    [][]*mat.Dense
		g    []*mat.VecDense
	}{
		{keys: nil, G: nil, g: nil},
		{keys: []Key{1}, G: [][]*mat.Dense{}, g: []*mat.VecDense{g1}},
		{keys: []Key{1, 1}, G: [][]*mat.Dense{{d11, d11}, {d11}}, g: []*mat.VecDense{g1, g1}},
		{keys: []Key{1}, G: [][]*mat.Dense{{mat.NewDense(1, 2, nil)}}, g: []*mat.VecDense{g1}},
		{keys: []Key{1}, G: [][]*mat.Dense{{d11}}, g: []*mat.VecDense{mat.NewVecDense(2, nil)}},
	}
	for i, c := range cases {
		if _, err := NewHessian(c.keys, c.G, c.g, 0); err == nil {
			t.Fatalf("TestHessianValidation: Case %d Accepted", i)
		}
	}
}
