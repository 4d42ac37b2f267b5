// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linear

import (
	"slices"
	"testing"
)

func TestValuesOps(t *testing.T) {

	v := Values{}
	v.Insert(2, []float64{1, 2})
	v.Insert(1, []float64{3})

	switch {
	case !v.Has(1) || !v.Has(2) || v.Has(3):
		t.Fatal("TestValuesOps: Bad Membership")
	case v.Dim(1) != 1 || v.Dim(2) != 2 || v.Dim(3) != 0:
		t.Fatal("TestValuesOps: Bad Dimension")
	case !slices.Equal(v.Keys(), []Key{1, 2}):
		t.Fatal("TestValuesOps: Keys Not Sorted")
	}

	c := v.Clone()
	c.At(1).SetVec(0, 99)
	if v.At(1).AtVec(0) != 3 {
		t.Fatal("TestValuesOps: Clone Not Independent")
	}

	p := Values{}
	p.Insert(1, []float64{2})
	p.Insert(2, []float64{1, 1})

	sum := v.Axpy(0.5, p)
	switch {
	case sum.At(1).AtVec(0) != 4:
		t.Fatal("TestValuesOps: Bad Axpy")
	case sum.At(2).AtVec(0) != 1.5 || sum.At(2).AtVec(1) != 2.5:
		t.Fatal("TestValuesOps: Bad Axpy")
	case v.At(1).AtVec(0) != 3:
		t.Fatal("TestValuesOps: Axpy Mutated Source")
	}

	diff := sum.Sub(v)
	switch {
	case diff.At(1).AtVec(0) != 1:
		t.Fatal("TestValuesOps: Bad Sub")
	case diff.At(2).AtVec(0) != 0.5 || diff.At(2).AtVec(1) != 0.5:
		t.Fatal("TestValuesOps: Bad Sub")
	}
}

func TestValuesEqual(t *testing.T) {

	a, b := Values{}, Values{}
	a.Insert(1, []float64{1, 2})
	b.Insert(1, []float64{1, 2 + 1e-12})

	switch {
	case !a.Equal(b, 1e-9):
		t.Fatal("TestValuesEqual: Not Equal Within Tolerance")
	case a.Equal(b, 0):
		t.Fatal("TestValuesEqual: Equal Beyond Tolerance")
	}

	b.Insert(2, []float64{0})
	if a.Equal(b, 1) {
		t.Fatal("TestValuesEqual: Equal With Extra Key")
	}
}
