// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linear provides keyed Gaussian factors and the dense solve
// they are eliminated with. A factor couples a sparse set of named
// variables (keys), each carrying its own vector dimension, so a graph
// of factors describes a block-structured quadratic objective without
// ever forming a flat problem matrix.
package linear

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Key identifies an optimization variable within a problem.
// Keys are opaque: only equality matters, ordering is used solely
// to make assembly and iteration deterministic.
type Key uint64

// Values maps each key to its current vector.
// It serves as primal solution, step direction and dual solution alike.
type Values map[Key]*mat.VecDense

// Has reports whether k carries a vector.
func (v Values) Has(k Key) bool {
	_, ok := v[k]
	return ok
}

// Dim returns the dimension assigned to k, or 0 when k is absent.
func (v Values) Dim(k Key) int {
	if x, ok := v[k]; ok {
		return x.Len()
	}
	return 0
}

// At returns the vector stored for k, or nil when k is absent.
func (v Values) At(k Key) *mat.VecDense {
	return v[k]
}

// Insert stores a copy of x under k.
func (v Values) Insert(k Key, x []float64) {
	v[k] = mat.NewVecDense(len(x), slices.Clone(x))
}

// Keys returns all keys in ascending order.
func (v Values) Keys() []Key {
	keys := make([]Key, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Clone returns a deep copy. Mutating the copy never affects the source.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, x := range v {
		c := mat.NewVecDense(x.Len(), nil)
		c.CopyVec(x)
		out[k] = c
	}
	return out
}

// Axpy returns a fresh mapping v + alpha·p.
// Keys of p missing from v are ignored; keys of v missing from p are copied.
func (v Values) Axpy(alpha float64, p Values) Values {
	out := v.Clone()
	for k, x := range out {
		if d, ok := p[k]; ok {
			x.AddScaledVec(x, alpha, d)
		}
	}
	return out
}

// Sub returns a fresh mapping v − o over the keys of v.
func (v Values) Sub(o Values) Values {
	out := v.Clone()
	for k, x := range out {
		if d, ok := o[k]; ok {
			x.SubVec(x, d)
		}
	}
	return out
}

// Equal reports whether both mappings hold the same keys and every
// component agrees within tol.
func (v Values) Equal(o Values, tol float64) bool {
	if len(v) != len(o) {
		return false
	}
	for k, x := range v {
		y, ok := o[k]
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if math.Abs(x.AtVec(i)-y.AtVec(i)) > tol {
				return false
			}
		}
	}
	return true
}
