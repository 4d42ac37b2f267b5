// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linear

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Graph is an ordered collection of Gaussian factors describing the
// quadratic objective ½ xᵀGx − gᵀx (soft factors) together with hard
// rows Cx = d (constrained Jacobians).
type Graph []Gaussian

// Keys returns the union of all factor keys in ascending order.
func (g Graph) Keys() []Key {
	seen := map[Key]struct{}{}
	var keys []Key
	for _, f := range g {
		for _, k := range f.Keys() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

// Error evaluates the total objective at x.
func (g Graph) Error(x Values) float64 {
	e := 0.0
	for _, f := range g {
		e += f.Error(x)
	}
	return e
}

// VariableIndex maps each key to the indices of the factors touching it,
// in factor order. It is built once from an immutable graph and reused.
type VariableIndex map[Key][]int

// NewVariableIndex builds the key → factor-indices map for g.
func NewVariableIndex(g Graph) VariableIndex {
	idx := make(VariableIndex)
	for i, f := range g {
		for _, k := range f.Keys() {
			idx[k] = append(idx[k], i)
		}
	}
	return idx
}

// ordering assigns each key a contiguous offset into the flat solution
// vector. Keys are laid out in ascending order so assembly is
// deterministic regardless of factor insertion order.
type ordering struct {
	keys []Key
	off  map[Key]int
	dim  map[Key]int
	n    int
}

// Ordering validates that every factor assigns each key a consistent
// dimension and returns the resulting layout.
func (g Graph) ordering() (ordering, error) {
	ord := ordering{off: map[Key]int{}, dim: map[Key]int{}}
	for _, f := range g {
		for _, k := range f.Keys() {
			d := f.Dim(k)
			if d <= 0 {
				return ord, fmt.Errorf("linear: key %d has no dimension", k)
			}
			if prev, ok := ord.dim[k]; ok {
				if prev != d {
					return ord, fmt.Errorf("linear: key %d dimension mismatch: %d vs %d", k, prev, d)
				}
				continue
			}
			ord.dim[k] = d
			ord.keys = append(ord.keys, k)
		}
	}
	slices.Sort(ord.keys)
	for _, k := range ord.keys {
		ord.off[k] = ord.n
		ord.n += ord.dim[k]
	}
	return ord, nil
}

// kkt accumulates the saddle-point system
//
//	⎡ G  Cᵀ ⎤⎡x⎤   ⎡g⎤
//	⎣ C  0  ⎦⎣ν⎦ = ⎣d⎦
//
// from soft factors (G, g) and hard constraint rows (C, d).
type kkt struct {
	ord  ordering
	info *mat.Dense    // G, n×n
	grad *mat.VecDense // g, n
	cons *mat.Dense    // C, m×n (nil when m = 0)
	rhs  *mat.VecDense // d, m
	row  int           // next free hard row
}

func (s *kkt) addInfoBlock(ki, kj Key, b mat.Matrix) {
	oi, oj := s.ord.off[ki], s.ord.off[kj]
	r, c := b.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			s.info.Set(oi+i, oj+j, s.info.At(oi+i, oj+j)+b.At(i, j))
		}
	}
}

func (s *kkt) addGradBlock(k Key, v *mat.VecDense) {
	o := s.ord.off[k]
	for i := 0; i < v.Len(); i++ {
		s.grad.SetVec(o+i, s.grad.AtVec(o+i)+v.AtVec(i))
	}
}

func (s *kkt) addConstraintBlock(k Key, b *mat.Dense) {
	o := s.ord.off[k]
	r, c := b.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			s.cons.Set(s.row+i, o+j, b.At(i, j))
		}
	}
}

func (s *kkt) addConstraintRhs(b *mat.VecDense) {
	for i := 0; i < b.Len(); i++ {
		s.rhs.SetVec(s.row+i, b.AtVec(i))
	}
	s.row += b.Len()
}

// Solve assembles and solves the KKT system of the graph, returning the
// minimizing assignment. Hard factors are enforced exactly; every soft
// factor contributes its normal equations. The solve fails when the
// system is singular or severely ill-conditioned, which signals a
// rank-deficient objective or a degenerate constraint set.
func (g Graph) Solve() (Values, error) {
	ord, err := g.ordering()
	if err != nil {
		return nil, err
	}
	if ord.n == 0 {
		return Values{}, nil
	}

	m := 0
	for _, f := range g {
		if f.hard() {
			m += f.rows()
		}
	}

	sys := &kkt{
		ord:  ord,
		info: mat.NewDense(ord.n, ord.n, nil),
		grad: mat.NewVecDense(ord.n, nil),
	}
	if m > 0 {
		sys.cons = mat.NewDense(m, ord.n, nil)
		sys.rhs = mat.NewVecDense(m, nil)
	}
	for _, f := range g {
		f.addTerms(sys)
	}

	dim := ord.n + m
	full := mat.NewDense(dim, dim, nil)
	full.Slice(0, ord.n, 0, ord.n).(*mat.Dense).Copy(sys.info)
	if m > 0 {
		full.Slice(ord.n, dim, 0, ord.n).(*mat.Dense).Copy(sys.cons)
		full.Slice(0, ord.n, ord.n, dim).(*mat.Dense).Copy(sys.cons.T())
	}
	b := mat.NewVecDense(dim, nil)
	b.SliceVec(0, ord.n).(*mat.VecDense).CopyVec(sys.grad)
	if m > 0 {
		b.SliceVec(ord.n, dim).(*mat.VecDense).CopyVec(sys.rhs)
	}

	var lu mat.LU
	lu.Factorize(full)
	sol := mat.NewVecDense(dim, nil)
	if err := lu.SolveVecTo(sol, false, b); err != nil {
		return nil, fmt.Errorf("linear: singular system: %w", err)
	}

	out := make(Values, len(ord.keys))
	for _, k := range ord.keys {
		o, d := ord.off[k], ord.dim[k]
		x := mat.NewVecDense(d, nil)
		x.CopyVec(sol.SliceVec(o, o+d))
		out[k] = x
	}
	return out, nil
}
