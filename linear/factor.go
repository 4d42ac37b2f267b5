// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package linear

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Gaussian is a factor of a quadratic objective over a sparse set of keys.
// The set of implementations is closed: a factor is either a Jacobian
// (least-squares or hard-constraint rows) or a Hessian (information form).
type Gaussian interface {
	// Keys lists the variables the factor touches, in construction order.
	Keys() []Key
	// Dim returns the column dimension the factor assigns to k, or 0.
	Dim(k Key) int
	// Error evaluates the factor's contribution to the objective at x.
	Error(x Values) float64
	// Gradient returns ∂f/∂xₖ at x as a fresh vector.
	Gradient(k Key, x Values) *mat.VecDense

	hard() bool
	rows() int
	addTerms(sys *kkt)
}

// Term is one keyed Jacobian block Aₖ of a factor.
type Term struct {
	Key Key
	A   *mat.Dense
}

// Row builds a single-row term from coefficients, a convenience for
// scalar constraints.
func Row(k Key, coeffs ...float64) Term {
	return Term{Key: k, A: mat.NewDense(1, len(coeffs), slices.Clone(coeffs))}
}

// Jacobian represents either the soft factor ½‖Σₖ Aₖxₖ − b‖² or, in
// constrained form, the hard rows Σₖ Aₖxₖ = b.
type Jacobian struct {
	keys        []Key
	blocks      map[Key]*mat.Dense
	b           *mat.VecDense
	constrained bool
}

// NewJacobian builds a least-squares factor ½‖Σₖ Aₖxₖ − b‖².
// Every block must have len(b) rows and each key may appear once.
func NewJacobian(b []float64, terms ...Term) (*Jacobian, error) {
	return newJacobian(b, terms, false)
}

// NewConstraint builds the hard factor Σₖ Aₖxₖ = b. During a solve its
// rows are enforced exactly instead of entering the normal equations.
func NewConstraint(b []float64, terms ...Term) (*Jacobian, error) {
	return newJacobian(b, terms, true)
}

func newJacobian(b []float64, terms []Term, constrained bool) (*Jacobian, error) {
	if len(terms) == 0 {
		return nil, errors.New("linear: factor requires at least one term")
	}
	if len(b) == 0 {
		return nil, errors.New("linear: factor requires a non-empty rhs")
	}
	f := &Jacobian{
		keys:        make([]Key, 0, len(terms)),
		blocks:      make(map[Key]*mat.Dense, len(terms)),
		b:           mat.NewVecDense(len(b), slices.Clone(b)),
		constrained: constrained,
	}
	for _, t := range terms {
		if t.A == nil {
			return nil, fmt.Errorf("linear: nil block for key %d", t.Key)
		}
		if r, _ := t.A.Dims(); r != len(b) {
			return nil, fmt.Errorf("linear: block rows for key %d mismatch rhs", t.Key)
		}
		if _, dup := f.blocks[t.Key]; dup {
			return nil, fmt.Errorf("linear: duplicate key %d", t.Key)
		}
		f.keys = append(f.keys, t.Key)
		f.blocks[t.Key] = mat.DenseCopyOf(t.A)
	}
	return f, nil
}

// Keys implements Gaussian.
func (f *Jacobian) Keys() []Key { return slices.Clone(f.keys) }

// Dim implements Gaussian.
func (f *Jacobian) Dim(k Key) int {
	if a, ok := f.blocks[k]; ok {
		_, c := a.Dims()
		return c
	}
	return 0
}

// Block returns the Jacobian block Aₖ, or nil when k is not involved.
func (f *Jacobian) Block(k Key) *mat.Dense { return f.blocks[k] }

// Rhs returns the right-hand side b.
func (f *Jacobian) Rhs() *mat.VecDense { return f.b }

// Apply evaluates Σₖ Aₖxₖ. Keys missing from x contribute nothing.
func (f *Jacobian) Apply(x Values) *mat.VecDense {
	out := mat.NewVecDense(f.b.Len(), nil)
	tmp := mat.NewVecDense(f.b.Len(), nil)
	for _, k := range f.keys {
		if xk, ok := x[k]; ok {
			tmp.MulVec(f.blocks[k], xk)
			out.AddVec(out, tmp)
		}
	}
	return out
}

// Residual evaluates Σₖ Aₖxₖ − b.
func (f *Jacobian) Residual(x Values) *mat.VecDense {
	r := f.Apply(x)
	r.SubVec(r, f.b)
	return r
}

// Error implements Gaussian as ½‖Ax − b‖².
func (f *Jacobian) Error(x Values) float64 {
	r := f.Residual(x)
	return 0.5 * mat.Dot(r, r)
}

// Gradient implements Gaussian as Aₖᵀ(Ax − b).
func (f *Jacobian) Gradient(k Key, x Values) *mat.VecDense {
	a, ok := f.blocks[k]
	if !ok {
		return nil
	}
	_, c := a.Dims()
	g := mat.NewVecDense(c, nil)
	g.MulVec(a.T(), f.Residual(x))
	return g
}

func (f *Jacobian) hard() bool { return f.constrained }
func (f *Jacobian) rows() int  { return f.b.Len() }

func (f *Jacobian) addTerms(sys *kkt) {
	if f.constrained {
		for _, k := range f.keys {
			sys.addConstraintBlock(k, f.blocks[k])
		}
		sys.addConstraintRhs(f.b)
		return
	}
	for _, ki := range f.keys {
		ai := f.blocks[ki]
		for _, kj := range f.keys {
			var prod mat.Dense
			prod.Mul(ai.T(), f.blocks[kj])
			sys.addInfoBlock(ki, kj, &prod)
		}
		var g mat.VecDense
		g.MulVec(ai.T(), f.b)
		sys.addGradBlock(ki, &g)
	}
}

// Hessian represents the information-form factor ½ xᵀGx − gᵀx + f over
// its keys, the natural shape of a QP cost term. G is given as the upper
// block triangle relative to the key order: blocks[i][j−i] holds G₍ᵢⱼ₎
// for j ≥ i and the diagonal blocks must be symmetric.
type Hessian struct {
	keys   []Key
	pos    map[Key]int
	blocks [][]*mat.Dense
	lin    []*mat.VecDense
	f      float64
}

// NewHessian builds an information-form factor. G[i] must hold the blocks
// G₍ᵢⱼ₎ for j = i … len(keys)−1 and g[i] the linear term for keys[i].
func NewHessian(keys []Key, G [][]*mat.Dense, g []*mat.VecDense, f float64) (*Hessian, error) {
	n := len(keys)
	if n == 0 {
		return nil, errors.New("linear: factor requires at least one key")
	}
	if len(G) != n || len(g) != n {
		return nil, errors.New("linear: hessian block count mismatch keys")
	}
	h := &Hessian{
		keys:   slices.Clone(keys),
		pos:    make(map[Key]int, n),
		blocks: make([][]*mat.Dense, n),
		lin:    make([]*mat.VecDense, n),
		f:      f,
	}
	dims := make([]int, n)
	for i, k := range keys {
		if _, dup := h.pos[k]; dup {
			return nil, fmt.Errorf("linear: duplicate key %d", k)
		}
		h.pos[k] = i
		if len(G[i]) != n-i {
			return nil, fmt.Errorf("linear: block row %d length mismatch", i)
		}
		if G[i][0] == nil {
			return nil, fmt.Errorf("linear: missing diagonal block for key %d", k)
		}
		r, c := G[i][0].Dims()
		if r != c {
			return nil, fmt.Errorf("linear: diagonal block for key %d not square", k)
		}
		dims[i] = r
	}
	for i := range keys {
		h.blocks[i] = make([]*mat.Dense, n-i)
		for j := i; j < n; j++ {
			b := G[i][j-i]
			if b == nil {
				return nil, fmt.Errorf("linear: missing block (%d,%d)", i, j)
			}
			if r, c := b.Dims(); r != dims[i] || c != dims[j] {
				return nil, fmt.Errorf("linear: block (%d,%d) dimension mismatch", i, j)
			}
			h.blocks[i][j-i] = mat.DenseCopyOf(b)
		}
		if g[i] == nil || g[i].Len() != dims[i] {
			return nil, fmt.Errorf("linear: linear term for key %d dimension mismatch", keys[i])
		}
		v := mat.NewVecDense(dims[i], nil)
		v.CopyVec(g[i])
		h.lin[i] = v
	}
	return h, nil
}

// Keys implements Gaussian.
func (h *Hessian) Keys() []Key { return slices.Clone(h.keys) }

// Dim implements Gaussian.
func (h *Hessian) Dim(k Key) int {
	if i, ok := h.pos[k]; ok {
		return h.lin[i].Len()
	}
	return 0
}

// block returns G₍ᵢⱼ₎ as stored, transposing below the diagonal.
func (h *Hessian) block(i, j int) mat.Matrix {
	if i <= j {
		return h.blocks[i][j-i]
	}
	return h.blocks[j][i-j].T()
}

// Error implements Gaussian as ½ xᵀGx − gᵀx + f.
func (h *Hessian) Error(x Values) float64 {
	e := h.f
	for i, k := range h.keys {
		xi, ok := x[k]
		if !ok {
			continue
		}
		e -= mat.Dot(h.lin[i], xi)
		for j := i; j < len(h.keys); j++ {
			xj, ok := x[h.keys[j]]
			if !ok {
				continue
			}
			var t mat.VecDense
			t.MulVec(h.block(i, j), xj)
			q := mat.Dot(xi, &t)
			if i == j {
				e += 0.5 * q
			} else {
				e += q
			}
		}
	}
	return e
}

// Gradient implements Gaussian as Σⱼ G₍ᵢⱼ₎xⱼ − gᵢ.
func (h *Hessian) Gradient(k Key, x Values) *mat.VecDense {
	i, ok := h.pos[k]
	if !ok {
		return nil
	}
	g := mat.NewVecDense(h.lin[i].Len(), nil)
	for j, kj := range h.keys {
		if xj, ok := x[kj]; ok {
			var t mat.VecDense
			t.MulVec(h.block(i, j), xj)
			g.AddVec(g, &t)
		}
	}
	g.SubVec(g, h.lin[i])
	return g
}

func (h *Hessian) hard() bool { return false }
func (h *Hessian) rows() int  { return 0 }

func (h *Hessian) addTerms(sys *kkt) {
	for i, ki := range h.keys {
		for j := i; j < len(h.keys); j++ {
			kj := h.keys[j]
			b := h.blocks[i][j-i]
			sys.addInfoBlock(ki, kj, b)
			if i != j {
				var bt mat.Dense
				bt.CloneFrom(b.T())
				sys.addInfoBlock(kj, ki, &bt)
			}
		}
		sys.addGradBlock(ki, h.lin[i])
	}
}
