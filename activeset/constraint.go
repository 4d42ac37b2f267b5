// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/quadprog/linear"
)

// Equality is the linear constraint Σₖ Aₖxₖ − b = 0. Its multiplier is a
// vector with one entry per row, stored in the dual solution under the
// synthetic dual key. Equalities are always active and never leave the
// working set.
type Equality struct {
	fac  *linear.Jacobian
	dual linear.Key
}

// NewEquality builds a multi-row equality constraint with its dual key.
func NewEquality(dual linear.Key, b []float64, terms ...linear.Term) (*Equality, error) {
	fac, err := linear.NewConstraint(b, terms...)
	if err != nil {
		return nil, err
	}
	return &Equality{fac: fac, dual: dual}, nil
}

// DualKey returns the key the constraint's multiplier is stored under.
func (c *Equality) DualKey() linear.Key { return c.dual }

// Keys lists the primal variables the constraint touches.
func (c *Equality) Keys() []linear.Key { return c.fac.Keys() }

// Block returns the Jacobian block for k, or nil.
func (c *Equality) Block(k linear.Key) *mat.Dense { return c.fac.Block(k) }

// Rows returns the number of constraint rows.
func (c *Equality) Rows() int { return c.fac.Rhs().Len() }

// Violation returns ‖Ax − b‖∞ at x.
func (c *Equality) Violation(x linear.Values) float64 {
	r := c.fac.Residual(x)
	v := zero
	for i := 0; i < r.Len(); i++ {
		v = math.Max(v, math.Abs(r.AtVec(i)))
	}
	return v
}

func (c *Equality) factor() *linear.Jacobian { return c.fac }

// Inequality is the scalar linear constraint a·x − b ≤ 0. Its multiplier
// is a single entry stored in the dual solution under the synthetic dual
// key. An inequality is active while it is a member of the working set.
type Inequality struct {
	fac  *linear.Jacobian
	dual linear.Key
}

// NewInequality builds a single-row inequality constraint a·x − b ≤ 0
// with its dual key. Every term must have exactly one row.
func NewInequality(dual linear.Key, b float64, terms ...linear.Term) (*Inequality, error) {
	fac, err := linear.NewConstraint([]float64{b}, terms...)
	if err != nil {
		return nil, err
	}
	for _, k := range fac.Keys() {
		if r, _ := fac.Block(k).Dims(); r != 1 {
			return nil, errors.New("activeset: inequality constraint must have a single row")
		}
	}
	return &Inequality{fac: fac, dual: dual}, nil
}

// DualKey returns the key the constraint's multiplier is stored under.
func (c *Inequality) DualKey() linear.Key { return c.dual }

// Keys lists the primal variables the constraint touches.
func (c *Inequality) Keys() []linear.Key { return c.fac.Keys() }

// Block returns the Jacobian block for k, or nil.
func (c *Inequality) Block(k linear.Key) *mat.Dense { return c.fac.Block(k) }

// Value evaluates a·x − b. Feasible points yield a non-positive value.
func (c *Inequality) Value(x linear.Values) float64 {
	return c.fac.Residual(x).AtVec(0)
}

// dot evaluates the directional derivative a·p of the constraint along p.
func (c *Inequality) dot(p linear.Values) float64 {
	return c.fac.Apply(p).AtVec(0)
}

func (c *Inequality) factor() *linear.Jacobian { return c.fac }
