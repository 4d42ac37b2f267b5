// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/curioloop/quadprog/linear"
)

// The Lagrangian of the QP is
//
//	ℒ(x,λ) = f(x) − Σₖ λₖ·cₖ(x)
//
// with the unconstrained cost f(x) = ½ xᵀGx − gᵀx + f₀. Stationarity at
// the current solution requires, per variable xᵢ touched by at least one
// constraint,
//
//	Σₖ λₖ·∇cₖ(xᵢ) = ∇f(xᵢ)
//
// which is one linear factor over the multipliers: the block for λₖ is
// ∇cₖ(xᵢ) = Aₖᵀ and the right-hand side is the cost gradient at the
// current point, assembled from the cost factors incident to xᵢ.
// Variables touched by no constraint satisfy ∇f(xᵢ) = 0 through the
// primal solve and contribute no dual factor.

// dualConstraint is the capability a constraint needs to contribute to
// the dual system: its multiplier key and a Jacobian block per variable.
type dualConstraint interface {
	DualKey() linear.Key
	Block(k linear.Key) *mat.Dense
}

// collectDualJacobians gathers the (dual key, Aᵀ) pairs contributed by
// every active constraint touching k. Inactive constraints add no force
// to the Lagrangian gradient and are skipped.
func collectDualJacobians[C dualConstraint](k linear.Key, graph []C, index linear.VariableIndex, active func(int) bool) []linear.Term {
	var terms []linear.Term
	for _, ci := range index[k] {
		if !active(ci) {
			continue
		}
		a := graph[ci].Block(k)
		var at mat.Dense
		at.CloneFrom(a.T())
		terms = append(terms, linear.Term{Key: graph[ci].DualKey(), A: &at})
	}
	return terms
}

// costGradient assembles ∇f(xₖ) at delta from the cost factors incident
// to k. Keys absent from the cost graph have a zero gradient.
func (s *Solver) costGradient(k linear.Key, delta linear.Values) *mat.VecDense {
	g := mat.NewVecDense(s.dims[k], nil)
	for _, fi := range s.costIndex[k] {
		if gf := s.cost[fi].Gradient(k, delta); gf != nil {
			g.AddVec(g, gf)
		}
	}
	return g
}

// createDualFactor builds the stationarity equation for one constrained
// key, or nil when no active constraint touches it.
func (s *Solver) createDualFactor(k linear.Key, working WorkingSet, delta linear.Values) (*linear.Jacobian, error) {
	always := func(int) bool { return true }
	terms := collectDualJacobians(k, s.eqs, s.eqIndex, always)
	terms = append(terms, collectDualJacobians(k, s.ineqs, s.ineqIndex, working.Contains)...)
	if len(terms) == 0 {
		return nil, nil
	}
	grad := s.costGradient(k, delta)
	return linear.NewJacobian(grad.RawVector().Data, terms...)
}

// buildDualGraph assembles the sparse system over the multipliers of all
// active constraints, one factor per constrained key. It is a pure
// function of the working set and the current solution point.
func (s *Solver) buildDualGraph(working WorkingSet, delta linear.Values) (linear.Graph, error) {
	var graph linear.Graph
	for _, k := range s.constrainedKeys {
		f, err := s.createDualFactor(k, working, delta)
		if err != nil {
			return nil, err
		}
		if f != nil {
			graph = append(graph, f)
		}
	}
	return graph, nil
}
