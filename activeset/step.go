// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"fmt"
	"math"

	"github.com/curioloop/quadprog/linear"
)

// solveWithWorkingSet treats every active inequality as an equality,
// merges them with the base graph (cost plus original equalities) and
// solves the resulting system. A singular solve signals a degenerate
// working set and is propagated.
func (s *Solver) solveWithWorkingSet(working WorkingSet) (linear.Values, error) {
	graph := append(linear.Graph{}, s.base...)
	for _, i := range working.Indices() {
		graph = append(graph, s.ineqs[i].factor())
	}
	sol, err := graph.Solve()
	if err != nil {
		return nil, fmt.Errorf("activeset: working set solve: %w", err)
	}
	return sol, nil
}

// computeStepSize returns the largest α ∈ [0,1] keeping xk + α·p feasible
// for every inactive inequality, together with the index of the first
// constraint attaining the minimum, or (1, −1) when no inactive
// constraint binds before the full step. A constraint binds only when
// its directional derivative a·p is positive (the step moves toward its
// infeasible side). Ties resolve to the lowest constraint index.
func (s *Solver) computeStepSize(working WorkingSet, xk, p linear.Values) (float64, int) {
	alpha, index := one, -1
	for i, c := range s.ineqs {
		if working.Contains(i) {
			continue
		}
		dp := c.dot(p)
		if dp <= zero {
			continue
		}
		// Boundary crossing: c(xk) + α·(a·p) = 0.
		a := -c.Value(xk) / dp
		if a < zero {
			a = zero
		}
		if a < alpha {
			alpha, index = a, i
		}
	}
	return alpha, index
}

// identifyLeavingConstraint returns the index of the active inequality
// with the most positive multiplier, the worst violator of the KKT sign
// condition (active inequalities of a ≤ 0 problem need λ ≤ 0), or −1
// when every active multiplier is non-positive within the dual
// tolerance. Equalities never leave. Ties resolve to the lowest index.
func (s *Solver) identifyLeavingConstraint(working WorkingSet, lambdas linear.Values) int {
	leaving, worst := -1, s.stop.DualTolerance
	for _, i := range working.Indices() {
		lam, ok := lambdas[s.ineqs[i].DualKey()]
		if !ok {
			continue
		}
		if l := lam.AtVec(0); l > worst {
			leaving, worst = i, l
		}
	}
	return leaving
}

// identifyActiveConstraints derives the initial working set from the
// initial point and rejects infeasible starts. A constraint is on its
// boundary when |c(x₀)| is within the active tolerance. With warm start
// and a non-empty dual solution, a constraint is activated only when its
// previous multiplier exists and the boundary test still holds;
// otherwise activation falls back to the plain boundary test.
func (s *Solver) identifyActiveConstraints(initial, duals linear.Values, warmStart bool) (WorkingSet, error) {
	warm := warmStart && len(duals) > 0
	var active []int
	for i, c := range s.ineqs {
		v := c.Value(initial)
		if v > s.stop.ActiveTolerance {
			return WorkingSet{}, &InfeasibleError{Index: i, Violation: v}
		}
		onBound := math.Abs(v) <= s.stop.ActiveTolerance
		if warm {
			if duals.Has(c.DualKey()) && onBound {
				active = append(active, i)
			}
		} else if onBound {
			active = append(active, i)
		}
	}
	return NewWorkingSet(active...), nil
}
