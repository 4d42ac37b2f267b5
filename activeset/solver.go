// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"fmt"

	"github.com/curioloop/quadprog/linear"
)

// State is one snapshot of the solve. Iterate consumes a state and
// produces a new one without mutating its input, so callers may keep a
// full history for inspection or rollback.
type State struct {
	Values     linear.Values // primal solution
	Duals      linear.Values // multipliers, keyed by dual keys
	Working    WorkingSet    // active inequality constraints
	Converged  bool
	Iterations int
}

// Result contains the final result of a solve.
type Result struct {
	OK     bool          // whether the KKT conditions were met
	Values linear.Values // final primal solution
	Duals  linear.Values // final dual solution
	Summary
}

// Summary contains a summary of the solve.
type Summary struct {
	Status  Status // final status
	NumIter int    // number of iterations performed
	Active  []int  // final working set, ascending
}

// InitialState validates the caller-supplied start and seeds the first
// state. The initial values must assign every problem key its exact
// dimension and satisfy every constraint; an infeasible start returns
// *InfeasibleError before any iteration runs.
func (s *Solver) InitialState(initial, duals linear.Values, warmStart bool) (State, error) {
	for k, d := range s.dims {
		if initial.Dim(k) != d {
			return State{}, fmt.Errorf("activeset: initial values for key %d must have dimension %d", k, d)
		}
	}
	if len(initial) != len(s.dims) {
		for _, k := range initial.Keys() {
			if _, ok := s.dims[k]; !ok {
				return State{}, fmt.Errorf("activeset: initial values carry unknown key %d", k)
			}
		}
	}
	for i, c := range s.eqs {
		if v := c.Violation(initial); v > s.stop.ActiveTolerance {
			return State{}, &InfeasibleError{Equality: true, Index: i, Violation: v}
		}
	}
	working, err := s.identifyActiveConstraints(initial, duals, warmStart)
	if err != nil {
		return State{}, err
	}
	return State{
		Values:  initial.Clone(),
		Duals:   duals.Clone(),
		Working: working,
	}, nil
}

// Iterate performs one active-set step. Calling it on a converged state
// returns the state unchanged. The error cases are a singular working-set
// system and a degenerate dual system, both propagated from the solve.
func (s *Solver) Iterate(state State) (State, error) {

	if state.Converged {
		return state, nil
	}

	solution, err := s.solveWithWorkingSet(state.Working)
	if err != nil {
		return state, err
	}
	p := solution.Sub(state.Values)

	next := State{Iterations: state.Iterations + 1}

	alpha, entering := s.computeStepSize(state.Working, state.Values, p)
	if alpha < one {
		// Partial step up to the blocking constraint, which enters the
		// working set. The duals are stale here: multipliers are only
		// meaningful at a vertex of the working set, so they carry over
		// untouched until the next full step.
		next.Values = state.Values.Axpy(alpha, p)
		next.Duals = state.Duals
		next.Working = state.Working.Add(entering)
		if s.logger.enable(LogIter) {
			s.logger.log("iter %4d  alpha=%.6e  enter=%d  active=%d\n",
				next.Iterations, alpha, entering, next.Working.Len())
		}
		return next, nil
	}

	// Full step: land on the subproblem solution, recover the
	// multipliers there and test the KKT sign condition.
	dualGraph, err := s.buildDualGraph(state.Working, solution)
	if err != nil {
		return state, err
	}
	duals, err := dualGraph.Solve()
	if err != nil {
		return state, fmt.Errorf("activeset: dual solve: %w", err)
	}
	next.Values = solution
	next.Duals = duals

	if leaving := s.identifyLeavingConstraint(state.Working, duals); leaving >= 0 {
		next.Working = state.Working.Remove(leaving)
		if s.logger.enable(LogIter) {
			s.logger.log("iter %4d  alpha=%.6e  leave=%d  active=%d\n",
				next.Iterations, alpha, leaving, next.Working.Len())
		}
		return next, nil
	}

	next.Working = state.Working
	next.Converged = true
	if s.logger.enable(LogIter) {
		s.logger.log("iter %4d  alpha=%.6e  converged  active=%d\n",
			next.Iterations, alpha, next.Working.Len())
	}
	return next, nil
}

// Optimize runs the active-set iteration from a feasible initial point
// until the KKT conditions hold or the iteration cap is reached. Hitting
// the cap is not an error: the result carries the best-so-far solution
// with OK unset so the caller can decide whether to accept it.
func (s *Solver) Optimize(initial linear.Values) (*Result, error) {
	return s.optimize(initial, nil, false)
}

// WarmStart behaves like Optimize but seeds the initial working set from
// a previous solve's dual solution, which typically saves iterations on
// a small perturbation of the same problem.
func (s *Solver) WarmStart(initial, duals linear.Values) (*Result, error) {
	return s.optimize(initial, duals, true)
}

func (s *Solver) optimize(initial, duals linear.Values, warmStart bool) (*Result, error) {
	state, err := s.InitialState(initial, duals, warmStart)
	if err != nil {
		return nil, err
	}
	for !state.Converged {
		if state.Iterations >= s.stop.MaxIterations {
			if s.logger.enable(LogLast) {
				s.logger.log("no convergence within %d iterations\n", state.Iterations)
			}
			return result(state, ExceedMaxIter), nil
		}
		if state, err = s.Iterate(state); err != nil {
			return nil, err
		}
	}
	if s.logger.enable(LogLast) {
		s.logger.log("converged after %d iterations, %d active\n",
			state.Iterations, state.Working.Len())
	}
	return result(state, Converged), nil
}

func result(state State, status Status) *Result {
	return &Result{
		OK:     status == Converged,
		Values: state.Values,
		Duals:  state.Duals,
		Summary: Summary{
			Status:  status,
			NumIter: state.Iterations,
			Active:  state.Working.Indices(),
		},
	}
}
