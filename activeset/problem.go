// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import (
	"errors"
	"fmt"
	"slices"

	"github.com/curioloop/quadprog/linear"
)

// Problem specifies the QP for the active-set solver. The three
// sub-graphs are immutable once the solver is constructed: only the
// working set varies across iterations.
type Problem struct {
	Cost         []linear.Gaussian // quadratic cost factors
	Equalities   []*Equality       // linear equality constraints
	Inequalities []*Inequality     // linear inequality constraints
	Stop         Termination       // tolerances and iteration cap
}

// Solver holds the read-only problem data shared by every iteration.
// Independent solves may run concurrently on separate Solver instances;
// a single instance is safe for concurrent use since Iterate and
// Optimize never mutate it.
type Solver struct {
	cost   linear.Graph
	eqs    []*Equality
	ineqs  []*Inequality
	stop   Termination
	logger Logger

	// base holds cost factors plus equality constraints; active
	// inequalities are appended to it on every working-set solve.
	base linear.Graph
	// per-sub-graph indices used to assemble dual factors.
	costIndex linear.VariableIndex
	eqIndex   linear.VariableIndex
	ineqIndex linear.VariableIndex
	// union of keys touched by any constraint, ascending. Keys touched
	// by no constraint have a trivial stationarity condition enforced
	// by the primal solve and stay out of the dual system.
	constrainedKeys []linear.Key
	// dims fixes the dimension of every primal key, used to vet
	// caller-supplied initial values once at entry.
	dims map[linear.Key]int
}

// New creates a solver for the given problem. All contract violations
// (empty cost, inconsistent key dimensions, duplicate dual keys) are
// reported here rather than deep inside the iteration loop.
// A nil logger disables output.
func (p *Problem) New(logger *Logger) (solver *Solver, err error) {

	if logger == nil {
		logger = &Logger{Level: LogNoop}
	}

	stop := p.Stop
	if stop.ActiveTolerance == zero {
		stop.ActiveTolerance = 1e-7
	}
	if stop.DualTolerance == zero {
		stop.DualTolerance = 1e-7
	}
	if stop.MaxIterations == 0 {
		stop.MaxIterations = 100
	}

	switch {
	case len(p.Cost) == 0:
		err = errors.New("activeset: cost graph is required")
	case stop.ActiveTolerance < zero:
		err = errors.New("activeset: active tolerance must not be negative")
	case stop.DualTolerance < zero:
		err = errors.New("activeset: dual tolerance must not be negative")
	case stop.MaxIterations < 0:
		err = errors.New("activeset: max iterations must not be negative")
	}
	for i, f := range p.Cost {
		if f == nil {
			err = fmt.Errorf("activeset: cost factor error at %d", i)
			break
		}
	}
	for i, c := range p.Equalities {
		if c == nil {
			err = fmt.Errorf("activeset: equality constraint error at %d", i)
			break
		}
	}
	for i, c := range p.Inequalities {
		if c == nil {
			err = fmt.Errorf("activeset: inequality constraint error at %d", i)
			break
		}
	}
	if err != nil {
		return
	}

	solver = &Solver{
		cost:   slices.Clone(p.Cost),
		eqs:    slices.Clone(p.Equalities),
		ineqs:  slices.Clone(p.Inequalities),
		stop:   stop,
		logger: *logger,
	}

	eqGraph := make(linear.Graph, 0, len(solver.eqs))
	for _, c := range solver.eqs {
		eqGraph = append(eqGraph, c.factor())
	}
	ineqGraph := make(linear.Graph, 0, len(solver.ineqs))
	for _, c := range solver.ineqs {
		ineqGraph = append(ineqGraph, c.factor())
	}

	solver.base = append(append(linear.Graph{}, solver.cost...), eqGraph...)
	solver.costIndex = linear.NewVariableIndex(solver.cost)
	solver.eqIndex = linear.NewVariableIndex(eqGraph)
	solver.ineqIndex = linear.NewVariableIndex(ineqGraph)

	whole := append(append(linear.Graph{}, solver.base...), ineqGraph...)
	if solver.dims, err = keyDims(whole); err != nil {
		solver = nil
		return
	}

	seen := map[linear.Key]struct{}{}
	for _, k := range whole.Keys() {
		seen[k] = struct{}{}
	}
	constrained := map[linear.Key]struct{}{}
	checkDual := func(dual linear.Key, keys []linear.Key) error {
		if _, clash := seen[dual]; clash {
			return fmt.Errorf("activeset: dual key %d already in use", dual)
		}
		seen[dual] = struct{}{}
		for _, k := range keys {
			constrained[k] = struct{}{}
		}
		return nil
	}
	for _, c := range solver.eqs {
		if err = checkDual(c.DualKey(), c.Keys()); err != nil {
			solver = nil
			return
		}
	}
	for _, c := range solver.ineqs {
		if err = checkDual(c.DualKey(), c.Keys()); err != nil {
			solver = nil
			return
		}
	}

	solver.constrainedKeys = make([]linear.Key, 0, len(constrained))
	for k := range constrained {
		solver.constrainedKeys = append(solver.constrainedKeys, k)
	}
	slices.Sort(solver.constrainedKeys)

	return
}

// keyDims collects the dimension of every key in g, failing on the first
// inconsistency between factors.
func keyDims(g linear.Graph) (map[linear.Key]int, error) {
	dims := map[linear.Key]int{}
	for _, f := range g {
		for _, k := range f.Keys() {
			d := f.Dim(k)
			if d <= 0 {
				return nil, fmt.Errorf("activeset: key %d has no dimension", k)
			}
			if prev, ok := dims[k]; ok && prev != d {
				return nil, fmt.Errorf("activeset: key %d dimension mismatch: %d vs %d", k, prev, d)
			}
			dims[k] = d
		}
	}
	return dims, nil
}
