// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package activeset solves quadratic programs posed as keyed factor
// graphs with the active-set method.
//
// The problem has the form
//
//	minimize ½ xᵀGx − gᵀx + f₀ subject to
//	  - equality constraints: Aⱼx − bⱼ = 0
//	  - inequality constraints: aⱼ·x − bⱼ ≤ 0
//
// where the cost is a sum of Gaussian factors over named variables and
// every constraint is a linear factor over the same variables. Each
// iteration enforces the active inequalities as equalities, steps toward
// the solution of that equality-constrained subproblem, and exchanges at
// most one constraint: a blocking inactive inequality enters the working
// set, or an active one whose Lagrange multiplier has the wrong sign
// leaves it.
//
// This solver requires a feasible initial point. It contains no phase-1
// LP, so an infeasible start fails the whole solve.
package activeset

import (
	"fmt"
	"io"
)

const (
	zero = 0.0
	one  = 1.0
)

// Status reports how a solve ended.
type Status int

const (
	// Converged the KKT conditions hold at the final point.
	Converged Status = iota
	// ExceedMaxIter more than max iterations without convergence.
	ExceedMaxIter
)

// Termination specifies the tolerances and the iteration cap.
type Termination struct {
	// A constraint counts as on its boundary when |c(x)| is below this
	// tolerance; an initial value violating a constraint beyond it is
	// rejected as infeasible.
	ActiveTolerance float64
	// An active inequality leaves the working set only when its
	// multiplier exceeds this tolerance.
	DualTolerance float64
	// The solve stops when the number of iterations exceeds the limit.
	MaxIterations int
}

// LogLevel controls the frequency and type of logger output.
type LogLevel int

const (
	// LogNoop no output is generated
	LogNoop LogLevel = -1
	// LogLast print only one line when the solve ends
	LogLast LogLevel = 0
	// LogIter print one line per iteration
	LogIter LogLevel = 1
)

// Logger handles logging output for the solver.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Msg != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	_, _ = fmt.Fprintf(l.Msg, format, a...)
}

// InfeasibleError reports an initial value that violates a constraint.
// The solver does not search for a feasible point, so the caller must
// supply a better start or fail its outer iteration.
type InfeasibleError struct {
	Equality  bool    // whether an equality or an inequality is violated
	Index     int     // index of the constraint within its sub-graph
	Violation float64 // magnitude of the violation
}

func (e *InfeasibleError) Error() string {
	kind := "inequality"
	if e.Equality {
		kind = "equality"
	}
	return fmt.Sprintf("activeset: infeasible initial values: %s constraint %d violated by %g", kind, e.Index, e.Violation)
}
