// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package activeset

import "slices"

// WorkingSet is the subset of inequality constraints currently enforced
// as equalities, identified by their indices within the problem's
// inequality sub-graph. It has value semantics: Add and Remove return a
// new set, so states captured across iterations stay valid. Indices are
// kept sorted, which fixes the iteration order of every tie-break.
type WorkingSet struct {
	idx []int
}

// NewWorkingSet builds a working set from inequality indices.
func NewWorkingSet(indices ...int) WorkingSet {
	idx := slices.Clone(indices)
	slices.Sort(idx)
	return WorkingSet{idx: slices.Compact(idx)}
}

// Len returns the number of active inequalities.
func (w WorkingSet) Len() int { return len(w.idx) }

// Contains reports whether inequality i is active.
func (w WorkingSet) Contains(i int) bool {
	_, ok := slices.BinarySearch(w.idx, i)
	return ok
}

// Indices returns the active indices in ascending order.
func (w WorkingSet) Indices() []int { return slices.Clone(w.idx) }

// Add returns a new set with inequality i active.
func (w WorkingSet) Add(i int) WorkingSet {
	at, ok := slices.BinarySearch(w.idx, i)
	if ok {
		return w
	}
	return WorkingSet{idx: slices.Insert(slices.Clone(w.idx), at, i)}
}

// Remove returns a new set with inequality i inactive.
func (w WorkingSet) Remove(i int) WorkingSet {
	at, ok := slices.BinarySearch(w.idx, i)
	if !ok {
		return w
	}
	return WorkingSet{idx: slices.Delete(slices.Clone(w.idx), at, at+1)}
}

// Equal reports whether both sets hold the same indices.
func (w WorkingSet) Equal(o WorkingSet) bool {
	return slices.Equal(w.idx, o.idx)
}
