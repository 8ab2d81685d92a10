// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

// IdAllocator assigns mesh and data-field ids. Spec §9 calls for this to be
// an explicit service passed in rather than a hidden package-level counter,
// so tests can reset it between runs the way gofem's global mutable state
// (Global.Domains etc.) is rebuilt fresh per test via NewFEM.
type IdAllocator struct {
	next int
}

// NewIdAllocator returns an allocator starting at 0.
func NewIdAllocator() *IdAllocator { return &IdAllocator{} }

// Next returns the next id and advances the counter.
func (o *IdAllocator) Next() int {
	id := o.next
	o.next++
	return id
}

// Reset returns the allocator to its initial state.
func (o *IdAllocator) Reset() { o.next = 0 }
