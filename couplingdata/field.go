// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package couplingdata implements the data field and coupling-data store:
// per-exchange buffers of current, previous-iteration and old-timestep
// values, allocated and indexed per vertex.
package couplingdata

import (
	"github.com/cpmech/gosl/chk"
)

// Field is a named, typed attribute defined at every vertex of one mesh.
type Field struct {
	Name     string
	Id       int
	ValueDim int // 1 (scalar) or mesh dimensionality (vector)

	values []float64 // length localVertexCount * ValueDim
}

// NewField builds a field with an empty value vector; call AllocateDataValues
// to size it for a mesh's local vertex count.
func NewField(name string, id, valueDim int) (*Field, error) {
	if valueDim < 1 {
		return nil, chk.Err("field %q: ValueDim must be >= 1, got %d", name, valueDim)
	}
	return &Field{Name: name, Id: id, ValueDim: valueDim}, nil
}

// AllocateDataValues (re-)allocates the current value vector to
// localVertexCount*ValueDim, zeroed, per its invariant.
func (o *Field) AllocateDataValues(localVertexCount int) {
	o.values = make([]float64, localVertexCount*o.ValueDim)
}

// Values returns the current value vector (length is always a multiple of ValueDim).
func (o *Field) Values() []float64 { return o.values }

// SetValues overwrites the current value vector; len(v) must equal len(o.values).
func (o *Field) SetValues(v []float64) error {
	if len(v) != len(o.values) {
		return chk.Err("field %q: SetValues size mismatch: got %d want %d", o.Name, len(v), len(o.values))
	}
	copy(o.values, v)
	return nil
}

// CopyValuesInto copies the current value vector into dst (len(dst) must match).
func (o *Field) CopyValuesInto(dst []float64) error {
	if len(dst) != len(o.values) {
		return chk.Err("field %q: CopyValuesInto size mismatch: got %d want %d", o.Name, len(dst), len(o.values))
	}
	copy(dst, o.values)
	return nil
}
