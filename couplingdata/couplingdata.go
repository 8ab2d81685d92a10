// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package couplingdata

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// Data wraps one Field used by a coupling scheme: a pointer to current
// values, a matrix of old values whose first column is the last converged
// state and whose additional columns are earlier quasi-Newton iterates
//.
type Data struct {
	Field       *Field
	oldValues   [][]float64 // oldValues[col][i]; column 0 == last converged
	initialized bool
}

// NewData wraps field; the first "old" column is not allocated until
// InitializeData.
func NewData(field *Field) *Data {
	return &Data{Field: field}
}

// InitializeData lazily allocates a first all-zero old-values column if none
// exists yet.
func (o *Data) InitializeData() {
	if len(o.oldValues) == 0 {
		o.oldValues = [][]float64{make([]float64, len(o.Field.Values()))}
	}
	o.initialized = true
}

// Initialized reports whether InitializeData has run.
func (o *Data) Initialized() bool { return o.initialized }

// StoreIteration copies the current values into oldValues column 0, the
// baseline the next sub-iteration's residual and relaxation are measured
// against. Called by the scheme after every sub-iteration, not only on
// convergence.
func (o *Data) StoreIteration() error {
	o.InitializeData()
	if len(o.oldValues[0]) != len(o.Field.Values()) {
		return chk.Err("field %q: StoreIteration size mismatch", o.Field.Name)
	}
	copy(o.oldValues[0], o.Field.Values())
	return nil
}

// AppendHistoryColumn appends a new column holding a copy of the current
// values, for quasi-Newton history.
func (o *Data) AppendHistoryColumn() {
	col := make([]float64, len(o.Field.Values()))
	copy(col, o.Field.Values())
	o.oldValues = append(o.oldValues, col)
}

// OldValues returns the i-th old-values column (0 == last converged).
func (o *Data) OldValues(i int) []float64 {
	if i < 0 || i >= len(o.oldValues) {
		return nil
	}
	return o.oldValues[i]
}

// HistoryLen returns the number of stored old-values columns.
func (o *Data) HistoryLen() int { return len(o.oldValues) }

// Residual returns current - oldValues[0], the raw (pre-acceleration)
// residual used by convergence measures and post-processing.
func (o *Data) Residual() ([]float64, error) {
	if len(o.oldValues) == 0 {
		return nil, chk.Err("field %q: Residual called before InitializeData", o.Field.Name)
	}
	cur := o.Field.Values()
	r := make([]float64, len(cur))
	copy(r, cur)
	la.VecAdd(r, -1, o.oldValues[0]) // r += (-1)*old  =>  r = cur - old
	return r, nil
}
