// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cplscheme

import "github.com/cpmech/gosl/utl"

// History records every sub-iteration's residual norm, grouped by timestep,
// the same shape fem/summary.go keeps a nonlinear solver's per-iteration
// residuals in (Resids utl.DblSlist, appended true/false depending on
// whether the iteration starts a new stage).
type History struct {
	Resids utl.DblSlist
}

// NewHistory returns an empty History.
func NewHistory() *History { return &History{} }

// Record appends norm to the running sublist, starting a fresh one when
// firstOfTimestep is true.
func (o *History) Record(firstOfTimestep bool, norm float64) {
	o.Resids.Append(firstOfTimestep, norm)
}

// Timesteps returns the number of timesteps recorded so far.
func (o *History) Timesteps() int { return len(o.Resids) }

// Residuals returns the residual-norm sequence recorded for timestep i
// (0-based), or nil if i is out of range.
func (o *History) Residuals(i int) []float64 {
	if i < 0 || i >= len(o.Resids) {
		return nil
	}
	return o.Resids[i]
}

// LastResidual returns the most recently recorded residual norm, or 0 if
// nothing has been recorded yet.
func (o *History) LastResidual() float64 {
	if len(o.Resids) == 0 {
		return 0
	}
	last := o.Resids[len(o.Resids)-1]
	if len(last) == 0 {
		return 0
	}
	return last[len(last)-1]
}
