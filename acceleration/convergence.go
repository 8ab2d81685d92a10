// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/gocouple/comm"
)

// ConvergenceMeasure is the contract every measure implements. A coupling
// scheme holds an ordered set of these and converges iff every one reports
// IsConvergence() (AND, not OR).
type ConvergenceMeasure interface {
	// NewMeasurementSeries resets the measure at the start of a timestep.
	NewMeasurementSeries(oldValues []float64)

	// Measure records one iteration's (oldValues, newValues) pair.
	Measure(oldValues, newValues []float64) error

	// IsConvergence reports the last Measure call's verdict.
	IsConvergence() bool
}

func l2norm(g *comm.Group, v []float64) (float64, error) {
	if g == nil {
		g = &comm.Group{}
	}
	return g.L2Norm(v)
}

func diff(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// AbsoluteMeasure converges when ||x - x_old|| <= Tol.
type AbsoluteMeasure struct {
	Tol     float64
	Group   *comm.Group
	lastOK  bool
}

func NewAbsoluteMeasure(tol float64) *AbsoluteMeasure { return &AbsoluteMeasure{Tol: tol} }

func (o *AbsoluteMeasure) NewMeasurementSeries(oldValues []float64) { o.lastOK = false }

func (o *AbsoluteMeasure) Measure(oldValues, newValues []float64) error {
	n, err := l2norm(o.Group, diff(newValues, oldValues))
	if err != nil {
		return err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return chk.Err("AbsoluteMeasure: diverged residual (NaN/Inf)")
	}
	o.lastOK = n <= o.Tol
	return nil
}

func (o *AbsoluteMeasure) IsConvergence() bool { return o.lastOK }

// RelativeMeasure converges when ||x - x_old|| <= Rel * ||x||, Rel in (0,1].
type RelativeMeasure struct {
	Rel    float64
	Group  *comm.Group
	lastOK bool
}

func NewRelativeMeasure(rel float64) (*RelativeMeasure, error) {
	if rel <= 0 || rel > 1 {
		return nil, chk.Err("RelativeMeasure: rel must satisfy 0 < rel <= 1, got %g", rel)
	}
	return &RelativeMeasure{Rel: rel}, nil
}

func (o *RelativeMeasure) NewMeasurementSeries(oldValues []float64) { o.lastOK = false }

func (o *RelativeMeasure) Measure(oldValues, newValues []float64) error {
	num, err := l2norm(o.Group, diff(newValues, oldValues))
	if err != nil {
		return err
	}
	den, err := l2norm(o.Group, newValues)
	if err != nil {
		return err
	}
	if math.IsNaN(num) || math.IsInf(num, 0) {
		return chk.Err("RelativeMeasure: diverged residual (NaN/Inf)")
	}
	o.lastOK = num <= o.Rel*den
	return nil
}

func (o *RelativeMeasure) IsConvergence() bool { return o.lastOK }

// ResidualRelativeMeasure converges when the current residual norm has
// shrunk to Rel times the residual norm recorded at the first iteration of
// the current timestep.
type ResidualRelativeMeasure struct {
	Rel      float64
	Group    *comm.Group
	first    float64
	hasFirst bool
	lastOK   bool
}

func NewResidualRelativeMeasure(rel float64) (*ResidualRelativeMeasure, error) {
	if rel <= 0 || rel > 1 {
		return nil, chk.Err("ResidualRelativeMeasure: rel must satisfy 0 < rel <= 1, got %g", rel)
	}
	return &ResidualRelativeMeasure{Rel: rel}, nil
}

func (o *ResidualRelativeMeasure) NewMeasurementSeries(oldValues []float64) {
	o.hasFirst = false
	o.lastOK = false
}

func (o *ResidualRelativeMeasure) Measure(oldValues, newValues []float64) error {
	n, err := l2norm(o.Group, diff(newValues, oldValues))
	if err != nil {
		return err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return chk.Err("ResidualRelativeMeasure: diverged residual (NaN/Inf)")
	}
	if !o.hasFirst {
		o.first = n
		o.hasFirst = true
	}
	if o.first == 0 {
		o.lastOK = n == 0
		return nil
	}
	o.lastOK = n <= o.Rel*o.first
	return nil
}

func (o *ResidualRelativeMeasure) IsConvergence() bool { return o.lastOK }

// WRMSMeasure implements the weighted convergence measure via
// gosl/la.VecRmsErr, the same weighted-RMS-error norm gofem's implicit
// solver uses to judge a Newton iteration converged (fem/s_implicit.go):
// per-component weights w_i = 1/(|x_old,i|*Rel + Abs), converged when the
// weighted 2-norm of the residual (the RMS scaled by sqrt(n)) is <= 1.
type WRMSMeasure struct {
	Rel, Abs float64
	lastOK   bool
}

func NewWRMSMeasure(rel, abs float64) *WRMSMeasure { return &WRMSMeasure{Rel: rel, Abs: abs} }

func (o *WRMSMeasure) NewMeasurementSeries(oldValues []float64) { o.lastOK = false }

func (o *WRMSMeasure) Measure(oldValues, newValues []float64) error {
	n := la.VecRmsErr(diff(newValues, oldValues), o.Abs, o.Rel, oldValues) * math.Sqrt(float64(len(newValues)))
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return chk.Err("WRMSMeasure: diverged residual (NaN/Inf)")
	}
	o.lastOK = n <= 1.0
	return nil
}

func (o *WRMSMeasure) IsConvergence() bool { return o.lastOK }

// AllConverged is the §8 "Convergence aggregation" AND over every measure.
func AllConverged(measures []ConvergenceMeasure) bool {
	for _, m := range measures {
		if !m.IsConvergence() {
			return false
		}
	}
	return true
}
