// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"math"

	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gocouple/comm"
)

// SingularWarning is returned by Aitken.PerformPostProcessing (and, later,
// quasi-Newton variants) when the acceleration matrix/denominator is
// singular. This is a non-fatal warning: the variant has
// already fallen back to plain relaxation for this iteration, and the
// caller should log and continue rather than unwind.
type SingularWarning struct{ Msg string }

func (e *SingularWarning) Error() string { return "SingularAcceleration: " + e.Msg }

// Aitken implements the dynamic-relaxation rule: on iteration 0 of a
// timestep, omega_0 = sign(omegaPrev) * min(Initial, |omegaPrev|);
// thereafter omega_k = -omega_{k-1} * <r_{k-1}, Δr> / <Δr, Δr>.
type Aitken struct {
	Initial                  float64
	DataIDs                  []int
	EnforceInitialRelaxation bool // if true, every timestep's first iteration reuses Initial verbatim rather than carrying omegaPrev across timesteps (original_source supplement)
	Group                    *comm.Group

	omegaPrev  float64
	iteration  int
	rPrev      []float64
	designSpec []float64
}

// NewAitken validates 0 < initial <= 1 .
func NewAitken(initial float64, dataIDs []int) (*Aitken, error) {
	if initial <= 0 || initial > 1 {
		return nil, chk.Err("Aitken: initial must satisfy 0 < initial <= 1, got %g", initial)
	}
	return &Aitken{Initial: initial, DataIDs: dataIDs, omegaPrev: initial}, nil
}

func (o *Aitken) GetDataIDs() []int { return o.DataIDs }

func (o *Aitken) Initialize(data DataMap) error {
	n, err := concatLen(data, o.DataIDs)
	if err != nil {
		return err
	}
	o.designSpec = make([]float64, n)
	o.iteration = 0
	o.rPrev = nil
	return nil
}

func (o *Aitken) PerformPostProcessing(data DataMap) error {
	r, err := concatResiduals(data, o.DataIDs)
	if err != nil {
		return err
	}

	var omega float64
	var singular *SingularWarning

	if o.iteration == 0 {
		if o.EnforceInitialRelaxation {
			omega = o.Initial
		} else {
			omega = math.Copysign(1, o.omegaPrev) * math.Min(o.Initial, math.Abs(o.omegaPrev))
		}
	} else {
		deltaR := make([]float64, len(r))
		for i := range deltaR {
			deltaR[i] = r[i] - o.rPrev[i]
		}
		num, err := distributedDot(o.Group, o.rPrev, deltaR)
		if err != nil {
			return err
		}
		den, err := distributedDot(o.Group, deltaR, deltaR)
		if err != nil {
			return err
		}
		if den == 0 {
			omega = o.omegaPrev
			singular = &SingularWarning{Msg: "Aitken: Δr is zero, falling back to previous relaxation factor"}
		} else {
			omega = -o.omegaPrev * num / den
		}
	}

	if err := applyRelaxation(data, o.DataIDs, omega); err != nil {
		return err
	}

	o.omegaPrev = omega
	o.rPrev = r
	o.iteration++

	if singular != nil {
		return singular
	}
	return nil
}

// applyRelaxation computes x_{k+1} = omega*x~ + (1-omega)*x_old in place
// across every configured data id, shared by Aitken, ConstantRelaxation and
// IQNILS's first-iteration and singular-matrix fallback.
func applyRelaxation(data DataMap, ids []int, omega float64) error {
	for _, id := range ids {
		d, ok := data[id]
		if !ok {
			return chk.Err("acceleration: data id %d not present", id)
		}
		xTilde := d.Field.Values()
		xOld := d.OldValues(0)
		next := make([]float64, len(xTilde))
		for i := range next {
			next[i] = omega*xTilde[i] + (1-omega)*xOld[i]
		}
		if err := d.Field.SetValues(next); err != nil {
			return err
		}
	}
	return nil
}

// OmegaPrev returns the relaxation factor carried into the next timestep's
// iteration 0 (unless EnforceInitialRelaxation discards it).
func (o *Aitken) OmegaPrev() float64 { return o.omegaPrev }

// SetOmegaPrev restores a relaxation factor, e.g. from a simulation
// checkpoint written by a previous run.
func (o *Aitken) SetOmegaPrev(omega float64) { o.omegaPrev = omega }

func (o *Aitken) IterationsConverged(data DataMap) {
	o.iteration = 0
	o.rPrev = nil
}

func (o *Aitken) SetDesignSpecification(q []float64) { o.designSpec = q }

func (o *Aitken) GetDesignSpecification(data DataMap) []float64 { return o.designSpec }
