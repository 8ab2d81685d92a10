// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/gocouple/comm"
)

// IQNILS implements the "Interface Quasi-Newton with Inverse Jacobian from
// Least-Squares" post-processing variant: it keeps column matrices V (residual
// differences) and W (differences of the raw outputs x~) across iterations and solves a
// small least-squares system to build a better update than Aitken's scalar
// omega.
type IQNILS struct {
	DataIDs []int
	MaxCols int // bound on how many V/W columns to retain (filter, not silent drop — see Dropped)
	Group   *comm.Group

	V, W       [][]float64 // columns, most recent last
	rPrev      []float64
	xTildePrev []float64
	designSpec []float64

	Dropped int // columns discarded because MaxCols was exceeded
}

// NewIQNILS validates maxCols > 0.
func NewIQNILS(dataIDs []int, maxCols int) (*IQNILS, error) {
	if maxCols <= 0 {
		return nil, chk.Err("IQNILS: MaxCols must be > 0, got %d", maxCols)
	}
	return &IQNILS{DataIDs: dataIDs, MaxCols: maxCols}, nil
}

func (o *IQNILS) GetDataIDs() []int { return o.DataIDs }

func (o *IQNILS) Initialize(data DataMap) error {
	n, err := concatLen(data, o.DataIDs)
	if err != nil {
		return err
	}
	o.designSpec = make([]float64, n)
	o.V, o.W = nil, nil
	o.rPrev, o.xTildePrev = nil, nil
	return nil
}

func (o *IQNILS) PerformPostProcessing(data DataMap) error {
	r, err := concatResiduals(data, o.DataIDs)
	if err != nil {
		return err
	}
	xTilde, err := concatCurrent(data, o.DataIDs)
	if err != nil {
		return err
	}

	if o.rPrev == nil {
		// first iteration of the run/timestep: no history yet, fall back to
		// identity relaxation (equivalent to omega=1 constant relaxation).
		if err := applyRelaxation(data, o.DataIDs, 1.0); err != nil {
			return err
		}
		o.rPrev, o.xTildePrev = r, xTilde
		return nil
	}

	deltaR := subtract(r, o.rPrev)
	deltaX := subtract(xTilde, o.xTildePrev)
	o.appendColumn(deltaR, deltaX)

	alphas, singular, err := leastSquaresCoeffs(o.Group, o.V, r)
	if err != nil {
		return err
	}
	if singular {
		if err := applyRelaxation(data, o.DataIDs, 1.0); err != nil {
			return err
		}
		o.rPrev, o.xTildePrev = r, xTilde
		return &SingularWarning{Msg: "IQN-ILS: least-squares matrix singular, fell back to plain relaxation"}
	}

	next := make([]float64, len(r))
	for i := range next {
		next[i] = xTilde[i] + r[i]
	}
	for k, a := range alphas {
		for i := range next {
			next[i] -= a * (o.V[k][i] + o.W[k][i])
		}
	}
	if err := setConcat(data, o.DataIDs, next); err != nil {
		return err
	}

	o.rPrev, o.xTildePrev = r, xTilde
	return nil
}

func (o *IQNILS) appendColumn(deltaR, deltaX []float64) {
	o.V = append(o.V, deltaR)
	o.W = append(o.W, deltaX)
	if len(o.V) > o.MaxCols {
		drop := len(o.V) - o.MaxCols
		o.V = o.V[drop:]
		o.W = o.W[drop:]
		o.Dropped += drop
	}
}

func (o *IQNILS) IterationsConverged(data DataMap) {
	o.V, o.W = nil, nil
	o.rPrev, o.xTildePrev = nil, nil
}

func (o *IQNILS) SetDesignSpecification(q []float64) { o.designSpec = q }

func (o *IQNILS) GetDesignSpecification(data DataMap) []float64 { return o.designSpec }

// minDet is the singularity threshold passed to la.MatInv, the same role
// gofem's shp/algos.go gives it when inverting a small Jacobian: below this
// determinant the inverse is considered unusable rather than merely
// ill-conditioned.
const minDet = 1e-13

// leastSquaresCoeffs solves the small normal-equations system
// (VtV) alpha = Vt*r for the column coefficients, inverting VtV with
// gosl/la the way gofem's shp/algos.go inverts small Jacobians (la.MatInv),
// not a BLAS routine sized for a big FE system. Returns singular=true (and
// alpha=0) if VtV is singular to minDet, in which case the caller falls back
// to plain relaxation (omega=1) for that iteration.
func leastSquaresCoeffs(g *comm.Group, V [][]float64, r []float64) (alpha []float64, singular bool, err error) {
	k := len(V)
	alpha = make([]float64, k)
	if k == 0 {
		return alpha, false, nil
	}
	VtV := la.MatAlloc(k, k)
	Vtr := make([]float64, k)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			VtV[i][j], err = distributedDot(g, V[i], V[j])
			if err != nil {
				return nil, false, err
			}
		}
		Vtr[i], err = distributedDot(g, V[i], r)
		if err != nil {
			return nil, false, err
		}
	}
	VtVInv := la.MatAlloc(k, k)
	if _, err := la.MatInv(VtVInv, VtV, minDet); err != nil {
		return make([]float64, k), true, nil
	}
	la.MatVecMul(alpha, 1, VtVInv, Vtr)
	return alpha, false, nil
}

func subtract(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

func concatCurrent(data DataMap, ids []int) ([]float64, error) {
	var out []float64
	for _, id := range ids {
		d, ok := data[id]
		if !ok {
			return nil, chk.Err("acceleration: data id %d not present", id)
		}
		out = append(out, d.Field.Values()...)
	}
	return out, nil
}

func setConcat(data DataMap, ids []int, values []float64) error {
	off := 0
	for _, id := range ids {
		d, ok := data[id]
		if !ok {
			return chk.Err("acceleration: data id %d not present", id)
		}
		n := len(d.Field.Values())
		if err := d.Field.SetValues(values[off : off+n]); err != nil {
			return err
		}
		off += n
	}
	return nil
}
