// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package acceleration implements the post-processing / fixed-point
// acceleration layer and the convergence measures coupling schemes use to
// decide whether an implicit iteration has converged. The dispatch style
// is a small closed set of variants behind one interface, selected by a
// config string.
package acceleration

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/gocouple/comm"
	"github.com/cpmech/gocouple/couplingdata"
)

// DataMap is the set of CouplingData a post-processing variant operates on,
// keyed by data id, matching its "dataMap" parameter.
type DataMap map[int]*couplingdata.Data

// PostProcessing is the fixed-point acceleration contract every variant
// implements: constant relaxation, Aitken, IQN-ILS, IQN-IMVJ,
// Manifold Mapping.
type PostProcessing interface {
	// Initialize inspects dimensions, allocates the residual buffer, and
	// sets the design specification to a zero vector sized as the
	// concatenation of every data vector it processes.
	Initialize(data DataMap) error

	// PerformPostProcessing computes x_{k+1} in place inside the data
	// buffers of the ids returned by GetDataIDs, given current raw values
	// and oldValues.col(0). Must never touch data not in GetDataIDs.
	PerformPostProcessing(data DataMap) error

	// IterationsConverged resets iteration counters and buffers for the
	// next timestep; called by the owning scheme when it declares
	// convergence.
	IterationsConverged(data DataMap)

	// GetDataIDs returns the data ids this variant is configured to process.
	GetDataIDs() []int

	// SetDesignSpecification stores the target residual q. The coupling
	// schemes' convergence check does not read it: the measures compute
	// ||r||, not ||r - q||.
	SetDesignSpecification(q []float64)

	// GetDesignSpecification returns the current target residual,
	// concatenated in the same order as GetDataIDs.
	GetDesignSpecification(data DataMap) []float64
}

// concatLen returns the total length of the concatenation of the current
// values of every data id in ids, in order.
func concatLen(data DataMap, ids []int) (int, error) {
	n := 0
	for _, id := range ids {
		d, ok := data[id]
		if !ok {
			return 0, chk.Err("post-processing: data id %d not present in dataMap", id)
		}
		n += len(d.Field.Values())
	}
	return n, nil
}

// concatResiduals builds the concatenated raw residual r = x~ - x_old across
// every configured data id, in order.
func concatResiduals(data DataMap, ids []int) ([]float64, error) {
	var out []float64
	for _, id := range ids {
		d, ok := data[id]
		if !ok {
			return nil, chk.Err("post-processing: data id %d not present in dataMap", id)
		}
		r, err := d.Residual()
		if err != nil {
			return nil, err
		}
		out = append(out, r...)
	}
	return out, nil
}

// distributedDot is the §4.1 distributed inner product, shared by every
// acceleration variant that needs it (Aitken's omega update, QN variants).
func distributedDot(g *comm.Group, u, v []float64) (float64, error) {
	if g == nil {
		g = &comm.Group{}
	}
	return g.Dot(u, v)
}
