// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

// IQNIMVJ implements "IQN with Inverse Multi-Vector Jacobian": like IQN-ILS
// it keeps V/W column histories and solves a least-squares system, but it
// does not clear the history when a timestep converges: the columns carry
// over into the next timestep. MaxCols bounds the total number of retained
// columns, carried ones included; the oldest are dropped first. Wraps IQNILS
// rather than duplicating it, since the two differ only in what survives
// IterationsConverged.
type IQNIMVJ struct {
	*IQNILS
	carriedV, carriedW [][]float64
}

// NewIQNIMVJ builds an IQN-IMVJ variant around a fresh IQNILS core.
func NewIQNIMVJ(dataIDs []int, maxCols int) (*IQNIMVJ, error) {
	core, err := NewIQNILS(dataIDs, maxCols)
	if err != nil {
		return nil, err
	}
	return &IQNIMVJ{IQNILS: core}, nil
}

func (o *IQNIMVJ) Initialize(data DataMap) error {
	if err := o.IQNILS.Initialize(data); err != nil {
		return err
	}
	o.IQNILS.V = append([][]float64{}, o.carriedV...)
	o.IQNILS.W = append([][]float64{}, o.carriedW...)
	return nil
}

// IterationsConverged carries the accumulated Jacobian columns forward into
// the next timestep instead of discarding them, which is IMVJ's defining
// difference from IQN-ILS.
func (o *IQNIMVJ) IterationsConverged(data DataMap) {
	o.carriedV = o.IQNILS.V
	o.carriedW = o.IQNILS.W
	o.IQNILS.rPrev, o.IQNILS.xTildePrev = nil, nil
}

// ManifoldMapping wraps IQN-ILS: it runs the same least-squares acceleration
// on the configured data ids and then rescales the resulting correction by
// the scalar ScaleFactor. It holds no coarse/fine data-id pair and no
// coarse-model response; ScaleFactor is the only manifold input, set by the
// caller.
type ManifoldMapping struct {
	*IQNILS
	ScaleFactor float64 // set from the external mapping kernel; 1.0 == no rescaling
}

// NewManifoldMapping builds a Manifold Mapping variant around a fresh IQNILS core.
func NewManifoldMapping(dataIDs []int, maxCols int) (*ManifoldMapping, error) {
	core, err := NewIQNILS(dataIDs, maxCols)
	if err != nil {
		return nil, err
	}
	return &ManifoldMapping{IQNILS: core, ScaleFactor: 1.0}, nil
}

func (o *ManifoldMapping) PerformPostProcessing(data DataMap) error {
	before, err := concatCurrent(data, o.DataIDs)
	if err != nil {
		return err
	}
	err = o.IQNILS.PerformPostProcessing(data)
	if o.ScaleFactor != 1.0 {
		after, _ := concatCurrent(data, o.DataIDs)
		rescaled := make([]float64, len(after))
		for i := range rescaled {
			rescaled[i] = before[i] + o.ScaleFactor*(after[i]-before[i])
		}
		if serr := setConcat(data, o.DataIDs, rescaled); serr != nil {
			return serr
		}
	}
	return err
}
