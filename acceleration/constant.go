// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import "github.com/cpmech/gosl/chk"

// ConstantRelaxation implements x_{k+1} = omega*x~ + (1-omega)*x_old with a
// fixed omega, the simplest of the post-processing variants.
type ConstantRelaxation struct {
	Omega   float64
	DataIDs []int

	designSpec []float64
}

// NewConstantRelaxation validates 0 < omega <= 1 .
func NewConstantRelaxation(omega float64, dataIDs []int) (*ConstantRelaxation, error) {
	if omega <= 0 || omega > 1 {
		return nil, chk.Err("ConstantRelaxation: omega must satisfy 0 < omega <= 1, got %g", omega)
	}
	return &ConstantRelaxation{Omega: omega, DataIDs: dataIDs}, nil
}

func (o *ConstantRelaxation) GetDataIDs() []int { return o.DataIDs }

func (o *ConstantRelaxation) Initialize(data DataMap) error {
	n, err := concatLen(data, o.DataIDs)
	if err != nil {
		return err
	}
	o.designSpec = make([]float64, n)
	return nil
}

func (o *ConstantRelaxation) PerformPostProcessing(data DataMap) error {
	return applyRelaxation(data, o.DataIDs, o.Omega)
}

func (o *ConstantRelaxation) IterationsConverged(data DataMap) {}

func (o *ConstantRelaxation) SetDesignSpecification(q []float64) { o.designSpec = q }

func (o *ConstantRelaxation) GetDesignSpecification(data DataMap) []float64 { return o.designSpec }
