// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAbsoluteMeasureConverges(t *testing.T) {
	m := NewAbsoluteMeasure(0.1)
	m.NewMeasurementSeries([]float64{1, 1})
	require.NoError(t, m.Measure([]float64{1, 1}, []float64{1.01, 1.0}))
	require.True(t, m.IsConvergence())
	require.NoError(t, m.Measure([]float64{1, 1}, []float64{2, 2}))
	require.False(t, m.IsConvergence())
}

func TestRelativeMeasureRejectsBadRel(t *testing.T) {
	_, err := NewRelativeMeasure(0)
	require.Error(t, err)
	_, err = NewRelativeMeasure(1.01)
	require.Error(t, err)
}

func TestResidualRelativeBaselinePerTimestep(t *testing.T) {
	m, err := NewResidualRelativeMeasure(0.1)
	require.NoError(t, err)

	m.NewMeasurementSeries(nil)
	require.NoError(t, m.Measure([]float64{0}, []float64{10})) // first iter residual = 10
	require.False(t, m.IsConvergence())
	require.NoError(t, m.Measure([]float64{0}, []float64{0.5})) // 0.5 <= 0.1*10
	require.True(t, m.IsConvergence())

	// new timestep resets the baseline
	m.NewMeasurementSeries(nil)
	require.NoError(t, m.Measure([]float64{0}, []float64{1})) // new first-iter residual = 1
	require.False(t, m.IsConvergence())
}

// TestWRMSMonotonicity is its universal property: scaling a residual
// by alpha < 1 (with positive weights) reduces the WRMS norm by at least alpha.
func TestWRMSMonotonicity(t *testing.T) {
	m := NewWRMSMeasure(0.01, 0.01)
	xOld := []float64{1, 2, 3}
	full := []float64{1.5, 2.8, 2.2} // residual = [0.5, 0.8, -0.8]

	fullNorm := wrmsNorm(t, m, xOld, full)

	alpha := 0.3
	scaled := make([]float64, len(full))
	for i := range full {
		scaled[i] = xOld[i] + alpha*(full[i]-xOld[i])
	}
	scaledNorm := wrmsNorm(t, m, xOld, scaled)

	require.LessOrEqual(t, scaledNorm, fullNorm*alpha+1e-9)
}

func wrmsNorm(t *testing.T, m *WRMSMeasure, xOld, x []float64) float64 {
	t.Helper()
	weighted := make([]float64, len(xOld))
	for i := range xOld {
		w := 1.0 / (math.Abs(xOld[i])*m.Rel + m.Abs)
		weighted[i] = w * (x[i] - xOld[i])
	}
	var sum float64
	for _, v := range weighted {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func TestConvergenceAggregationIsAND(t *testing.T) {
	a := NewAbsoluteMeasure(0.1)
	a.NewMeasurementSeries(nil)
	a.Measure([]float64{0}, []float64{0.01})
	b := NewAbsoluteMeasure(0.1)
	b.NewMeasurementSeries(nil)
	b.Measure([]float64{0}, []float64{5})

	require.False(t, AllConverged([]ConvergenceMeasure{a, b}))

	b.Measure([]float64{0}, []float64{0.01})
	require.True(t, AllConverged([]ConvergenceMeasure{a, b}))
}
