// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmech/gocouple/couplingdata"
)

func newTestData(t *testing.T, id int, initial []float64) *couplingdata.Data {
	t.Helper()
	f, err := couplingdata.NewField("x", id, 1)
	require.NoError(t, err)
	f.AllocateDataValues(len(initial))
	require.NoError(t, f.SetValues(initial))
	d := couplingdata.NewData(f)
	d.InitializeData()
	require.NoError(t, d.StoreIteration())
	return d
}

// TestAitkenFixpoint is its universal property: x~ == x_old implies
// the relaxed update equals x_old regardless of omega.
func TestAitkenFixpoint(t *testing.T) {
	d := newTestData(t, 0, []float64{1, 2, 3})
	dm := DataMap{0: d}

	a, err := NewAitken(0.5, []int{0})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(dm))

	// x~ is already equal to oldValues; residual is zero at every iteration.
	require.NoError(t, a.PerformPostProcessing(dm))
	require.Equal(t, []float64{1, 2, 3}, d.Field.Values())

	// iteration 1: r1 == r0 == 0, so Δr is zero and Aitken reports the
	// non-fatal SingularWarning; the values still equal x_old.
	err = a.PerformPostProcessing(dm)
	var sw *SingularWarning
	require.ErrorAs(t, err, &sw)
	require.Equal(t, []float64{1, 2, 3}, d.Field.Values())
}

func TestAitkenRejectsBadInitial(t *testing.T) {
	_, err := NewAitken(0, []int{0})
	require.Error(t, err)
	_, err = NewAitken(1.5, []int{0})
	require.Error(t, err)
}

// TestAitkenScenarioIterationZero: initial relaxation 0.5,
// A writes 2.0, B writes 10.0 back; with old value 0.0 the relaxed update
// is 0.5*10 + 0.5*0 = 5.0.
func TestAitkenScenarioIterationZero(t *testing.T) {
	d := newTestData(t, 0, []float64{0.0})
	dm := DataMap{0: d}
	a, err := NewAitken(0.5, []int{0})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(dm))

	require.NoError(t, d.Field.SetValues([]float64{10.0}))
	require.NoError(t, a.PerformPostProcessing(dm))
	require.InDelta(t, 5.0, d.Field.Values()[0], 1e-12)
}

func TestAitkenSingularFallback(t *testing.T) {
	d := newTestData(t, 0, []float64{1.0})
	dm := DataMap{0: d}
	a, err := NewAitken(0.5, []int{0})
	require.NoError(t, err)
	require.NoError(t, a.Initialize(dm))

	// iteration 0: old=1.0, x~=2.0 => r0=1.0
	require.NoError(t, d.Field.SetValues([]float64{2.0}))
	require.NoError(t, a.PerformPostProcessing(dm))

	// iteration 1: old is unchanged (still 1.0, not yet committed by the
	// scheme), so repeating x~=2.0 reproduces r1=r0 => deltaR==0 => singular
	require.NoError(t, d.Field.SetValues([]float64{2.0}))
	err = a.PerformPostProcessing(dm)
	require.Error(t, err)
	var sw *SingularWarning
	require.ErrorAs(t, err, &sw)
}
