// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acceleration

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmech/gocouple/couplingdata"
)

func TestIQNILSFirstIterationIsIdentity(t *testing.T) {
	f, err := couplingdata.NewField("x", 0, 1)
	require.NoError(t, err)
	f.AllocateDataValues(1)
	require.NoError(t, f.SetValues([]float64{3.0}))
	d := couplingdata.NewData(f)
	d.InitializeData() // old = 0

	qn, err := NewIQNILS([]int{0}, 4)
	require.NoError(t, err)
	dm := DataMap{0: d}
	require.NoError(t, qn.Initialize(dm))
	require.NoError(t, qn.PerformPostProcessing(dm))
	// omega=1 relaxation with old=0 leaves x~ unchanged on the first call
	require.Equal(t, []float64{3.0}, d.Field.Values())
}

func TestIQNILSRejectsBadMaxCols(t *testing.T) {
	_, err := NewIQNILS([]int{0}, 0)
	require.Error(t, err)
}

func TestIQNILSColumnEviction(t *testing.T) {
	f, err := couplingdata.NewField("x", 0, 1)
	require.NoError(t, err)
	f.AllocateDataValues(1)
	d := couplingdata.NewData(f)
	d.InitializeData()
	qn, err := NewIQNILS([]int{0}, 2)
	require.NoError(t, err)
	dm := DataMap{0: d}
	require.NoError(t, qn.Initialize(dm))

	for i := 1; i <= 5; i++ {
		require.NoError(t, f.SetValues([]float64{float64(i)}))
		qn.PerformPostProcessing(dm)
	}
	require.LessOrEqual(t, len(qn.V), 2)
	require.Greater(t, qn.Dropped, 0)
}
