// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDotSingleProcess covers the degenerate (non-master/slave) case of a
// single rank computing a local dot product.
func TestDotSingleProcess(t *testing.T) {
	g := &Group{MasterSlave: false}
	u := []float64{1, 2, 3}
	v := []float64{4, 5, 6}
	got, err := g.Dot(u, v)
	require.NoError(t, err)
	require.Equal(t, 1*4+2*5+3*6, int(got))
}

func TestL2NormMatchesSqrtDot(t *testing.T) {
	g := &Group{MasterSlave: false}
	v := []float64{3, 4}
	norm, err := g.L2Norm(v)
	require.NoError(t, err)
	require.InDelta(t, 5.0, norm, 1e-12)
}

func TestLocalDotPartialSums(t *testing.T) {
	// two ranks: u0=[1,2], u1=[3]; v0=[4,5], v1=[6] => 32 total.
	p0 := localDot([]float64{1, 2}, []float64{4, 5})
	p1 := localDot([]float64{3}, []float64{6})
	require.Equal(t, 32.0, p0+p1)
}

func TestCyclicRingExchange(t *testing.T) {
	// one in-process connection stands in for a 2-rank ring: rank0 owns end
	// a and rank1 owns end b; in a 2-rank ring next and prev are the same peer
	a, b := pipePair(t)
	ring0 := NewCyclicRing(a, a) // rank0: next=prev=rank1, via a
	ring1 := NewCyclicRing(b, b) // rank1: next=prev=rank0, via b

	var r0, r1 []float64
	errs := make(chan error, 2)
	go func() {
		r0 = make([]float64, 2)
		errs <- ring0.Exchange([]float64{1, 2}, r0)
	}()
	go func() {
		r1 = make([]float64, 2)
		errs <- ring1.Exchange([]float64{3, 4}, r1)
	}()
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	require.Equal(t, []float64{3, 4}, r0)
	require.Equal(t, []float64{1, 2}, r1)
}

func pipePair(t *testing.T) (Communication, Communication) {
	t.Helper()
	c1, c2 := netPipe(t)
	return NewSocketCommunication(c1), NewSocketCommunication(c2)
}

func TestDivergedResidualIsNaN(t *testing.T) {
	v := []float64{1, math.NaN()}
	g := &Group{MasterSlave: false}
	n, err := g.L2Norm(v)
	require.NoError(t, err)
	require.True(t, math.IsNaN(n))
}
