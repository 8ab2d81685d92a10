// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParallelMeshDistribution covers a three-rank distribution where one
// global index has a halo duplicate on two ranks.
func TestParallelMeshDistribution(t *testing.T) {
	distribution := [][]int{
		{0, 1, 3},
		{},
		{2, 3, 4, 5},
	}
	localCounts := []int{3, 0, 4}
	globalN := 6

	offsets, owners := ComputeDistribution(localCounts, distribution, globalN)
	require.Equal(t, []int{3, 3, 7}, offsets)

	require.Equal(t, []bool{true, true, false}, owners[0])
	require.Equal(t, []bool{}, owners[1])
	require.Equal(t, []bool{true, true, true, true}, owners[2])
}

func TestOffsetMonotonicityNoHalo(t *testing.T) {
	counts := []int{2, 5, 1}
	offsets := ComputeOffsets(counts)
	require.Equal(t, []int{2, 7, 8}, offsets)
	for i := 1; i < len(offsets); i++ {
		require.GreaterOrEqual(t, offsets[i], offsets[i-1])
	}
	require.Equal(t, 8, offsets[len(offsets)-1])
}

// TestDistributionIntegrity is its universal property: exactly one
// owner per global index, union of owners == {0..globalN-1}.
func TestDistributionIntegrity(t *testing.T) {
	distribution := [][]int{
		{0, 1, 3},
		{},
		{2, 3, 4, 5},
	}
	globalN := 6
	owners := ElectOwners(distribution, globalN)

	meshes := make([]*Mesh, len(distribution))
	for r, held := range distribution {
		m, err := New("interface", r, 2)
		require.NoError(t, err)
		for range held {
			_, err := m.AddVertex([]float64{0, 0})
			require.NoError(t, err)
		}
		require.NoError(t, m.ApplyDistribution(held, owners[r]))
		meshes[r] = m
	}
	require.NoError(t, VerifyOwnerInvariant(meshes, globalN))
}

func TestAddVertexForbiddenAfterDistribution(t *testing.T) {
	m, err := New("x", 0, 2)
	require.NoError(t, err)
	_, err = m.AddVertex([]float64{0, 0})
	require.NoError(t, err)
	require.NoError(t, m.ApplyDistribution([]int{0}, []bool{true}))
	_, err = m.AddVertex([]float64{1, 1})
	require.Error(t, err)
}

func TestNewRejectsBadDimension(t *testing.T) {
	_, err := New("x", 0, 1)
	require.Error(t, err)
}
