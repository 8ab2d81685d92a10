// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import "github.com/cpmech/gosl/chk"

// ComputeOffsets builds vertexOffsets[r] = sum of counts[0..r], one prefix sum per rank.
func ComputeOffsets(counts []int) []int {
	offsets := make([]int, len(counts))
	sum := 0
	for r, c := range counts {
		sum += c
		offsets[r] = sum
	}
	return offsets
}

// ElectOwners runs a two-sweep greedy owner election over a master-held
// distribution (rank -> ordered list of global indices it
// holds, possibly with duplicates across ranks for halo vertices) and
// returns, per rank, a boolean slice parallel to distribution[r] marking
// which entries that rank owns.
//
// Sweep A: iterating ranks ascending, each rank claims up to
// floor(globalN/nRanks) of its held indices that are not yet owned by
// anyone (lower rank claims first on ties).
// Sweep B: remaining unowned global indices are assigned, in ascending
// rank order, to the first rank found holding them.
func ElectOwners(distribution [][]int, globalN int) [][]bool {
	nRanks := len(distribution)
	owners := make([][]bool, nRanks)
	for r := range distribution {
		owners[r] = make([]bool, len(distribution[r]))
	}
	ownedBy := make([]int, globalN) // -1 = unowned
	for i := range ownedBy {
		ownedBy[i] = -1
	}

	quota := 0
	if nRanks > 0 {
		quota = globalN / nRanks
	}

	// Sweep A
	for r := 0; r < nRanks; r++ {
		claimed := 0
		for i, g := range distribution[r] {
			if claimed >= quota {
				break
			}
			if ownedBy[g] == -1 {
				ownedBy[g] = r
				owners[r][i] = true
				claimed++
			}
		}
	}

	// Sweep B: first rank (ascending) holding an unowned index claims it.
	for g := 0; g < globalN; g++ {
		if ownedBy[g] != -1 {
			continue
		}
		for r := 0; r < nRanks; r++ {
			for i, gg := range distribution[r] {
				if gg == g {
					ownedBy[g] = r
					owners[r][i] = true
					break
				}
			}
			if ownedBy[g] != -1 {
				break
			}
		}
	}
	return owners
}

// AssignGlobalIndices assigns a contiguous global index range to each rank,
// in rank order, per the offsets already computed by ComputeOffsets: rank
// r's k-th local vertex gets global index offsets[r-1] + k (offsets[-1] := 0).
func AssignGlobalIndices(localCounts []int, offsets []int) [][]int {
	nRanks := len(localCounts)
	globalIndices := make([][]int, nRanks)
	for r := 0; r < nRanks; r++ {
		start := 0
		if r > 0 {
			start = offsets[r-1]
		}
		globalIndices[r] = make([]int, localCounts[r])
		for k := 0; k < localCounts[r]; k++ {
			globalIndices[r][k] = start + k
		}
	}
	return globalIndices
}

// ComputeDistribution runs the master's part of the distribution process:
// offsets are the cumulative local-record counts per rank (phase 2), and
// owners are elected over the already-known global indices each rank holds
// (phase 3 + owner election). It does not gather the local records or assign
// global indices; the caller supplies heldGlobalIndices. globalN is the count
// of distinct global indices across the whole mesh; because a vertex may be
// duplicated across ranks (halo), globalN need not equal offsets.back() —
// its "vertexOffsets.back() == globalN" holds only in the no-halo case.
func ComputeDistribution(localCounts []int, heldGlobalIndices [][]int, globalN int) (offsets []int, owners [][]bool) {
	offsets = ComputeOffsets(localCounts)
	owners = ElectOwners(heldGlobalIndices, globalN)
	return
}

// ApplyDistribution stores globalIndex and owner on each of this mesh's
// local vertices and marks the mesh as no longer accepting AddVertex calls.
func (o *Mesh) ApplyDistribution(globalIndices []int, owners []bool) error {
	if len(globalIndices) != len(o.Verts) || len(owners) != len(o.Verts) {
		return chk.Err("mesh %q: ApplyDistribution size mismatch: verts=%d globalIndices=%d owners=%d",
			o.Name, len(o.Verts), len(globalIndices), len(owners))
	}
	for i, v := range o.Verts {
		v.GlobalIndex = globalIndices[i]
		v.Owner = owners[i]
	}
	o.distributionComputed = true
	return nil
}

// VerifyOwnerInvariant checks that, across all ranks' meshes for the same
// logical mesh, every global index 0..globalN-1 has exactly one owner.
// Intended for tests driving several Mesh instances that stand in for
// separate ranks in one process.
func VerifyOwnerInvariant(meshes []*Mesh, globalN int) error {
	seen := make([]int, globalN)
	for _, m := range meshes {
		for _, v := range m.Verts {
			if v.Owner {
				seen[v.GlobalIndex]++
			}
		}
	}
	for g, count := range seen {
		if count != 1 {
			return chk.Err("global index %d has %d owners, want exactly 1", g, count)
		}
	}
	return nil
}
