// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package m2n

import "github.com/cpmech/gocouple/comm"

// Mapping is a per-peer routing record of the distributed channel: it
// tells the fabric which local vertices correspond to a given remote
// rank's owned slice, and carries that rank's live Communication.
type Mapping struct {
	// LocalRemoteRank is this participant's index into its own slice of
	// peer ranks for the mesh (ascending order is the send/receive schedule).
	LocalRemoteRank int
	// GlobalRemoteRank is the peer's rank within its own participant.
	GlobalRemoteRank int
	// LocalIndices are indices into the local mesh's Verts slice (not
	// GlobalIndex) that this remote rank owns a corresponding copy of; this
	// is the scatter/gather map used by gather/scatter below.
	LocalIndices []int
	// Offset is this mapping's starting position within a flattened,
	// ascending-LocalRemoteRank concatenation of all mappings for a mesh;
	// used to locate a Mapping's slice inside a combined send buffer.
	Offset int

	Communication  comm.Communication
	PendingRequest comm.Request
}

// Count returns the number of scalar doubles this mapping carries for a
// field of the given valueDim: mapping.indices.size() * valueDim.
func (o *Mapping) Count(valueDim int) int { return len(o.LocalIndices) * valueDim }

// gather copies full[indices] (each valueDim components) into a fresh
// contiguous buffer, the local-buffer-to-wire direction of a send.
func gather(full []float64, indices []int, valueDim int) []float64 {
	out := make([]float64, len(indices)*valueDim)
	for i, idx := range indices {
		copy(out[i*valueDim:(i+1)*valueDim], full[idx*valueDim:(idx+1)*valueDim])
	}
	return out
}

// scatter copies buf into full at the positions indices (each valueDim
// components), the wire-to-local-buffer direction of a receive.
func scatter(full []float64, indices []int, valueDim int, buf []float64) {
	for i, idx := range indices {
		copy(full[idx*valueDim:(idx+1)*valueDim], buf[i*valueDim:(i+1)*valueDim])
	}
}
