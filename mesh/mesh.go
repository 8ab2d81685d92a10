// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mesh implements the coupling-surface mesh data model
// and its parallel distribution: vertices, edges, triangles and
// quads are held in flat arena tables and referenced by index rather than
// by pointer graph.
package mesh

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Vertex is one point of the coupling interface mesh.
type Vertex struct {
	Id          int       // locally-unique id
	Coords      []float64 // coordinates, length 2 or 3
	Normal      []float64 // derived normal; recomputed by ComputeState, not truth
	GlobalIndex int       // unique across all ranks of the owning participant; -1 until distribution runs
	Owner       bool      // true iff this rank counts this vertex for reductions
}

// Edge connects two vertices by index into Mesh.Verts.
type Edge struct {
	Id    int
	Verts [2]int
}

// Triangle connects three edges by index into Mesh.Edges.
type Triangle struct {
	Id    int
	Edges [3]int
}

// Quad connects four edges by index into Mesh.Edges.
type Quad struct {
	Id    int
	Edges [4]int
}

// Mesh is the arena holding one participant's coupling-interface geometry.
// Vertex additions are forbidden after ApplyDistribution has run.
type Mesh struct {
	Name string
	Id   int
	Dim  int // 2 or 3

	Verts     []*Vertex
	Edges     []*Edge
	Triangles []*Triangle
	Quads     []*Quad

	// Distribution is the mapping from rank to the ordered global indices it
	// holds; Offsets are the cumulative prefix sums. Neither ComputeDistribution
	// nor ApplyDistribution fills these fields; they hold whatever the caller
	// assigns.
	Distribution [][]int
	Offsets      []int

	distributionComputed bool
}

// New allocates an empty mesh. dim must be 2 or 3.
func New(name string, id, dim int) (*Mesh, error) {
	if dim != 2 && dim != 3 {
		return nil, chk.Err("mesh %q: dimensionality must be 2 or 3, got %d", name, dim)
	}
	return &Mesh{Name: name, Id: id, Dim: dim}, nil
}

// AddVertex appends a new vertex with the next local id. Returns an error if
// ApplyDistribution already ran.
func (o *Mesh) AddVertex(coords []float64) (*Vertex, error) {
	if o.distributionComputed {
		return nil, chk.Err("mesh %q: cannot add vertex after ApplyDistribution", o.Name)
	}
	v := &Vertex{Id: len(o.Verts), Coords: coords, GlobalIndex: -1}
	o.Verts = append(o.Verts, v)
	return v, nil
}

// LocalVertexCount returns the number of vertices held on this rank,
// including halo duplicates of vertices owned elsewhere.
func (o *Mesh) LocalVertexCount() int { return len(o.Verts) }

// ComputeState recomputes derived per-vertex quantities (normals) from raw
// coordinates. These are a cache, not truth: callers must not rely on them
// surviving an AddVertex. Normals are accumulated from edges only on a 2D
// mesh; on a 3D mesh every vertex normal is left as the zero vector
// (triangles and quads are not used).
func (o *Mesh) ComputeState() {
	for _, v := range o.Verts {
		v.Normal = make([]float64, o.Dim)
	}
	for _, e := range o.Edges {
		a, b := o.Verts[e.Verts[0]], o.Verts[e.Verts[1]]
		n := edgeNormal2D(a.Coords, b.Coords)
		if o.Dim == 2 {
			for i := range n {
				a.Normal[i] += n[i]
				b.Normal[i] += n[i]
			}
		}
	}
	for _, v := range o.Verts {
		normalize(v.Normal)
	}
}

func edgeNormal2D(a, b []float64) []float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	return []float64{dy, -dx}
}

func normalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum <= 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] *= inv
	}
}
