// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"math"

	"github.com/cpmech/gosl/mpi"
)

// Group is the intra-participant collective surface (reduceSum, allreduceSum,
// broadcast, distributed dot/l2norm). It wraps gosl/mpi the way a solver
// assembling a right-hand side vector across ranks sharing boundary
// conditions calls mpi.AllReduceSum directly.
type Group struct {
	// MasterSlave is true when this process runs under a master/slave
	// group: rank 0 is master, others are slaves. When false, every
	// collective degenerates to the local computation.
	MasterSlave bool
}

// NewGroup builds a Group reflecting whether MPI is actually active.
func NewGroup() *Group {
	return &Group{MasterSlave: mpi.IsOn() && mpi.Size() > 1}
}

// Rank returns this process's rank (0 if not running under MPI).
func (g *Group) Rank() int {
	if !mpi.IsOn() {
		return 0
	}
	return mpi.Rank()
}

// Size returns the number of ranks in the group (1 if not running under MPI).
func (g *Group) Size() int {
	if !mpi.IsOn() {
		return 1
	}
	return mpi.Size()
}

// ReduceSum reduces src into dest on rank 0 only; dest is undefined on other ranks.
func (g *Group) ReduceSum(dest, src []float64) error {
	if !g.MasterSlave {
		copy(dest, src)
		return nil
	}
	if err := mpi.ReduceSum(dest, src); err != nil {
		return newErr(TransportError, "ReduceSum failed: %v", err)
	}
	return nil
}

// AllReduceSum reduces src into dest on every rank.
func (g *Group) AllReduceSum(dest, src []float64) error {
	if !g.MasterSlave {
		copy(dest, src)
		return nil
	}
	if err := mpi.AllReduceSum(dest, src); err != nil {
		return newErr(TransportError, "AllReduceSum failed: %v", err)
	}
	return nil
}

// Broadcast sends buf from rank 0 to every other rank, in place.
func (g *Group) Broadcast(buf []float64) error {
	if !g.MasterSlave {
		return nil
	}
	if err := mpi.BcastFromRoot(buf); err != nil {
		return newErr(TransportError, "Broadcast failed: %v", err)
	}
	return nil
}

// Dot computes the distributed inner product : if not running
// master/slave, it is the plain local dot product; otherwise each rank
// computes its local partial sum, rank 0 sums the partials and broadcasts
// the total back so every rank observes the same (floating-point-associativity
// dependent) result.
func (g *Group) Dot(u, v []float64) (float64, error) {
	local := localDot(u, v)
	if !g.MasterSlave {
		return local, nil
	}
	sum := make([]float64, 1)
	if err := g.ReduceSum(sum, []float64{local}); err != nil {
		return 0, err
	}
	if err := g.Broadcast(sum); err != nil {
		return 0, err
	}
	return sum[0], nil
}

// L2Norm computes sqrt(Dot(v, v)) using the same distributed protocol as Dot.
func (g *Group) L2Norm(v []float64) (float64, error) {
	d, err := g.Dot(v, v)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(d), nil
}

func localDot(u, v []float64) float64 {
	var sum float64
	n := len(u)
	if len(v) < n {
		n = len(v)
	}
	for i := 0; i < n; i++ {
		sum += u[i] * v[i]
	}
	return sum
}
