// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"github.com/cpmech/gosl/mpi"
)

// MPICommunication implements Communication on top of gosl/mpi, backing the
// "mpi-direct" and "mpi-ports" M2N transport kinds. gosl/mpi exposes plain
// package-level Send/Recv against a fixed remote rank rather than an
// object — this type is the thin per-peer handle the rest of gocouple needs
// on top of that.
type MPICommunication struct {
	remote    int // remote rank
	connected bool
	pending   int
}

// NewMPICommunication builds a Communication to a fixed remote rank. The
// connection is considered live immediately: MPI ranks are already part of
// the same world communicator once the processes have started.
func NewMPICommunication(remoteRank int) *MPICommunication {
	return &MPICommunication{remote: remoteRank, connected: true}
}

func (o *MPICommunication) Connected() bool { return o.connected }

func (o *MPICommunication) Send(buf []float64) error {
	if !o.connected {
		return newErr(NotConnected, "MPI Send called before connection setup")
	}
	if err := mpi.Send(buf, o.remote); err != nil {
		return newErr(TransportError, "MPI Send to rank %d failed: %v", o.remote, err)
	}
	return nil
}

func (o *MPICommunication) Receive(buf []float64) error {
	if !o.connected {
		return newErr(NotConnected, "MPI Receive called before connection setup")
	}
	if err := mpi.Recv(buf, o.remote); err != nil {
		return newErr(TransportError, "MPI Receive from rank %d failed: %v", o.remote, err)
	}
	return nil
}

type mpiRequest struct {
	wait func() error
}

func (r *mpiRequest) Wait() error { return r.wait() }

func (o *MPICommunication) ASend(buf []float64) (Request, error) {
	if !o.connected {
		return nil, newErr(NotConnected, "MPI ASend called before connection setup")
	}
	o.pending++
	h, err := mpi.ISend(buf, o.remote)
	if err != nil {
		o.pending--
		return nil, newErr(TransportError, "MPI ASend to rank %d failed: %v", o.remote, err)
	}
	return &mpiRequest{wait: func() error {
		o.pending--
		if err := h.Wait(); err != nil {
			return newErr(TransportError, "MPI ASend wait failed: %v", err)
		}
		return nil
	}}, nil
}

func (o *MPICommunication) AReceive(buf []float64) (Request, error) {
	if !o.connected {
		return nil, newErr(NotConnected, "MPI AReceive called before connection setup")
	}
	o.pending++
	h, err := mpi.IRecv(buf, o.remote)
	if err != nil {
		o.pending--
		return nil, newErr(TransportError, "MPI AReceive from rank %d failed: %v", o.remote, err)
	}
	return &mpiRequest{wait: func() error {
		o.pending--
		if err := h.Wait(); err != nil {
			return newErr(TransportError, "MPI AReceive wait failed: %v", err)
		}
		return nil
	}}, nil
}

func (o *MPICommunication) Close() error {
	if o.pending > 0 {
		return newErr(PendingRequest, "Close called with %d pending request(s)", o.pending)
	}
	o.connected = false
	return nil
}
