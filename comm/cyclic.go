// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

// CyclicRing implements a deadlock-avoidance discipline for cyclic parallel
// matrix operations: each rank posts one asynchronous
// send to rank+1 and one asynchronous receive from rank-1, then waits both.
// A fully synchronous ring exchange (blocking Send then blocking Receive on
// every rank) deadlocks because every rank blocks on Send before any rank
// has posted a matching Receive; posting both non-blocking operations first
// and waiting afterward avoids that.
type CyclicRing struct {
	toNext Communication // channel to rank+1 (mod nRanks)
	toPrev Communication // channel to rank-1 (mod nRanks)
}

// NewCyclicRing builds a ring from the two neighbor channels. Constructing
// these channels (dialing/accepting the right MPI ranks or sockets) is the
// caller's responsibility; CyclicRing only sequences the exchange.
func NewCyclicRing(toNext, toPrev Communication) *CyclicRing {
	return &CyclicRing{toNext: toNext, toPrev: toPrev}
}

// Exchange sends send to rank+1 and fills recv from rank-1 in one cycle,
// without risking the synchronous-ring deadlock.
func (o *CyclicRing) Exchange(send, recv []float64) error {
	sendReq, err := o.toNext.ASend(send)
	if err != nil {
		return err
	}
	recvReq, err := o.toPrev.AReceive(recv)
	if err != nil {
		return err
	}
	if err := sendReq.Wait(); err != nil {
		return err
	}
	return recvReq.Wait()
}
