// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"encoding/gob"
	"net"
	"sync"
	"time"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// SocketCommunication implements Communication over a plain TCP connection,
// using gob with no transport-level header, since message sizes are agreed
// during connection setup. It backs the "sockets" transport kind.
type SocketCommunication struct {
	conn      net.Conn
	enc       *gob.Encoder
	dec       *gob.Decoder
	connected bool

	mu      sync.Mutex
	pending int // outstanding un-waited requests; Close() refuses to tear down with pending > 0
}

// NewSocketCommunication wraps an already-dialed/accepted net.Conn.
func NewSocketCommunication(conn net.Conn) *SocketCommunication {
	return &SocketCommunication{
		conn:      conn,
		enc:       gob.NewEncoder(conn),
		dec:       gob.NewDecoder(conn),
		connected: true,
	}
}

// AcceptSocket listens once on addr and returns the communication for the
// first incoming connection. Used by the side that "accepts" a master or
// slaves connection.
func AcceptSocket(addr string) (*SocketCommunication, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, newErr(TransportError, "cannot listen on %s: %v", addr, err)
	}
	defer ln.Close()
	conn, err := ln.Accept()
	if err != nil {
		return nil, newErr(TransportError, "accept failed: %v", err)
	}
	return NewSocketCommunication(conn), nil
}

// requestRetries/requestBackoff bound how long RequestSocket keeps retrying
// a refused dial: the accepting side's net.Listen may not have run yet when
// two participants are started at nearly the same instant.
const (
	requestRetries = 20
	requestBackoff = 100 * time.Millisecond
)

// RequestSocket dials addr, retrying briefly on connection refused since the
// accepting side may not be listening yet. Used by the side that "requests"
// a master or slaves connection.
func RequestSocket(addr string) (*SocketCommunication, error) {
	var conn net.Conn
	var err error
	for attempt := 0; attempt < requestRetries; attempt++ {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			return NewSocketCommunication(conn), nil
		}
		time.Sleep(requestBackoff)
	}
	return nil, newErr(TransportError, "cannot dial %s after %d attempts: %v", addr, requestRetries, err)
}

func (o *SocketCommunication) Connected() bool { return o.connected }

func (o *SocketCommunication) Send(buf []float64) error {
	if !o.connected {
		return newErr(NotConnected, "Send called before connection setup")
	}
	if err := o.enc.Encode(buf); err != nil {
		return newErr(TransportError, "Send failed: %v", err)
	}
	return nil
}

func (o *SocketCommunication) Receive(buf []float64) error {
	if !o.connected {
		return newErr(NotConnected, "Receive called before connection setup")
	}
	var tmp []float64
	if err := o.dec.Decode(&tmp); err != nil {
		return newErr(TransportError, "Receive failed: %v", err)
	}
	if len(tmp) != len(buf) {
		return newErr(TransportError, "Receive size mismatch: got %d want %d", len(tmp), len(buf))
	}
	copy(buf, tmp)
	return nil
}

// socketRequest is a synchronous operation dressed up as a Request: the
// socket transport has no real async primitive, so ASend/AReceive run the
// blocking call inline and hand back a Request whose Wait only releases the
// pending-request count and returns that call's error. This keeps the
// Communication interface uniform for callers (e.g. comm.CyclicRing) that
// always go through ASend/AReceive/Wait regardless of transport.
type socketRequest struct {
	err  error
	done func()
}

func (r *socketRequest) Wait() error {
	if r.done != nil {
		r.done()
	}
	return r.err
}

func (o *SocketCommunication) ASend(buf []float64) (Request, error) {
	o.mu.Lock()
	o.pending++
	o.mu.Unlock()
	err := o.Send(buf)
	return &socketRequest{err: err, done: o.requestDone}, nil
}

func (o *SocketCommunication) AReceive(buf []float64) (Request, error) {
	o.mu.Lock()
	o.pending++
	o.mu.Unlock()
	err := o.Receive(buf)
	return &socketRequest{err: err, done: o.requestDone}, nil
}

func (o *SocketCommunication) requestDone() {
	o.mu.Lock()
	o.pending--
	o.mu.Unlock()
}

func (o *SocketCommunication) Close() error {
	o.mu.Lock()
	pending := o.pending
	o.mu.Unlock()
	if pending > 0 {
		return newErr(PendingRequest, "Close called with %d pending request(s)", pending)
	}
	o.connected = false
	if err := o.conn.Close(); err != nil {
		return chk.Err("socket close failed: %v", err)
	}
	if io.Verbose {
		io.Pf("socket communication closed\n")
	}
	return nil
}
