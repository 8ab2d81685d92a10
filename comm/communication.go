// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package comm implements the synchronous point-to-point and collective
// primitives (L0) that every higher layer of gocouple is built on: ranks
// within one participant talk through a Group; two participants talk
// through a point-to-point Communication (see package m2n).
package comm

import (
	"github.com/cpmech/gosl/chk"
)

// Kind identifies an error raised by this package.
type Kind int

const (
	// NotConnected means an operation was attempted before connection setup completed.
	NotConnected Kind = iota
	// AlreadyConnected means connection setup was attempted twice on the same channel.
	AlreadyConnected
	// PendingRequest means an asynchronous request was never waited on before closure.
	PendingRequest
	// TransportError means the underlying send/receive failed.
	TransportError
)

func (k Kind) String() string {
	switch k {
	case NotConnected:
		return "NotConnected"
	case AlreadyConnected:
		return "AlreadyConnected"
	case PendingRequest:
		return "PendingRequest"
	case TransportError:
		return "TransportError"
	}
	return "UnknownKind"
}

// Error wraps a comm failure with its Kind so callers can branch on it.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func newErr(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: chk.Err(format, args...).Error()}
}

// Communication is a one-to-one channel between two ranks, possibly in
// different participants (the M2N master-master channel) or the same
// participant (a slaves-connection pair). It is the transport abstraction
// both comm.CyclicRing and m2n.Mapping build on; comm.Group does not use it.
type Communication interface {
	// Connected reports whether connection setup has completed.
	Connected() bool

	// Send blocks until buf has been handed to the transport.
	Send(buf []float64) error

	// Receive blocks until buf has been filled from the transport.
	Receive(buf []float64) error

	// ASend starts a non-blocking send and returns a Request to wait on.
	// buf must not be mutated until the Request's Wait returns.
	ASend(buf []float64) (Request, error)

	// AReceive starts a non-blocking receive and returns a Request to wait on.
	// buf must not be read until the Request's Wait returns.
	AReceive(buf []float64) (Request, error)

	// Close tears down the channel. Any un-waited Request is an error.
	Close() error
}

// Request is an opaque handle to an outstanding asynchronous operation.
type Request interface {
	// Wait blocks until the associated buffer may be reused (ASend) or read (AReceive).
	Wait() error
}
