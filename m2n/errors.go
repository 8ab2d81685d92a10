// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package m2n implements the mesh-to-mesh fabric: a master-master control
// channel for small broadcasts, and a distributed per-vertex channel used
// to ship field data between two participants' owning ranks.
package m2n

import "github.com/cpmech/gosl/chk"

// Kind identifies the subset of its error table this package raises.
type Kind int

const (
	NotConnected Kind = iota
	AlreadyConnected
	SizeMismatch
	TransportError
	// NotReady means send/receive was attempted before computeDistribution
	// exchanged vertex ownership for the mesh.
	NotReady
)

func (k Kind) String() string {
	switch k {
	case NotConnected:
		return "NotConnected"
	case AlreadyConnected:
		return "AlreadyConnected"
	case SizeMismatch:
		return "SizeMismatch"
	case TransportError:
		return "TransportError"
	case NotReady:
		return "NotReady"
	}
	return "UnknownKind"
}

// Error wraps an m2n failure with its Kind.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Kind.String() + ": " + e.Msg }

func newErr(k Kind, format string, args ...interface{}) error {
	return &Error{Kind: k, Msg: chk.Err(format, args...).Error()}
}
