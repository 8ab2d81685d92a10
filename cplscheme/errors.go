// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cplscheme implements the coupling-scheme state machine and the
// compositional scheduler that sequences several schemes for more than two
// participants. Error handling uses the chk.Err/chk.Panic idiom: fatal
// kinds wrap and unwind, the two recoverable kinds (ConvergenceForced,
// SingularAcceleration) are recorded and execution continues.
package cplscheme

import "github.com/cpmech/gosl/chk"

// Kind identifies which error table a cplscheme error belongs to.
type Kind int

const (
	ConfigError Kind = iota
	NotConnected
	AlreadyConnected
	SizeMismatch
	TransportError
	WouldOvershoot
	ConvergenceForced // warning: max-iterations reached, scheme force-converges
	SingularAcceleration
	DivergedResidual
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case NotConnected:
		return "NotConnected"
	case AlreadyConnected:
		return "AlreadyConnected"
	case SizeMismatch:
		return "SizeMismatch"
	case TransportError:
		return "TransportError"
	case WouldOvershoot:
		return "WouldOvershoot"
	case ConvergenceForced:
		return "ConvergenceForced"
	case SingularAcceleration:
		return "SingularAcceleration"
	case DivergedResidual:
		return "DivergedResidual"
	}
	return "UnknownKind"
}

// IsWarning reports whether a Kind is one of the two recoverable kinds: the
// scheme records it and continues instead of unwinding.
func (k Kind) IsWarning() bool {
	return k == ConvergenceForced || k == SingularAcceleration
}

// Error wraps a cplscheme failure with its Kind and the component that raised it.
type Error struct {
	Kind      Kind
	Component string
	Msg       string
}

func (e *Error) Error() string {
	return e.Kind.String() + " in " + e.Component + ": " + e.Msg
}

func newErr(k Kind, component, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Component: component, Msg: chk.Err(format, args...).Error()}
}
