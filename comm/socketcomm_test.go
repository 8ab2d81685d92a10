// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSocketSendReceiveRoundTrip(t *testing.T) {
	c1, c2 := netPipe(t)
	sender := NewSocketCommunication(c1)
	receiver := NewSocketCommunication(c2)
	defer sender.Close()
	defer receiver.Close()

	want := []float64{1.0, 2.0, 3.0}
	errc := make(chan error, 1)
	go func() { errc <- sender.Send(want) }()

	got := make([]float64, 3)
	require.NoError(t, receiver.Receive(got))
	require.NoError(t, <-errc)
	require.Equal(t, want, got)
}

func TestSocketReceiveSizeMismatch(t *testing.T) {
	c1, c2 := netPipe(t)
	sender := NewSocketCommunication(c1)
	receiver := NewSocketCommunication(c2)
	defer sender.Close()
	defer receiver.Close()

	go func() { sender.Send([]float64{1, 2, 3}) }()

	got := make([]float64, 2)
	err := receiver.Receive(got)
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, TransportError, cerr.Kind)
}

func TestSocketCloseRefusesWithPendingRequest(t *testing.T) {
	c1, c2 := netPipe(t)
	sender := NewSocketCommunication(c1)
	receiver := NewSocketCommunication(c2)
	defer c2.Close()

	go receiver.Receive(make([]float64, 2))

	sender.mu.Lock()
	sender.pending++
	sender.mu.Unlock()

	err := sender.Close()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, PendingRequest, cerr.Kind)
}

func TestNotConnectedAfterClose(t *testing.T) {
	c1, c2 := netPipe(t)
	sender := NewSocketCommunication(c1)
	defer c2.Close()
	require.NoError(t, sender.Close())
	err := sender.Send([]float64{1})
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, NotConnected, cerr.Kind)
}
