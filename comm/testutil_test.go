// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"net"
	"testing"
)

// netPipe returns two connected in-memory net.Conn endpoints for tests that
// need a full-duplex Communication pair without opening a real TCP socket.
func netPipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	c1, c2 := net.Pipe()
	return c1, c2
}
