// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"golang.org/x/sync/errgroup"
)

// runLocal drives both participants of cfg's first coupling-scheme in this
// one process over the same loopback sockets runOverSockets would use
// between two processes, running each side's loop on its own goroutine
// under an errgroup.Group so a failure on either side cancels the run and
// surfaces a single error. This is the quick-smoke-test path: one command
// instead of coordinating two terminals by hand.
func runLocal(cfgPath string, verbose bool) error {
	_, sc, _, _, err := loadScheme(cfgPath, "")
	if err != nil {
		return err
	}
	a, b := sc.Participants[0], sc.Participants[1]

	var g errgroup.Group
	g.Go(func() error { return runOverSockets(cfgPath, a, verbose) })
	g.Go(func() error { return runOverSockets(cfgPath, b, verbose) })
	return g.Wait()
}
