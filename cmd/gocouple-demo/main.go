// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// gocouple-demo drives one participant of a two-participant coupled run
// described by an XML configuration document, over the socket M2N
// transport.
package main

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"

	"github.com/cpmech/gocouple/comm"
	"github.com/cpmech/gocouple/config"
	"github.com/cpmech/gocouple/couplingdata"
	"github.com/cpmech/gocouple/cplscheme"
	"github.com/cpmech/gocouple/m2n"
	"github.com/cpmech/gocouple/mesh"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", err)
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	cfgPath := io.ArgToString(0, "")
	participant := io.ArgToString(1, "")
	verbose := io.ArgToBool(2, true)

	if verbose {
		io.PfWhite("\ngocouple-demo -- two-participant coupling driver\n\n")
		io.Pf("\n%v\n", io.ArgsTable(
			"configuration file", "cfgPath", cfgPath,
			"this participant (blank runs both, in-process)", "participant", participant,
			"show messages", "verbose", verbose,
		))
	}

	var err error
	if participant == "" {
		err = runLocal(cfgPath, verbose)
	} else {
		err = runOverSockets(cfgPath, participant, verbose)
	}
	if err != nil {
		chk.Panic("run failed:\n%v", err)
	}
}

// runOverSockets builds one participant's side of the coupled simulation
// from cfg and drives its coupling scheme until the configured max-time is
// reached, connecting over the configuration's real TCP addresses. main
// calls it when a participant name is given; run the program once per
// participant name, in two separate processes (a blank name runs both sides
// in-process through runLocal instead).
func runOverSockets(cfgPath, participant string, verbose bool) error {
	cfg, sc, peer, first, err := loadScheme(cfgPath, participant)
	if err != nil {
		return err
	}
	channel := findChannel(cfg.M2Ns, participant, peer)
	if channel == nil {
		return chk.Err("no m2n channel configured between %s and %s", participant, peer)
	}

	fabric := m2n.New()
	masterAddr := channel.Address
	dataAddr := dataAddress(channel.Address)
	if first {
		if err := fabric.AcceptMasterConnection(masterAddr); err != nil {
			return err
		}
	} else {
		if err := fabric.RequestMasterConnection(masterAddr); err != nil {
			return err
		}
	}
	dataConn, err := connectData(first, dataAddr)
	if err != nil {
		return err
	}
	return driveScheme(cfg, sc, participant, first, fabric, dataConn, verbose)
}

// loadScheme reads cfg, picks its first coupling-scheme, and resolves this
// participant's peer name and its send-first/receive-first role.
func loadScheme(cfgPath, participant string) (*config.Config, config.SchemeConfig, string, bool, error) {
	cfg, err := config.Read(cfgPath)
	if err != nil {
		return nil, config.SchemeConfig{}, "", false, err
	}
	if len(cfg.Schemes) == 0 {
		return nil, config.SchemeConfig{}, "", false, chk.Err("configuration %s declares no coupling-scheme", cfgPath)
	}
	sc := cfg.Schemes[0]
	if len(sc.Participants) != 2 {
		return nil, config.SchemeConfig{}, "", false, chk.Err(
			"gocouple-demo only drives a two-participant serial scheme, got %d", len(sc.Participants))
	}
	peer := otherParticipant(sc.Participants, participant)
	first := sc.Participants[0] == participant
	return cfg, sc, peer, first, nil
}

// driveScheme builds the bindings for participant over an already-connected
// master/data channel pair and runs the coupling loop to completion.
func driveScheme(cfg *config.Config, sc config.SchemeConfig, participant string, first bool, fabric *m2n.M2N, dataConn comm.Communication, verbose bool) error {
	meshIds := assignMeshIds(cfg)
	sends, recvs, err := buildBindings(sc.Exchanges, participant, meshIds, fabric, dataConn)
	if err != nil {
		return err
	}

	scheme, err := cplscheme.NewSerialExplicit(participant, sc.TimestepLength, fabric, first, sends, recvs)
	if err != nil {
		return err
	}
	if sc.HasMaxTime {
		scheme.SetMaxTime(sc.MaxTime)
	}

	if err := scheme.Initialize(0, 0); err != nil {
		return err
	}
	if err := scheme.InitializeData(); err != nil {
		return err
	}

	for scheme.IsCouplingOngoing() {
		if err := scheme.AddComputedTime(sc.TimestepLength); err != nil {
			return err
		}
		if err := scheme.Advance(); err != nil {
			return err
		}
		if verbose {
			io.Pf("%s: %s\n", participant, scheme.PrintCouplingState())
		}
	}
	return scheme.Finalize()
}

// otherParticipant returns whichever of names is not self.
func otherParticipant(names []string, self string) string {
	for _, n := range names {
		if n != self {
			return n
		}
	}
	return ""
}

func findChannel(channels []config.M2NChannel, a, b string) *config.M2NChannel {
	for i := range channels {
		c := &channels[i]
		if (c.First == a && c.Second == b) || (c.First == b && c.Second == a) {
			return c
		}
	}
	return nil
}

// assignMeshIds gives every distinct mesh name across the configuration the
// same small integer id on both sides of the coupling, by sorting names.
func assignMeshIds(cfg *config.Config) map[string]int {
	names := map[string]bool{}
	for _, p := range cfg.Participants {
		for _, m := range p.Meshes {
			names[m.Name] = true
		}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)
	ids := make(map[string]int, len(sorted))
	alloc := mesh.NewIdAllocator()
	for _, n := range sorted {
		ids[n] = alloc.Next()
	}
	return ids
}

// dataAddress derives the distributed-channel port from the master
// channel's address by adding one to its trailing port number, so one configuration
// entry suffices to stand up both sockets of a single-rank demo run.
func dataAddress(masterAddr string) string {
	i := len(masterAddr)
	for i > 0 && masterAddr[i-1] >= '0' && masterAddr[i-1] <= '9' {
		i--
	}
	host, port := masterAddr[:i], masterAddr[i:]
	n := 0
	for _, c := range port {
		n = n*10 + int(c-'0')
	}
	return host + itoa(n+1)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func connectData(first bool, addr string) (comm.Communication, error) {
	if first {
		return comm.AcceptSocket(addr)
	}
	return comm.RequestSocket(addr)
}

// buildBindings turns the configuration's exchange list into the Sends and
// Recvs a SerialExplicit scheme needs: one single-vertex 3D mesh per mesh
// name and one single-value coupling-data field per exchange this
// participant takes part in.
func buildBindings(exchanges []config.ExchangeConfig, self string, meshIds map[string]int, fabric *m2n.M2N, dataConn comm.Communication) (sends, recvs []cplscheme.ExchangeBinding, err error) {
	registered := map[int]bool{}
	for i, ex := range exchanges {
		if ex.From != self && ex.To != self {
			continue
		}
		meshId, ok := meshIds[ex.Mesh]
		if !ok {
			return nil, nil, chk.Err("exchange %q references unknown mesh %q", ex.Data, ex.Mesh)
		}
		if !registered[meshId] {
			m, err := mesh.New(ex.Mesh, meshId, 3)
			if err != nil {
				return nil, nil, err
			}
			if _, err := m.AddVertex([]float64{0, 0, 0}); err != nil {
				return nil, nil, err
			}
			m.Verts[0].GlobalIndex = 0

			mappings, err := m2n.BuildMappings(m, func(int) int { return 0 }, map[int]comm.Communication{0: dataConn})
			if err != nil {
				return nil, nil, err
			}
			if err := fabric.CreateDistributedCommunication(meshId, mappings); err != nil {
				return nil, nil, err
			}
			registered[meshId] = true
		}

		field, err := couplingdata.NewField(ex.Data, i, 1)
		if err != nil {
			return nil, nil, err
		}
		field.AllocateDataValues(1)
		data := couplingdata.NewData(field)
		data.InitializeData()

		binding := cplscheme.ExchangeBinding{Data: data, MeshId: meshId, ValueDim: 1, Send: ex.From == self}
		if binding.Send {
			sends = append(sends, binding)
		} else {
			recvs = append(recvs, binding)
		}
	}
	return sends, recvs, nil
}
