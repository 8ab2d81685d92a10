// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0"?>
<gocouple-configuration>
  <participant name="FluidSolver">
    <mesh name="FluidMesh" dimension="3">
      <data name="Forces" value-dimension="3"/>
      <data name="Displacements" value-dimension="3"/>
    </mesh>
  </participant>
  <participant name="StructureSolver">
    <mesh name="StructureMesh" dimension="3">
      <data name="Displacements" value-dimension="3"/>
    </mesh>
  </participant>
  <m2n first="FluidSolver" second="StructureSolver" transport="sockets" address="localhost:42000"/>
  <coupling-scheme type="serial-implicit" timestep-length="0.01" max-time="1.0" max-iterations="50">
    <participant>FluidSolver</participant>
    <participant>StructureSolver</participant>
    <exchange data="Forces" mesh="FluidMesh" from="FluidSolver" to="StructureSolver"/>
    <exchange data="Displacements" mesh="StructureMesh" from="StructureSolver" to="FluidSolver"/>
    <post-processing kind="aitken" omega="0.1"/>
    <convergence-measure kind="relative" data="Displacements" tolerance="1e-5"/>
  </coupling-scheme>
</gocouple-configuration>
`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gocouple-config.xml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestReadValidConfig(t *testing.T) {
	path := writeSample(t, sample)
	cfg, err := Read(path)
	require.NoError(t, err)
	require.Len(t, cfg.Participants, 2)
	require.Equal(t, "FluidSolver", cfg.Participants[0].Name)
	require.Len(t, cfg.M2Ns, 1)
	require.Equal(t, "sockets", cfg.M2Ns[0].Transport)
	require.Len(t, cfg.Schemes, 1)
	s := cfg.Schemes[0]
	require.Equal(t, "serial-implicit", s.Type)
	require.True(t, s.HasMaxTime)
	require.Len(t, s.Exchanges, 2)
	require.InDelta(t, 0.1, s.PostProcessing.Omega, 1e-15)
}

func TestM2NDefaultTransport(t *testing.T) {
	m := M2NChannel{First: "A", Second: "B"}
	require.NoError(t, m.PostProcess())
	require.Equal(t, "sockets", m.Transport)
}

func TestM2NUnknownTransportRejected(t *testing.T) {
	m := M2NChannel{First: "A", Second: "B", Transport: "carrier-pigeon"}
	err := m.PostProcess()
	require.Error(t, err)
}

func TestM2NMissingParticipantRejected(t *testing.T) {
	m := M2NChannel{First: "", Second: "B"}
	err := m.PostProcess()
	require.Error(t, err)
}

func TestSchemeRejectsZeroTimestepLength(t *testing.T) {
	s := SchemeConfig{Type: "serial-explicit", TimestepLength: 0}
	err := s.PostProcess()
	require.Error(t, err)
}

func TestSchemeRejectsUnknownType(t *testing.T) {
	s := SchemeConfig{Type: "quantum-leapfrog", TimestepLength: 0.1}
	err := s.PostProcess()
	require.Error(t, err)
}

func TestConstantPostProcessingDefaultsOmegaToOne(t *testing.T) {
	s := SchemeConfig{
		Type:           "serial-explicit",
		TimestepLength: 0.1,
		PostProcessing: &PostProcessingConfig{Kind: "constant"},
	}
	require.NoError(t, s.PostProcess())
	require.Equal(t, 1.0, s.PostProcessing.Omega)
}

func TestM2NReferencingUnknownParticipantRejected(t *testing.T) {
	path := writeSample(t, `<?xml version="1.0"?>
<gocouple-configuration>
  <participant name="A"/>
  <m2n first="A" second="Ghost" transport="sockets"/>
</gocouple-configuration>
`)
	_, err := Read(path)
	require.Error(t, err)
}

func TestDuplicateParticipantNameRejected(t *testing.T) {
	path := writeSample(t, `<?xml version="1.0"?>
<gocouple-configuration>
  <participant name="A"/>
  <participant name="A"/>
</gocouple-configuration>
`)
	_, err := Read(path)
	require.Error(t, err)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "does-not-exist.xml"))
	require.Error(t, err)
}
