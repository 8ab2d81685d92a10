// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cplscheme

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cpmech/gocouple/acceleration"
	"github.com/cpmech/gocouple/couplingdata"
)

// TestActionFlagLifecycle is its universal property: requireAction(a)
// then performedAction(a) leaves isActionRequired(a) == false.
func TestActionFlagLifecycle(t *testing.T) {
	b, err := NewBaseScheme("test", 0.1)
	require.NoError(t, err)
	require.False(t, b.IsActionRequired(ActionWriteIterationCheckpoint))
	b.RequireAction(ActionWriteIterationCheckpoint)
	require.True(t, b.IsActionRequired(ActionWriteIterationCheckpoint))
	b.PerformedAction(ActionWriteIterationCheckpoint)
	require.False(t, b.IsActionRequired(ActionWriteIterationCheckpoint))
}

func TestWouldOvershoot(t *testing.T) {
	s, err := NewSerialExplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.05))
	err = s.Advance()
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, WouldOvershoot, cerr.Kind)
}

func TestSerialExplicitCommitsTimestep(t *testing.T) {
	s, err := NewSerialExplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.1))
	require.NoError(t, s.Advance())
	require.InDelta(t, 0.1, s.Time(), 1e-12)
	require.Equal(t, 1, s.Timesteps())
	require.True(t, s.IsCouplingTimestepComplete())
}

func newMeasureData(t *testing.T, id int, initial float64) *couplingdata.Data {
	t.Helper()
	f, err := couplingdata.NewField("x", id, 1)
	require.NoError(t, err)
	f.AllocateDataValues(1)
	require.NoError(t, f.SetValues([]float64{initial}))
	d := couplingdata.NewData(f)
	d.InitializeData()
	return d
}

// TestSerialImplicitForcedConvergence: a
// zero-tolerance measure never converges naturally, so after max-iterations
// the scheme force-converges and commits the timestep regardless.
func TestSerialImplicitForcedConvergence(t *testing.T) {
	d := newMeasureData(t, 0, 0.0)
	s, err := NewSerialImplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	s.SetIterationLimits(0, 2)
	measure := acceleration.NewAbsoluteMeasure(0) // never converges unless exactly equal
	s.Measures = []acceleration.ConvergenceMeasure{measure}
	s.MeasureData = []*couplingdata.Data{d}
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.1))

	measure.NewMeasurementSeries(nil)
	require.NoError(t, d.Field.SetValues([]float64{5.0}))
	require.NoError(t, s.Advance())
	require.False(t, s.IsCouplingTimestepComplete()) // iteration 1, not converged

	require.NoError(t, d.Field.SetValues([]float64{6.0}))
	require.NoError(t, s.Advance())
	require.True(t, s.IsCouplingTimestepComplete()) // iteration 2 hits max-iterations, forced
	require.True(t, s.IsActionRequired(ActionWriteIterationCheckpoint))
}

// TestSerialImplicitConvergesAfterIdenticalResend checks that oldValues.col(0)
// is re-baselined to the previous iterate after every sub-iteration, not only
// on convergence: once the solver starts resending the same value, the very
// next iteration measures a zero residual against it and converges, instead
// of comparing forever against the start-of-timestep value.
func TestSerialImplicitConvergesAfterIdenticalResend(t *testing.T) {
	d := newMeasureData(t, 0, 0.0)
	s, err := NewSerialImplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	s.SetIterationLimits(0, 100)
	measure := acceleration.NewAbsoluteMeasure(1e-9)
	s.Measures = []acceleration.ConvergenceMeasure{measure}
	s.MeasureData = []*couplingdata.Data{d}
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.1))
	measure.NewMeasurementSeries(nil)

	require.NoError(t, d.Field.SetValues([]float64{5.0}))
	require.NoError(t, s.Advance())
	require.False(t, s.IsCouplingTimestepComplete()) // old was 0.0, residual 5.0

	require.NoError(t, d.Field.SetValues([]float64{5.0}))
	require.NoError(t, s.Advance())
	require.True(t, s.IsCouplingTimestepComplete()) // old is now 5.0, residual 0
}

// TestSerialImplicitReadCheckpointOnNonConvergence checks the non-converged
// transition requires read-iteration-checkpoint.
func TestSerialImplicitReadCheckpointOnNonConvergence(t *testing.T) {
	d := newMeasureData(t, 0, 0.0)
	s, err := NewSerialImplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	s.SetIterationLimits(0, 100)
	measure, err := acceleration.NewRelativeMeasure(1e-9)
	require.NoError(t, err)
	s.Measures = []acceleration.ConvergenceMeasure{measure}
	s.MeasureData = []*couplingdata.Data{d}
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.1))
	measure.NewMeasurementSeries(nil)

	require.NoError(t, d.Field.SetValues([]float64{5.0}))
	require.NoError(t, s.Advance())
	require.True(t, s.IsActionRequired(ActionReadIterationCheckpoint))
	require.False(t, s.IsCouplingTimestepComplete())
}

// TestCompositionalIdempotence checks Compositional's universal property:
// wrapping a single child is observationally equivalent to that child.
func TestCompositionalIdempotence(t *testing.T) {
	child, err := NewSerialExplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	comp, err := NewCompositional([]Scheme{child})
	require.NoError(t, err)

	require.NoError(t, comp.Initialize(0, 0))
	require.NoError(t, comp.AddComputedTime(0.1))
	require.NoError(t, comp.Advance())

	require.InDelta(t, child.Time(), comp.Time(), 1e-12)
	require.Equal(t, child.Timesteps(), comp.Timesteps())
	require.Equal(t, child.IsCouplingTimestepComplete(), comp.IsCouplingTimestepComplete())
}

// TestCompositionalSwap: an explicit pair (P1-P2) followed by an implicit
// pair (P2-P3); since the first scheme is not itself implicit,
// advanceWindowFrom extends the window past it into the following implicit
// scheme and stops only once that implicit run ends, so after Initialize
// both schemes are active.
func TestCompositionalSwap(t *testing.T) {
	explicitPair, err := NewSerialExplicit("P1-P2", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	implicitPair, err := NewSerialImplicit("P2-P3", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	implicitPair.SetIterationLimits(0, 1) // no measures configured, so it converges on the first iteration

	comp, err := NewCompositional([]Scheme{explicitPair, implicitPair})
	require.NoError(t, err)
	require.NoError(t, comp.Initialize(0, 0))
	require.Equal(t, 0, comp.activeBegin)
	require.Equal(t, 2, comp.activeEnd) // both schemes active

	require.NoError(t, comp.AddComputedTime(0.1))
	require.NoError(t, comp.Advance())
	require.True(t, comp.IsCouplingTimestepComplete())
}

// TestSimulationCheckpointWiredToConvergence checks that a converged
// timestep requires write-simulation-checkpoint, and that
// WriteSimulationCheckpoint/RestoreSimulationCheckpoint round-trip both the
// scheme's own bookkeeping and Aitken's carried-over relaxation factor.
func TestSimulationCheckpointWiredToConvergence(t *testing.T) {
	d := newMeasureData(t, 0, 0.0)
	s, err := NewSerialImplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	s.SetIterationLimits(0, 100)
	aitken, err := acceleration.NewAitken(0.5, []int{0})
	require.NoError(t, err)
	s.PostProcessing = aitken
	s.DataMap = acceleration.DataMap{0: d}
	measure := acceleration.NewAbsoluteMeasure(1e-9)
	s.Measures = []acceleration.ConvergenceMeasure{measure}
	s.MeasureData = []*couplingdata.Data{d}
	require.NoError(t, s.Initialize(0, 0))
	require.NoError(t, s.AddComputedTime(0.1))
	measure.NewMeasurementSeries(nil)

	require.False(t, s.IsActionRequired(ActionWriteSimulationCheckpoint))
	require.NoError(t, d.Field.SetValues([]float64{0.0}))
	require.NoError(t, s.Advance())
	require.True(t, s.IsCouplingTimestepComplete())
	require.True(t, s.IsActionRequired(ActionWriteSimulationCheckpoint))

	dir := t.TempDir()
	prefix := dir + "/run"
	require.NoError(t, s.WriteSimulationCheckpoint(prefix))
	require.False(t, s.IsActionRequired(ActionWriteSimulationCheckpoint))

	restored, err := NewSerialImplicit("AB", 0.1, nil, true, nil, nil)
	require.NoError(t, err)
	restoredAitken, err := acceleration.NewAitken(0.5, []int{0})
	require.NoError(t, err)
	restored.PostProcessing = restoredAitken
	require.NoError(t, restored.RestoreSimulationCheckpoint(prefix))
	require.InDelta(t, s.Time(), restored.Time(), 1e-12)
	require.Equal(t, s.Timesteps(), restored.Timesteps())
	require.InDelta(t, aitken.OmegaPrev(), restoredAitken.OmegaPrev(), 1e-12)
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	prefix := dir + "/run"
	want := SimState{Time: 0.2, Timesteps: 2, AdvanceCount: 4}
	require.NoError(t, WriteSimState(prefix, want))
	got, err := ReadSimState(prefix)
	require.NoError(t, err)
	require.Equal(t, want, got)

	wantScheme := SchemeState{"omega-prev": "0.73", "iteration": "0"}
	require.NoError(t, WriteSchemeState(prefix, wantScheme))
	gotScheme, err := ReadSchemeState(prefix)
	require.NoError(t, err)
	require.Equal(t, wantScheme, gotScheme)
}
