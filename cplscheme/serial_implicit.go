package cplscheme

import (
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gocouple/acceleration"
	"github.com/cpmech/gocouple/couplingdata"
	"github.com/cpmech/gocouple/m2n"
)

// SerialImplicit couples exactly two participants with sub-iteration until
// the configured convergence measures agree. Checkpoint actions
// follow the design literally: convergence requires write-iteration-checkpoint
// (a new baseline to roll back to next time), non-convergence requires
// read-iteration-checkpoint (restore the last baseline before resending).
type SerialImplicit struct {
	*BaseScheme
	Fabric *m2n.M2N
	First  bool
	Sends  []ExchangeBinding
	Recvs  []ExchangeBinding

	MeasureData []*couplingdata.Data // parallel to BaseScheme.Measures
}

func NewSerialImplicit(name string, timestepLength float64, fabric *m2n.M2N, first bool, sends, recvs []ExchangeBinding) (*SerialImplicit, error) {
	b, err := NewBaseScheme(name, timestepLength)
	if err != nil {
		return nil, err
	}
	return &SerialImplicit{BaseScheme: b, Fabric: fabric, First: first, Sends: sends, Recvs: recvs}, nil
}

func (o *SerialImplicit) Initialize(t0 float64, n0 int) error {
	if o.State != Constructed {
		return newErr(ConfigError, o.Name, "Initialize called in state %s", o.State)
	}
	o.time, o.timesteps = t0, n0
	o.State = Initialized
	o.RequireAction(ActionWriteInitialData)
	if o.PostProcessing != nil {
		if err := o.PostProcessing.Initialize(o.DataMap); err != nil {
			return newErr(ConfigError, o.Name, "post-processing Initialize: %v", err)
		}
	}
	return nil
}

func (o *SerialImplicit) InitializeData() error {
	if !o.IsActionRequired(ActionWriteInitialData) {
		return nil
	}
	if o.First {
		if err := exchangeAll(o.Fabric, o.Sends); err != nil {
			return err
		}
	} else {
		if err := exchangeAll(o.Fabric, o.Recvs); err != nil {
			return err
		}
	}
	o.PerformedAction(ActionWriteInitialData)
	return nil
}

// Advance runs one sub-iteration of its implicit transitions.
func (o *SerialImplicit) Advance() error {
	if err := o.checkOvershoot(); err != nil {
		return err
	}
	o.State = Iterating
	o.dataExchanged = false

	var order []func() error
	if o.First {
		order = []func() error{
			func() error { return exchangeAll(o.Fabric, o.Sends) },
			func() error { return exchangeAll(o.Fabric, o.Recvs) },
		}
	} else {
		order = []func() error{
			func() error { return exchangeAll(o.Fabric, o.Recvs) },
			func() error { return exchangeAll(o.Fabric, o.Sends) },
		}
	}
	for _, step := range order {
		if err := step(); err != nil {
			o.State = Failed
			return err
		}
	}
	o.dataExchanged = true

	var singular *acceleration.SingularWarning
	if o.PostProcessing != nil {
		if err := o.PostProcessing.PerformPostProcessing(o.DataMap); err != nil {
			if !asSingular(err, &singular) {
				o.State = Failed
				return newErr(DivergedResidual, o.Name, "post-processing: %v", err)
			}
			io.Pf("%s: warning: %v (falling back to plain relaxation this iteration)\n", o.Name, err)
		}
	}

	for i, m := range o.Measures {
		d := o.MeasureData[i]
		old := d.OldValues(0)
		if err := m.Measure(old, d.Field.Values()); err != nil {
			o.State = Failed
			return newErr(DivergedResidual, o.Name, "convergence measure %d: %v", i, err)
		}
	}
	o.iteration++

	if err := o.recordResidual(o.iteration == 1, o.MeasureData); err != nil {
		o.State = Failed
		return newErr(DivergedResidual, o.Name, "recordResidual: %v", err)
	}

	converged := o.checkConvergence()
	forced := false
	if !converged && o.forcedConvergence() {
		converged = true
		forced = true
		io.Pf("%s: warning: ConvergenceForced after %d iterations\n", o.Name, o.iteration)
	}

	// Snapshot this iteration's relaxed values as the baseline oldValues.col(0)
	// for the next sub-iteration's residual and relaxation, converged or not:
	// otherwise every iteration would relax and measure against the
	// start-of-timestep value instead of the previous iterate.
	for _, d := range o.MeasureData {
		if err := d.StoreIteration(); err != nil {
			o.State = Failed
			return newErr(TransportError, o.Name, "StoreIteration: %v", err)
		}
	}

	if converged {
		o.RequireAction(ActionWriteIterationCheckpoint)
		for _, m := range o.Measures {
			m.NewMeasurementSeries(nil)
		}
		o.commitTimestep()
		_ = forced
	} else {
		o.RequireAction(ActionReadIterationCheckpoint)
		o.timestepComplete = false
	}
	return nil
}

func (o *SerialImplicit) IsImplicit() bool { return true }

func (o *SerialImplicit) Finalize() error {
	o.State = Finalized
	if o.Fabric != nil {
		return o.Fabric.Close()
	}
	return nil
}

// asSingular reports whether err is (or wraps) an acceleration.SingularWarning.
func asSingular(err error, target **acceleration.SingularWarning) bool {
	if sw, ok := err.(*acceleration.SingularWarning); ok {
		*target = sw
		return true
	}
	return false
}
