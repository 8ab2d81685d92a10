package cplscheme

import (
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/gocouple/acceleration"
	"github.com/cpmech/gocouple/couplingdata"
	"github.com/cpmech/gocouple/m2n"
)

// Partner is one of Multi's coupled neighbors: its own fabric and exchange
// bindings, so a controller participant can couple implicitly with several
// others in the same timestep.
type Partner struct {
	Name   string
	Fabric *m2n.M2N
	Sends  []ExchangeBinding
	Recvs  []ExchangeBinding
}

// Multi couples more than two participants around one controller: every
// partner exchanges simultaneously each sub-iteration, convergence is the
// AND over every configured measure across every partner.
type Multi struct {
	*BaseScheme
	Partners []Partner

	MeasureData []*couplingdata.Data
}

func NewMulti(name string, timestepLength float64, partners []Partner) (*Multi, error) {
	b, err := NewBaseScheme(name, timestepLength)
	if err != nil {
		return nil, err
	}
	return &Multi{BaseScheme: b, Partners: partners}, nil
}

func (o *Multi) Initialize(t0 float64, n0 int) error {
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

func (o *Multi) InitializeData() error {
	if !o.IsActionRequired(ActionWriteInitialData) {
		return nil
	}
	for _, p := range o.Partners {
		if err := exchangeAll(p.Fabric, p.Sends); err != nil {
			return err
		}
		if err := exchangeAll(p.Fabric, p.Recvs); err != nil {
			return err
		}
	}
	o.PerformedAction(ActionWriteInitialData)
	return nil
}

func (o *Multi) Advance() error {
	if err := o.checkOvershoot(); err != nil {
		return err
	}
	o.State = Iterating
	o.dataExchanged = false

	for _, p := range o.Partners {
		if err := exchangeAll(p.Fabric, p.Sends); err != nil {
			o.State = Failed
			return err
		}
		if err := exchangeAll(p.Fabric, p.Recvs); err != nil {
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
		if err := m.Measure(d.OldValues(0), d.Field.Values()); err != nil {
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
	if !converged && o.forcedConvergence() {
		converged = true
		io.Pf("%s: warning: ConvergenceForced after %d iterations\n", o.Name, o.iteration)
	}

	// Snapshot this iteration's relaxed values as the baseline oldValues.col(0)
	// for the next sub-iteration's residual and relaxation, converged or not.
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
	} else {
		o.RequireAction(ActionReadIterationCheckpoint)
		o.timestepComplete = false
	}
	return nil
}

func (o *Multi) IsImplicit() bool { return true }

func (o *Multi) Finalize() error {
	o.State = Finalized
	for _, p := range o.Partners {
		if p.Fabric != nil {
			if err := p.Fabric.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}
