package cplscheme

import "github.com/cpmech/gocouple/m2n"

// ParallelExplicit couples two participants that exchange simultaneously
// rather than in a send-then-receive serial order: both sides post their
// sends and receives together within one Advance call. Since the two
// exchanges use independent channels, posting Sends before Recvs on every side is safe —
// there is no serial hand-off to order.
type ParallelExplicit struct {
	*BaseScheme
	Fabric *m2n.M2N
	Sends  []ExchangeBinding
	Recvs  []ExchangeBinding
}

func NewParallelExplicit(name string, timestepLength float64, fabric *m2n.M2N, sends, recvs []ExchangeBinding) (*ParallelExplicit, error) {
	b, err := NewBaseScheme(name, timestepLength)
	if err != nil {
		return nil, err
	}
	return &ParallelExplicit{BaseScheme: b, Fabric: fabric, Sends: sends, Recvs: recvs}, nil
}

func (o *ParallelExplicit) Initialize(t0 float64, n0 int) error {
	if o.State != Constructed {
		return newErr(ConfigError, o.Name, "Initialize called in state %s", o.State)
	}
	o.time, o.timesteps = t0, n0
	o.State = Initialized
	o.RequireAction(ActionWriteInitialData)
	return nil
}

func (o *ParallelExplicit) InitializeData() error {
	if !o.IsActionRequired(ActionWriteInitialData) {
		return nil
	}
	if err := exchangeAll(o.Fabric, o.Sends); err != nil {
		return err
	}
	if err := exchangeAll(o.Fabric, o.Recvs); err != nil {
		return err
	}
	o.PerformedAction(ActionWriteInitialData)
	return nil
}

func (o *ParallelExplicit) Advance() error {
	if err := o.checkOvershoot(); err != nil {
		return err
	}
	o.State = Stepping
	o.dataExchanged = false
	if err := exchangeAll(o.Fabric, o.Sends); err != nil {
		o.State = Failed
		return err
	}
	if err := exchangeAll(o.Fabric, o.Recvs); err != nil {
		o.State = Failed
		return err
	}
	o.dataExchanged = true
	o.time += o.timestepLength
	o.timesteps++
	o.computedTimestepPart = 0
	o.timestepComplete = true
	return nil
}

func (o *ParallelExplicit) IsImplicit() bool { return false }

func (o *ParallelExplicit) Finalize() error {
	o.State = Finalized
	if o.Fabric != nil {
		return o.Fabric.Close()
	}
	return nil
}
