package cplscheme

import "github.com/cpmech/gocouple/m2n"

// SerialExplicit couples exactly two participants with no sub-iteration:
// the "first" participant sends then receives within one Advance call, the
// "second" receives then sends, guaranteeing both sides use the same
// message schedule and avoiding a synchronous-exchange deadlock on
// point-to-point exchanges.
type SerialExplicit struct {
	*BaseScheme
	Fabric *m2n.M2N
	First  bool
	Sends  []ExchangeBinding
	Recvs  []ExchangeBinding
}

// NewSerialExplicit builds a serial-explicit scheme. first distinguishes the
// participant that sends before receiving each timestep.
func NewSerialExplicit(name string, timestepLength float64, fabric *m2n.M2N, first bool, sends, recvs []ExchangeBinding) (*SerialExplicit, error) {
	b, err := NewBaseScheme(name, timestepLength)
	if err != nil {
		return nil, err
	}
	return &SerialExplicit{BaseScheme: b, Fabric: fabric, First: first, Sends: sends, Recvs: recvs}, nil
}

func (o *SerialExplicit) Initialize(t0 float64, n0 int) error {
	if o.State != Constructed {
		return newErr(ConfigError, o.Name, "Initialize called in state %s", o.State)
	}
	o.time, o.timesteps = t0, n0
	o.State = Initialized
	o.RequireAction(ActionWriteInitialData)
	return nil
}

func (o *SerialExplicit) InitializeData() error {
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

// Advance runs the explicit transition: Stepping -> Stepping,
// exchange both directions, increment timesteps, mark the timestep complete.
func (o *SerialExplicit) Advance() error {
	if err := o.checkOvershoot(); err != nil {
		return err
	}
	o.State = Stepping
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
	o.time += o.timestepLength
	o.timesteps++
	o.computedTimestepPart = 0
	o.timestepComplete = true
	return nil
}

func (o *SerialExplicit) IsImplicit() bool { return false }

func (o *SerialExplicit) Finalize() error {
	o.State = Finalized
	if o.Fabric != nil {
		return o.Fabric.Close()
	}
	return nil
}
