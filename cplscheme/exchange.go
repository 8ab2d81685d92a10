package cplscheme

import (
	"github.com/cpmech/gocouple/couplingdata"
	"github.com/cpmech/gocouple/m2n"
)

// ExchangeBinding is one configured send or receive for a coupling scheme: a
// CouplingData bound to a mesh's M2N fabric.
type ExchangeBinding struct {
	Data     *couplingdata.Data
	MeshId   int
	ValueDim int
	Send     bool // true: this side sends; false: this side receives
}

// exchangeAll runs every binding's send or receive over fabric, in the
// order given.
func exchangeAll(fabric *m2n.M2N, bindings []ExchangeBinding) error {
	for _, b := range bindings {
		values := b.Data.Field.Values()
		vertCount := len(values) / b.ValueDim
		var err error
		if b.Send {
			err = fabric.Send(values, b.MeshId, b.ValueDim, vertCount)
		} else {
			err = fabric.Receive(values, b.MeshId, b.ValueDim, vertCount)
		}
		if err != nil {
			return newErr(TransportError, "exchange", "mesh %d: %v", b.MeshId, err)
		}
	}
	return nil
}
