package m2n

import (
	"sort"

	"github.com/cpmech/gosl/io"
	"github.com/google/uuid"

	"github.com/cpmech/gocouple/comm"
	"github.com/cpmech/gocouple/mesh"
)

// M2N is one fabric connecting this participant's ranks to a peer
// participant's ranks: a single master-master control channel plus, per
// registered mesh, a set of Mapping records forming the distributed
// channel. ID distinguishes concurrently-open fabrics when a
// Multi scheme couples more than two participants.
type M2N struct {
	ID     uuid.UUID
	master comm.Communication

	mappings map[int][]*Mapping // by mesh id
	ready    map[int]bool
}

// New allocates an unconnected fabric.
func New() *M2N {
	return &M2N{ID: uuid.New(), mappings: map[int][]*Mapping{}, ready: map[int]bool{}}
}

// AcceptMasterConnection is the accepting side of its symmetric
// master connection. Idempotent re-connection fails AlreadyConnected.
func (o *M2N) AcceptMasterConnection(addr string) error {
	if o.master != nil {
		return newErr(AlreadyConnected, "master connection for fabric %s already established", o.ID)
	}
	c, err := comm.AcceptSocket(addr)
	if err != nil {
		return newErr(TransportError, "acceptMasterConnection: %v", err)
	}
	o.master = c
	io.Pf("m2n %s: accepted master connection on %s\n", o.ID, addr)
	return nil
}

// RequestMasterConnection is the requesting side of its symmetric
// master connection.
func (o *M2N) RequestMasterConnection(addr string) error {
	if o.master != nil {
		return newErr(AlreadyConnected, "master connection for fabric %s already established", o.ID)
	}
	c, err := comm.RequestSocket(addr)
	if err != nil {
		return newErr(TransportError, "requestMasterConnection: %v", err)
	}
	o.master = c
	io.Pf("m2n %s: requested master connection to %s\n", o.ID, addr)
	return nil
}

// MasterConnected reports whether the master channel is live.
func (o *M2N) MasterConnected() bool { return o.master != nil && o.master.Connected() }

// SendMaster/ReceiveMaster ship small control vectors over the master
// channel.
func (o *M2N) SendMaster(values []float64) error {
	if !o.MasterConnected() {
		return newErr(NotConnected, "SendMaster before master connection setup")
	}
	if err := o.master.Send(values); err != nil {
		return newErr(TransportError, "SendMaster: %v", err)
	}
	return nil
}

func (o *M2N) ReceiveMaster(values []float64) error {
	if !o.MasterConnected() {
		return newErr(NotConnected, "ReceiveMaster before master connection setup")
	}
	if err := o.master.Receive(values); err != nil {
		return newErr(TransportError, "ReceiveMaster: %v", err)
	}
	return nil
}

// BuildMappings groups a local mesh's vertices by which remote rank owns
// their global index (ownerRank), in ascending remote-rank order, and pairs
// each group with its already-established Communication. Offsets are assigned over the ascending
// concatenation so a combined send buffer can be addressed by mapping.
func BuildMappings(m *mesh.Mesh, ownerRank func(globalIndex int) int, comms map[int]comm.Communication) ([]*Mapping, error) {
	byRank := map[int][]int{}
	for i, v := range m.Verts {
		r := ownerRank(v.GlobalIndex)
		byRank[r] = append(byRank[r], i)
	}
	ranks := make([]int, 0, len(byRank))
	for r := range byRank {
		ranks = append(ranks, r)
	}
	sort.Ints(ranks)

	mappings := make([]*Mapping, 0, len(ranks))
	offset := 0
	for localRemoteRank, r := range ranks {
		c, ok := comms[r]
		if !ok {
			return nil, newErr(NotReady, "no communication registered for remote rank %d", r)
		}
		indices := byRank[r]
		mappings = append(mappings, &Mapping{
			LocalRemoteRank:  localRemoteRank,
			GlobalRemoteRank: r,
			LocalIndices:     indices,
			Offset:           offset,
			Communication:    c,
		})
		offset += len(indices)
	}
	return mappings, nil
}

// CreateDistributedCommunication registers meshId's mapping set with the
// fabric, making send/receive for that mesh ready.
func (o *M2N) CreateDistributedCommunication(meshId int, mappings []*Mapping) error {
	if o.ready[meshId] {
		return newErr(AlreadyConnected, "mesh %d already registered on fabric %s", meshId, o.ID)
	}
	o.mappings[meshId] = mappings
	o.ready[meshId] = true
	return nil
}

// Send ships exactly the vertices each peer rank owns a copy of, gathering
// from values by each Mapping's LocalIndices before transmitting. Every
// mapping's send is issued with ASend before any Wait, so the transfers
// overlap on a transport whose ASend does not block; over the socket
// transport ASend completes inline, so the sends run one mapping after
// another. Each mapping's outstanding Request is waited on before Send
// returns, so no PendingRequest survives past the call.
// len(values) must equal the mesh's local vertex count * valueDim.
func (o *M2N) Send(values []float64, meshId, valueDim, localVertexCount int) error {
	if err := o.checkSize(meshId, values, valueDim, localVertexCount); err != nil {
		return err
	}
	mappings := o.mappings[meshId]
	for _, mp := range mappings {
		buf := gather(values, mp.LocalIndices, valueDim)
		req, err := mp.Communication.ASend(buf)
		if err != nil {
			return newErr(TransportError, "send mesh %d to rank %d: %v", meshId, mp.GlobalRemoteRank, err)
		}
		mp.PendingRequest = req
	}
	for _, mp := range mappings {
		if mp.PendingRequest == nil {
			continue
		}
		err := mp.PendingRequest.Wait()
		mp.PendingRequest = nil
		if err != nil {
			return newErr(TransportError, "send mesh %d to rank %d: %v", meshId, mp.GlobalRemoteRank, err)
		}
	}
	return nil
}

// Receive fills values at the positions each Mapping's LocalIndices name, in
// the order mappings were registered. Like Send, every mapping's receive is
// started with AReceive before any Wait; over the socket transport AReceive
// completes inline, so the receives run one mapping after another in
// registration order.
func (o *M2N) Receive(values []float64, meshId, valueDim, localVertexCount int) error {
	if err := o.checkSize(meshId, values, valueDim, localVertexCount); err != nil {
		return err
	}
	mappings := o.mappings[meshId]
	bufs := make([][]float64, len(mappings))
	for i, mp := range mappings {
		bufs[i] = make([]float64, mp.Count(valueDim))
		req, err := mp.Communication.AReceive(bufs[i])
		if err != nil {
			return newErr(TransportError, "receive mesh %d from rank %d: %v", meshId, mp.GlobalRemoteRank, err)
		}
		mp.PendingRequest = req
	}
	for i, mp := range mappings {
		if mp.PendingRequest != nil {
			err := mp.PendingRequest.Wait()
			mp.PendingRequest = nil
			if err != nil {
				return newErr(TransportError, "receive mesh %d from rank %d: %v", meshId, mp.GlobalRemoteRank, err)
			}
		}
		scatter(values, mp.LocalIndices, valueDim, bufs[i])
	}
	return nil
}

func (o *M2N) checkSize(meshId int, values []float64, valueDim, localVertexCount int) error {
	if !o.ready[meshId] {
		return newErr(NotReady, "mesh %d: send/receive attempted before distributions exchanged", meshId)
	}
	if len(values) != localVertexCount*valueDim {
		return newErr(SizeMismatch, "mesh %d: buffer has %d values, want %d (%d verts * dim %d)",
			meshId, len(values), localVertexCount*valueDim, localVertexCount, valueDim)
	}
	return nil
}

// Close tears down the master channel and every distributed mapping's
// channel. It does not mark the fabric closed: the mesh stays registered, so
// a later Send or Receive reaches the closed channel and fails with
// TransportError rather than NotConnected.
func (o *M2N) Close() error {
	if o.master != nil {
		if err := o.master.Close(); err != nil {
			return newErr(TransportError, "closing master channel: %v", err)
		}
		o.master = nil
	}
	for meshId, mappings := range o.mappings {
		for _, mp := range mappings {
			if mp.Communication == nil {
				continue
			}
			if err := mp.Communication.Close(); err != nil {
				return newErr(TransportError, "closing mesh %d mapping to rank %d: %v", meshId, mp.GlobalRemoteRank, err)
			}
		}
	}
	return nil
}
