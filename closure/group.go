package closure

import (
	"github.com/unixpickle/dist-closure/simulator"
	"github.com/unixpickle/essentials"
)

// A Proc is a single rank's view of a fixed process group.
//
// Every rank runs the same code (SPMD); ranks differ only
// by their index in Nodes. A new Proc should be used for
// each engine run.
type Proc struct {
	// Handle is the rank's main Goroutine's handle on the
	// event loop.
	Handle *simulator.Handle

	// Node is the current rank's node.
	Node *simulator.Node

	// Nodes contains all the nodes in the group, including
	// Node. A rank is its node's index in this slice.
	Nodes []*simulator.Node

	// Network is the network connecting the nodes.
	Network simulator.Network

	// Out-of-order messages parked until a collective
	// asks for them.
	queuedMats []*Matrix
	queuedAcks int
	queuedRows []rowPayload
}

// SpawnProcs creates a Proc for every node in the group
// and calls f for each rank in its own Goroutine.
func SpawnProcs(loop *simulator.EventLoop, network simulator.Network,
	nodes []*simulator.Node, f func(p *Proc)) {
	for i := range nodes {
		node := nodes[i]
		loop.Go(func(h *simulator.Handle) {
			f(&Proc{
				Handle:  h,
				Node:    node,
				Nodes:   nodes,
				Network: network,
			})
		})
	}
}

// Rank returns the current rank's index in the group.
func (p *Proc) Rank() int {
	for i, node := range p.Nodes {
		if node == p.Node {
			return i
		}
	}
	panic("unreachable")
}

// Size gets the number of ranks in the group.
func (p *Proc) Size() int {
	return len(p.Nodes)
}

// send schedules a payload to be sent to the given rank.
func (p *Proc) send(rank int, payload interface{}, size float64) {
	p.Network.Send(p.Handle, &simulator.Message{
		Source:  p.Node,
		Dest:    p.Nodes[rank],
		Message: payload,
		Size:    size,
	})
}

// Collective payload types. A rank can legitimately see a
// payload of one kind while waiting for another (e.g. a
// reduction contribution arriving while broadcast acks are
// still in flight on a reordering network), so receives
// dispatch by type and park the rest.

type matPayload struct {
	mat *Matrix
}

type ackPayload struct{}

type rowPayload struct {
	k   int
	row []uint8
}

func (p *Proc) dispatch() {
	switch msg := p.Node.Recv(p.Handle).Message.(type) {
	case matPayload:
		p.queuedMats = append(p.queuedMats, msg.mat)
	case ackPayload:
		p.queuedAcks++
	case rowPayload:
		p.queuedRows = append(p.queuedRows, msg)
	default:
		panic("unexpected message type")
	}
}

// recvMatrix blocks until a matrix payload arrives.
func (p *Proc) recvMatrix() *Matrix {
	for len(p.queuedMats) == 0 {
		p.dispatch()
	}
	mat := p.queuedMats[0]
	essentials.OrderedDelete(&p.queuedMats, 0)
	return mat
}

// recvAck blocks until an ack payload arrives.
func (p *Proc) recvAck() {
	for p.queuedAcks == 0 {
		p.dispatch()
	}
	p.queuedAcks--
}

// recvRow blocks until the row for stage k arrives.
func (p *Proc) recvRow(k int) []uint8 {
	for {
		for i, msg := range p.queuedRows {
			if msg.k == k {
				essentials.OrderedDelete(&p.queuedRows, i)
				return msg.row
			}
		}
		p.dispatch()
	}
}
