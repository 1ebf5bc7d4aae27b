package simulator

import (
	"math/rand"
	"sync"

	"github.com/unixpickle/essentials"
)

// A Node represents a machine in a virtual process group.
type Node struct {
	// A stream of *Message objects.
	Incoming *EventStream
}

// NewNode creates a Node whose incoming messages are
// delivered through the given loop.
func NewNode(loop *EventLoop) *Node {
	return &Node{Incoming: loop.Stream()}
}

// Recv receives the next message sent to the node.
func (n *Node) Recv(h *Handle) *Message {
	return h.Poll(n.Incoming).Message.(*Message)
}

// A Message is a chunk of data sent between nodes over a
// network.
type Message struct {
	Source  *Node
	Dest    *Node
	Message interface{}
	Size    float64
}

// A Network represents an abstract way of communicating
// between nodes.
type Network interface {
	// Send message objects from one node to another.
	// The message will arrive on the receiving node's
	// incoming EventStream if the communication is
	// successful.
	//
	// This is a non-blocking operation.
	Send(h *Handle, msgs ...*Message)
}

// A RandomNetwork assigns an independent random delay to
// every message. Delivery order is unspecified.
type RandomNetwork struct{}

// Send sends the messages with random delays.
func (r RandomNetwork) Send(h *Handle, msgs ...*Message) {
	for _, msg := range msgs {
		h.Schedule(msg.Dest.Incoming, msg, rand.Float64())
	}
}

// A LinkNetwork models point-to-point links with a fixed
// transfer rate and per-message latency. Messages to the
// same destination are delivered in the order they were
// sent.
//
// Nodes can be taken offline with SetDown; traffic to and
// from a down node is silently dropped, so a process group
// waiting on that node stalls until the event loop reports
// a deadlock.
type LinkNetwork struct {
	// Rate is the transfer rate in size units per virtual
	// second.
	Rate float64

	// Latency is a fixed delay added to every message.
	Latency float64

	lock      sync.Mutex
	busyUntil map[*Node]float64
	downNodes map[*Node]bool
	inFlight  map[*Node][]*Timer
}

// NewLinkNetwork creates a LinkNetwork with the given
// transfer rate and latency.
func NewLinkNetwork(rate, latency float64) *LinkNetwork {
	return &LinkNetwork{
		Rate:      rate,
		Latency:   latency,
		busyUntil: map[*Node]float64{},
		downNodes: map[*Node]bool{},
		inFlight:  map[*Node][]*Timer{},
	}
}

// Send sends the messages over the network, serializing
// messages per destination.
func (l *LinkNetwork) Send(h *Handle, msgs ...*Message) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.dropFired(h)

	curTime := h.Time()
	for _, msg := range msgs {
		src, dest := msg.Source, msg.Dest
		if l.downNodes[src] || l.downNodes[dest] {
			continue
		}
		delay := l.Latency + msg.Size/l.Rate
		if t, ok := l.busyUntil[dest]; ok && t > curTime {
			delay += t - curTime
		}
		timer := h.Schedule(dest.Incoming, msg, delay)
		l.busyUntil[dest] = curTime + delay
		l.inFlight[dest] = append(l.inFlight[dest], timer)
		l.inFlight[src] = append(l.inFlight[src], timer)
	}
}

// SetDown takes a node offline or brings it back.
//
// Taking a node down cancels every message currently in
// flight to or from it.
func (l *LinkNetwork) SetDown(h *Handle, node *Node, down bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.downNodes[node] = down
	if !down {
		return
	}

	delete(l.busyUntil, node)

	l.dropFired(h)
	canceled := map[*Timer]bool{}
	for _, t := range l.inFlight[node] {
		canceled[t] = true
		h.Cancel(t)
	}
	delete(l.inFlight, node)
	l.filterInFlight(h, func(t *Timer) bool {
		return !canceled[t]
	})
}

// dropFired forgets timers whose deadline has passed.
func (l *LinkNetwork) dropFired(h *Handle) {
	time := h.Time()
	l.filterInFlight(h, func(t *Timer) bool {
		return t.Time() >= time
	})
}

func (l *LinkNetwork) filterInFlight(h *Handle, f func(t *Timer) bool) {
	for node, timers := range l.inFlight {
		for i := 0; i < len(timers); i++ {
			if !f(timers[i]) {
				essentials.UnorderedDelete(&timers, i)
				i--
			}
		}
		l.inFlight[node] = timers
	}
}
