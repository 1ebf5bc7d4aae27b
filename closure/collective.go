package closure

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when a collective receives
// a contribution whose dimension disagrees with the local
// buffer. The group cannot continue past it: the rank that
// observes the mismatch bails out, the rest of the group
// stalls, and the event loop reports the stall.
var ErrShapeMismatch = errors.New("collective: matrix shape mismatch")

const ackSize = 1.0

// Bcast copies root's matrix m into every rank's m.
//
// The broadcast runs down a binary tree rooted at root and
// is a group-wide barrier: every rank blocks until its
// entire subtree holds the data, so root returns only once
// all ranks do. Non-root ranks pass in a buffer of the
// same dimension, which is overwritten in place.
func Bcast(p *Proc, root int, m *Matrix) error {
	pos := p.treePos(root)
	if pos != 0 {
		incoming := p.recvMatrix()
		if incoming.Dim() != m.Dim() {
			return fmt.Errorf("broadcast of %d-row matrix into %d-row buffer: %w",
				incoming.Dim(), m.Dim(), ErrShapeMismatch)
		}
		copy(m.cells, incoming.cells)
	}

	children := p.treeChildren(pos)
	for _, child := range children {
		p.send(p.rankAt(child, root), matPayload{mat: m.Clone()}, m.numBytes())
	}
	for range children {
		p.recvAck()
	}

	if pos != 0 {
		p.send(p.rankAt(treeParent(pos), root), ackPayload{}, ackSize)
	}
	return nil
}

// Reduce combines every rank's matrix with bitwise OR and
// materializes the result at root.
//
// Every rank contributes its full matrix. Root returns the
// combined matrix; all other ranks return nil. The input
// matrix is not modified.
func Reduce(p *Proc, root int, m *Matrix) (*Matrix, error) {
	pos := p.treePos(root)

	acc := m.Clone()
	for range p.treeChildren(pos) {
		contrib := p.recvMatrix()
		if contrib.Dim() != acc.Dim() {
			return nil, fmt.Errorf("reduction of %d-row matrix into %d-row buffer: %w",
				contrib.Dim(), acc.Dim(), ErrShapeMismatch)
		}
		acc.Or(contrib)
		p.Handle.Sleep(BitOpTime * acc.numBytes())
	}

	if pos != 0 {
		p.send(p.rankAt(treeParent(pos), root), matPayload{mat: acc}, acc.numBytes())
		return nil, nil
	}
	return acc, nil
}

// bcastRow sends the owner's current copy of row k to
// every other rank. Rows are tagged with their stage so a
// reordering network cannot confuse two stages.
func bcastRow(p *Proc, k int, row []uint8) {
	payload := rowPayload{k: k, row: append([]uint8{}, row...)}
	for rank := range p.Nodes {
		if rank == p.Rank() {
			continue
		}
		p.send(rank, payload, float64(len(row))+1)
	}
}

// treePos maps the current rank into a binary tree with
// root at position 0.
func (p *Proc) treePos(root int) int {
	return (p.Rank() - root + p.Size()) % p.Size()
}

// rankAt is the inverse of treePos.
func (p *Proc) rankAt(pos, root int) int {
	return (pos + root) % p.Size()
}

func treeParent(pos int) int {
	return (pos - 1) / 2
}

func (p *Proc) treeChildren(pos int) []int {
	var children []int
	for _, child := range []int{2*pos + 1, 2*pos + 2} {
		if child < p.Size() {
			children = append(children, child)
		}
	}
	return children
}
