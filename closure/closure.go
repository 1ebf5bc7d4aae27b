// Package closure implements a distributed transitive-closure engine
// over a fixed group of simulated processes.
//
// Rows of the adjacency matrix are striped across the group. Every rank
// receives a full broadcast copy of the input, relaxes only its own
// stripe through the Floyd-Warshall stages, and the per-rank results
// are OR-reduced back to the coordinator.
//
// The default mode exchanges no messages between stages. A rank
// relaxing stage k against a row k it does not own therefore sees only
// the broadcast value of that row, not refinements another rank made in
// earlier stages. The result is exact for a single-rank group and an
// under-approximation of the true closure otherwise. SyncStages trades
// one row broadcast per stage for exactness.
package closure

import "sync"

// BitOpTime is the amount of virtual time it takes to
// perform a single relaxation update.
const BitOpTime = 1e-10

// Coordinator is the rank that seeds the broadcast and
// receives the reduction.
const Coordinator = 0

// A Config adjusts how each rank runs the relaxation loop.
//
// The zero value is the default sequential, non-syncing
// engine.
type Config struct {
	// Workers is the number of Goroutines each rank
	// spreads its stripe across within a stage. Values
	// below 2 keep the stage sequential. Workers own
	// disjoint contiguous row ranges, so no locking is
	// involved.
	Workers int

	// SyncStages makes the engine exact for multi-rank
	// groups whenever every row has an owner (size divides
	// n): before stage k is relaxed, the owner of row k
	// broadcasts its current copy of that row, so every
	// rank sees all refinements from earlier stages. Rows
	// owned by no rank are identical everywhere and are
	// never refreshed.
	SyncStages bool
}

// Run executes the engine on one rank of a group.
//
// Every rank passes the same adjacency matrix; the
// coordinator's copy seeds the group-wide broadcast. The
// input is never modified.
//
// The coordinator returns the closure matrix. Every other
// rank returns nil. A collective error is returned as-is
// and is not recoverable: the surviving ranks stall and
// the event loop's Run reports the stalled group.
func Run(p *Proc, adj *Matrix, cfg Config) (*Matrix, error) {
	n := adj.Dim()

	var work *Matrix
	if p.Rank() == Coordinator {
		work = adj.Clone()
	} else {
		work = NewMatrix(n)
	}
	if err := Bcast(p, Coordinator, work); err != nil {
		return nil, err
	}

	lo, hi := StripeBounds(n, p.Size(), p.Rank())
	stripe := n / p.Size()
	for k := 0; k < n; k++ {
		if cfg.SyncStages && p.Size() > 1 && k < stripe*p.Size() {
			owner := k / stripe
			if owner == p.Rank() {
				bcastRow(p, k, work.Row(k))
			} else {
				copy(work.Row(k), p.recvRow(k))
			}
		}
		relaxStage(work, k, lo, hi, cfg.Workers)
		p.Handle.Sleep(BitOpTime * float64((hi-lo)*n))
	}

	return Reduce(p, Coordinator, work)
}

// relaxStage applies stage k of the relaxation to the rows
// in [lo, hi), optionally splitting them across workers.
func relaxStage(work *Matrix, k, lo, hi, workers int) {
	rows := hi - lo
	if workers < 2 || rows < 2 {
		relaxRows(work, k, lo, hi)
		return
	}
	if workers > rows {
		workers = rows
	}

	var wg sync.WaitGroup
	chunk := (rows + workers - 1) / workers
	for start := lo; start < hi; start += chunk {
		end := start + chunk
		if end > hi {
			end = hi
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			relaxRows(work, k, start, end)
		}(start, end)
	}
	wg.Wait()
}

// relaxRows updates rows [lo, hi) for stage k:
//
//	work[i][j] |= work[i][k] && work[k][j]
func relaxRows(work *Matrix, k, lo, hi int) {
	rowK := work.Row(k)
	for i := lo; i < hi; i++ {
		// Stage k never changes row k, and skipping it
		// keeps workers from writing a row another worker
		// is reading.
		if i == k {
			continue
		}
		row := work.Row(i)
		if row[k] == 0 {
			continue
		}
		for j, reach := range rowK {
			if reach != 0 {
				row[j] = 1
			}
		}
	}
}
