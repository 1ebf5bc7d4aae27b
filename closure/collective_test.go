package closure

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixpickle/dist-closure/simulator"
)

func randomMatrix(n int, density float64) *Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if rand.Float64() < density {
				m.Set(i, j, true)
			}
		}
	}
	return m
}

func spawnGroup(loop *simulator.EventLoop, size int,
	network simulator.Network, f func(p *Proc)) []*simulator.Node {
	nodes := make([]*simulator.Node, size)
	for i := range nodes {
		nodes[i] = simulator.NewNode(loop)
	}
	SpawnProcs(loop, network, nodes, f)
	return nodes
}

func TestBcast(t *testing.T) {
	networks := map[string]func() simulator.Network{
		"Random": func() simulator.Network { return simulator.RandomNetwork{} },
		"Link":   func() simulator.Network { return simulator.NewLinkNetwork(1e6, 1e-3) },
	}
	for name, makeNetwork := range networks {
		for _, size := range []int{1, 2, 3, 7, 8} {
			t.Run(fmt.Sprintf("%s/Size=%d", name, size), func(t *testing.T) {
				loop := simulator.NewEventLoop()
				network := makeNetwork()
				seed := randomMatrix(9, 0.4)
				buffers := make([]*Matrix, size)
				errs := make([]error, size)
				spawnGroup(loop, size, network, func(p *Proc) {
					var m *Matrix
					if p.Rank() == 0 {
						m = seed.Clone()
					} else {
						m = NewMatrix(seed.Dim())
					}
					errs[p.Rank()] = Bcast(p, 0, m)
					buffers[p.Rank()] = m
				})
				require.NoError(t, loop.Run())
				for rank := 0; rank < size; rank++ {
					require.NoError(t, errs[rank])
					assert.Truef(t, seed.Equal(buffers[rank]),
						"rank %d buffer differs from seed", rank)
				}
			})
		}
	}
}

func TestReduce(t *testing.T) {
	for _, size := range []int{1, 2, 3, 7, 8} {
		t.Run(fmt.Sprintf("Size=%d", size), func(t *testing.T) {
			loop := simulator.NewEventLoop()
			contribs := make([]*Matrix, size)
			expected := NewMatrix(6)
			for i := range contribs {
				contribs[i] = randomMatrix(6, 0.3)
				expected.Or(contribs[i])
			}
			results := make([]*Matrix, size)
			errs := make([]error, size)
			spawnGroup(loop, size, simulator.RandomNetwork{}, func(p *Proc) {
				results[p.Rank()], errs[p.Rank()] = Reduce(p, 0, contribs[p.Rank()])
			})
			require.NoError(t, loop.Run())
			for rank := 0; rank < size; rank++ {
				require.NoError(t, errs[rank])
			}
			require.NotNil(t, results[0])
			assert.True(t, expected.Equal(results[0]))
			for rank := 1; rank < size; rank++ {
				assert.Nil(t, results[rank])
			}
			// Contributions are left intact.
			for rank := 0; rank < size; rank++ {
				assert.NotNil(t, contribs[rank])
			}
		})
	}
}

func TestBcastShapeMismatch(t *testing.T) {
	loop := simulator.NewEventLoop()
	errs := make([]error, 2)
	spawnGroup(loop, 2, simulator.RandomNetwork{}, func(p *Proc) {
		if p.Rank() == 0 {
			errs[0] = Bcast(p, 0, randomMatrix(4, 0.5))
		} else {
			errs[1] = Bcast(p, 0, NewMatrix(3))
		}
	})
	// Rank 0 waits forever for an ack that never comes.
	require.Error(t, loop.Run())
	assert.True(t, errors.Is(errs[1], ErrShapeMismatch))
}
