package graphio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unixpickle/dist-closure/closure"
)

func TestReadAdjacency(t *testing.T) {
	input := "0 1 0\n0 0 1\n1 0 0\n"
	m, err := ReadAdjacency(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, m.Dim())
	assert.True(t, m.Get(0, 1))
	assert.True(t, m.Get(1, 2))
	assert.True(t, m.Get(2, 0))
	assert.False(t, m.Get(0, 0))
	assert.False(t, m.Get(1, 0))
}

func TestReadAdjacencySkipsBlankLines(t *testing.T) {
	input := "\n0 1\n\n1 0\n\n"
	m, err := ReadAdjacency(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Dim())
}

func TestReadAdjacencyErrors(t *testing.T) {
	_, err := ReadAdjacency(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadAdjacency(strings.NewReader("0 1\n0\n"))
	assert.ErrorIs(t, err, ErrRaggedRow)

	_, err = ReadAdjacency(strings.NewReader("0 2\n1 0\n"))
	assert.ErrorIs(t, err, ErrBadFlag)
}

func TestReadPairs(t *testing.T) {
	input := "0\t1\n1\t2\n4\t0\n"
	m, err := ReadPairs(strings.NewReader(input), "\t")
	require.NoError(t, err)
	require.Equal(t, 5, m.Dim())
	assert.True(t, m.Get(0, 1))
	assert.True(t, m.Get(1, 2))
	assert.True(t, m.Get(4, 0))
	assert.False(t, m.Get(3, 0))
}

func TestReadPairsErrors(t *testing.T) {
	_, err := ReadPairs(strings.NewReader("\n\n"), "\t")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = ReadPairs(strings.NewReader("0\t1\t2\n"), "\t")
	assert.ErrorIs(t, err, ErrBadVertex)

	_, err = ReadPairs(strings.NewReader("0\t-1\n"), "\t")
	assert.ErrorIs(t, err, ErrBadVertex)

	_, err = ReadPairs(strings.NewReader("a\t1\n"), "\t")
	assert.ErrorIs(t, err, ErrBadVertex)
}

func TestWriteMatrixRoundTrip(t *testing.T) {
	m := closure.NewMatrix(3)
	m.Set(0, 2, true)
	m.Set(2, 1, true)

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, m))
	assert.Equal(t, "0 0 1\n0 0 0\n0 1 0\n", buf.String())

	back, err := ReadAdjacency(&buf)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
}

func TestComponents(t *testing.T) {
	// Closure of a 3-cycle on {0,1,2} plus the isolated
	// vertices 3 and 4 with an edge 3->4.
	closed := closure.NewMatrix(5)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			closed.Set(i, j, true)
		}
	}
	closed.Set(3, 4, true)

	comps := Components(closed)
	require.Len(t, comps, 3)
	assert.Equal(t, []int{0, 1, 2}, comps[0])
	assert.Equal(t, []int{3}, comps[1])
	assert.Equal(t, []int{4}, comps[2])
}

func TestWriteDOT(t *testing.T) {
	closed := closure.NewMatrix(2)
	closed.Set(0, 1, true)

	var buf bytes.Buffer
	require.NoError(t, WriteDOT(&buf, closed, Components(closed)))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph closure {\n"))
	assert.Contains(t, out, "subgraph cluster_0")
	assert.Contains(t, out, "0 -> 1;")
	assert.NotContains(t, out, "1 -> 0;")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}
