package graphio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/unixpickle/dist-closure/closure"
)

// WriteMatrix writes the matrix as a space-separated 0/1
// grid, one row per line, in the format ReadAdjacency
// accepts.
func WriteMatrix(w io.Writer, m *closure.Matrix) error {
	var buf bytes.Buffer
	n := m.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if j > 0 {
				buf.WriteByte(' ')
			}
			if m.Get(i, j) {
				buf.WriteByte('1')
			} else {
				buf.WriteByte('0')
			}
		}
		buf.WriteByte('\n')
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Components extracts the strongly connected components of
// a transitively closed matrix: i and j share a component
// iff each reaches the other.
//
// Every vertex appears in exactly one component; components
// are ordered by their smallest vertex.
func Components(closed *closure.Matrix) [][]int {
	n := closed.Dim()
	assigned := make([]bool, n)
	var comps [][]int
	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}
		members := []int{i}
		assigned[i] = true
		for j := i + 1; j < n; j++ {
			if !assigned[j] && closed.Get(i, j) && closed.Get(j, i) {
				members = append(members, j)
				assigned[j] = true
			}
		}
		comps = append(comps, members)
	}
	return comps
}

// WriteDOT writes the closed graph in DOT format, with one
// cluster per component.
func WriteDOT(w io.Writer, closed *closure.Matrix, comps [][]int) error {
	var buf bytes.Buffer
	buf.WriteString("digraph closure {\n")
	for idx, members := range comps {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", idx)
		for _, v := range members {
			fmt.Fprintf(&buf, "    %d;\n", v)
		}
		buf.WriteString("  }\n")
	}
	n := closed.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if closed.Get(i, j) {
				fmt.Fprintf(&buf, "  %d -> %d;\n", i, j)
			}
		}
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}
