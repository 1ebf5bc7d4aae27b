package closure

// A Matrix is a dense n-by-n grid of {0,1} reachability
// flags stored in a single contiguous row-major buffer
// with an explicit row stride.
//
// A Matrix is allocated once and never resized.
type Matrix struct {
	n      int
	stride int
	cells  []uint8
}

// NewMatrix creates an all-zero n-by-n matrix.
func NewMatrix(n int) *Matrix {
	if n <= 0 {
		panic("matrix dimension must be positive")
	}
	return &Matrix{
		n:      n,
		stride: n,
		cells:  make([]uint8, n*n),
	}
}

// Dim returns the dimension n.
func (m *Matrix) Dim() int {
	return m.n
}

// Get reads the flag at row i, column j.
func (m *Matrix) Get(i, j int) bool {
	return m.cells[m.index(i, j)] != 0
}

// Set writes the flag at row i, column j.
func (m *Matrix) Set(i, j int, value bool) {
	if value {
		m.cells[m.index(i, j)] = 1
	} else {
		m.cells[m.index(i, j)] = 0
	}
}

// Row returns row i as a slice aliasing the matrix buffer.
//
// Writes through the slice are writes to the matrix.
func (m *Matrix) Row(i int) []uint8 {
	if i < 0 || i >= m.n {
		panic("index out of bounds")
	}
	return m.cells[i*m.stride : i*m.stride+m.n]
}

// Clone returns a deep copy of the matrix.
func (m *Matrix) Clone() *Matrix {
	res := NewMatrix(m.n)
	copy(res.cells, m.cells)
	return res
}

// Or sets every cell of m to the elementwise OR of m and
// other. The two matrices must have the same dimension.
func (m *Matrix) Or(other *Matrix) {
	if other.n != m.n {
		panic("dimension mismatch")
	}
	for i, x := range other.cells {
		if x != 0 {
			m.cells[i] = 1
		}
	}
}

// Equal reports whether the two matrices hold identical
// flags.
func (m *Matrix) Equal(other *Matrix) bool {
	if other.n != m.n {
		return false
	}
	for i, x := range m.cells {
		if x != other.cells[i] {
			return false
		}
	}
	return true
}

// numBytes is the wire size of the matrix payload.
func (m *Matrix) numBytes() float64 {
	return float64(m.n * m.n)
}

func (m *Matrix) index(i, j int) int {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		panic("index out of bounds")
	}
	return i*m.stride + j
}
