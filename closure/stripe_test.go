package closure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripeBoundsCoverage(t *testing.T) {
	// When size divides n, every row has exactly one owner.
	for _, size := range []int{1, 2, 4, 8} {
		n := 16
		owners := make([]int, n)
		for rank := 0; rank < size; rank++ {
			lo, hi := StripeBounds(n, size, rank)
			for i := lo; i < hi; i++ {
				owners[i]++
			}
		}
		for i, count := range owners {
			assert.Equalf(t, 1, count, "row %d with size %d", i, size)
		}
	}
}

func TestStripeBoundsTrailingRows(t *testing.T) {
	// 17 = 3*5 + 2: rows 15 and 16 belong to no rank.
	n, size := 17, 3
	claimed := make([]bool, n)
	for rank := 0; rank < size; rank++ {
		lo, hi := StripeBounds(n, size, rank)
		assert.Equal(t, 5*rank, lo)
		assert.Equal(t, 5*(rank+1), hi)
		for i := lo; i < hi; i++ {
			claimed[i] = true
		}
	}
	for i := 0; i < 15; i++ {
		assert.Truef(t, claimed[i], "row %d should be owned", i)
	}
	assert.False(t, claimed[15])
	assert.False(t, claimed[16])
}

func TestStripeBoundsPanics(t *testing.T) {
	assert.Panics(t, func() { StripeBounds(4, 0, 0) })
	assert.Panics(t, func() { StripeBounds(4, 2, 2) })
	assert.Panics(t, func() { StripeBounds(4, 2, -1) })
}
