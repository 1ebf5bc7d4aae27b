package closure

// StripeBounds returns the half-open row interval
// [stripe*rank, stripe*(rank+1)) owned by a rank, where
// stripe = n/size by integer division.
//
// Stripes are disjoint and contiguous. When n is not an
// exact multiple of size, the trailing n%size rows belong
// to no rank and are never relaxed; they pass through the
// engine at their broadcast value.
func StripeBounds(n, size, rank int) (lo, hi int) {
	if size <= 0 || rank < 0 || rank >= size {
		panic("rank out of range")
	}
	stripe := n / size
	return stripe * rank, stripe * (rank + 1)
}
