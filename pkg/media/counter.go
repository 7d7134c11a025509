package media

// CounterUnwrapper extends a wrapping 32-bit frame counter into a monotonic
// 64-bit frame number. Use one per stream.
type CounterUnwrapper struct {
	last    uint32
	high    uint64
	started bool
}

// Unwrap returns the 64-bit frame number for the raw counter value c.
func (u *CounterUnwrapper) Unwrap(c uint32) uint64 {
	// A large backwards step is a wrap, a small one is reordering.
	if u.started && c < u.last && u.last-c > 1<<31 {
		u.high += 1 << 32
	}
	u.last = c
	u.started = true
	return u.high | uint64(c)
}
