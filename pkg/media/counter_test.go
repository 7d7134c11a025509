package media

import "testing"

func TestCounterUnwrapper(t *testing.T) {
	var u CounterUnwrapper

	inputs := []uint32{0xfffffffe, 0xffffffff, 0, 1, 0, 2}
	expected := []uint64{0xfffffffe, 0xffffffff, 1 << 32, 1<<32 | 1, 1 << 32, 1<<32 | 2}

	for i, in := range inputs {
		if got := u.Unwrap(in); got != expected[i] {
			t.Errorf("Unwrap(%#x): expected %#x, got %#x", in, expected[i], got)
		}
	}
}
