package media

import (
	"fmt"
	"time"

	"github.com/pion/framesync/internal/wait"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

const defaultPoolCapacity = 16

// Raw is a frame as delivered by the acquisition layer, before it is copied
// into a pooled buffer.
type Raw struct {
	Data      []byte
	Profile   prop.Profile
	Timestamp time.Duration
	Domain    frame.TimestampDomain
	Number    uint64
	Metadata  map[frame.Metadata]int64
}

// PoolStats is a snapshot of the pool bookkeeping.
type PoolStats struct {
	// Allocated counts buffers that had to be allocated.
	Allocated uint64
	// Reused counts buffers taken from the free list.
	Reused uint64
	// InFlight is the number of pool-owned frames currently alive. Kept
	// frames are not counted.
	InFlight int
	// Free is the number of buffers waiting to be reused.
	Free int
	// Exhausted counts Acquire calls that failed with ErrPoolExhausted.
	Exhausted uint64
}

// Pool recycles frame buffers. A buffer goes back to the free list when the
// last reference of its frame is released, unless the frame was kept or the
// free list is already full, in which case it is left to the garbage
// collector.
type Pool struct {
	cond           wait.Cond
	free           [][]byte
	capacity       int
	maxInFlight    int
	acquireTimeout time.Duration
	stats          PoolStats
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithCapacity sets how many free buffers the pool retains. The default is 16.
func WithCapacity(n int) PoolOption {
	return func(p *Pool) {
		p.capacity = n
	}
}

// WithMaxInFlight bounds the number of pool-owned frames alive at once.
// Zero, the default, means unbounded.
func WithMaxInFlight(n int) PoolOption {
	return func(p *Pool) {
		p.maxInFlight = n
	}
}

// WithAcquireTimeout sets how long Acquire blocks the producer when the pool
// is exhausted before giving up. The default is not to block.
func WithAcquireTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.acquireTimeout = d
	}
}

// NewPool creates a new frame pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{capacity: defaultPoolCapacity}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Acquire copies raw into a pooled buffer and returns a frame holding one
// reference, owned by the caller.
func (p *Pool) Acquire(raw Raw) (*Frame, error) {
	p.cond.Lock()
	if p.maxInFlight > 0 {
		err := p.cond.WaitFor(p.acquireTimeout, func() bool {
			return p.stats.InFlight < p.maxInFlight
		})
		if err != nil {
			p.stats.Exhausted++
			p.cond.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrPoolExhausted, err)
		}
	}
	p.stats.InFlight++
	buf := p.take(len(raw.Data))
	p.cond.Unlock()

	copy(buf, raw.Data)
	return newFrame(p, buf, raw), nil
}

// take returns a buffer of length n, reusing the most recently freed buffer
// that is large enough. The caller must hold the lock.
func (p *Pool) take(n int) []byte {
	for i := len(p.free) - 1; i >= 0; i-- {
		buf := p.free[i]
		if cap(buf) < n {
			continue
		}
		p.free = append(p.free[:i], p.free[i+1:]...)
		p.stats.Reused++
		return buf[:n]
	}
	p.stats.Allocated++
	return make([]byte, n)
}

// detach removes a kept frame from the pool bookkeeping.
func (p *Pool) detach() {
	p.cond.Lock()
	p.stats.InFlight--
	p.cond.Broadcast()
	p.cond.Unlock()
}

// recycle is called once the last reference of a frame is gone.
func (p *Pool) recycle(buf []byte, kept bool) {
	p.cond.Lock()
	defer p.cond.Unlock()

	if kept {
		return
	}
	p.stats.InFlight--
	if len(p.free) < p.capacity {
		p.free = append(p.free, buf[:cap(buf)])
	}
	p.cond.Broadcast()
}

// Stats returns a snapshot of the pool bookkeeping.
func (p *Pool) Stats() PoolStats {
	p.cond.Lock()
	defer p.cond.Unlock()
	stats := p.stats
	stats.Free = len(p.free)
	return stats
}
