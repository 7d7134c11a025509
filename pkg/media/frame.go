package media

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

// Frame is a reference counted handle to one immutable frame buffer. A frame
// starts with a single reference; every owner calls Release exactly once.
// The payload must not be read after the last Release: the buffer may have
// been handed to another frame already.
type Frame struct {
	pool *Pool
	buf  []byte
	refs atomic.Int32
	kept atomic.Bool

	profile   prop.Profile
	timestamp time.Duration
	domain    frame.TimestampDomain
	number    uint64
	arrival   time.Time
	metadata  map[frame.Metadata]int64
}

func newFrame(pool *Pool, buf []byte, raw Raw) *Frame {
	f := &Frame{
		pool:      pool,
		buf:       buf,
		profile:   raw.Profile,
		timestamp: raw.Timestamp,
		domain:    raw.Domain,
		number:    raw.Number,
		arrival:   time.Now(),
		metadata:  raw.Metadata,
	}
	f.refs.Store(1)
	return f
}

// NewFrame wraps raw in a frame that does not belong to any pool. raw.Data is
// used as is and must not be modified afterwards.
func NewFrame(raw Raw) *Frame {
	return newFrame(nil, raw.Data, raw)
}

// AddRef adds an owner to f.
func (f *Frame) AddRef() {
	for {
		n := f.refs.Load()
		if n <= 0 {
			panic(fmt.Errorf("frame %s #%d: %w", f.profile.Key, f.number, ErrUseAfterFree))
		}
		if f.refs.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// Release drops one owner. The buffer goes back to the pool with the last one.
func (f *Frame) Release() {
	n := f.refs.Add(-1)
	switch {
	case n < 0:
		panic(fmt.Errorf("frame %s #%d released twice: %w", f.profile.Key, f.number, ErrUseAfterFree))
	case n == 0 && f.pool != nil:
		f.pool.recycle(f.buf, f.kept.Load())
	}
}

// Keep adds a reference owned by the caller and takes the frame out of the
// pool's reuse cycle: its buffer is never recycled, even after the caller's
// final Release. Keeping many frames forces the pool to allocate new buffers.
func (f *Frame) Keep() {
	f.AddRef()
	if f.kept.CompareAndSwap(false, true) && f.pool != nil {
		f.pool.detach()
	}
}

// Kept reports whether Keep was called on f.
func (f *Frame) Kept() bool {
	return f.kept.Load()
}

// Refs returns the current number of owners.
func (f *Frame) Refs() int {
	return int(f.refs.Load())
}

func (f *Frame) checkAlive() error {
	if f.refs.Load() <= 0 {
		return fmt.Errorf("frame %s #%d: %w", f.profile.Key, f.number, ErrUseAfterFree)
	}
	return nil
}

// Data returns the frame payload. The slice is only valid while the caller
// owns a reference and must not be modified. Data panics when called after
// the last Release.
func (f *Frame) Data() []byte {
	if err := f.checkAlive(); err != nil {
		panic(err)
	}
	return f.buf
}

// CopyTo copies the payload into dst and returns the number of bytes copied.
func (f *Frame) CopyTo(dst []byte) (int, error) {
	if err := f.checkAlive(); err != nil {
		return 0, err
	}
	if len(dst) < len(f.buf) {
		return 0, &InsufficientBufferError{len(f.buf)}
	}
	return copy(dst, f.buf), nil
}

// Profile returns the stream profile the frame was captured with.
func (f *Frame) Profile() prop.Profile { return f.profile }

// Key returns the stream the frame belongs to.
func (f *Frame) Key() frame.Key { return f.profile.Key }

// Timestamp returns the capture time in the frame's timestamp domain.
func (f *Frame) Timestamp() time.Duration { return f.timestamp }

// Domain returns the clock Timestamp was taken from.
func (f *Frame) Domain() frame.TimestampDomain { return f.domain }

// Number returns the frame counter of the stream.
func (f *Frame) Number() uint64 { return f.number }

// Arrival returns the host time the frame entered the library.
func (f *Frame) Arrival() time.Time { return f.arrival }

// SupportsMetadata reports whether the frame carries a value for m.
func (f *Frame) SupportsMetadata(m frame.Metadata) bool {
	_, ok := f.metadata[m]
	return ok
}

// Metadata returns the value of m.
func (f *Frame) Metadata(m frame.Metadata) (int64, bool) {
	v, ok := f.metadata[m]
	return v, ok
}

// MetadataBytes returns the value of m as 8 big endian bytes.
func (f *Frame) MetadataBytes(m frame.Metadata) ([]byte, error) {
	if err := f.checkAlive(); err != nil {
		return nil, err
	}
	v, ok := f.metadata[m]
	if !ok {
		return nil, ErrMetadataUnsupported
	}
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s #%d @%v", f.profile.Key, f.number, f.timestamp)
}
