package media

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pion/framesync/pkg/frame"
)

// Set is a bundle of frames captured at about the same time, at most one per
// stream. A Set owns one reference of each member and gives them all back on
// Release. Members that must outlive the set are taken with Frame.Keep.
type Set struct {
	frames   []*Frame
	epoch    time.Duration
	released atomic.Bool
}

// NewSet bundles frames, taking over one reference of each. Keys must be
// unique; on error no reference is taken.
func NewSet(frames ...*Frame) (*Set, error) {
	seen := make(map[frame.Key]struct{}, len(frames))
	s := &Set{frames: make([]*Frame, 0, len(frames))}
	for _, f := range frames {
		key := f.Key()
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("duplicate frame for stream %s", key)
		}
		seen[key] = struct{}{}
		if f.Timestamp() > s.epoch {
			s.epoch = f.Timestamp()
		}
		s.frames = append(s.frames, f)
	}
	return s, nil
}

func (s *Set) mustBeAlive() {
	if s.released.Load() {
		panic(fmt.Errorf("frame set: %w", ErrUseAfterFree))
	}
}

// Size returns the number of frames in the set.
func (s *Set) Size() int {
	s.mustBeAlive()
	return len(s.frames)
}

// Epoch returns the timestamp of the newest member.
func (s *Set) Epoch() time.Duration {
	s.mustBeAlive()
	return s.epoch
}

// At returns the frame at position i, independent of the stream keys, or nil
// when i is out of range.
func (s *Set) At(i int) *Frame {
	s.mustBeAlive()
	if i < 0 || i >= len(s.frames) {
		return nil
	}
	return s.frames[i]
}

// Frame returns the frame of the given stream, or nil.
func (s *Set) Frame(key frame.Key) *Frame {
	s.mustBeAlive()
	for _, f := range s.frames {
		if f.Key() == key {
			return f
		}
	}
	return nil
}

// Get returns the frame of stream st with the given index. Index 0 returns
// the first frame of that stream type, whatever its index.
func (s *Set) Get(st frame.Stream, index int) *Frame {
	if index != 0 {
		return s.Frame(frame.NewKey(st, index))
	}
	s.mustBeAlive()
	for _, f := range s.frames {
		if f.Key().Stream == st {
			return f
		}
	}
	return nil
}

// FirstOf returns the first frame of stream type st, or nil.
func (s *Set) FirstOf(st frame.Stream) *Frame {
	return s.Get(st, 0)
}

// Depth returns the first depth frame, if any.
func (s *Set) Depth() (DepthFrame, bool) {
	f := s.Get(frame.StreamDepth, 0)
	if f == nil {
		return DepthFrame{}, false
	}
	return f.AsDepth()
}

// Color returns the first color frame, if any.
func (s *Set) Color() (VideoFrame, bool) {
	f := s.Get(frame.StreamColor, 0)
	if f == nil {
		return VideoFrame{}, false
	}
	return f.AsVideo()
}

// Infrared returns the infrared frame with the given index, 0 meaning the
// first one.
func (s *Set) Infrared(index int) (VideoFrame, bool) {
	f := s.Get(frame.StreamInfrared, index)
	if f == nil {
		return VideoFrame{}, false
	}
	return f.AsVideo()
}

// ForEach calls fn for every frame, in position order.
func (s *Set) ForEach(fn func(*Frame)) {
	s.mustBeAlive()
	for _, f := range s.frames {
		fn(f)
	}
}

// Keys returns the stream keys of the members, in position order.
func (s *Set) Keys() []frame.Key {
	s.mustBeAlive()
	keys := make([]frame.Key, len(s.frames))
	for i, f := range s.frames {
		keys[i] = f.Key()
	}
	return keys
}

// Release gives back the set's reference of every member. Calling it again is
// a no-op.
func (s *Set) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	for _, f := range s.frames {
		f.Release()
	}
}

// Released reports whether Release was called.
func (s *Set) Released() bool {
	return s.released.Load()
}
