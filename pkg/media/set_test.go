package media

import (
	"errors"
	"testing"
	"time"

	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFrame(key frame.Key, ts time.Duration) *Frame {
	p := prop.Profile{Key: key, Format: frame.FormatY8, FPS: 30, Video: prop.Video{Width: 1, Height: 1}}
	if key.Stream == frame.StreamDepth {
		p.Format = frame.FormatZ16
	}
	return NewFrame(Raw{Data: []byte{0, 0}, Profile: p, Timestamp: ts})
}

func TestSetAccessors(t *testing.T) {
	depth := newTestFrame(frame.NewKey(frame.StreamDepth, 0), 10*time.Millisecond)
	ir1 := newTestFrame(frame.NewKey(frame.StreamInfrared, 1), 12*time.Millisecond)
	ir2 := newTestFrame(frame.NewKey(frame.StreamInfrared, 2), 11*time.Millisecond)

	s, err := NewSet(depth, ir1, ir2)
	require.NoError(t, err)
	defer s.Release()

	assert.Equal(t, 3, s.Size())
	assert.Equal(t, 12*time.Millisecond, s.Epoch())
	assert.Same(t, ir1, s.At(1))
	assert.Nil(t, s.At(3))
	assert.Same(t, ir2, s.Frame(frame.NewKey(frame.StreamInfrared, 2)))
	assert.Nil(t, s.Frame(frame.NewKey(frame.StreamColor, 0)))
	assert.Same(t, ir1, s.FirstOf(frame.StreamInfrared))
	assert.Nil(t, s.FirstOf(frame.StreamGyro))

	first, ok := s.Infrared(0)
	require.True(t, ok)
	assert.Same(t, ir1, first.Frame)

	d, ok := s.Depth()
	require.True(t, ok)
	assert.Same(t, depth, d.Frame)

	_, ok = s.Color()
	assert.False(t, ok)

	var visited []frame.Key
	s.ForEach(func(f *Frame) { visited = append(visited, f.Key()) })
	assert.Equal(t, s.Keys(), visited)
}

func TestSetRejectsDuplicateKeys(t *testing.T) {
	a := newTestFrame(frame.NewKey(frame.StreamDepth, 0), 0)
	b := newTestFrame(frame.NewKey(frame.StreamDepth, 0), 1)

	_, err := NewSet(a, b)
	require.Error(t, err)
	assert.Equal(t, 1, a.Refs())
	assert.Equal(t, 1, b.Refs())
}

func TestSetRelease(t *testing.T) {
	pool := NewPool()
	color, err := pool.Acquire(Raw{
		Data:    []byte{1, 2, 3},
		Profile: prop.Profile{Key: frame.NewKey(frame.StreamColor, 0), Format: frame.FormatRGB8, Video: prop.Video{Width: 1, Height: 1}},
	})
	require.NoError(t, err)
	depth, err := pool.Acquire(Raw{Data: []byte{1, 2}, Profile: depthProfile})
	require.NoError(t, err)

	s, err := NewSet(color, depth)
	require.NoError(t, err)

	// Take the color frame out of the set before it goes away.
	c, ok := s.Color()
	require.True(t, ok)
	c.Keep()

	s.Release()
	s.Release()

	assert.True(t, s.Released())
	assert.Equal(t, 0, depth.Refs())
	assert.Equal(t, 1, color.Refs())
	assert.Equal(t, []byte{1, 2, 3}, color.Data())

	assert.Panics(t, func() { s.Size() })
	assert.Panics(t, func() { s.At(0) })
	assert.Panics(t, func() { s.ForEach(func(*Frame) {}) })
	func() {
		defer func() {
			r := recover()
			err, _ := r.(error)
			assert.True(t, errors.Is(err, ErrUseAfterFree), "unexpected panic %v", r)
		}()
		s.Frame(frame.NewKey(frame.StreamDepth, 0))
	}()

	color.Release()
	assert.Equal(t, 0, pool.Stats().InFlight)
}
