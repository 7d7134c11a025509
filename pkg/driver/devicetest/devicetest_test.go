package devicetest

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/driver/availability"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	frames []driver.Frame
	faults []error
	got    chan struct{}
}

func newCollector() *collector {
	return &collector{got: make(chan struct{}, 1024)}
}

func (c *collector) OnFrame(f driver.Frame) {
	c.mu.Lock()
	f.Data = append([]byte(nil), f.Data...)
	c.frames = append(c.frames, f)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) OnFault(err error) {
	c.mu.Lock()
	c.faults = append(c.faults, err)
	c.mu.Unlock()
	c.got <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.got:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out after %d callbacks", i)
		}
	}
}

func sensorByName(t *testing.T, d driver.Driver, name string) driver.Sensor {
	t.Helper()
	for _, s := range d.Sensors() {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no sensor %q", name)
	return nil
}

func TestInfo(t *testing.T) {
	info := New(WithSerial("0042"), WithSynchronized()).Info()
	assert.Equal(t, "0042", info.Serial)
	assert.Equal(t, driver.Synthetic, info.DeviceType)
	assert.True(t, info.Synchronized)

	info = New(WithPlaybackFile("walk.bag")).Info()
	assert.Equal(t, driver.Playback, info.DeviceType)
	assert.Equal(t, "walk.bag", info.PlaybackFile)
}

func TestProfiles(t *testing.T) {
	m := driver.NewManager(nil)
	defer m.Close()
	d, err := Register(m, WithSizes([2]int{8, 4}), WithRates(30, 15))
	require.NoError(t, err)

	depth := prop.NewFilter(frame.StreamDepth, frame.IndexAny).Select(d.Profiles())
	require.Len(t, depth, 2)
	assert.True(t, depth[0].Default)
	assert.False(t, depth[1].Default)
	assert.Equal(t, float32(depthUnits), depth[0].DepthUnits)

	ir := prop.NewFilter(frame.StreamInfrared, frame.IndexAny).Select(d.Profiles())
	assert.Len(t, ir, 4, "two infrared streams")
}

func TestStreaming(t *testing.T) {
	m := driver.NewManager(nil)
	defer m.Close()
	d, err := Register(m, WithSizes([2]int{8, 4}), WithRates(30))
	require.NoError(t, err)
	require.NoError(t, d.Open())
	defer d.Close()

	stereo := sensorByName(t, d, StereoModule)
	profiles := []prop.Profile{
		prop.NewFilter(frame.StreamDepth, 0).Select(stereo.Profiles())[0],
		prop.NewFilter(frame.StreamInfrared, 1).Select(stereo.Profiles())[0],
	}

	c := newCollector()
	require.NoError(t, stereo.Start(profiles, c))
	c.wait(t, 4)
	require.NoError(t, stereo.Stop())

	c.mu.Lock()
	defer c.mu.Unlock()
	require.GreaterOrEqual(t, len(c.frames), 4)

	// Streams at the same rate are due at the same time, depth first.
	assert.Equal(t, frame.StreamDepth, c.frames[0].Profile.Stream)
	assert.Equal(t, frame.StreamInfrared, c.frames[1].Profile.Stream)
	assert.Equal(t, c.frames[0].Timestamp, c.frames[1].Timestamp)
	assert.Equal(t, c.frames[0].Timestamp+time.Second/30, c.frames[2].Timestamp)
	assert.Equal(t, uint32(1), c.frames[2].Counter)

	assert.Len(t, c.frames[0].Data, 8*4*2)
	assert.Len(t, c.frames[1].Data, 8*4)
	assert.Equal(t, profiles[0].UID, c.frames[0].Profile.UID)
}

func TestMotion(t *testing.T) {
	dev := New()
	require.NoError(t, dev.Open())
	defer dev.Close()

	var motion driver.Sensor
	for _, s := range dev.Sensors() {
		if s.Name() == MotionModule {
			motion = s
		}
	}
	accel := prop.NewFilter(frame.StreamAccel, 0).Select(motion.Profiles())[0]

	c := newCollector()
	require.NoError(t, motion.Start([]prop.Profile{accel}, c))
	c.wait(t, 1)
	require.NoError(t, motion.Stop())

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.frames[0].Data, 12)
}

func TestFault(t *testing.T) {
	dev := New(WithSizes([2]int{8, 4}), WithFaultAfter(2, availability.ErrFatal))
	require.NoError(t, dev.Open())
	defer dev.Close()

	s := dev.Sensors()[0]
	c := newCollector()
	require.NoError(t, s.Start(s.Profiles()[:1], c))
	c.wait(t, 3)

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.Len(t, c.frames, 2)
	require.Len(t, c.faults, 1)
	assert.True(t, errors.Is(c.faults[0], availability.ErrFatal))
}

func TestStartErrors(t *testing.T) {
	dev := New()
	s := dev.Sensors()[0]
	assert.Error(t, s.Start(s.Profiles()[:1], newCollector()), "closed device")

	require.NoError(t, dev.Open())
	defer dev.Close()
	assert.Error(t, s.Start(nil, newCollector()))
	assert.Error(t, s.Start([]prop.Profile{{Key: frame.NewKey(frame.StreamPose, 0)}}, newCollector()))

	require.NoError(t, s.Start(s.Profiles()[:1], newCollector()))
	assert.Error(t, s.Start(s.Profiles()[:1], newCollector()), "already streaming")
}
