package driver

import (
	"errors"
	"sync"
	"testing"

	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

var errStart = errors.New("failed to start streaming")

type sensorMock struct {
	name     string
	profiles []prop.Profile
	startErr error

	mu      sync.Mutex
	cb      Callback
	started []prop.Profile
}

func (s *sensorMock) Name() string             { return s.name }
func (s *sensorMock) Profiles() []prop.Profile { return s.profiles }

func (s *sensorMock) Start(profiles []prop.Profile, cb Callback) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
	s.started = profiles
	return nil
}

func (s *sensorMock) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = nil
	return nil
}

func (s *sensorMock) emit(f Frame) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb != nil {
		cb.OnFrame(f)
	}
}

type adapterMock struct {
	sensors []Sensor
	opens   int
	closes  int
}

func (a *adapterMock) Open() error       { a.opens++; return nil }
func (a *adapterMock) Close() error      { a.closes++; return nil }
func (a *adapterMock) Sensors() []Sensor { return a.sensors }

type callbackMock struct {
	frames []Frame
	faults []error
}

func (c *callbackMock) OnFrame(f Frame)   { c.frames = append(c.frames, f) }
func (c *callbackMock) OnFault(err error) { c.faults = append(c.faults, err) }

func newDepthSensor() *sensorMock {
	return &sensorMock{
		name: "Stereo Module",
		profiles: []prop.Profile{
			{Key: frame.NewKey(frame.StreamDepth, 0), Format: frame.FormatZ16, FPS: 30, Video: prop.Video{Width: 4, Height: 2}},
			{Key: frame.NewKey(frame.StreamInfrared, 1), Format: frame.FormatY8, FPS: 30, Video: prop.Video{Width: 4, Height: 2}},
		},
	}
}

func probed(t *testing.T, a Adapter) *adapterWrapper {
	t.Helper()
	uid := 0
	d := wrapAdapter(a, Info{Label: "mock"})
	if err := d.probe(func() int { uid++; return uid }); err != nil {
		t.Fatalf("failed to probe: %v", err)
	}
	return d
}

func TestWrapperProbe(t *testing.T) {
	a := &adapterMock{sensors: []Sensor{newDepthSensor()}}
	d := probed(t, a)

	if a.opens != 1 || a.closes != 1 {
		t.Errorf("expected the device to be opened and closed once, got %d/%d", a.opens, a.closes)
	}
	if d.Status() != StateClosed {
		t.Errorf("expected %s, got %s", StateClosed, d.Status())
	}

	profiles := d.Profiles()
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	for i, p := range profiles {
		if p.UID != i+1 {
			t.Errorf("expected profile %d to have uid %d, got %d", i, i+1, p.UID)
		}
	}
}

func TestWrapperState(t *testing.T) {
	s := newDepthSensor()
	d := probed(t, &adapterMock{sensors: []Sensor{s}})
	sensor := d.Sensors()[0]
	profiles := sensor.Profiles()

	var cb callbackMock
	if err := sensor.Start(profiles, &cb); err == nil {
		t.Errorf("expected to get an invalid state")
	}

	if err := d.Open(); err != nil {
		t.Fatalf("expected to successfully open, but got %v", err)
	}
	if err := d.Open(); err == nil {
		t.Errorf("expected to get an invalid state")
	}

	if err := sensor.Start(profiles[:1], &cb); err != nil {
		t.Fatalf("expected to successfully start, but got %v", err)
	}
	if d.Status() != StateRunning {
		t.Errorf("expected %s, got %s", StateRunning, d.Status())
	}
	if err := sensor.Start(profiles[:1], &cb); err == nil {
		t.Errorf("expected to get an invalid state")
	}

	// Frames carry the registered profile.
	s.emit(Frame{Data: []byte{1}, Profile: prop.Profile{Key: frame.NewKey(frame.StreamDepth, 0)}})
	if len(cb.frames) != 1 || cb.frames[0].Profile.UID != profiles[0].UID {
		t.Errorf("expected the frame to carry profile %v, got %v", profiles[0], cb.frames)
	}

	if err := sensor.Stop(); err != nil {
		t.Fatalf("expected to successfully stop, but got %v", err)
	}
	if d.Status() != StateOpened {
		t.Errorf("expected %s, got %s", StateOpened, d.Status())
	}

	if err := d.Close(); err != nil {
		t.Fatalf("expected to successfully close, but got %v", err)
	}
	if d.Status() != StateClosed {
		t.Errorf("expected %s, got %s", StateClosed, d.Status())
	}
}

func TestWrapperRejectsUnknownProfile(t *testing.T) {
	d := probed(t, &adapterMock{sensors: []Sensor{newDepthSensor()}})
	if err := d.Open(); err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	p := d.Profiles()[0]
	p.UID = 42
	if err := d.Sensors()[0].Start([]prop.Profile{p}, &callbackMock{}); err == nil {
		t.Error("expected to reject a profile that isn't part of the snapshot")
	}
}

func TestWrapperWithBrokenSensor(t *testing.T) {
	s := newDepthSensor()
	s.startErr = errStart
	d := probed(t, &adapterMock{sensors: []Sensor{s}})
	if err := d.Open(); err != nil {
		t.Fatal(err)
	}

	err := d.Sensors()[0].Start(d.Profiles(), &callbackMock{})
	if err != errStart {
		t.Errorf("expected to get %v, but got %v", errStart, err)
	}
	if d.Status() != StateOpened {
		t.Errorf("expected the status to be %v, but got %v", StateOpened, d.Status())
	}
}

func TestWrapperCloseStopsSensors(t *testing.T) {
	s := newDepthSensor()
	d := probed(t, &adapterMock{sensors: []Sensor{s}})
	if err := d.Open(); err != nil {
		t.Fatal(err)
	}
	var cb callbackMock
	if err := d.Sensors()[0].Start(d.Profiles(), &cb); err != nil {
		t.Fatal(err)
	}

	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	s.emit(Frame{Profile: prop.Profile{Key: frame.NewKey(frame.StreamDepth, 0)}})
	if len(cb.frames) != 0 {
		t.Errorf("expected no frame after close, got %d", len(cb.frames))
	}
	if err := d.Close(); err != nil {
		t.Errorf("closing twice must succeed, got %v", err)
	}
}
