package driver

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

func wrapAdapter(a Adapter, info Info) *adapterWrapper {
	return &adapterWrapper{
		Adapter: a,
		id:      uuid.NewString(),
		info:    info,
		state:   StateClosed,
	}
}

type adapterWrapper struct {
	Adapter
	id   string
	info Info

	mu       sync.Mutex
	state    State
	sensors  []*sensorWrapper
	profiles []prop.Profile
}

// probe opens the device once to take a snapshot of its sensors and their
// profiles. Every profile gets a unique id from nextUID.
func (w *adapterWrapper) probe(nextUID func() int) error {
	if err := w.Open(); err != nil {
		return err
	}

	w.mu.Lock()
	for _, s := range w.Adapter.Sensors() {
		sw := &sensorWrapper{Sensor: s, dev: w}
		for _, p := range s.Profiles() {
			p.UID = nextUID()
			sw.profiles = append(sw.profiles, p)
		}
		w.sensors = append(w.sensors, sw)
		w.profiles = append(w.profiles, sw.profiles...)
	}
	w.mu.Unlock()

	return w.Close()
}

func (w *adapterWrapper) ID() string {
	return w.id
}

func (w *adapterWrapper) Info() Info {
	return w.info
}

func (w *adapterWrapper) Status() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *adapterWrapper) Profiles() []prop.Profile {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]prop.Profile(nil), w.profiles...)
}

func (w *adapterWrapper) Sensors() []Sensor {
	w.mu.Lock()
	defer w.mu.Unlock()

	sensors := make([]Sensor, len(w.sensors))
	for i, s := range w.sensors {
		sensors[i] = s
	}
	return sensors
}

func (w *adapterWrapper) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Update(StateOpened, w.Adapter.Open)
}

// Close stops every running sensor and closes the device. Closing a closed
// driver does nothing.
func (w *adapterWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateClosed {
		return nil
	}
	for _, s := range w.sensors {
		if s.running {
			// Closing the device stops it anyway.
			_ = s.Sensor.Stop()
			s.running = false
		}
	}
	return w.state.Update(StateClosed, w.Adapter.Close)
}

type sensorWrapper struct {
	Sensor
	dev      *adapterWrapper
	profiles []prop.Profile
	running  bool // guarded by dev.mu
}

func (s *sensorWrapper) Profiles() []prop.Profile {
	return append([]prop.Profile(nil), s.profiles...)
}

func (s *sensorWrapper) Start(profiles []prop.Profile, cb Callback) error {
	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.running {
		return fmt.Errorf("invalid state: sensor %s is already streaming", s.Name())
	}

	byKey := make(map[frame.Key]prop.Profile, len(profiles))
	for _, p := range profiles {
		if !s.supports(p) {
			return fmt.Errorf("sensor %s doesn't support %v", s.Name(), p)
		}
		byKey[p.Key] = p
	}

	err := d.state.Update(StateRunning, func() error {
		return s.Sensor.Start(profiles, &stamper{cb: cb, profiles: byKey})
	})
	if err != nil {
		return err
	}
	s.running = true
	return nil
}

func (s *sensorWrapper) supports(p prop.Profile) bool {
	for _, sp := range s.profiles {
		if sp.UID == p.UID && sp.Key == p.Key {
			return true
		}
	}
	return false
}

func (s *sensorWrapper) Stop() error {
	d := s.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if !s.running {
		return fmt.Errorf("invalid state: sensor %s isn't streaming", s.Name())
	}
	if err := s.Sensor.Stop(); err != nil {
		return err
	}
	s.running = false

	for _, other := range d.sensors {
		if other.running {
			return nil
		}
	}
	return d.state.Update(StateOpened, func() error { return nil })
}

// stamper replaces the profile of delivered frames by the registered one,
// which carries the profile id and every other detail of the snapshot.
type stamper struct {
	cb       Callback
	profiles map[frame.Key]prop.Profile
}

func (s *stamper) OnFrame(f Frame) {
	if p, ok := s.profiles[f.Profile.Key]; ok {
		f.Profile = p
	}
	s.cb.OnFrame(f)
}

func (s *stamper) OnFault(err error) {
	s.cb.OnFault(err)
}
