package driver

import (
	"fmt"
	"sync"

	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/pkg/driver/availability"
	pionlogging "github.com/pion/logging"
)

// FilterFn is being used to decide if a driver should be included in the
// query result.
type FilterFn func(Driver) bool

// FilterID creates a filter to query by ID.
func FilterID(id string) FilterFn {
	return func(d Driver) bool {
		return d.ID() == id
	}
}

// FilterSerial creates a filter to query by serial number.
func FilterSerial(serial string) FilterFn {
	return func(d Driver) bool {
		return d.Info().Serial == serial
	}
}

// FilterPlayback creates a filter to query the device replaying file.
func FilterPlayback(file string) FilterFn {
	return func(d Driver) bool {
		return d.Info().PlaybackFile == file
	}
}

// FilterDeviceType creates a filter to query by DeviceType.
func FilterDeviceType(t DeviceType) FilterFn {
	return func(d Driver) bool {
		return d.Info().DeviceType == t
	}
}

// FilterAnd returns a filter function to take logical conjunction of given filters.
func FilterAnd(filters ...FilterFn) FilterFn {
	return func(d Driver) bool {
		for _, f := range filters {
			if !f(d) {
				return false
			}
		}
		return true
	}
}

// FilterNot returns a filter function to take logical inverse of the given filter.
func FilterNot(filter FilterFn) FilterFn {
	return func(d Driver) bool {
		return !filter(d)
	}
}

// Event describes a change of the set of registered devices.
type Event struct {
	Removed []Driver
	Added   []Driver
}

type subscription struct {
	id int
	fn func(Event)
}

// Manager keeps track of registered drivers and their states. Drivers are
// kept in registration order, which is the enumeration order used to pick a
// device.
type Manager struct {
	log pionlogging.LeveledLogger

	mu          sync.Mutex
	drivers     []*adapterWrapper
	uid         int
	subscribers []subscription
	nextSub     int
}

// NewManager creates an empty Manager. A nil factory uses the default one.
func NewManager(factory pionlogging.LoggerFactory) *Manager {
	return &Manager{
		log: logging.NewLogger(factory, "driver"),
	}
}

func (m *Manager) nextUID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uid++
	return m.uid
}

// Register registers adapter to be discoverable by Query. The device is
// opened once to enumerate its sensors and profiles.
func (m *Manager) Register(a Adapter, info Info) (Driver, error) {
	d := wrapAdapter(a, info)
	if err := d.probe(m.nextUID); err != nil {
		return nil, fmt.Errorf("failed to probe %q: %w", info.Label, err)
	}

	m.mu.Lock()
	m.drivers = append(m.drivers, d)
	m.mu.Unlock()

	m.log.Debugf("registered %q (%s), %d profiles", info.Label, d.ID(), len(d.Profiles()))
	m.notify(Event{Added: []Driver{d}})
	return d, nil
}

// Unregister removes the driver and closes it. Subscribers are notified
// before the device is closed.
func (m *Manager) Unregister(d Driver) error {
	m.mu.Lock()
	var found *adapterWrapper
	for i, w := range m.drivers {
		if w.ID() == d.ID() {
			found = w
			m.drivers = append(m.drivers[:i], m.drivers[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	if found == nil {
		return fmt.Errorf("driver %s: %w", d.ID(), availability.ErrNoDevice)
	}

	m.log.Debugf("unregistered %q (%s)", found.info.Label, found.ID())
	m.notify(Event{Removed: []Driver{found}})
	return found.Close()
}

// Query queries by using f to filter drivers, and simply return the filtered
// results in registration order. A nil filter matches every driver.
func (m *Manager) Query(f FilterFn) []Driver {
	m.mu.Lock()
	defer m.mu.Unlock()

	results := make([]Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		if f == nil || f(d) {
			results = append(results, d)
		}
	}
	return results
}

// Subscribe calls fn for every later Event, until the returned function is
// called. fn must not call Subscribe.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSub++
	id := m.nextSub
	m.subscribers = append(m.subscribers, subscription{id: id, fn: fn})

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (m *Manager) notify(e Event) {
	m.mu.Lock()
	subscribers := append([]subscription(nil), m.subscribers...)
	m.mu.Unlock()

	for _, s := range subscribers {
		s.fn(e)
	}
}

// Close closes every registered driver and drops the subscribers.
func (m *Manager) Close() error {
	m.mu.Lock()
	drivers := append([]*adapterWrapper(nil), m.drivers...)
	m.subscribers = nil
	m.mu.Unlock()

	var firstErr error
	for _, d := range drivers {
		if err := d.Close(); err != nil {
			m.log.Warnf("failed to close %q: %v", d.info.Label, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
