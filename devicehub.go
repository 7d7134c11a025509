package framesync

import (
	"fmt"
	"time"

	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/internal/wait"
	"github.com/pion/framesync/pkg/driver"
	pionlogging "github.com/pion/logging"
)

// DeviceHub tracks the connected devices of a Context and lets the
// application wait for one to show up.
type DeviceHub struct {
	log         pionlogging.LeveledLogger
	unsubscribe func()

	cond    wait.Cond // guards devices
	devices []driver.Driver
}

// NewDeviceHub creates a DeviceHub watching ctx.
func NewDeviceHub(ctx *Context) *DeviceHub {
	h := &DeviceHub{
		log: logging.NewLogger(ctx.loggerFactory, "devicehub"),
	}

	// Subscribe first so that no device added in between is missed. Adding
	// a device twice is harmless.
	h.unsubscribe = ctx.manager.Subscribe(h.onDevicesChanged)
	h.cond.Lock()
	for _, d := range ctx.manager.Query(nil) {
		h.addLocked(d)
	}
	h.cond.Unlock()
	return h
}

func (h *DeviceHub) addLocked(d driver.Driver) {
	for _, known := range h.devices {
		if known.ID() == d.ID() {
			return
		}
	}
	h.devices = append(h.devices, d)
}

func (h *DeviceHub) onDevicesChanged(e driver.Event) {
	h.cond.Lock()
	defer h.cond.Unlock()

	for _, d := range e.Removed {
		for i, known := range h.devices {
			if known.ID() == d.ID() {
				h.devices = append(h.devices[:i], h.devices[i+1:]...)
				h.log.Debugf("%s disconnected", d.Info().Label)
				break
			}
		}
	}
	for _, d := range e.Added {
		h.addLocked(d)
		h.log.Debugf("%s connected", d.Info().Label)
	}
	if len(e.Added) > 0 {
		h.cond.Broadcast()
	}
}

// WaitForDevice returns the first connected device in enumeration order,
// waiting up to timeout for one to be connected. A negative timeout waits
// until the hub is closed.
func (h *DeviceHub) WaitForDevice(timeout time.Duration) (driver.Driver, error) {
	h.cond.Lock()
	defer h.cond.Unlock()

	if h.cond.Closed() {
		return nil, ErrClosed
	}
	err := h.cond.WaitFor(timeout, func() bool { return len(h.devices) > 0 })
	if err != nil {
		return nil, fmt.Errorf("no device connected within %v: %w", timeout, err)
	}
	return h.devices[0], nil
}

// IsConnected reports whether d is still connected. It never waits for I/O.
func (h *DeviceHub) IsConnected(d driver.Driver) bool {
	h.cond.Lock()
	defer h.cond.Unlock()

	for _, known := range h.devices {
		if known.ID() == d.ID() {
			return true
		}
	}
	return false
}

// Close stops watching devices and releases waiters with ErrClosed.
func (h *DeviceHub) Close() {
	h.unsubscribe()

	h.cond.Lock()
	defer h.cond.Unlock()
	h.cond.Close()
}
