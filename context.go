// Package framesync acquires frames from depth cameras and delivers them as
// synchronized framesets.
//
// A Context owns the registered devices. A Pipeline resolves a Config against
// them, starts the chosen streams and matches their frames into framesets the
// application pulls with WaitForFrames or PollForFrames.
package framesync

import (
	"fmt"
	"sync"

	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/media"
	pionlogging "github.com/pion/logging"
)

// ContextOptions stores parameters used by Context.
type ContextOptions struct {
	loggerFactory pionlogging.LoggerFactory
	poolOptions   []media.PoolOption
}

// ContextOption is a type of Context functional option.
type ContextOption func(*ContextOptions)

// WithLoggerFactory sets the factory every component of the context creates
// its logger from.
func WithLoggerFactory(f pionlogging.LoggerFactory) ContextOption {
	return func(o *ContextOptions) {
		o.loggerFactory = f
	}
}

// WithPoolOptions configures the frame pool of every pipeline.
func WithPoolOptions(opts ...media.PoolOption) ContextOption {
	return func(o *ContextOptions) {
		o.poolOptions = opts
	}
}

// Context keeps track of the devices available to pipelines.
type Context struct {
	ContextOptions
	manager *driver.Manager
	log     pionlogging.LeveledLogger

	mu       sync.Mutex
	playback map[string]driver.Driver
}

// NewContext creates an empty Context. Devices are added with Register or
// LoadDevice.
func NewContext(opts ...ContextOption) *Context {
	var o ContextOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.loggerFactory == nil {
		o.loggerFactory = pionlogging.NewDefaultLoggerFactory()
	}

	return &Context{
		ContextOptions: o,
		manager:        driver.NewManager(o.loggerFactory),
		log:            logging.NewLogger(o.loggerFactory, "framesync"),
		playback:       make(map[string]driver.Driver),
	}
}

// Manager returns the driver manager of the context, to register devices
// discovered by a driver package.
func (c *Context) Manager() *driver.Manager {
	return c.manager
}

// Register adds a device.
func (c *Context) Register(a driver.Adapter, info driver.Info) (driver.Driver, error) {
	return c.manager.Register(a, info)
}

// Unregister removes a device, as if it was unplugged.
func (c *Context) Unregister(d driver.Driver) error {
	c.mu.Lock()
	for file, p := range c.playback {
		if p.ID() == d.ID() {
			delete(c.playback, file)
		}
	}
	c.mu.Unlock()

	return c.manager.Unregister(d)
}

// QueryDevices lists the devices matching every filter, in enumeration
// order.
func (c *Context) QueryDevices(filters ...driver.FilterFn) []driver.Driver {
	return c.manager.Query(driver.FilterAnd(filters...))
}

// QuerySensors lists the sensors of every device.
func (c *Context) QuerySensors() []driver.Sensor {
	var sensors []driver.Sensor
	for _, d := range c.manager.Query(nil) {
		sensors = append(sensors, d.Sensors()...)
	}
	return sensors
}

type infoer interface {
	Info() driver.Info
}

// LoadDevice registers a that replays file as a playback device. Adapters
// reporting their own Info keep it, with the playback fields overridden.
func (c *Context) LoadDevice(file string, a driver.Adapter) (driver.Driver, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.playback[file]; ok {
		return nil, fmt.Errorf("%s is already loaded", file)
	}

	info := driver.Info{Label: file, Name: file}
	if i, ok := a.(infoer); ok {
		info = i.Info()
	}
	info.PlaybackFile = file
	info.DeviceType = driver.Playback

	d, err := c.manager.Register(a, info)
	if err != nil {
		return nil, err
	}
	c.playback[file] = d
	c.log.Infof("loaded %s", file)
	return d, nil
}

// UnloadDevice removes the playback device of file.
func (c *Context) UnloadDevice(file string) error {
	c.mu.Lock()
	d, ok := c.playback[file]
	delete(c.playback, file)
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s isn't loaded", file)
	}
	return c.manager.Unregister(d)
}

// OnDevicesChanged calls fn every time devices are added or removed, until
// the returned function is called.
func (c *Context) OnDevicesChanged(fn func(removed, added []driver.Driver)) (unsubscribe func()) {
	return c.manager.Subscribe(func(e driver.Event) {
		fn(e.Removed, e.Added)
	})
}

// Close closes every device.
func (c *Context) Close() error {
	return c.manager.Close()
}
