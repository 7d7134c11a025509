package driver

import (
	"time"

	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

// OpenCloser is a generic interface to open/close devices
type OpenCloser interface {
	Open() error
	Close() error
}

// Frame is a frame as delivered by a sensor. Data is only valid for the
// duration of the callback.
type Frame struct {
	Data      []byte
	Profile   prop.Profile
	Timestamp time.Duration
	Domain    frame.TimestampDomain
	// Counter is the device frame counter. It may wrap around.
	Counter  uint32
	Metadata map[frame.Metadata]int64
}

// Callback receives the output of a started sensor. Calls may come from any
// goroutine, but a single sensor never calls concurrently.
type Callback interface {
	OnFrame(Frame)
	// OnFault reports an error the sensor could not recover from. Errors
	// wrapping availability.ErrFatal require the whole device to be
	// reinitialized. The sensor produces no more frames afterwards.
	OnFault(error)
}

// Sensor is one independently started group of streams of a device, for
// example the depth module or the motion module.
type Sensor interface {
	Name() string
	// Profiles lists every stream configuration the sensor supports. Only
	// valid while the device is opened.
	Profiles() []prop.Profile
	// Start streams the given profiles, which must be part of Profiles.
	Start(profiles []prop.Profile, cb Callback) error
	Stop() error
}

// Adapter is the interface a device implements to be registered.
type Adapter interface {
	OpenCloser
	Sensors() []Sensor
}

// Info contains information about the driver
type Info struct {
	Label      string
	Name       string
	Serial     string
	DeviceType DeviceType
	// PlaybackFile is set for devices replaying a recording.
	PlaybackFile string
	// Synchronized is set when the device requires all its image streams to
	// run at the same frame rate.
	Synchronized bool
}

// Driver is an adapter managed by a Manager.
type Driver interface {
	Adapter
	ID() string
	Info() Info
	Status() State
	// Profiles returns the profiles of every sensor, as enumerated when the
	// device was registered. It does not touch the device.
	Profiles() []prop.Profile
}
