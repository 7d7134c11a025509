// Package devicetest provides a synthetic composite device for testing.
//
// The device has a stereo module streaming depth and two infrared streams,
// an RGB module streaming color and a motion module streaming gyro and
// accelerometer samples. Frames are generated on a ticker with timestamps
// from a shared device clock, so streams at the same rate carry equal
// timestamps.
package devicetest

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/media"
	"github.com/pion/framesync/pkg/prop"
)

// Sensor names
const (
	StereoModule = "Stereo Module"
	RGBCamera    = "RGB Camera"
	MotionModule = "Motion Module"
)

const depthUnits = 0.001

type config struct {
	name         string
	serial       string
	playbackFile string
	synchronized bool
	sizes        [][2]int
	rates        []int
	faultAfter   int
	fault        error
}

// Option configures a Device.
type Option func(*config)

// WithSerial sets the serial number reported in the device info.
func WithSerial(serial string) Option {
	return func(c *config) {
		c.serial = serial
	}
}

// WithName sets the device name.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithPlaybackFile makes the device pose as the replay of file.
func WithPlaybackFile(file string) Option {
	return func(c *config) {
		c.playbackFile = file
	}
}

// WithSynchronized makes the device require one frame rate for all its image
// streams.
func WithSynchronized() Option {
	return func(c *config) {
		c.synchronized = true
	}
}

// WithSizes sets the image sizes every video stream supports, in enumeration
// order. The first one is flagged as default.
func WithSizes(sizes ...[2]int) Option {
	return func(c *config) {
		c.sizes = sizes
	}
}

// WithRates sets the frame rates every video stream supports, in
// enumeration order. The first one is flagged as default.
func WithRates(rates ...int) Option {
	return func(c *config) {
		c.rates = rates
	}
}

// WithFaultAfter makes every sensor report err after producing n frames.
func WithFaultAfter(n int, err error) Option {
	return func(c *config) {
		c.faultAfter = n
		c.fault = err
	}
}

// Device is a synthetic driver.Adapter.
type Device struct {
	cfg     config
	sensors []*sensor

	mu     sync.Mutex
	epoch  time.Time
	opened bool
}

// New creates a synthetic device. By default it streams 64x48 and 32x24
// images at 30, 15 and 6 fps.
func New(opts ...Option) *Device {
	cfg := config{
		name:  "Synthetic Camera",
		sizes: [][2]int{{64, 48}, {32, 24}},
		rates: []int{30, 15, 6},
	}
	for _, o := range opts {
		o(&cfg)
	}

	d := &Device{cfg: cfg}
	d.sensors = []*sensor{
		d.newSensor(StereoModule,
			videoProfiles(cfg, frame.NewKey(frame.StreamDepth, 0), frame.FormatZ16),
			videoProfiles(cfg, frame.NewKey(frame.StreamInfrared, 1), frame.FormatY8),
			videoProfiles(cfg, frame.NewKey(frame.StreamInfrared, 2), frame.FormatY8),
		),
		d.newSensor(RGBCamera,
			videoProfiles(cfg, frame.NewKey(frame.StreamColor, 0), frame.FormatYUYV),
			videoProfiles(cfg, frame.NewKey(frame.StreamColor, 0), frame.FormatRGB8),
		),
		d.newSensor(MotionModule,
			motionProfiles(frame.NewKey(frame.StreamGyro, 0), 200, 400),
			motionProfiles(frame.NewKey(frame.StreamAccel, 0), 63, 250),
		),
	}
	return d
}

// Info returns the driver info matching the options of d.
func (d *Device) Info() driver.Info {
	info := driver.Info{
		Label:        d.cfg.name,
		Name:         d.cfg.name,
		Serial:       d.cfg.serial,
		DeviceType:   driver.Synthetic,
		PlaybackFile: d.cfg.playbackFile,
		Synchronized: d.cfg.synchronized,
	}
	if info.PlaybackFile != "" {
		info.DeviceType = driver.Playback
	}
	if info.Serial != "" {
		info.Label = fmt.Sprintf("%s (%s)", d.cfg.name, d.cfg.serial)
	}
	return info
}

// Register registers a new synthetic device to m.
func Register(m *driver.Manager, opts ...Option) (driver.Driver, error) {
	d := New(opts...)
	return m.Register(d, d.Info())
}

func videoProfiles(cfg config, key frame.Key, format frame.Format) []prop.Profile {
	var profiles []prop.Profile
	for i, size := range cfg.sizes {
		for j, fps := range cfg.rates {
			w, h := size[0], size[1]
			p := prop.Profile{
				Key:     key,
				Format:  format,
				FPS:     fps,
				Default: i == 0 && j == 0,
				Video: prop.Video{
					Width:  w,
					Height: h,
					Intrinsics: prop.Intrinsics{
						Width:  w,
						Height: h,
						PPX:    float32(w) / 2,
						PPY:    float32(h) / 2,
						FX:     float32(w) * 0.9,
						FY:     float32(w) * 0.9,
						Model:  prop.DistortionNone,
					},
				},
			}
			if key.Stream == frame.StreamColor {
				p.Intrinsics.Model = prop.DistortionInverseBrownConrady
			}
			if key.Stream == frame.StreamDepth {
				p.DepthUnits = depthUnits
			}
			profiles = append(profiles, p)
		}
	}
	return profiles
}

func motionProfiles(key frame.Key, rates ...int) []prop.Profile {
	profiles := make([]prop.Profile, len(rates))
	for i, fps := range rates {
		profiles[i] = prop.Profile{
			Key:     key,
			Format:  frame.FormatMotionXYZ32F,
			FPS:     fps,
			Default: i == 0,
		}
	}
	return profiles
}

func (d *Device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.epoch = time.Now()
	d.opened = true
	return nil
}

func (d *Device) Close() error {
	for _, s := range d.sensors {
		s.stop()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = false
	return nil
}

func (d *Device) Sensors() []driver.Sensor {
	sensors := make([]driver.Sensor, len(d.sensors))
	for i, s := range d.sensors {
		sensors[i] = s
	}
	return sensors
}

// clock returns the device epoch, or false when the device is closed.
func (d *Device) clock() (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.epoch, d.opened
}

type sensor struct {
	dev      *Device
	name     string
	profiles []prop.Profile

	mu     sync.Mutex
	closed chan struct{}
	done   chan struct{}
}

func (d *Device) newSensor(name string, groups ...[]prop.Profile) *sensor {
	s := &sensor{dev: d, name: name}
	for _, g := range groups {
		s.profiles = append(s.profiles, g...)
	}
	return s
}

func (s *sensor) Name() string {
	return s.name
}

func (s *sensor) Profiles() []prop.Profile {
	return append([]prop.Profile(nil), s.profiles...)
}

func (s *sensor) Start(profiles []prop.Profile, cb driver.Callback) error {
	epoch, opened := s.dev.clock()
	if !opened {
		return fmt.Errorf("%s: device is closed", s.name)
	}
	if len(profiles) == 0 {
		return fmt.Errorf("%s: no profile to stream", s.name)
	}
	for _, p := range profiles {
		if !s.supports(p) {
			return fmt.Errorf("%s: unsupported profile %v", s.name, p)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed != nil {
		return fmt.Errorf("%s: already streaming", s.name)
	}

	s.closed = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(epoch, profiles, cb, s.closed, s.done)
	return nil
}

func (s *sensor) supports(p prop.Profile) bool {
	for _, sp := range s.profiles {
		if sp.Key == p.Key && sp.Format == p.Format && sp.FPS == p.FPS &&
			sp.Width == p.Width && sp.Height == p.Height {
			return true
		}
	}
	return false
}

func (s *sensor) Stop() error {
	s.stop()
	return nil
}

func (s *sensor) stop() {
	s.mu.Lock()
	closed, done := s.closed, s.done
	s.closed, s.done = nil, nil
	s.mu.Unlock()

	if closed == nil {
		return
	}
	close(closed)
	<-done
}

// stream is the generation state of one started profile.
type stream struct {
	profile prop.Profile
	next    time.Duration
	counter uint32
	buf     []byte
}

func (s *sensor) run(epoch time.Time, profiles []prop.Profile, cb driver.Callback, closed, done chan struct{}) {
	defer close(done)

	start := time.Since(epoch)
	streams := make([]*stream, len(profiles))
	for i, p := range profiles {
		streams[i] = &stream{profile: p, next: start}
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	produced := 0
	for {
		// Pick the stream due first. Ties go to enumeration order.
		st := streams[0]
		for _, other := range streams[1:] {
			if other.next < st.next {
				st = other
			}
		}

		timer.Reset(time.Until(epoch.Add(st.next)))
		select {
		case <-closed:
			return
		case <-timer.C:
		}

		if s.dev.cfg.fault != nil && produced >= s.dev.cfg.faultAfter {
			cb.OnFault(fmt.Errorf("%s: %w", s.name, s.dev.cfg.fault))
			return
		}

		cb.OnFrame(st.render())
		produced++
		st.counter++
		st.next += st.profile.Period()
	}
}

func (st *stream) render() driver.Frame {
	p := st.profile
	f := driver.Frame{
		Profile:   p,
		Timestamp: st.next,
		Domain:    frame.DomainHardwareClock,
		Counter:   st.counter,
		Metadata: map[frame.Metadata]int64{
			frame.MetadataFrameCounter:   int64(st.counter),
			frame.MetadataFrameTimestamp: st.next.Microseconds(),
		},
	}

	if !p.IsVideo() {
		f.Data = st.motion()
		return f
	}

	size, ok := frame.Size(p.Format, p.Width, p.Height)
	if !ok {
		return f
	}
	if len(st.buf) != size {
		st.buf = make([]byte, size)
	}
	switch p.Format {
	case frame.FormatZ16:
		st.depth()
	case frame.FormatYUYV:
		st.colorBarYUYV()
	case frame.FormatRGB8:
		st.colorBarRGB()
	default:
		st.gradient()
	}
	f.Data = st.buf
	f.Metadata[frame.MetadataActualExposure] = 8500
	return f
}

// depth renders a slanted plane moving away from the camera.
func (st *stream) depth() {
	p := st.profile
	base := 1000 + int(st.counter%100)*10
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			binary.LittleEndian.PutUint16(st.buf[2*(y*p.Width+x):], uint16(base+x+y))
		}
	}
}

func (st *stream) gradient() {
	p := st.profile
	shift := int(st.counter)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			st.buf[y*p.Width+x] = uint8((x + shift) * 255 / p.Width)
		}
	}
}

// YCbCr color bars
var colors = [][3]byte{
	{235, 128, 128},
	{210, 16, 146},
	{170, 166, 16},
	{145, 54, 34},
	{107, 202, 222},
	{82, 90, 240},
	{41, 240, 110},
}

// RGB color bars
var rgbColors = [][3]byte{
	{191, 191, 191},
	{191, 191, 0},
	{0, 191, 191},
	{0, 191, 0},
	{191, 0, 191},
	{191, 0, 0},
	{0, 0, 191},
}

func (st *stream) colorBarYUYV() {
	p := st.profile
	for y := 0; y < p.Height; y++ {
		row := st.buf[2*p.Width*y:]
		for x := 0; x < p.Width; x += 2 {
			c := colors[x*7/p.Width]
			row[2*x] = c[0]
			row[2*x+1] = c[1]
			row[2*x+2] = c[0]
			row[2*x+3] = c[2]
		}
	}
}

func (st *stream) colorBarRGB() {
	p := st.profile
	for y := 0; y < p.Height; y++ {
		row := st.buf[3*p.Width*y:]
		for x := 0; x < p.Width; x++ {
			copy(row[3*x:], rgbColors[x*7/p.Width][:])
		}
	}
}

// motion renders a device at rest: the accelerometer reads gravity and the
// gyro a slight drift.
func (st *stream) motion() []byte {
	v := media.Vector{Y: -9.81}
	if st.profile.Stream == frame.StreamGyro {
		v = media.Vector{X: 0.001, Y: -0.002, Z: 0.0005}
	}
	st.buf = media.AppendVector(st.buf[:0], v)
	return st.buf
}
