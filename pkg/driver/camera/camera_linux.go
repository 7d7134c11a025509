package camera

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/blackjack/webcam"
	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/driver/availability"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

const (
	// seconds
	readTimeout = 5
	// used when the node doesn't report frame intervals
	defaultFPS = 30
)

var (
	errEmptyFrame = errors.New("empty frame")
	log           = logging.NewLogger(nil, "camera")
)

type candidate struct {
	path  string
	label string
}

// discover appends the video nodes matching pattern to found, skipping nodes
// already found through another path.
func discover(found []candidate, seen map[string]struct{}, pattern string) []candidate {
	devices, err := filepath.Glob(pattern)
	if err != nil {
		// No v4l device.
		return found
	}
	for _, device := range devices {
		target, err := filepath.EvalSymlinks(device)
		if err != nil {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		found = append(found, candidate{
			path:  device,
			label: filepath.Base(device) + LabelSeparator + filepath.Base(target),
		})
	}
	return found
}

// Register registers every V4L2 node that can be opened to m.
func Register(m *driver.Manager) []driver.Driver {
	seen := make(map[string]struct{})
	found := discover(nil, seen, "/dev/v4l/by-path/*")
	found = discover(found, seen, "/dev/video*")

	var drivers []driver.Driver
	for _, c := range found {
		d, err := m.Register(newCamera(c.path), driver.Info{
			Label:      c.label,
			Name:       filepath.Base(c.path),
			DeviceType: driver.Camera,
		})
		if err != nil {
			log.Debugf("skipping %s: %v", c.path, err)
			continue
		}
		drivers = append(drivers, d)
	}
	return drivers
}

// lister is the part of *webcam.Webcam enumerating supported modes.
type lister interface {
	GetSupportedFormats() map[webcam.PixelFormat]string
	GetSupportedFrameSizes(webcam.PixelFormat) []webcam.FrameSize
	GetSupportedFramerates(webcam.PixelFormat, uint32, uint32) []webcam.FrameRate
}

// enumerate lists the profiles of a node, in a stable order.
func enumerate(l lister) []prop.Profile {
	var codes []webcam.PixelFormat
	for code := range l.GetSupportedFormats() {
		if _, ok := pixelFormats[uint32(code)]; ok {
			codes = append(codes, code)
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

	var profiles []prop.Profile
	for _, code := range codes {
		pf := pixelFormats[uint32(code)]
		for _, size := range l.GetSupportedFrameSizes(code) {
			w, h := size.MaxWidth, size.MaxHeight
			rates := framerates(l.GetSupportedFramerates(code, w, h))
			for _, fps := range rates {
				profiles = append(profiles, prop.Profile{
					Key:    frame.NewKey(pf.stream, 0),
					Format: pf.format,
					FPS:    fps,
					Video: prop.Video{
						Width:  int(w),
						Height: int(h),
					},
				})
			}
		}
	}
	if len(profiles) > 0 {
		profiles[0].Default = true
	}
	return profiles
}

func framerates(intervals []webcam.FrameRate) []int {
	var rates []int
	for _, r := range intervals {
		// Frame intervals are numerator/denominator seconds.
		if r.MaxNumerator == 0 {
			continue
		}
		rates = append(rates, int(r.MaxDenominator/r.MaxNumerator))
	}
	if len(rates) == 0 {
		return []int{defaultFPS}
	}
	return rates
}

// Camera implementation using v4l2
// Reference: https://linuxtv.org/downloads/v4l-dvb-apis/uapi/v4l/videodev.html#videodev
type camera struct {
	path string
	cam  *webcam.Webcam
	// mutex is held while a frame buffer is in use, StopStreaming frees it.
	mutex  sync.Mutex
	cancel chan struct{}
	done   chan struct{}
}

func newCamera(path string) *camera {
	return &camera{path: path}
}

func (c *camera) Open() error {
	cam, err := webcam.Open(c.path)
	if err != nil {
		return fmt.Errorf("%w: %v", availability.ErrNoDevice, err)
	}

	c.cam = cam
	return nil
}

func (c *camera) Close() error {
	if c.cam == nil {
		return nil
	}
	c.Stop()
	err := c.cam.Close()
	c.cam = nil
	return err
}

func (c *camera) Sensors() []driver.Sensor {
	return []driver.Sensor{c}
}

func (c *camera) Name() string {
	return filepath.Base(c.path)
}

func (c *camera) Profiles() []prop.Profile {
	if c.cam == nil {
		return nil
	}
	return enumerate(c.cam)
}

// Start streams a single profile: a V4L2 node has one format at a time.
func (c *camera) Start(profiles []prop.Profile, cb driver.Callback) error {
	if len(profiles) != 1 {
		return fmt.Errorf("%s streams exactly one profile, got %d", c.path, len(profiles))
	}
	p := profiles[0]

	code, ok := pixelFormatOf(p.Format)
	if !ok {
		return fmt.Errorf("%s: unsupported format %s", c.path, p.Format)
	}
	if _, _, _, err := c.cam.SetImageFormat(webcam.PixelFormat(code), uint32(p.Width), uint32(p.Height)); err != nil {
		return err
	}
	if err := c.cam.SetFramerate(float32(p.FPS)); err != nil {
		log.Debugf("%s: failed to set frame rate: %v", c.path, err)
	}
	if err := c.cam.StartStreaming(); err != nil {
		return err
	}

	c.cancel = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(p, cb, c.cancel, c.done)
	return nil
}

func (c *camera) run(p prop.Profile, cb driver.Callback, cancel, done chan struct{}) {
	defer close(done)

	var counter uint32
	for !stopped(cancel) {
		err := c.cam.WaitForFrame(readTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			log.Debugf("%s: no frame within %ds", c.path, readTimeout)
			continue
		default:
			if stopped(cancel) {
				return
			}
			// Camera has been unplugged.
			cb.OnFault(fmt.Errorf("%s: %w: %v", c.path, availability.ErrFatal, err))
			return
		}

		if err := c.deliver(p, counter, cb); err != nil {
			if errors.Is(err, errEmptyFrame) {
				continue
			}
			if stopped(cancel) {
				return
			}
			cb.OnFault(fmt.Errorf("%s: %w: %v", c.path, availability.ErrFatal, err))
			return
		}
		counter++
	}
}

func stopped(cancel chan struct{}) bool {
	select {
	case <-cancel:
		return true
	default:
		return false
	}
}

func (c *camera) deliver(p prop.Profile, counter uint32, cb driver.Callback) error {
	// Lock to avoid accessing the buffer after StopStreaming()
	c.mutex.Lock()
	defer c.mutex.Unlock()

	b, err := c.cam.ReadFrame()
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return errEmptyFrame
	}

	// The buffer is mmapped: it is only valid until the next read, which
	// is fine since callbacks copy what they keep.
	cb.OnFrame(driver.Frame{
		Data:      b,
		Profile:   p,
		Timestamp: time.Duration(time.Now().UnixNano()),
		Domain:    frame.DomainSystemTime,
		Counter:   counter,
		Metadata: map[frame.Metadata]int64{
			frame.MetadataFrameCounter: int64(counter),
		},
	})
	return nil
}

func (c *camera) Stop() error {
	if c.cancel == nil {
		return nil
	}
	close(c.cancel)

	// Wait until the reader unref the buffer
	c.mutex.Lock()
	err := c.cam.StopStreaming()
	c.mutex.Unlock()

	<-c.done
	c.cancel, c.done = nil, nil
	return err
}
