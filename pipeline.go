package framesync

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/driver/availability"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/media"
	"github.com/pion/framesync/pkg/prop"
	"github.com/pion/framesync/pkg/syncer"
	pionlogging "github.com/pion/logging"
)

// DefaultTimeout is used by WaitForFrames when called with a zero timeout.
const DefaultTimeout = 5 * time.Second

// EventType identifies a pipeline Event.
type EventType int

const (
	// EventDeviceDisconnected is emitted when the active device is removed.
	// Its streams stop being synchronized; the pipeline keeps running.
	EventDeviceDisconnected EventType = iota + 1
	// EventStreamLost is emitted for every stream that stopped, after a
	// disconnection or a sensor fault.
	EventStreamLost
	// EventFault is emitted when a fault tore the pipeline down.
	EventFault
)

func (t EventType) String() string {
	switch t {
	case EventDeviceDisconnected:
		return "device disconnected"
	case EventStreamLost:
		return "stream lost"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event notifies about a change of a running pipeline.
type Event struct {
	Type   EventType
	Device driver.Driver
	// Key is set for EventStreamLost.
	Key frame.Key
	Err error
}

// Recorder persists the frames of a pipeline started with a Config that
// records to a file.
type Recorder interface {
	Open(file string, profile *PipelineProfile) error
	// Write is called for every frame before it is synchronized. It must not
	// keep f after returning, unless it calls f.Keep.
	Write(f *media.Frame) error
	Close() error
}

// PipelineOptions stores parameters used by Pipeline.
type PipelineOptions struct {
	syncerOptions []syncer.Option
	blocks        []Block
	recorder      Recorder
}

// PipelineOption is a type of Pipeline functional option.
type PipelineOption func(*PipelineOptions)

// WithSyncerOptions configures the syncer of the pipeline, for example its
// matching window.
func WithSyncerOptions(opts ...syncer.Option) PipelineOption {
	return func(o *PipelineOptions) {
		o.syncerOptions = opts
	}
}

// WithBlocks attaches processing blocks, like AddBlock.
func WithBlocks(blocks ...Block) PipelineOption {
	return func(o *PipelineOptions) {
		o.blocks = append(o.blocks, blocks...)
	}
}

// WithRecorder sets the recorder used when a Config records to a file.
func WithRecorder(r Recorder) PipelineOption {
	return func(o *PipelineOptions) {
		o.recorder = r
	}
}

// Pipeline streams a device and delivers its frames as framesets.
type Pipeline struct {
	ctx *Context
	log pionlogging.LeveledLogger

	mu       sync.Mutex
	opts     PipelineOptions
	session  *session
	fatal    error
	handlers []func(Event)
	closed   bool
}

// NewPipeline creates a stopped pipeline using the devices of ctx.
func NewPipeline(ctx *Context, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ctx: ctx,
		log: logging.NewLogger(ctx.loggerFactory, "pipeline"),
	}
	for _, o := range opts {
		o(&p.opts)
	}
	return p
}

// AddBlock attaches a processing block. Its requirements apply from the next
// Start.
func (p *Pipeline) AddBlock(b Block) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opts.blocks = append(p.opts.blocks, b)
}

func (p *Pipeline) requirements() []prop.Filter {
	p.mu.Lock()
	defer p.mu.Unlock()

	var filters []prop.Filter
	for _, b := range p.opts.blocks {
		filters = append(filters, b.Requirements()...)
	}
	return filters
}

// OnEvent registers fn to be called for every Event. fn runs on the
// goroutine that observed the change and must not block.
func (p *Pipeline) OnEvent(fn func(Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, fn)
}

func (p *Pipeline) emit(e Event) {
	p.mu.Lock()
	handlers := append(([]func(Event))(nil), p.handlers...)
	p.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}

// session is the state of one Start.
type session struct {
	p          *Pipeline
	profile    *PipelineProfile
	pool       *media.Pool
	syncer     *syncer.Syncer
	recorder   Recorder
	sensors    []driver.Sensor
	unwrappers map[frame.Key]*media.CounterUnwrapper

	unsubscribe func()
}

// Start resolves cfg, opens the selected device and starts streaming. A nil
// cfg picks a color and a depth stream on the first device.
func (p *Pipeline) Start(cfg *Config) (*PipelineProfile, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	profile, err := cfg.Resolve(p)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.closed:
		return nil, ErrClosed
	case p.session != nil:
		return nil, ErrAlreadyStarted
	case cfg.recordFile != "" && p.opts.recorder == nil:
		return nil, ErrRecordingUnsupported
	}

	s, err := p.startSession(profile, cfg.recordFile)
	if err != nil {
		return nil, err
	}
	p.session = s
	p.fatal = nil
	p.log.Infof("started %v", profile)
	return profile, nil
}

func (p *Pipeline) startSession(profile *PipelineProfile, recordFile string) (*session, error) {
	s := &session{
		p:          p,
		profile:    profile,
		pool:       media.NewPool(p.ctx.poolOptions...),
		unwrappers: make(map[frame.Key]*media.CounterUnwrapper),
	}

	opts := []syncer.Option{
		syncer.WithLoggerFactory(p.ctx.loggerFactory),
		syncer.WithEventHandler(s.onSyncerEvent),
	}
	s.syncer = syncer.New(append(opts, p.opts.syncerOptions...)...)
	// Motion samples ride along with image framesets, unless there is no
	// image stream at all.
	hasImage := false
	for _, sp := range profile.profiles {
		hasImage = hasImage || isImage(sp)
	}
	for _, sp := range profile.profiles {
		s.unwrappers[sp.Key] = &media.CounterUnwrapper{}
		if isImage(sp) || !hasImage {
			s.syncer.Enable(sp.Key)
		} else {
			s.syncer.SetOptional(sp.Key)
		}
	}

	d := profile.device
	if err := d.Open(); err != nil {
		s.syncer.Close()
		return nil, fmt.Errorf("failed to open %s: %w", d.Info().Label, err)
	}

	if recordFile != "" {
		if err := p.opts.recorder.Open(recordFile, profile); err != nil {
			s.syncer.Close()
			_ = d.Close()
			return nil, err
		}
		s.recorder = p.opts.recorder
	}

	for _, sensor := range d.Sensors() {
		profiles := sensorProfiles(sensor, profile.profiles)
		if len(profiles) == 0 {
			continue
		}
		if err := sensor.Start(profiles, sensorSink{session: s, profiles: profiles}); err != nil {
			s.stop()
			return nil, fmt.Errorf("failed to start %s: %w", sensor.Name(), err)
		}
		s.sensors = append(s.sensors, sensor)
	}

	s.unsubscribe = p.ctx.manager.Subscribe(s.onDevicesChanged)
	return s, nil
}

// sensorProfiles returns the selected profiles belonging to sensor.
func sensorProfiles(sensor driver.Sensor, selected []prop.Profile) []prop.Profile {
	var profiles []prop.Profile
	for _, sp := range sensor.Profiles() {
		for _, p := range selected {
			if p.UID == sp.UID {
				profiles = append(profiles, p)
			}
		}
	}
	return profiles
}

// OnFrame copies a frame into the pool and hands it to the syncer.
func (s *session) OnFrame(f driver.Frame) {
	unwrapper, ok := s.unwrappers[f.Profile.Key]
	if !ok {
		return
	}

	mf, err := s.pool.Acquire(media.Raw{
		Data:      f.Data,
		Profile:   f.Profile,
		Timestamp: f.Timestamp,
		Domain:    f.Domain,
		Number:    unwrapper.Unwrap(f.Counter),
		Metadata:  f.Metadata,
	})
	if err != nil {
		s.p.log.Debugf("dropping %s frame: %v", f.Profile.Key, err)
		return
	}

	if s.recorder != nil {
		if err := s.recorder.Write(mf); err != nil {
			s.p.log.Warnf("failed to record %v: %v", mf, err)
		}
	}

	if err := s.syncer.Push(mf); err != nil && !errors.Is(err, syncer.ErrClosed) {
		s.p.log.Warnf("failed to synchronize %v: %v", mf, err)
	}
}

// sensorSink is the driver.Callback of one started sensor.
type sensorSink struct {
	*session
	profiles []prop.Profile
}

// OnFault handles a sensor fault. Fatal faults tear the pipeline down, other
// ones only lose the streams of the sensor.
func (k sensorSink) OnFault(err error) {
	// The sensor is still inside its callback, stopping it from here would
	// wait for ourselves.
	go k.p.fault(k.session, k.profiles, err)
}

func (p *Pipeline) fault(s *session, lost []prop.Profile, err error) {
	d := s.profile.device
	if !availability.IsFatal(err) {
		p.log.Warnf("stream lost on %s: %v", d.Info().Label, err)
		for _, sp := range lost {
			s.syncer.Evict(sp.Key)
		}
		return
	}

	p.mu.Lock()
	if p.session != s {
		// Already stopped.
		p.mu.Unlock()
		return
	}
	p.log.Errorf("fault on %s: %v", d.Info().Label, err)
	p.fatal = &UnrecoverableError{Device: d.Info().Label, Err: err}
	p.session = nil
	p.mu.Unlock()

	s.stop()
	p.emit(Event{Type: EventFault, Device: d, Err: err})
}

func (s *session) onSyncerEvent(e syncer.Event) {
	if e.Type == syncer.EventStreamLost {
		s.p.emit(Event{Type: EventStreamLost, Device: s.profile.device, Key: e.Key})
	}
}

func (s *session) onDevicesChanged(e driver.Event) {
	d := s.profile.device
	for _, removed := range e.Removed {
		if removed.ID() != d.ID() {
			continue
		}
		s.p.log.Warnf("%s disconnected", d.Info().Label)
		for _, sp := range s.profile.profiles {
			s.syncer.Evict(sp.Key)
		}
		s.p.emit(Event{Type: EventDeviceDisconnected, Device: d, Err: ErrDeviceDisconnected})
	}
}

// stop stops streaming and releases every frame held by the session.
func (s *session) stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	for _, sensor := range s.sensors {
		if err := sensor.Stop(); err != nil {
			s.p.log.Debugf("failed to stop %s: %v", sensor.Name(), err)
		}
	}
	if err := s.profile.device.Close(); err != nil {
		s.p.log.Warnf("failed to close %s: %v", s.profile.device.Info().Label, err)
	}
	if s.recorder != nil {
		if err := s.recorder.Close(); err != nil {
			s.p.log.Warnf("failed to close recording: %v", err)
		}
	}
	s.syncer.Close()
}

// Stop stops streaming. Framesets the application still holds stay valid
// until released.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	s := p.session
	p.session = nil
	p.mu.Unlock()

	if s == nil {
		return ErrNotStarted
	}
	s.stop()
	p.log.Infof("stopped %v", s.profile)
	return nil
}

func (p *Pipeline) current() (*session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.session != nil:
		return p.session, nil
	case p.fatal != nil:
		return nil, p.fatal
	case p.closed:
		return nil, ErrClosed
	default:
		return nil, ErrNotStarted
	}
}

// WaitForFrames blocks until a frameset is available. The caller owns the
// frameset and must Release it. A zero timeout waits DefaultTimeout, a
// negative one waits until the pipeline stops. It fails with ErrTimeout when
// no frameset arrived in time, and with an *UnrecoverableError once a device
// fault stopped the pipeline.
func (p *Pipeline) WaitForFrames(timeout time.Duration) (*media.Set, error) {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	s, err := p.current()
	if err != nil {
		return nil, err
	}

	set, err := s.syncer.WaitForFrames(timeout)
	if errors.Is(err, syncer.ErrClosed) {
		// Stopped while waiting.
		if _, cerr := p.current(); cerr != nil {
			return nil, cerr
		}
	}
	return set, err
}

// PollForFrames returns a frameset if one is available, without blocking.
func (p *Pipeline) PollForFrames() (*media.Set, bool) {
	s, err := p.current()
	if err != nil {
		return nil, false
	}
	return s.syncer.PollForFrames()
}

// ActiveProfile returns the profile the pipeline was started with.
func (p *Pipeline) ActiveProfile() (*PipelineProfile, error) {
	s, err := p.current()
	if err != nil {
		return nil, err
	}
	return s.profile, nil
}

// Stats returns the counters of the running pipeline's syncer.
func (p *Pipeline) Stats() (syncer.Stats, error) {
	s, err := p.current()
	if err != nil {
		return syncer.Stats{}, err
	}
	return s.syncer.Stats(), nil
}

// Close stops the pipeline if needed. A closed pipeline can't be started.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	if err := p.Stop(); err != nil && !errors.Is(err, ErrNotStarted) {
		return err
	}
	return nil
}
