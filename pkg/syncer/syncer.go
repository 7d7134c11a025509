// Package syncer groups frames arriving independently from several streams
// into framesets.
//
// Every stream has a single slot holding its latest unconsumed frame; a late
// frame overwrites and releases the previous one. Whenever every required
// stream has a frame and all of them lie within the matching window of the
// newest one, a frameset is emitted. Only one frameset waits for the consumer
// at a time: a newer frameset replaces and releases an unconsumed one, so the
// consumer always gets the freshest data and memory stays bounded.
package syncer

import (
	"fmt"
	"time"

	"github.com/pion/framesync/internal/logging"
	"github.com/pion/framesync/internal/wait"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/media"
	pionlogging "github.com/pion/logging"
)

// defaultWindow is the matching window used when no required stream reports
// its frame rate.
const defaultWindow = 50 * time.Millisecond

var (
	// ErrTimeout is returned by WaitForFrames when no frameset became
	// available in time. Callers may simply retry.
	ErrTimeout = wait.ErrTimeout
	// ErrClosed is returned once the syncer has been closed.
	ErrClosed = wait.ErrClosed
)

// Retention decides which slots are kept after a frameset is emitted.
type Retention int

const (
	// RetainSlower clears the slots of the fastest required streams and
	// keeps the frames of slower ones, so that a slow stream's frame is
	// reused by every frameset until its next frame arrives. With streams at
	// 30 and 6 fps, five consecutive framesets share the same 6 fps frame.
	// Streams with an unknown rate count as the fastest.
	RetainSlower Retention = iota
	// ClearAll clears every slot, so that each frameset is made of frames
	// never delivered before. Faster streams wait for the slowest one.
	ClearAll
)

// EventType identifies an Event.
type EventType int

const (
	// EventStreamLost is emitted when a stream is evicted, usually because
	// its device disconnected. The stream is no longer required.
	EventStreamLost EventType = iota + 1
)

// Event notifies about a change of the syncer's stream set.
type Event struct {
	Type EventType
	Key  frame.Key
}

// Stats counts the syncer's activity.
type Stats struct {
	// Emitted counts completed framesets.
	Emitted uint64
	// DroppedSets counts framesets replaced before the consumer took them.
	DroppedSets uint64
	// DroppedFrames counts frames overwritten in their slot before being
	// part of any frameset, or rejected because their stream isn't synced.
	DroppedFrames uint64
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithWindow sets the maximum timestamp skew between members of a frameset.
// By default it is the frame period of the slowest required stream.
func WithWindow(d time.Duration) Option {
	return func(s *Syncer) {
		s.window = d
	}
}

// WithRetention sets the slot retention policy. The default is RetainSlower.
func WithRetention(r Retention) Option {
	return func(s *Syncer) {
		s.retention = r
	}
}

// WithLoggerFactory sets the factory the syncer creates its logger from.
func WithLoggerFactory(f pionlogging.LoggerFactory) Option {
	return func(s *Syncer) {
		s.log = logging.NewLogger(f, "syncer")
	}
}

// WithEventHandler registers a function called for every Event. It runs on
// the goroutine that caused the event, without any lock held.
func WithEventHandler(fn func(Event)) Option {
	return func(s *Syncer) {
		s.onEvent = fn
	}
}

// Syncer matches frames into framesets. Push may be called from one goroutine
// per stream, concurrently with one consumer calling WaitForFrames or
// PollForFrames.
type Syncer struct {
	cond      wait.Cond // guards everything below
	window    time.Duration
	retention Retention
	log       pionlogging.LeveledLogger
	onEvent   func(Event)

	// explicit is set once Enable was called. Until then every stream seen
	// so far is required.
	explicit bool
	required []frame.Key
	optional []frame.Key
	slots    map[frame.Key]*media.Frame
	pending  *media.Set
	stats    Stats
}

// New creates a Syncer.
func New(opts ...Option) *Syncer {
	s := &Syncer{
		slots: make(map[frame.Key]*media.Frame),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logging.NewLogger(nil, "syncer")
	}
	return s
}

// Enable makes streams required: a frameset is only complete when every
// required stream has a frame.
func (s *Syncer) Enable(keys ...frame.Key) {
	s.cond.Lock()
	defer s.cond.Unlock()

	s.explicit = true
	for _, k := range keys {
		if !contains(s.required, k) {
			s.required = append(s.required, k)
		}
		s.optional = remove(s.optional, k)
	}
}

// SetOptional makes streams optional: their latest frame is attached to the
// next frameset when there is one, but framesets never wait for them. This
// suits low rate or one-shot streams and motion samples.
func (s *Syncer) SetOptional(keys ...frame.Key) {
	s.cond.Lock()
	defer s.cond.Unlock()

	s.explicit = true
	for _, k := range keys {
		if !contains(s.optional, k) {
			s.optional = append(s.optional, k)
		}
		s.required = remove(s.required, k)
	}
}

// Push hands f over to the syncer, which takes ownership of the caller's
// reference.
func (s *Syncer) Push(f *media.Frame) error {
	var garbage []*media.Frame
	var dropped *media.Set
	defer func() {
		for _, g := range garbage {
			g.Release()
		}
		if dropped != nil {
			dropped.Release()
		}
	}()

	s.cond.Lock()
	defer s.cond.Unlock()

	if s.cond.Closed() {
		garbage = append(garbage, f)
		return ErrClosed
	}

	key := f.Key()
	if !s.accepts(key) {
		s.stats.DroppedFrames++
		garbage = append(garbage, f)
		return nil
	}

	if prev := s.slots[key]; prev != nil {
		s.stats.DroppedFrames++
		garbage = append(garbage, prev)
	}
	s.slots[key] = f

	dropped = s.emit()
	return nil
}

// accepts tells whether frames of key take part in matching, registering key
// as required while no stream was enabled explicitly.
func (s *Syncer) accepts(key frame.Key) bool {
	if contains(s.required, key) || contains(s.optional, key) {
		return true
	}
	if s.explicit {
		return false
	}
	s.required = append(s.required, key)
	return true
}

// emit builds a frameset if the slots hold a complete match and makes it
// pending. It returns the frameset it replaced, if any.
func (s *Syncer) emit() *media.Set {
	set := s.match()
	if set == nil {
		return nil
	}

	dropped := s.pending
	s.pending = set
	s.stats.Emitted++
	if dropped != nil {
		s.stats.DroppedSets++
		s.log.Tracef("frameset %v replaced before it was consumed", dropped.Epoch())
	}
	s.cond.Broadcast()
	return dropped
}

func (s *Syncer) match() *media.Set {
	if len(s.required) == 0 {
		return nil
	}

	frames := make([]*media.Frame, 0, len(s.required)+len(s.optional))
	for _, k := range s.required {
		f := s.slots[k]
		if f == nil {
			return nil
		}
		frames = append(frames, f)
	}
	if !withinWindow(frames, s.windowFor(frames)) {
		return nil
	}

	fastest := fastestFPS(frames)
	for _, k := range s.optional {
		if f := s.slots[k]; f != nil {
			frames = append(frames, f)
		}
	}

	for _, f := range frames {
		if s.retains(f, fastest) {
			// The slot keeps its reference, the set gets a new one.
			f.AddRef()
			continue
		}
		// The slot's reference moves to the set.
		delete(s.slots, f.Key())
	}

	set, err := media.NewSet(frames...)
	if err != nil {
		// Slots are keyed by stream, so keys are always unique.
		panic(fmt.Errorf("syncer: %w", err))
	}
	return set
}

func (s *Syncer) retains(f *media.Frame, fastest int) bool {
	if s.retention == ClearAll || contains(s.optional, f.Key()) {
		return false
	}
	fps := f.Profile().FPS
	return fps > 0 && fps < fastest
}

func (s *Syncer) windowFor(frames []*media.Frame) time.Duration {
	if s.window > 0 {
		return s.window
	}
	var slowest time.Duration
	for _, f := range frames {
		if p := f.Profile().Period(); p > slowest {
			slowest = p
		}
	}
	if slowest == 0 {
		return defaultWindow
	}
	return slowest
}

func fastestFPS(frames []*media.Frame) int {
	fastest := 0
	for _, f := range frames {
		if fps := f.Profile().FPS; fps > fastest {
			fastest = fps
		}
	}
	return fastest
}

// withinWindow reports whether every frame lies within window of the newest
// one. Device timestamps are only comparable within one clock domain; when
// the frames come from different domains the host arrival times are compared
// instead.
func withinWindow(frames []*media.Frame, window time.Duration) bool {
	sameDomain := true
	for _, f := range frames[1:] {
		if f.Domain() != frames[0].Domain() {
			sameDomain = false
			break
		}
	}

	stamps := make([]time.Duration, len(frames))
	for i, f := range frames {
		if sameDomain {
			stamps[i] = f.Timestamp()
		} else {
			stamps[i] = time.Duration(f.Arrival().UnixNano())
		}
	}

	newest := stamps[0]
	for _, st := range stamps[1:] {
		if st > newest {
			newest = st
		}
	}
	for _, st := range stamps {
		if newest-st > window {
			return false
		}
	}
	return true
}

// Evict stops requiring key and releases its slot. It is used when the
// stream's source vanished: framesets keep flowing with the remaining
// streams instead of starving.
func (s *Syncer) Evict(key frame.Key) {
	garbage, dropped := s.evict(key)
	if garbage != nil {
		garbage.Release()
	}
	if dropped != nil {
		dropped.Release()
	}
}

func (s *Syncer) evict(key frame.Key) (*media.Frame, *media.Set) {
	s.cond.Lock()
	if !contains(s.required, key) && !contains(s.optional, key) {
		s.cond.Unlock()
		return nil, nil
	}

	s.required = remove(s.required, key)
	s.optional = remove(s.optional, key)
	garbage := s.slots[key]
	delete(s.slots, key)
	// The remaining streams may already form a complete frameset.
	dropped := s.emit()
	onEvent := s.onEvent
	s.cond.Unlock()

	s.log.Warnf("stream %s evicted", key)
	if onEvent != nil {
		onEvent(Event{Type: EventStreamLost, Key: key})
	}
	return garbage, dropped
}

// WaitForFrames blocks until a frameset is available and returns it. The
// caller owns the frameset and must Release it. It fails with ErrTimeout when
// timeout expires first, and with ErrClosed when the syncer is closed. A
// negative timeout waits without deadline.
func (s *Syncer) WaitForFrames(timeout time.Duration) (*media.Set, error) {
	s.cond.Lock()
	defer s.cond.Unlock()

	err := s.cond.WaitFor(timeout, func() bool { return s.pending != nil })
	if err != nil {
		return nil, fmt.Errorf("frameset didn't arrive within %v: %w", timeout, err)
	}

	set := s.pending
	s.pending = nil
	return set, nil
}

// PollForFrames returns the pending frameset, if any. It never blocks: when
// the syncer is busy matching it reports nothing available.
func (s *Syncer) PollForFrames() (*media.Set, bool) {
	if !s.cond.TryLock() {
		return nil, false
	}
	defer s.cond.Unlock()

	set := s.pending
	s.pending = nil
	return set, set != nil
}

// Stats returns the syncer counters.
func (s *Syncer) Stats() Stats {
	s.cond.Lock()
	defer s.cond.Unlock()
	return s.stats
}

// Close releases every held frame and unblocks waiters with ErrClosed.
// Frames pushed afterwards are released immediately.
func (s *Syncer) Close() {
	s.cond.Lock()
	if s.cond.Closed() {
		s.cond.Unlock()
		return
	}
	s.cond.Close()

	pending := s.pending
	s.pending = nil
	slots := s.slots
	s.slots = make(map[frame.Key]*media.Frame)
	s.cond.Unlock()

	if pending != nil {
		pending.Release()
	}
	for _, f := range slots {
		f.Release()
	}
}

func contains(keys []frame.Key, k frame.Key) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

func remove(keys []frame.Key, k frame.Key) []frame.Key {
	for i, key := range keys {
		if key == k {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
