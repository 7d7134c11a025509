package framesync

import (
	"fmt"

	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

// Config describes the streams and the device a pipeline should use. It is
// built incrementally and only read when resolved.
type Config struct {
	filters      []prop.Filter
	allStreams   bool
	serial       string
	playbackFile string
	recordFile   string
}

// NewConfig creates an empty Config. Resolving it picks a color and a depth
// stream on the first device.
func NewConfig() *Config {
	return &Config{}
}

// EnableStream requests the stream s at the given index. Zero sizes, zero
// fps and frame.FormatAny mean don't care, as does frame.IndexAny for index.
// Enabling a stream again replaces the earlier request.
func (c *Config) EnableStream(s frame.Stream, index, width, height int, format frame.Format, fps int) {
	c.EnableStreamFilter(prop.Filter{
		Key:    frame.Key{Stream: s, Index: index},
		Width:  width,
		Height: height,
		Format: format,
		FPS:    fps,
	})
}

// EnableStreamFilter requests the streams matching f. A filter for the same
// stream and index replaces the earlier one.
func (c *Config) EnableStreamFilter(f prop.Filter) {
	for i, old := range c.filters {
		if old.Key == f.Key {
			c.filters[i] = f
			return
		}
	}
	c.filters = append(c.filters, f)
}

// DisableStream drops the requests for stream s at index. frame.IndexAny
// drops every index.
func (c *Config) DisableStream(s frame.Stream, index int) {
	pattern := frame.Key{Stream: s, Index: index}
	kept := c.filters[:0]
	for _, f := range c.filters {
		if !f.Key.Matches(pattern) {
			kept = append(kept, f)
		}
	}
	c.filters = kept
}

// EnableAllStreams requests every stream of the device, on top of the
// explicitly enabled ones.
func (c *Config) EnableAllStreams() {
	c.allStreams = true
}

// DisableAllStreams drops every stream request.
func (c *Config) DisableAllStreams() {
	c.filters = nil
	c.allStreams = false
}

// EnableDevice restricts resolution to the device with the given serial
// number.
func (c *Config) EnableDevice(serial string) {
	c.serial = serial
}

// EnableDeviceFromFile restricts resolution to the device replaying file,
// which must have been loaded with Context.LoadDevice. It can't be combined
// with recording.
func (c *Config) EnableDeviceFromFile(file string) error {
	if c.recordFile != "" {
		return fmt.Errorf("can't play %s back while recording to %s", file, c.recordFile)
	}
	c.playbackFile = file
	return nil
}

// EnableRecordToFile makes the pipeline hand every frame to its Recorder. It
// can't be combined with playback.
func (c *Config) EnableRecordToFile(file string) error {
	if c.playbackFile != "" {
		return fmt.Errorf("can't record to %s while playing %s back", file, c.playbackFile)
	}
	c.recordFile = file
	return nil
}

func (c *Config) request() request {
	return request{
		filters:      append([]prop.Filter(nil), c.filters...),
		allStreams:   c.allStreams,
		serial:       c.serial,
		playbackFile: c.playbackFile,
	}
}

// Resolve picks the device and the profiles the pipeline p would start with
// c. Devices aren't opened.
func (c *Config) Resolve(p *Pipeline) (*PipelineProfile, error) {
	return resolve(c.request(), p.ctx.QueryDevices(), p.requirements())
}

// CanResolve reports whether Resolve would succeed. It has no side effect
// and may be polled.
func (c *Config) CanResolve(p *Pipeline) bool {
	_, err := c.Resolve(p)
	return err == nil
}

// PipelineProfile is the device and the stream profiles a pipeline uses.
type PipelineProfile struct {
	device   driver.Driver
	profiles []prop.Profile
}

// Device returns the selected device.
func (p *PipelineProfile) Device() driver.Driver {
	return p.device
}

// Profiles returns the selected profiles, in request order.
func (p *PipelineProfile) Profiles() []prop.Profile {
	return append([]prop.Profile(nil), p.profiles...)
}

// Profile returns the selected profile of stream s at index. Index 0 returns
// the first profile of that stream type.
func (p *PipelineProfile) Profile(s frame.Stream, index int) (prop.Profile, bool) {
	for _, sp := range p.profiles {
		if sp.Stream == s && (index == 0 || sp.Index == index) {
			return sp, true
		}
	}
	return prop.Profile{}, false
}

func (p *PipelineProfile) String() string {
	return fmt.Sprintf("%s %v", p.device.Info().Label, p.profiles)
}
