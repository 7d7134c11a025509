package framesync

import (
	"fmt"

	"github.com/pion/framesync/pkg/driver"
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

type request struct {
	filters      []prop.Filter
	allStreams   bool
	serial       string
	playbackFile string
}

// resolve picks the first device able to satisfy req and extra, and a
// profile for every requested stream. It only reads the profile snapshots of
// devices, so the same inputs always give the same result.
func resolve(req request, devices []driver.Driver, extra []prop.Filter) (*PipelineProfile, error) {
	candidates := devices
	switch {
	case req.playbackFile != "":
		candidates = filterDevices(devices, driver.FilterPlayback(req.playbackFile))
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %s isn't loaded", ErrNoMatchingProfile, req.playbackFile)
		}
	case req.serial != "":
		candidates = filterDevices(devices, driver.FilterSerial(req.serial))
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: no device with serial %s", ErrNoMatchingProfile, req.serial)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no device connected", ErrNoMatchingProfile)
	}

	filters, ok := mergeFilters(req.filters, extra)
	if !ok {
		return nil, fmt.Errorf("%w: requirements conflict with the configuration", ErrNoMatchingProfile)
	}

	for _, d := range candidates {
		if profiles, ok := resolveDevice(d.Info(), d.Profiles(), filters, req.allStreams); ok {
			return &PipelineProfile{device: d, profiles: profiles}, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrNoMatchingProfile, filters)
}

func filterDevices(devices []driver.Driver, f driver.FilterFn) []driver.Driver {
	var matched []driver.Driver
	for _, d := range devices {
		if f(d) {
			matched = append(matched, d)
		}
	}
	return matched
}

// mergeFilters adds the requirements in extra to filters. A requirement for
// a stream that is already requested narrows that request instead of asking
// for a second stream.
func mergeFilters(filters, extra []prop.Filter) ([]prop.Filter, bool) {
	merged := append([]prop.Filter(nil), filters...)
next:
	for _, r := range extra {
		for i, f := range merged {
			if !f.Key.Matches(r.Key) {
				continue
			}
			m, ok := narrow(f, r)
			if !ok {
				return nil, false
			}
			merged[i] = m
			continue next
		}
		merged = append(merged, r)
	}
	return merged, true
}

// narrow fills the don't care fields of f with those of r.
func narrow(f, r prop.Filter) (prop.Filter, bool) {
	var ok [4]bool
	f.Width, ok[0] = narrowInt(f.Width, r.Width)
	f.Height, ok[1] = narrowInt(f.Height, r.Height)
	f.FPS, ok[2] = narrowInt(f.FPS, r.FPS)
	switch {
	case f.Format == frame.FormatAny:
		f.Format, ok[3] = r.Format, true
	case r.Format == frame.FormatAny || r.Format == f.Format:
		ok[3] = true
	}
	return f, ok[0] && ok[1] && ok[2] && ok[3]
}

func narrowInt(a, b int) (int, bool) {
	switch {
	case a == 0:
		return b, true
	case b == 0 || a == b:
		return a, true
	default:
		return 0, false
	}
}

// resolveDevice picks a profile for every filter among the profiles of one
// device, or reports that the device can't satisfy them.
func resolveDevice(info driver.Info, profiles []prop.Profile, filters []prop.Filter, allStreams bool) ([]prop.Profile, bool) {
	preferDefault := false
	if allStreams {
		filters = addAllStreams(filters, profiles)
		preferDefault = true
	}
	if len(filters) == 0 {
		filters = []prop.Filter{
			prop.NewFilter(frame.StreamColor, frame.IndexAny),
			prop.NewFilter(frame.StreamDepth, frame.IndexAny),
		}
		preferDefault = true
	}

	candidates := make([][]prop.Profile, len(filters))
	for i, f := range filters {
		c := f.Select(profiles)
		if len(c) == 0 {
			return nil, false
		}
		if preferDefault {
			c = defaultsFirst(c)
		}
		candidates[i] = c
	}

	if !info.Synchronized {
		return assign(candidates)
	}
	rates := imageRates(candidates)
	if len(rates) == 0 {
		return assign(candidates)
	}
	for _, fps := range rates {
		if chosen, ok := assign(withRate(candidates, fps)); ok {
			return chosen, true
		}
	}
	return nil, false
}

// addAllStreams adds a filter for every stream of the device not requested
// yet.
func addAllStreams(filters []prop.Filter, profiles []prop.Profile) []prop.Filter {
	all := append([]prop.Filter(nil), filters...)
next:
	for _, p := range profiles {
		for _, f := range all {
			if p.Key.Matches(f.Key) {
				continue next
			}
		}
		all = append(all, prop.NewFilter(p.Stream, p.Index))
	}
	return all
}

// defaultsFirst moves the profiles flagged as default ahead, keeping the
// enumeration order otherwise.
func defaultsFirst(profiles []prop.Profile) []prop.Profile {
	sorted := make([]prop.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Default {
			sorted = append(sorted, p)
		}
	}
	for _, p := range profiles {
		if !p.Default {
			sorted = append(sorted, p)
		}
	}
	return sorted
}

func isImage(p prop.Profile) bool {
	return p.IsVideo() && !p.Stream.IsMotion()
}

// imageRates lists the frame rates of the image profiles of the first
// filter having any, in enumeration order.
func imageRates(candidates [][]prop.Profile) []int {
	for _, c := range candidates {
		var rates []int
		seen := make(map[int]bool)
		for _, p := range c {
			if isImage(p) && !seen[p.FPS] {
				seen[p.FPS] = true
				rates = append(rates, p.FPS)
			}
		}
		if len(rates) > 0 {
			return rates
		}
	}
	return nil
}

// withRate drops the image profiles not running at fps. Motion and pose
// streams run at their own rate.
func withRate(candidates [][]prop.Profile, fps int) [][]prop.Profile {
	constrained := make([][]prop.Profile, len(candidates))
	for i, c := range candidates {
		for _, p := range c {
			if !isImage(p) || p.FPS == fps {
				constrained[i] = append(constrained[i], p)
			}
		}
	}
	return constrained
}

// assign picks one profile per candidate list, first match first, so that
// no stream is picked twice.
func assign(candidates [][]prop.Profile) ([]prop.Profile, bool) {
	chosen := make([]prop.Profile, 0, len(candidates))
	used := make(map[frame.Key]bool)

	var try func(i int) bool
	try = func(i int) bool {
		if i == len(candidates) {
			return true
		}
		for _, p := range candidates[i] {
			if used[p.Key] {
				continue
			}
			used[p.Key] = true
			chosen = append(chosen, p)
			if try(i + 1) {
				return true
			}
			used[p.Key] = false
			chosen = chosen[:len(chosen)-1]
		}
		return false
	}

	if !try(0) {
		return nil, false
	}
	return chosen, true
}
