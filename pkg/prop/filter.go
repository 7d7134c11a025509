package prop

import (
	"fmt"
	"strings"

	"github.com/pion/framesync/pkg/frame"
)

// Filter selects stream profiles. Every field is independently "don't care"
// when left at its wildcard value: frame.StreamAny, frame.IndexAny, zero
// width/height/fps and frame.FormatAny. Note that Index 0 selects index 0,
// use NewFilter to start from a filter that accepts any index.
type Filter struct {
	frame.Key
	Width, Height int
	Format        frame.Format
	FPS           int
}

// NewFilter returns a filter for stream s at the given index, with every
// other field left as don't care.
func NewFilter(s frame.Stream, index int) Filter {
	return Filter{Key: frame.Key{Stream: s, Index: index}}
}

// Match reports whether p satisfies every non-wildcard field of f.
func (f Filter) Match(p Profile) bool {
	if !p.Key.Matches(f.Key) {
		return false
	}
	if f.Width != 0 && f.Width != p.Width {
		return false
	}
	if f.Height != 0 && f.Height != p.Height {
		return false
	}
	if f.Format != frame.FormatAny && f.Format != p.Format {
		return false
	}
	if f.FPS != 0 && f.FPS != p.FPS {
		return false
	}
	return true
}

// Select returns the profiles matching f, keeping their order.
func (f Filter) Select(profiles []Profile) []Profile {
	var matched []Profile
	for _, p := range profiles {
		if f.Match(p) {
			matched = append(matched, p)
		}
	}
	return matched
}

func (f Filter) String() string {
	var opts []string
	opts = append(opts, f.Stream.String())
	if f.Index == frame.IndexAny {
		opts = append(opts, "index=any")
	} else {
		opts = append(opts, fmt.Sprintf("index=%d", f.Index))
	}
	if f.Width != 0 || f.Height != 0 {
		opts = append(opts, fmt.Sprintf("%dx%d", f.Width, f.Height))
	}
	if f.Format != frame.FormatAny {
		opts = append(opts, string(f.Format))
	}
	if f.FPS != 0 {
		opts = append(opts, fmt.Sprintf("%dfps", f.FPS))
	}
	return strings.Join(opts, " ")
}
