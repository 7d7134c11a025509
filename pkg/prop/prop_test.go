package prop

import (
	"testing"
	"time"

	"github.com/pion/framesync/pkg/frame"
)

func TestFilterMatch(t *testing.T) {
	depth := Profile{
		Key:    frame.NewKey(frame.StreamDepth, 0),
		Format: frame.FormatZ16,
		FPS:    30,
		Video:  Video{Width: 640, Height: 480},
	}

	testDataSet := map[string]struct {
		filter Filter
		match  bool
	}{
		"AllDontCare": {
			Filter{Key: frame.Key{Stream: frame.StreamAny, Index: frame.IndexAny}},
			true,
		},
		"StreamOnly": {
			NewFilter(frame.StreamDepth, frame.IndexAny),
			true,
		},
		"WrongStream": {
			NewFilter(frame.StreamColor, frame.IndexAny),
			false,
		},
		"ExplicitIndexMatch": {
			NewFilter(frame.StreamDepth, 0),
			true,
		},
		"ExplicitIndexUnmatch": {
			NewFilter(frame.StreamDepth, 1),
			false,
		},
		"ResolutionMatch": {
			Filter{Key: frame.NewKey(frame.StreamDepth, frame.IndexAny), Width: 640, Height: 480},
			true,
		},
		"WidthUnmatch": {
			Filter{Key: frame.NewKey(frame.StreamDepth, frame.IndexAny), Width: 1280},
			false,
		},
		"FormatUnmatch": {
			Filter{Key: frame.NewKey(frame.StreamDepth, frame.IndexAny), Format: frame.FormatY16},
			false,
		},
		"FPSMatch": {
			Filter{Key: frame.NewKey(frame.StreamDepth, frame.IndexAny), FPS: 30},
			true,
		},
		"FPSUnmatch": {
			Filter{Key: frame.NewKey(frame.StreamDepth, frame.IndexAny), FPS: 90},
			false,
		},
	}

	for name, data := range testDataSet {
		t.Run(name, func(t *testing.T) {
			if got := data.filter.Match(depth); got != data.match {
				t.Errorf("expected match=%v for %s, got %v", data.match, data.filter, got)
			}
		})
	}
}

func TestFilterSelectKeepsOrder(t *testing.T) {
	profiles := []Profile{
		{Key: frame.NewKey(frame.StreamColor, 0), Format: frame.FormatRGB8, FPS: 30, UID: 1},
		{Key: frame.NewKey(frame.StreamDepth, 0), Format: frame.FormatZ16, FPS: 30, UID: 2},
		{Key: frame.NewKey(frame.StreamColor, 0), Format: frame.FormatYUYV, FPS: 15, UID: 3},
	}

	got := NewFilter(frame.StreamColor, frame.IndexAny).Select(profiles)
	if len(got) != 2 || got[0].UID != 1 || got[1].UID != 3 {
		t.Errorf("unexpected selection: %v", got)
	}
}

func TestProfilePeriod(t *testing.T) {
	p := Profile{FPS: 30}
	if got := p.Period(); got != time.Second/30 {
		t.Errorf("expected %v, got %v", time.Second/30, got)
	}
	if got := (Profile{}).Period(); got != 0 {
		t.Errorf("expected 0 for unknown rate, got %v", got)
	}
}
