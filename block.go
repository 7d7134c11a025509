package framesync

import (
	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
)

// Block is a processing block attached to a pipeline. Its requirements are
// added to the streams the pipeline resolves, so that the block gets its
// input whatever the Config asks for.
type Block interface {
	Requirements() []prop.Filter
}

type requirements []prop.Filter

func (r requirements) Requirements() []prop.Filter {
	return append([]prop.Filter(nil), r...)
}

// Require returns a Block requiring the given streams.
func Require(filters ...prop.Filter) Block {
	return requirements(filters)
}

// NewAlign returns the requirements of a block aligning depth to the stream
// to, which needs both.
func NewAlign(to frame.Stream) Block {
	filters := requirements{prop.NewFilter(frame.StreamDepth, frame.IndexAny)}
	if to != frame.StreamDepth {
		filters = append(filters, prop.NewFilter(to, frame.IndexAny))
	}
	return filters
}
