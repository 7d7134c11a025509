/*
Package camera provides a V4L2 camera driver.

Every video node is registered as one device with a single sensor. The stream
type is derived from the pixel format: Z16 nodes stream depth, GREY and Y16
nodes stream infrared and the other formats stream color.

# Device Label Generation Rules

On Linux, the device label will be in the format of:

	pci-0000:00:00.0-usb-0:0:0.0-video-index0;video0

If /dev/v4l/by-path/* is not available (for example in a docker container without
bindings in /dev/v4l/by-path/), it will be:

	video0;video0
*/
package camera

import (
	"github.com/pion/framesync/pkg/frame"
)

// LabelSeparator is used to separate labels for a driver that
// is found from multiple locations on a host.
const LabelSeparator = ";"

// fourcc packs a V4L2 pixel format code.
func fourcc(code string) uint32 {
	return uint32(code[0]) | uint32(code[1])<<8 | uint32(code[2])<<16 | uint32(code[3])<<24
}

type pixelFormat struct {
	stream frame.Stream
	format frame.Format
}

var pixelFormats = map[uint32]pixelFormat{
	fourcc("Z16 "): {frame.StreamDepth, frame.FormatZ16},
	fourcc("GREY"): {frame.StreamInfrared, frame.FormatY8},
	fourcc("Y16 "): {frame.StreamInfrared, frame.FormatY16},
	fourcc("YUYV"): {frame.StreamColor, frame.FormatYUYV},
	fourcc("UYVY"): {frame.StreamColor, frame.FormatUYVY},
	fourcc("MJPG"): {frame.StreamColor, frame.FormatMJPEG},
	fourcc("RGB3"): {frame.StreamColor, frame.FormatRGB8},
	fourcc("BGR3"): {frame.StreamColor, frame.FormatBGR8},
}

func pixelFormatOf(f frame.Format) (uint32, bool) {
	for code, pf := range pixelFormats {
		if pf.format == f {
			return code, true
		}
	}
	return 0, false
}
