package frame

import (
	"fmt"
	"image"
)

// packed422 describes where each sample sits inside a 4-byte macropixel of a
// packed 4:2:2 format.
type packed422 struct {
	y0, cb, y1, cr int
}

var (
	layoutYUYV = packed422{y0: 0, cb: 1, y1: 2, cr: 3}
	layoutUYVY = packed422{cb: 0, y0: 1, cr: 2, y1: 3}
)

func (l packed422) decode(buf []byte, width, height int) (image.Image, error) {
	if width%2 != 0 {
		return nil, fmt.Errorf("4:2:2 frame width must be even, got %d", width)
	}
	size := 2 * width * height
	if len(buf) != size {
		return nil, fmt.Errorf("frame length (%d) not expected size (%d)", len(buf), size)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for px := 0; px < size/4; px++ {
		m := buf[4*px : 4*px+4]
		img.Y[2*px] = m[l.y0]
		img.Y[2*px+1] = m[l.y1]
		img.Cb[px] = m[l.cb]
		img.Cr[px] = m[l.cr]
	}
	return img, nil
}

func decodeYUYV(buf []byte, width, height int) (image.Image, error) {
	return layoutYUYV.decode(buf, width, height)
}

func decodeUYVY(buf []byte, width, height int) (image.Image, error) {
	return layoutUYVY.decode(buf, width, height)
}
