package frame

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
)

func decodeZ16(frame []byte, width, height int) (image.Image, error) {
	expectedSize := 2 * (width * height)
	if expectedSize != len(frame) {
		return nil, fmt.Errorf("frame length (%d) not expected size (%d)", len(frame), expectedSize)
	}
	img := image.NewGray16(image.Rect(0, 0, width, height))
	// Depth values are little endian, one row after another.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := 2 * (x + (y * width))
			z := binary.LittleEndian.Uint16(frame[idx : idx+2])
			img.SetGray16(x, y, color.Gray16{Y: z})
		}
	}
	return img, nil
}

func decodeY8(frame []byte, width, height int) (image.Image, error) {
	expectedSize := width * height
	if expectedSize != len(frame) {
		return nil, fmt.Errorf("frame length (%d) not expected size (%d)", len(frame), expectedSize)
	}
	img := image.NewGray(image.Rect(0, 0, width, height))
	copy(img.Pix, frame)
	return img, nil
}
