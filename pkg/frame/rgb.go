package frame

import (
	"fmt"
	"image"
)

// rgbOrder lists, for R, G and B, the byte offset inside a source pixel.
type rgbOrder [3]int

var (
	orderRGB = rgbOrder{0, 1, 2}
	orderBGR = rgbOrder{2, 1, 0}
)

func decodePacked(frame []byte, width, height, bpp int, order rgbOrder, alpha bool) (image.Image, error) {
	size := bpp * width * height
	if size > len(frame) {
		return nil, fmt.Errorf("frame length (%d) less than expected (%d)", len(frame), size)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for src, dst := 0, 0; src < size; src, dst = src+bpp, dst+4 {
		img.Pix[dst] = frame[src+order[0]]
		img.Pix[dst+1] = frame[src+order[1]]
		img.Pix[dst+2] = frame[src+order[2]]
		if alpha {
			img.Pix[dst+3] = frame[src+3]
		} else {
			img.Pix[dst+3] = 0xff
		}
	}
	return img, nil
}

func decodeRGB8(frame []byte, width, height int) (image.Image, error) {
	return decodePacked(frame, width, height, 3, orderRGB, false)
}

func decodeBGR8(frame []byte, width, height int) (image.Image, error) {
	return decodePacked(frame, width, height, 3, orderBGR, false)
}

func decodeRGBA8(frame []byte, width, height int) (image.Image, error) {
	return decodePacked(frame, width, height, 4, orderRGB, true)
}

func decodeBGRA8(frame []byte, width, height int) (image.Image, error) {
	return decodePacked(frame, width, height, 4, orderBGR, true)
}
