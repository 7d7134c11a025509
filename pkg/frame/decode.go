package frame

import (
	"fmt"
)

func NewDecoder(f Format) (Decoder, error) {
	var decoder decoderFunc

	switch f {
	case FormatYUYV:
		decoder = decodeYUYV
	case FormatUYVY:
		decoder = decodeUYVY
	case FormatRGB8:
		decoder = decodeRGB8
	case FormatBGR8:
		decoder = decodeBGR8
	case FormatRGBA8:
		decoder = decodeRGBA8
	case FormatBGRA8:
		decoder = decodeBGRA8
	case FormatY8:
		decoder = decodeY8
	case FormatZ16, FormatY16:
		decoder = decodeZ16
	case FormatMJPEG:
		decoder = decodeMJPEG
	default:
		return nil, fmt.Errorf("%s is not supported", f)
	}

	return decoder, nil
}
