package frame

import "image"

// Decoder turns a raw frame payload into an image. Decoders never write to
// frame; payloads may be shared by several readers.
type Decoder interface {
	Decode(frame []byte, width, height int) (image.Image, error)
}

// decoderFunc is a proxy type for Decoder
type decoderFunc func(frame []byte, width, height int) (image.Image, error)

func (f decoderFunc) Decode(frame []byte, width, height int) (image.Image, error) {
	return f(frame, width, height)
}
