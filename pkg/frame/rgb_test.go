package frame

import (
	"image"
	"testing"
)

func TestDecodePacked(t *testing.T) {
	cases := map[string]struct {
		format   Format
		input    []byte
		expected []byte
	}{
		"RGB8": {
			format:   FormatRGB8,
			input:    []byte{1, 2, 3, 4, 5, 6},
			expected: []byte{1, 2, 3, 0xff, 4, 5, 6, 0xff},
		},
		"BGR8": {
			format:   FormatBGR8,
			input:    []byte{1, 2, 3, 4, 5, 6},
			expected: []byte{3, 2, 1, 0xff, 6, 5, 4, 0xff},
		},
		"RGBA8": {
			format:   FormatRGBA8,
			input:    []byte{1, 2, 3, 9, 4, 5, 6, 8},
			expected: []byte{1, 2, 3, 9, 4, 5, 6, 8},
		},
		"BGRA8": {
			format:   FormatBGRA8,
			input:    []byte{1, 2, 3, 9, 4, 5, 6, 8},
			expected: []byte{3, 2, 1, 9, 6, 5, 4, 8},
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			decoder, err := NewDecoder(c.format)
			if err != nil {
				t.Fatal(err)
			}
			img, err := decoder.Decode(c.input, 2, 1)
			if err != nil {
				t.Fatal(err)
			}
			rgba, ok := img.(*image.RGBA)
			if !ok {
				t.Fatalf("expected *image.RGBA, got %T", img)
			}
			if string(rgba.Pix) != string(c.expected) {
				t.Errorf("expected %v, got %v", c.expected, rgba.Pix)
			}
		})
	}
}

func TestNewDecoderUnsupported(t *testing.T) {
	if _, err := NewDecoder(FormatSixDOF); err == nil {
		t.Error("expected an error for a non-image format")
	}
}
