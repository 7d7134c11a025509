package frame

// Size returns the number of bytes a frame of the given format and
// resolution occupies. Compressed and non-image formats have no fixed size
// and return false.
func Size(f Format, width, height int) (int, bool) {
	switch f {
	case FormatRaw10:
		// 4 pixels packed into 5 bytes
		return width * height * 5 / 4, true
	case FormatMJPEG:
		return 0, false
	}

	bpp := f.BytesPerPixel()
	if bpp == 0 {
		return 0, false
	}
	return bpp * width * height, true
}
