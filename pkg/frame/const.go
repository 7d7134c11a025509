package frame

// Format identifies the binary layout of a frame payload.
type Format string

// FormatAny matches every format when used in a filter.
const FormatAny Format = ""

const (
	// Depth formats

	// FormatZ16 is 16-bit linear depth, scaled by the device depth units
	FormatZ16 Format = "Z16"
	// FormatDisparity16 is 16-bit float-point disparity values
	FormatDisparity16 Format = "DISPARITY16"
	// FormatDisparity32 is 32-bit float-point disparity values
	FormatDisparity32 Format = "DISPARITY32"
	// FormatXYZ32F is 32-bit float-point 3D coordinates
	FormatXYZ32F Format = "XYZ32F"

	// YUV formats

	// FormatYUYV https://www.fourcc.org/pixel-format/yuv-yuy2/
	FormatYUYV Format = "YUYV"
	// FormatUYVY https://www.fourcc.org/pixel-format/yuv-uyvy/
	FormatUYVY Format = "UYVY"

	// RGB formats

	FormatRGB8  Format = "RGB8"
	FormatBGR8  Format = "BGR8"
	FormatRGBA8 Format = "RGBA8"
	FormatBGRA8 Format = "BGRA8"

	// Luminance formats, used by infrared and fisheye streams

	FormatY8  Format = "Y8"
	FormatY16 Format = "Y16"

	// Raw sensor formats

	FormatRaw8  Format = "RAW8"
	FormatRaw10 Format = "RAW10"
	FormatRaw16 Format = "RAW16"

	// Compressed formats

	// FormatMJPEG https://www.fourcc.org/mjpg/
	FormatMJPEG Format = "MJPEG"

	// Non-image formats

	// FormatMotionRaw is the raw data of a motion sensor
	FormatMotionRaw Format = "MOTION_RAW"
	// FormatMotionXYZ32F is three 32-bit floats, one per axis
	FormatMotionXYZ32F Format = "MOTION_XYZ32F"
	// FormatGPIORaw is the raw data of a GPIO event
	FormatGPIORaw Format = "GPIO_RAW"
	// FormatSixDOF is a pose sample, see the media package for its layout
	FormatSixDOF Format = "6DOF"
)

// FormatYUY2 is an alias of FormatYUYV
const FormatYUY2 = FormatYUYV

// BytesPerPixel returns the number of bytes a single pixel of f occupies.
// Compressed and non-image formats return 0.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatY8, FormatRaw8:
		return 1
	case FormatZ16, FormatDisparity16, FormatY16, FormatRaw16, FormatYUYV, FormatUYVY:
		return 2
	case FormatRGB8, FormatBGR8:
		return 3
	case FormatRGBA8, FormatBGRA8, FormatDisparity32:
		return 4
	case FormatXYZ32F:
		return 12
	}
	return 0
}

// IsImage reports whether f describes a 2D image payload.
func (f Format) IsImage() bool {
	return f.BytesPerPixel() != 0 || f == FormatMJPEG || f == FormatRaw10
}
