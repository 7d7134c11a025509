package media

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"

	"github.com/pion/framesync/pkg/frame"
)

// Kind tells which typed view a frame supports.
type Kind int

const (
	KindOther Kind = iota
	KindVideo
	KindDepth
	KindDisparity
	KindMotion
	KindPose
	KindPoints
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindDepth:
		return "depth"
	case KindDisparity:
		return "disparity"
	case KindMotion:
		return "motion"
	case KindPose:
		return "pose"
	case KindPoints:
		return "points"
	}
	return "other"
}

// defaultDepthUnits is used when the profile does not carry depth units: 1mm.
const defaultDepthUnits = 0.001

// Kind derives the frame kind from its stream type and format.
func (f *Frame) Kind() Kind {
	p := f.profile
	switch {
	case p.Format == frame.FormatSixDOF || p.Stream == frame.StreamPose:
		return KindPose
	case p.Format == frame.FormatMotionXYZ32F || p.Format == frame.FormatMotionRaw ||
		p.Stream == frame.StreamGyro || p.Stream == frame.StreamAccel:
		return KindMotion
	case p.Format == frame.FormatXYZ32F:
		return KindPoints
	case p.Format == frame.FormatDisparity16 || p.Format == frame.FormatDisparity32:
		return KindDisparity
	case p.Stream == frame.StreamDepth && p.Format == frame.FormatZ16:
		return KindDepth
	case p.IsVideo():
		return KindVideo
	}
	return KindOther
}

// VideoFrame is the view of a frame holding a 2D image.
type VideoFrame struct {
	*Frame
}

// AsVideo returns the video view of f. Depth and disparity frames are video
// frames too.
func (f *Frame) AsVideo() (VideoFrame, bool) {
	switch f.Kind() {
	case KindVideo, KindDepth, KindDisparity:
		return VideoFrame{f}, true
	}
	return VideoFrame{}, false
}

func (v VideoFrame) Width() int  { return v.profile.Width }
func (v VideoFrame) Height() int { return v.profile.Height }

// BytesPerPixel returns 0 for compressed formats.
func (v VideoFrame) BytesPerPixel() int { return v.profile.Format.BytesPerPixel() }

func (v VideoFrame) BitsPerPixel() int { return 8 * v.BytesPerPixel() }

// Stride returns the length of a row in bytes.
func (v VideoFrame) Stride() int { return v.Width() * v.BytesPerPixel() }

// DataByteLength returns the payload size in bytes.
func (v VideoFrame) DataByteLength() int { return len(v.Data()) }

// Image decodes the payload. The returned image does not share memory with
// the frame and stays valid after Release.
func (v VideoFrame) Image() (image.Image, error) {
	if err := v.checkAlive(); err != nil {
		return nil, err
	}
	decoder, err := frame.NewDecoder(v.profile.Format)
	if err != nil {
		return nil, err
	}
	return decoder.Decode(v.buf, v.Width(), v.Height())
}

// DepthFrame is the view of a Z16 depth frame.
type DepthFrame struct {
	VideoFrame
}

// AsDepth returns the depth view of f.
func (f *Frame) AsDepth() (DepthFrame, bool) {
	if f.Kind() != KindDepth {
		return DepthFrame{}, false
	}
	return DepthFrame{VideoFrame{f}}, true
}

// Units returns the number of meters represented by one depth unit.
func (d DepthFrame) Units() float32 {
	if d.profile.DepthUnits > 0 {
		return d.profile.DepthUnits
	}
	return defaultDepthUnits
}

// Distance returns the depth at pixel (x, y) in meters.
func (d DepthFrame) Distance(x, y int) (float32, error) {
	if err := d.checkAlive(); err != nil {
		return 0, err
	}
	if x < 0 || y < 0 || x >= d.Width() || y >= d.Height() {
		return 0, fmt.Errorf("pixel (%d, %d) out of %dx%d", x, y, d.Width(), d.Height())
	}
	idx := 2 * (y*d.Width() + x)
	if idx+2 > len(d.buf) {
		return 0, &InsufficientBufferError{idx + 2}
	}
	return float32(binary.LittleEndian.Uint16(d.buf[idx:])) * d.Units(), nil
}

// Vector is a three axis sample.
type Vector struct {
	X, Y, Z float32
}

// MotionFrame is the view of a gyro or accelerometer sample.
type MotionFrame struct {
	*Frame
}

// AsMotion returns the motion view of f.
func (f *Frame) AsMotion() (MotionFrame, bool) {
	if f.Kind() != KindMotion {
		return MotionFrame{}, false
	}
	return MotionFrame{f}, true
}

// Vector decodes a MOTION_XYZ32F sample. Gyro samples are in rad/s,
// accelerometer samples in m/s^2.
func (m MotionFrame) Vector() (Vector, error) {
	if err := m.checkAlive(); err != nil {
		return Vector{}, err
	}
	if m.profile.Format != frame.FormatMotionXYZ32F {
		return Vector{}, fmt.Errorf("can't decode %s as a motion vector", m.profile.Format)
	}
	r := floatReader{buf: m.buf}
	v := r.vector()
	return v, r.err
}

// Quaternion is a rotation.
type Quaternion struct {
	X, Y, Z, W float32
}

// Pose is a 6DOF sample. Positions are in meters relative to the start of
// tracking, rotations in the same reference frame.
type Pose struct {
	Translation         Vector
	Velocity            Vector
	Acceleration        Vector
	Rotation            Quaternion
	AngularVelocity     Vector
	AngularAcceleration Vector
	TrackerConfidence   uint32
	MapperConfidence    uint32
}

// poseSize is the encoded size of a Pose: 19 little endian float32 followed
// by two uint32 confidences.
const poseSize = 19*4 + 2*4

// PoseFrame is the view of a 6DOF pose sample.
type PoseFrame struct {
	*Frame
}

// AsPose returns the pose view of f.
func (f *Frame) AsPose() (PoseFrame, bool) {
	if f.Kind() != KindPose {
		return PoseFrame{}, false
	}
	return PoseFrame{f}, true
}

// Pose decodes the sample.
func (p PoseFrame) Pose() (Pose, error) {
	if err := p.checkAlive(); err != nil {
		return Pose{}, err
	}
	if len(p.buf) < poseSize {
		return Pose{}, &InsufficientBufferError{poseSize}
	}

	r := floatReader{buf: p.buf}
	pose := Pose{
		Translation:  r.vector(),
		Velocity:     r.vector(),
		Acceleration: r.vector(),
		Rotation:     Quaternion{X: r.float(), Y: r.float(), Z: r.float(), W: r.float()},
	}
	pose.AngularVelocity = r.vector()
	pose.AngularAcceleration = r.vector()
	pose.TrackerConfidence = r.uint32()
	pose.MapperConfidence = r.uint32()
	return pose, r.err
}

// floatReader reads consecutive little endian values and remembers the first
// short read.
type floatReader struct {
	buf []byte
	off int
	err error
}

func (r *floatReader) uint32() uint32 {
	if r.err != nil {
		return 0
	}
	if r.off+4 > len(r.buf) {
		r.err = &InsufficientBufferError{r.off + 4}
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *floatReader) float() float32 {
	return math.Float32frombits(r.uint32())
}

func (r *floatReader) vector() Vector {
	return Vector{X: r.float(), Y: r.float(), Z: r.float()}
}

// AppendVector appends the MOTION_XYZ32F encoding of v to b.
func AppendVector(b []byte, v Vector) []byte {
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.X))
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Y))
	return binary.LittleEndian.AppendUint32(b, math.Float32bits(v.Z))
}

// AppendPose appends the 6DOF encoding of p to b.
func AppendPose(b []byte, p Pose) []byte {
	b = AppendVector(b, p.Translation)
	b = AppendVector(b, p.Velocity)
	b = AppendVector(b, p.Acceleration)
	for _, f := range []float32{p.Rotation.X, p.Rotation.Y, p.Rotation.Z, p.Rotation.W} {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
	}
	b = AppendVector(b, p.AngularVelocity)
	b = AppendVector(b, p.AngularAcceleration)
	b = binary.LittleEndian.AppendUint32(b, p.TrackerConfidence)
	return binary.LittleEndian.AppendUint32(b, p.MapperConfidence)
}
