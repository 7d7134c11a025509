package media

import (
	"image"
	"testing"

	"github.com/pion/framesync/pkg/frame"
	"github.com/pion/framesync/pkg/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind(t *testing.T) {
	cases := map[string]struct {
		profile prop.Profile
		kind    Kind
	}{
		"Depth": {
			prop.Profile{Key: frame.NewKey(frame.StreamDepth, 0), Format: frame.FormatZ16, Video: prop.Video{Width: 1, Height: 1}},
			KindDepth,
		},
		"Disparity": {
			prop.Profile{Key: frame.NewKey(frame.StreamDepth, 0), Format: frame.FormatDisparity32, Video: prop.Video{Width: 1, Height: 1}},
			KindDisparity,
		},
		"Color": {
			prop.Profile{Key: frame.NewKey(frame.StreamColor, 0), Format: frame.FormatRGB8, Video: prop.Video{Width: 1, Height: 1}},
			KindVideo,
		},
		"Gyro": {
			prop.Profile{Key: frame.NewKey(frame.StreamGyro, 0), Format: frame.FormatMotionXYZ32F},
			KindMotion,
		},
		"Pose": {
			prop.Profile{Key: frame.NewKey(frame.StreamPose, 0), Format: frame.FormatSixDOF},
			KindPose,
		},
		"GPIO": {
			prop.Profile{Key: frame.NewKey(frame.StreamGPIO, 0), Format: frame.FormatGPIORaw},
			KindOther,
		},
	}

	for name, c := range cases {
		c := c
		t.Run(name, func(t *testing.T) {
			f := NewFrame(Raw{Profile: c.profile})
			defer f.Release()
			assert.Equal(t, c.kind, f.Kind())

			_, isVideo := f.AsVideo()
			assert.Equal(t, c.kind == KindVideo || c.kind == KindDepth || c.kind == KindDisparity, isVideo)
			_, isDepth := f.AsDepth()
			assert.Equal(t, c.kind == KindDepth, isDepth)
			_, isMotion := f.AsMotion()
			assert.Equal(t, c.kind == KindMotion, isMotion)
			_, isPose := f.AsPose()
			assert.Equal(t, c.kind == KindPose, isPose)
		})
	}
}

func TestDepthDistance(t *testing.T) {
	p := prop.Profile{
		Key:        frame.NewKey(frame.StreamDepth, 0),
		Format:     frame.FormatZ16,
		Video:      prop.Video{Width: 2, Height: 1},
		DepthUnits: 0.0001,
	}
	f := NewFrame(Raw{Data: []byte{0x10, 0x27, 0xe8, 0x03}, Profile: p})
	defer f.Release()

	d, ok := f.AsDepth()
	require.True(t, ok)

	dist, err := d.Distance(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, dist, 1e-6)

	dist, err = d.Distance(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, dist, 1e-6)

	_, err = d.Distance(2, 0)
	assert.Error(t, err)

	img, err := d.Image()
	require.NoError(t, err)
	assert.Equal(t, uint16(10000), img.(*image.Gray16).Gray16At(0, 0).Y)
}

func TestMotionVector(t *testing.T) {
	want := Vector{X: 0.5, Y: -9.81, Z: 0.25}
	p := prop.Profile{Key: frame.NewKey(frame.StreamAccel, 0), Format: frame.FormatMotionXYZ32F, FPS: 250}
	f := NewFrame(Raw{Data: AppendVector(nil, want), Profile: p})
	defer f.Release()

	m, ok := f.AsMotion()
	require.True(t, ok)
	got, err := m.Vector()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPoseDecode(t *testing.T) {
	want := Pose{
		Translation:       Vector{X: 1, Y: 2, Z: 3},
		Velocity:          Vector{X: 0.1},
		Rotation:          Quaternion{W: 1},
		AngularVelocity:   Vector{Z: 0.2},
		TrackerConfidence: 3,
		MapperConfidence:  2,
	}
	data := AppendPose(nil, want)
	require.Len(t, data, poseSize)

	p := prop.Profile{Key: frame.NewKey(frame.StreamPose, 0), Format: frame.FormatSixDOF, FPS: 200}
	f := NewFrame(Raw{Data: data, Profile: p})
	defer f.Release()

	pf, ok := f.AsPose()
	require.True(t, ok)
	got, err := pf.Pose()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	short := NewFrame(Raw{Data: data[:10], Profile: p})
	defer short.Release()
	pf, _ = short.AsPose()
	_, err = pf.Pose()
	assert.Error(t, err)
}
