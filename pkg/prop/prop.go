package prop

import (
	"fmt"
	"time"

	"github.com/pion/framesync/pkg/frame"
)

// Profile describes one stream configuration a sensor can produce. Profiles
// are plain values; once handed out by a driver they are never modified.
type Profile struct {
	frame.Key
	Format frame.Format
	FPS    int
	// UID is unique among all profiles handed out by one driver manager.
	UID int
	// Default marks the profile the manufacturer recommends for the sensor.
	Default bool
	Video
	// DepthUnits is the number of meters represented by one depth unit.
	// Only meaningful for depth streams.
	DepthUnits float32
}

// Video represents the properties only video streams have.
type Video struct {
	Width, Height int
	Intrinsics    Intrinsics
}

// DistortionModel names the lens distortion model of Intrinsics.Coeffs.
type DistortionModel string

const (
	DistortionNone                 DistortionModel = "none"
	DistortionModifiedBrownConrady DistortionModel = "modified_brown_conrady"
	DistortionInverseBrownConrady  DistortionModel = "inverse_brown_conrady"
	DistortionFTheta               DistortionModel = "ftheta"
	DistortionBrownConrady         DistortionModel = "brown_conrady"
)

// Intrinsics holds the pinhole camera model of a video stream.
type Intrinsics struct {
	Width, Height int
	// PPX and PPY are the principal point, as a pixel offset from the left and top edge.
	PPX, PPY float32
	// FX and FY are the focal length as a multiple of pixel width and height.
	FX, FY float32
	Model  DistortionModel
	Coeffs [5]float32
}

// IsVideo reports whether p describes an image stream.
func (p Profile) IsVideo() bool {
	return p.Width > 0 && p.Height > 0
}

// Period returns the nominal time between two frames. Zero when the rate is
// unknown.
func (p Profile) Period() time.Duration {
	if p.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(p.FPS)
}

func (p Profile) String() string {
	if p.IsVideo() {
		return fmt.Sprintf("%s %dx%d %s@%dfps", p.Key, p.Width, p.Height, p.Format, p.FPS)
	}
	return fmt.Sprintf("%s %s@%dfps", p.Key, p.Format, p.FPS)
}
