package driver

// DeviceType represents human readable device type. DeviceType
// can be useful to filter the drivers too.
type DeviceType string

const (
	// Camera represents camera devices
	Camera DeviceType = "camera"
	// Playback represents devices replaying a recording
	Playback DeviceType = "playback"
	// Synthetic represents generated devices
	Synthetic DeviceType = "synthetic"
)
