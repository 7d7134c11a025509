package frame

import (
	"fmt"
	"strings"
)

// Stream is the type of data a sensor produces.
type Stream int

// Stream types. StreamAny is only meaningful inside filters.
const (
	StreamAny Stream = iota
	StreamDepth
	StreamColor
	StreamInfrared
	StreamFisheye
	StreamGyro
	StreamAccel
	StreamGPIO
	StreamPose
	StreamConfidence
	streamCount
)

var streamNames = [streamCount]string{
	StreamAny:        "any",
	StreamDepth:      "depth",
	StreamColor:      "color",
	StreamInfrared:   "infrared",
	StreamFisheye:    "fisheye",
	StreamGyro:       "gyro",
	StreamAccel:      "accel",
	StreamGPIO:       "gpio",
	StreamPose:       "pose",
	StreamConfidence: "confidence",
}

func (s Stream) String() string {
	if s < 0 || s >= streamCount {
		return fmt.Sprintf("stream(%d)", int(s))
	}
	return streamNames[s]
}

// ParseStream converts a stream name, case insensitive, to its Stream value.
func ParseStream(name string) (Stream, error) {
	name = strings.ToLower(name)
	for i, n := range streamNames {
		if n == name {
			return Stream(i), nil
		}
	}
	return StreamAny, fmt.Errorf("unknown stream %q", name)
}

// IsMotion reports whether s carries IMU or pose samples rather than images.
func (s Stream) IsMotion() bool {
	return s == StreamGyro || s == StreamAccel || s == StreamPose || s == StreamGPIO
}

// IndexAny matches every stream index when used in a filter.
const IndexAny = -1

// Key uniquely identifies a stream within a device. Index disambiguates
// multiple sensors of the same type, e.g. left and right infrared imagers.
type Key struct {
	Stream Stream
	Index  int
}

// NewKey is a shorthand for Key{Stream: s, Index: index}.
func NewKey(s Stream, index int) Key {
	return Key{Stream: s, Index: index}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Stream, k.Index)
}

// Matches reports whether k satisfies the possibly wildcarded key pattern.
func (k Key) Matches(pattern Key) bool {
	if pattern.Stream != StreamAny && pattern.Stream != k.Stream {
		return false
	}
	return pattern.Index == IndexAny || pattern.Index == k.Index
}

// TimestampDomain tells which clock produced a timestamp. Timestamps are only
// comparable within the same domain.
type TimestampDomain int

const (
	// DomainHardwareClock is the device's own clock
	DomainHardwareClock TimestampDomain = iota
	// DomainSystemTime is the host clock at the moment the frame arrived
	DomainSystemTime
)

func (d TimestampDomain) String() string {
	switch d {
	case DomainHardwareClock:
		return "hardware_clock"
	case DomainSystemTime:
		return "system_time"
	}
	return fmt.Sprintf("domain(%d)", int(d))
}

// Metadata identifies a per-frame metadata attribute.
type Metadata int

const (
	MetadataFrameCounter Metadata = iota
	MetadataFrameTimestamp
	MetadataSensorTimestamp
	MetadataActualExposure
	MetadataGainLevel
	MetadataAutoExposure
	MetadataWhiteBalance
	MetadataTimeOfArrival
	MetadataTemperature
	MetadataBackendTimestamp
	MetadataActualFPS
	MetadataLaserPower
)
