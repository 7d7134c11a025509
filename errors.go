package framesync

import (
	"errors"
	"fmt"

	"github.com/pion/framesync/pkg/driver/availability"
	"github.com/pion/framesync/pkg/media"
	"github.com/pion/framesync/pkg/syncer"
)

var (
	// ErrNoMatchingProfile is returned when no device can satisfy a Config.
	ErrNoMatchingProfile = errors.New("no device matches the requested configuration")
	// ErrTimeout is returned when a wait expires. The caller may retry.
	ErrTimeout = syncer.ErrTimeout
	// ErrClosed is returned by operations on a closed object.
	ErrClosed = syncer.ErrClosed
	// ErrNotStarted is returned by pipeline operations that need a started
	// pipeline.
	ErrNotStarted = errors.New("pipeline not started")
	// ErrAlreadyStarted is returned when starting a started pipeline.
	ErrAlreadyStarted = errors.New("pipeline already started")
	// ErrDeviceDisconnected is carried by EventDeviceDisconnected. Waiting for
	// frames never fails with it.
	ErrDeviceDisconnected = availability.ErrDisconnected
	// ErrRecordingUnsupported is returned by Start when recording is
	// requested from a pipeline without a Recorder.
	ErrRecordingUnsupported = errors.New("recording is not supported without a recorder")

	ErrUseAfterFree        = media.ErrUseAfterFree
	ErrPoolExhausted       = media.ErrPoolExhausted
	ErrMetadataUnsupported = media.ErrMetadataUnsupported
)

// UnrecoverableError is returned once a device fault tore the pipeline down.
// The pipeline has to be started again.
type UnrecoverableError struct {
	Device string
	Err    error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("unrecoverable error on %s: %v", e.Device, e.Err)
}

func (e *UnrecoverableError) Unwrap() error {
	return e.Err
}
