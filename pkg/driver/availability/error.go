// Package availability defines the errors devices report when they can't be
// used.
package availability

import (
	"errors"
)

var (
	ErrUnimplemented = NewError("not implemented")
	ErrBusy          = NewError("device or resource busy")
	ErrNoDevice      = NewError("no such device")
	// ErrDisconnected is reported when a device vanished while in use.
	ErrDisconnected = NewError("device disconnected")
	// ErrFatal is wrapped by faults that leave the device unusable until it
	// is reinitialized.
	ErrFatal = NewError("unrecoverable device error")
)

type errorString struct {
	s string
}

func NewError(text string) error {
	return &errorString{text}
}

// IsError reports whether err is an availability error.
func IsError(err error) bool {
	var target *errorString
	return errors.As(err, &target)
}

// IsFatal reports whether err requires the device to be reinitialized.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

func (e *errorString) Error() string {
	return e.s
}
