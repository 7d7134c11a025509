package media

import (
	"errors"
	"fmt"
)

var (
	// ErrUseAfterFree reports access to a frame or frame set whose last
	// reference was already released. The buffer may have been reused.
	ErrUseAfterFree = errors.New("use after free")
	// ErrPoolExhausted is returned by Pool.Acquire when no buffer became
	// available in time. The caller is expected to drop the frame.
	ErrPoolExhausted = errors.New("frame pool exhausted")
	// ErrMetadataUnsupported is returned when a frame carries no value for
	// the requested metadata attribute.
	ErrMetadataUnsupported = errors.New("metadata not supported")
)

// InsufficientBufferError tells the caller that the buffer provided is not sufficient/big
// enough to hold the whole frame.
type InsufficientBufferError struct {
	RequiredSize int
}

func (e *InsufficientBufferError) Error() string {
	return fmt.Sprintf("provided buffer doesn't meet the size requirement of length, %d", e.RequiredSize)
}
