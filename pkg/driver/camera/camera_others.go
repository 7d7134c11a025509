//go:build !linux

package camera

import (
	"github.com/pion/framesync/pkg/driver"
)

// Register does nothing: V4L2 is only available on Linux.
func Register(m *driver.Manager) []driver.Driver {
	return nil
}
