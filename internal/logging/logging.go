package logging

import (
	"github.com/pion/logging"
)

var defaultFactory = logging.NewDefaultLoggerFactory()

// NewLogger returns a logger for scope from factory, or from the default
// factory when factory is nil. Levels of the default factory are controlled
// with the PION_LOG_* environment variables.
func NewLogger(factory logging.LoggerFactory, scope string) logging.LeveledLogger {
	if factory == nil {
		factory = defaultFactory
	}
	return factory.NewLogger(scope)
}
