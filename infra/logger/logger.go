package logger

import corelogger "github.com/kilianp07/kmrl-dash/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.NopLogger

// New returns a Logger tagged with the given component. APP_ENV=dev selects
// human readable console output, LOG_LEVEL sets the minimum level.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// OrNop returns l, or a NopLogger when l is nil.
func OrNop(l Logger) Logger { return corelogger.OrNop(l) }
