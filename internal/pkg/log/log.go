// Package log provides the project logger, a thin wrapper over the zap.SugaredLogger.
package log

import (
	"go.uber.org/zap/zapcore"
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
)

type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With adds structured key/value pairs to every message logged by the returned logger.
	With(args ...any) Logger
	// AddPrefix returns a logger with the prefix prepended to every message.
	AddPrefix(prefix string) Logger
	Sync() error
}
