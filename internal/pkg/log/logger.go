package log

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger is default implementation of the Logger interface.
// It is wrapped zap.SugaredLogger.
type zapLogger struct {
	*zap.SugaredLogger
	core   zapcore.Core
	prefix string
}

func loggerFromZapCore(core zapcore.Core, with ...any) *zapLogger {
	return &zapLogger{SugaredLogger: zap.New(core).Sugar().With(with...), core: core}
}

// NewServiceLogger creates a production logger writing to the writer.
func NewServiceLogger(out io.Writer, verbose bool) Logger {
	level := InfoLevel
	if verbose {
		level = DebugLevel
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(out),
		level,
	)
	return loggerFromZapCore(core)
}

// NewNopLogger discards all messages.
func NewNopLogger() Logger {
	return loggerFromZapCore(zapcore.NewNopCore())
}

func (l *zapLogger) With(args ...any) Logger {
	clone := *l
	clone.SugaredLogger = l.SugaredLogger.With(args...)
	return &clone
}

func (l *zapLogger) AddPrefix(prefix string) Logger {
	clone := *l
	clone.prefix = l.prefix + prefix
	return &clone
}

func (l *zapLogger) Debugf(format string, args ...any) {
	l.SugaredLogger.Debugf(l.prefixed(format), args...)
}

func (l *zapLogger) Infof(format string, args ...any) {
	l.SugaredLogger.Infof(l.prefixed(format), args...)
}

func (l *zapLogger) Warnf(format string, args ...any) {
	l.SugaredLogger.Warnf(l.prefixed(format), args...)
}

func (l *zapLogger) Errorf(format string, args ...any) {
	l.SugaredLogger.Errorf(l.prefixed(format), args...)
}

func (l *zapLogger) prefixed(format string) string {
	if l.prefix == "" {
		return format
	}
	return l.prefix + " " + format
}
