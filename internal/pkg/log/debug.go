package log

import (
	"bytes"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugLogger returns logs as string in tests.
type DebugLogger interface {
	Logger
	Truncate()
	AllMessages() string
	CompareMessage(t testingT, expected string)
}

type testingT interface {
	Errorf(format string, args ...any)
	Helper()
}

type debugLogger struct {
	*zapLogger
	buf *lockedBuffer
}

// lockedBuffer guards the underlying buffer, messages are written and read from different goroutines.
type lockedBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func (b *lockedBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.buf.Reset()
}

// NewDebugLogger captures all messages to an in-memory buffer, level and message only.
func NewDebugLogger() DebugLogger {
	buf := &lockedBuffer{}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(buf),
		DebugLevel,
	)
	return &debugLogger{zapLogger: loggerFromZapCore(core), buf: buf}
}

func (l *debugLogger) Truncate() {
	l.buf.Reset()
}

func (l *debugLogger) AllMessages() string {
	return l.buf.String()
}

// CompareMessage asserts that at least one logged line contains the expected substring.
func (l *debugLogger) CompareMessage(t testingT, expected string) {
	t.Helper()
	if !strings.Contains(l.AllMessages(), expected) {
		t.Errorf("message %q not found in logs:\n%s", expected, l.AllMessages())
	}
}
