package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugLogger(t *testing.T) {
	t.Parallel()

	logger := NewDebugLogger()
	logger.Debugf("debug %s", "message")
	logger.Infof("info message")
	logger.Warnf("warn message")
	logger.Errorf("error message")

	logs := logger.AllMessages()
	assert.Contains(t, logs, "DEBUG")
	assert.Contains(t, logs, "debug message")
	assert.Contains(t, logs, "info message")
	assert.Contains(t, logs, "warn message")
	assert.Contains(t, logs, "error message")

	logger.CompareMessage(t, "info message")

	logger.Truncate()
	assert.Empty(t, logger.AllMessages())
}

func TestLoggerPrefix(t *testing.T) {
	t.Parallel()

	logger := NewDebugLogger()
	prefixed := logger.AddPrefix("[task]").AddPrefix("[node-1]")
	prefixed.Infof("started")

	assert.Contains(t, logger.AllMessages(), "[task][node-1]")
	assert.Contains(t, logger.AllMessages(), "started")
}

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NewNopLogger()
	logger.Infof("dropped")
	logger.With("key", "value").AddPrefix("[x]").Errorf("dropped too")
}
