package servicectx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovekit/grove/internal/pkg/log"
)

func TestProcess_Shutdown(t *testing.T) {
	t.Parallel()

	proc := NewForTest(log.NewDebugLogger(), "my-node")
	assert.Equal(t, "my-node", proc.UniqueID())

	var order []string
	proc.OnShutdown(func() {
		order = append(order, "first registered")
	})
	proc.OnShutdown(func() {
		order = append(order, "last registered")
	})

	done := make(chan struct{})
	proc.Add(func() {
		<-done
	})
	close(done)

	proc.Shutdown(context.Background())
	// Reverse order, the last registered callback runs first
	assert.Equal(t, []string{"last registered", "first registered"}, order)

	// Repeated shutdown is a no-op
	proc.Shutdown(context.Background())
	assert.Equal(t, 2, len(order))
}

func TestProcess_GeneratedID(t *testing.T) {
	t.Parallel()

	proc, err := New(log.NewNopLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, proc.UniqueID())
}
