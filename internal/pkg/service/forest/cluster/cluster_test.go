package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grovekit/grove/internal/pkg/service/forest/cluster"
)

func TestSnapshot(t *testing.T) {
	t.Parallel()

	snapshot := cluster.NewSnapshot(
		cluster.Member{ID: "node-C"},
		cluster.Member{ID: "node-A", Heartbeat: cluster.Heartbeat{FreeMemory: 42}},
		cluster.Member{ID: "node-B"},
	)

	assert.Equal(t, 3, snapshot.Len())

	// Members keeps the cluster order, SortedIDs the identity order
	members := snapshot.Members()
	assert.Equal(t, "node-C", members[0].ID)
	assert.Equal(t, []string{"node-A", "node-B", "node-C"}, snapshot.SortedIDs())

	m, found := snapshot.Member("node-A")
	assert.True(t, found)
	assert.Equal(t, int64(42), m.Heartbeat.FreeMemory)

	_, found = snapshot.Member("node-X")
	assert.False(t, found)
}
