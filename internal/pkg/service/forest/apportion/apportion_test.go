package apportion_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grovekit/grove/internal/pkg/service/forest/apportion"
)

func TestTreeShares(t *testing.T) {
	t.Parallel()

	// Chunks owned by nodes {A:2, B:1, C:1}, the locality set is {A,B,C}:
	// base=3, remainder=1, earlier nodes round up.
	shares := apportion.TreeShares([]string{"node-C", "node-A", "node-B"}, 10)
	assert.Equal(t, map[string]int{"node-A": 4, "node-B": 3, "node-C": 3}, shares)

	// Even division
	shares = apportion.TreeShares([]string{"n1", "n2"}, 10)
	assert.Equal(t, map[string]int{"n1": 5, "n2": 5}, shares)

	// Single node takes everything
	shares = apportion.TreeShares([]string{"only"}, 7)
	assert.Equal(t, map[string]int{"only": 7}, shares)

	// Fewer trees than nodes
	shares = apportion.TreeShares([]string{"a", "b", "c"}, 2)
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 0}, shares)

	// Empty inputs
	assert.Empty(t, apportion.TreeShares(nil, 10))
	assert.Empty(t, apportion.TreeShares([]string{"a"}, 0))
}

func TestTreeShares_SumAndSpread(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		nodes  int
		ntrees int
	}{
		{1, 1}, {2, 1}, {3, 10}, {5, 99}, {7, 100}, {10, 3}, {16, 1000},
	} {
		t.Run(fmt.Sprintf("nodes=%d,ntrees=%d", tc.nodes, tc.ntrees), func(t *testing.T) {
			t.Parallel()
			nodes := make([]string, 0, tc.nodes)
			for i := range tc.nodes {
				nodes = append(nodes, fmt.Sprintf("node-%03d", i))
			}

			shares := apportion.TreeShares(nodes, tc.ntrees)

			sum, minShare, maxShare := 0, tc.ntrees, 0
			for _, share := range shares {
				sum += share
				minShare = min(minShare, share)
				maxShare = max(maxShare, share)
			}
			assert.Equal(t, tc.ntrees, sum)
			assert.LessOrEqual(t, maxShare-minShare, 1)
		})
	}
}

func TestTreeShares_Deterministic(t *testing.T) {
	t.Parallel()

	// Identical inputs give identical outputs, arrival order does not matter.
	first := apportion.TreeShares([]string{"x", "a", "m"}, 11)
	for range 50 {
		assert.Equal(t, first, apportion.TreeShares([]string{"m", "x", "a"}, 11))
	}
}

func TestDefaultSplitFeatures(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, apportion.DefaultSplitFeatures(10)) // floor(sqrt(9))
	assert.Equal(t, 4, apportion.DefaultSplitFeatures(17)) // floor(sqrt(16))
	assert.Equal(t, 1, apportion.DefaultSplitFeatures(2))
	assert.Equal(t, 1, apportion.DefaultSplitFeatures(1))
}
