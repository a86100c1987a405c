// Package apportion deterministically splits the requested tree count
// across the nodes that own dataset chunks.
package apportion

import (
	"math"
	"slices"
	"strings"
)

// TreeShares divides ntrees across the locality set.
//
// Nodes are ranked by the stable identity order, the node at rank i receives
// base+1 trees if i < remainder, base otherwise. Earlier nodes round up,
// later nodes round down, the total is exact. The result is a pure function
// of (node set, ntrees), repeated runs give identical shares.
func TreeShares(localityNodes []string, ntrees int) map[string]int {
	if len(localityNodes) == 0 || ntrees <= 0 {
		return map[string]int{}
	}

	sorted := make([]string, len(localityNodes))
	copy(sorted, localityNodes)
	slices.SortFunc(sorted, strings.Compare)

	base := ntrees / len(sorted)
	remainder := ntrees - base*len(sorted)

	out := make(map[string]int, len(sorted))
	for rank, node := range sorted {
		share := base
		if rank < remainder {
			share++
		}
		out[node] = share
	}
	return out
}

// DefaultSplitFeatures is the split-feature count used when the caller does
// not set one: floor(sqrt(numColumns-1)), the response column excluded.
func DefaultSplitFeatures(numColumns int) int {
	if numColumns < 2 {
		return 1
	}
	return int(math.Sqrt(float64(numColumns - 1)))
}
