// Package tree defines the boundary to the statistical tree grower.
//
// The orchestration layer treats the builder as synchronous and blocking,
// the builder itself may parallelize tree construction internally.
package tree

import (
	"context"

	"github.com/grovekit/grove/internal/pkg/service/forest/config"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
)

// BuildRequest is the per-node work descriptor passed to the builder.
type BuildRequest struct {
	Params config.TrainingParams
	// Local is the node's view of the dataset, assembled in the Prepare phase.
	Local dataset.LocalView
	// Trees is this node's share of the requested tree count.
	Trees int
	// SplitFeatures is the resolved split-feature count.
	SplitFeatures int
	// RowsPerChunk replays row sampling deterministically.
	RowsPerChunk []int
	// OnTreeBuilt, if set, is invoked after each finished tree with the
	// number of trees built so far on this node. Used for progress reporting.
	OnTreeBuilt func(built int)
}

// BuildResult carries the produced tree artifacts.
type BuildResult struct {
	// Trees holds one serialized artifact per built tree.
	Trees [][]byte
	// Count is the number of trees actually built, it is the value
	// published into the model record slot.
	Count int
}

type Builder interface {
	Build(ctx context.Context, req BuildRequest) (BuildResult, error)
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc func(ctx context.Context, req BuildRequest) (BuildResult, error)

func (f BuilderFunc) Build(ctx context.Context, req BuildRequest) (BuildResult, error) {
	return f(ctx, req)
}
