package tree

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

// GrowFn builds one tree of the request, index in [0, req.Trees).
type GrowFn func(ctx context.Context, req BuildRequest, treeIdx int) ([]byte, error)

// NewParallelBuilder wraps a per-tree grow function in a bounded local worker
// pool. With req.Params.ParallelTrees the trees of one node are grown
// concurrently by up to `workers` goroutines, otherwise sequentially.
// workers <= 0 selects GOMAXPROCS.
func NewParallelBuilder(grow GrowFn, workers int) Builder {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return BuilderFunc(func(ctx context.Context, req BuildRequest) (BuildResult, error) {
		limit := workers
		if !req.Params.ParallelTrees {
			limit = 1
		}

		built := make([][]byte, req.Trees)
		count := 0
		lock := &sync.Mutex{}

		grp, grpCtx := errgroup.WithContext(ctx)
		grp.SetLimit(limit)
		for treeIdx := range req.Trees {
			grp.Go(func() error {
				artifact, err := grow(grpCtx, req, treeIdx)
				if err != nil {
					return errors.PrefixErrorf(err, "tree %d", treeIdx)
				}
				lock.Lock()
				built[treeIdx] = artifact
				count++
				done := count
				lock.Unlock()
				if req.OnTreeBuilt != nil {
					req.OnTreeBuilt(done)
				}
				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			return BuildResult{}, err
		}
		return BuildResult{Trees: built, Count: len(built)}, nil
	})
}
