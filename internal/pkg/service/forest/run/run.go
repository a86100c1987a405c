// Package run implements the fork/join execution of one training job.
//
// The coordinator forks one node instance per member of the locality set and
// hands each an explicit work descriptor. Each instance walks the phase
// machine and publishes its tree count into its own slot of the model record.
// The only synchronization point is the final barrier: it waits for all
// instances, merges no data, and only hands control back to the job layer
// for unlock and timestamping.
package run

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/forest/config"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
	"github.com/grovekit/grove/internal/pkg/service/forest/model"
	"github.com/grovekit/grove/internal/pkg/service/forest/tree"
	"github.com/grovekit/grove/internal/pkg/telemetry"
	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

// Plan is the precomputed work assignment of one job.
type Plan struct {
	JobID         string
	ModelKey      string
	Params        config.TrainingParams
	Partition     *dataset.Partition
	Shares        map[string]int
	SplitFeatures int
}

// NodeError is a runtime failure of one node instance, it cancels the whole
// job: a partial-success model is never published.
type NodeError struct {
	Node  string
	Phase Phase
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf(`node "%s" failed in phase "%s": %s`, e.Node, e.Phase, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

type Coordinator struct {
	logger    log.Logger
	telemetry telemetry.Telemetry
	store     *model.Store
	builder   tree.Builder
}

func NewCoordinator(logger log.Logger, tel telemetry.Telemetry, store *model.Store, builder tree.Builder) *Coordinator {
	return &Coordinator{
		logger:    logger.AddPrefix("[run]"),
		telemetry: tel,
		store:     store,
		builder:   builder,
	}
}

// Run forks all node instances and joins at the barrier.
// It returns the cancellation cause or the first node error, nil on success.
// Unlocking the model record is the caller's duty and must happen on every path.
func (c *Coordinator) Run(ctx context.Context, plan Plan, flag *CancelFlag, progress *Progress) (err error) {
	ctx, span := c.telemetry.Tracer().Start(ctx, "grove.forest.job.run", trace.WithAttributes(
		attribute.String("jobId", plan.JobID),
		attribute.String("modelKey", plan.ModelKey),
		attribute.Int("trees", plan.Params.Trees),
		attribute.Int("nodes", len(plan.Shares)),
	))
	defer span.End(&err)

	grp := &errgroup.Group{}
	for _, nodeID := range plan.Partition.LocalityNodes() {
		share := plan.Shares[nodeID]
		runner := &nodeRun{
			coordinator: c,
			logger:      c.logger.AddPrefix(fmt.Sprintf("[%s]", nodeID)),
			nodeID:      nodeID,
			plan:        plan,
			share:       share,
			flag:        flag,
			progress:    progress,
		}
		grp.Go(func() error {
			return runner.run(ctx)
		})
	}

	// Barrier: global completion fires when every instance finished.
	if grpErr := grp.Wait(); grpErr != nil {
		flag.Cancel(grpErr)
	}

	if cause := flag.Cause(); cause != nil {
		progress.Freeze()
		return cause
	}
	return nil
}

// nodeRun is one per-node instance of the distributed task.
type nodeRun struct {
	coordinator *Coordinator
	logger      log.Logger
	nodeID      string
	plan        Plan
	share       int
	flag        *CancelFlag
	progress    *Progress

	phase Phase
	view  dataset.LocalView
}

func (r *nodeRun) run(ctx context.Context) error {
	if r.stopRequested(ctx) {
		return nil
	}

	if err := r.prepare(ctx); err != nil {
		return r.fail(err)
	}

	if r.stopRequested(ctx) {
		return nil
	}

	result, err := r.build(ctx)
	if err != nil {
		return r.fail(err)
	}

	// A node that observed the cancellation here stops short of Published,
	// the finished build is wasted work by design of the cooperative model.
	if r.stopRequested(ctx) {
		r.logger.Infof(`cancellation observed, %d built trees not published`, result.Count)
		return nil
	}

	if err := r.publish(ctx, result); err != nil {
		return r.fail(err)
	}

	r.phase = PhaseDone
	r.logger.Infof(`done, published %d trees`, result.Count)
	return nil
}

// fail cancels the whole job immediately, so sibling instances can observe
// the flag at their next phase boundary, before the barrier is reached.
func (r *nodeRun) fail(err error) error {
	nodeErr := &NodeError{Node: r.nodeID, Phase: r.phase, Err: err}
	r.flag.Cancel(nodeErr)
	r.logger.Warnf(`%s`, nodeErr)
	return nodeErr
}

// stopRequested checks the cooperative cancellation at a phase boundary.
func (r *nodeRun) stopRequested(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		r.flag.Cancel(err)
	}
	return r.flag.IsCancelled()
}

// prepare assembles the node's view of the dataset: locally owned chunks,
// plus all remote chunks when the non-local mode was admitted.
func (r *nodeRun) prepare(_ context.Context) error {
	// The phase advances at entry, so a failure names the phase it happened in.
	r.phase = PhasePrepared
	r.view = r.plan.Partition.ViewFor(r.nodeID, r.plan.Params.UseNonLocalData)
	if len(r.view.ChunkIdx) == 0 {
		return errors.Errorf(`no chunks readable by node "%s"`, r.nodeID)
	}
	r.logger.Debugf(`prepared, %d chunks, %d rows`, len(r.view.ChunkIdx), r.view.Rows)
	return nil
}

func (r *nodeRun) build(ctx context.Context) (tree.BuildResult, error) {
	r.phase = PhaseBuilding
	r.logger.Debugf(`building %d trees with %d split features`, r.share, r.plan.SplitFeatures)

	// Progress of a cancelled job must not advance,
	// even when an in-flight build still runs to completion.
	// The builder may report from its internal worker pool.
	reportLock := &sync.Mutex{}
	lastReported := 0
	report := func(built int) {
		if r.flag.IsCancelled() {
			return
		}
		reportLock.Lock()
		defer reportLock.Unlock()
		if built <= lastReported {
			return
		}
		r.progress.Add(built - lastReported)
		lastReported = built
	}

	req := tree.BuildRequest{
		Params:        r.plan.Params,
		Local:         r.view,
		Trees:         r.share,
		SplitFeatures: r.plan.SplitFeatures,
		RowsPerChunk:  r.plan.Partition.RowsPerChunk(),
		OnTreeBuilt:   report,
	}

	result, err := r.coordinator.builder.Build(ctx, req)
	if err != nil {
		return tree.BuildResult{}, err
	}
	if result.Count != r.share {
		return tree.BuildResult{}, errors.Errorf(`builder produced %d trees, %d requested`, result.Count, r.share)
	}
	report(result.Count)
	return result, nil
}

// publish atomically writes this node's slots of the model record.
// Slots of different nodes are disjoint, so concurrent publishes never lose updates.
func (r *nodeRun) publish(ctx context.Context, result tree.BuildResult) error {
	r.phase = PhasePublished
	return r.coordinator.store.AtomicUpdate(ctx, r.plan.ModelKey, func(record *model.Record) {
		record.TreesPerNode[r.nodeID] = result.Count
		record.SplitFeaturesPerNode[r.nodeID] = r.plan.SplitFeatures
	})
}
