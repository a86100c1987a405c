// Package job manages the lifecycle of training jobs:
// submit, cancel, progress polling and cleanup.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/grovekit/grove/internal/pkg/idgenerator"
	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/common/servicectx"
	"github.com/grovekit/grove/internal/pkg/service/common/utctime"
	"github.com/grovekit/grove/internal/pkg/service/forest/admission"
	"github.com/grovekit/grove/internal/pkg/service/forest/apportion"
	"github.com/grovekit/grove/internal/pkg/service/forest/cluster"
	"github.com/grovekit/grove/internal/pkg/service/forest/config"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
	"github.com/grovekit/grove/internal/pkg/service/forest/model"
	"github.com/grovekit/grove/internal/pkg/service/forest/run"
	"github.com/grovekit/grove/internal/pkg/service/forest/tree"
	"github.com/grovekit/grove/internal/pkg/telemetry"
	"github.com/grovekit/grove/internal/pkg/utils/errors"
	"github.com/grovekit/grove/internal/pkg/validator"
)

// cleanupTimeout bounds the final unlock and timestamping,
// the job context may already be cancelled at that point.
const cleanupTimeout = 30 * time.Second

type dependencies interface {
	Logger() log.Logger
	Clock() clockwork.Clock
	Telemetry() telemetry.Telemetry
	Process() *servicectx.Process
	ModelStore() *model.Store
	TreeBuilder() tree.Builder
}

// Registry runs and tracks training jobs on this coordinator.
type Registry struct {
	logger      log.Logger
	clock       clockwork.Clock
	telemetry   telemetry.Telemetry
	store       *model.Store
	coordinator *run.Coordinator
	admission   *admission.Controller
	validator   validator.Validator

	jobsCtx context.Context
	jobsWg  *sync.WaitGroup

	lock *sync.Mutex
	jobs map[string]*Handle
}

func NewRegistry(d dependencies) *Registry {
	logger := d.Logger().AddPrefix("[job]")
	r := &Registry{
		logger:      logger,
		clock:       d.Clock(),
		telemetry:   d.Telemetry(),
		store:       d.ModelStore(),
		coordinator: run.NewCoordinator(d.Logger(), d.Telemetry(), d.ModelStore(), d.TreeBuilder()),
		admission:   admission.NewController(d.Logger()),
		validator:   validator.New(),
		jobsWg:      &sync.WaitGroup{},
		lock:        &sync.Mutex{},
		jobs:        make(map[string]*Handle),
	}

	// Graceful shutdown: cancel running jobs and wait for their cleanup.
	var cancelJobs context.CancelFunc
	r.jobsCtx, cancelJobs = context.WithCancel(context.Background())
	d.Process().OnShutdown(func() {
		if c := r.JobsCount(); c > 0 {
			r.logger.Infof(`waiting for "%d" jobs to be finished`, c)
		}
		cancelJobs()
		r.jobsWg.Wait()
	})

	return r
}

func (r *Registry) JobsCount() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return len(r.jobs)
}

// Job returns the handle of a tracked job. Terminal jobs are deregistered,
// so only running jobs can be found.
func (r *Registry) Job(id string) (*Handle, bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	h, found := r.jobs[id]
	return h, found
}

// Submit validates the request, gates the non-local mode, apportions the
// work and forks the job. The returned handle is pollable immediately.
func (r *Registry) Submit(ctx context.Context, params config.TrainingParams, part *dataset.Partition, snapshot cluster.Snapshot, modelKey string) (*Handle, error) {
	// Validation and admission failures are fatal, the job never starts.
	if err := params.Validate(ctx, r.validator, part); err != nil {
		return nil, err
	}
	if err := r.admission.Check(snapshot, part, params.UseNonLocalData); err != nil {
		return nil, err
	}

	locality := part.LocalityNodes()
	if len(locality) == 0 {
		return nil, config.NewValidationError(errors.New("dataset has no chunks, nothing to train on"))
	}

	// The destination key is optional, a random one is generated if missing.
	if modelKey == "" {
		modelKey = "model-" + idgenerator.ModelKeySuffix()
	}

	jobID := idgenerator.JobID()
	logger := r.logger.AddPrefix(fmt.Sprintf("[%s]", jobID))
	params.DumpParams(logger, part.Key)

	plan := run.Plan{
		JobID:         jobID,
		ModelKey:      modelKey,
		Params:        params,
		Partition:     part,
		Shares:        apportion.TreeShares(locality, params.Trees),
		SplitFeatures: params.ResolveSplitFeatures(part.NumColumns()),
	}

	// Create the model record and acquire the job lock before any node is forked.
	record := model.NewRecord(modelKey, part.Key, params.Trees, params.IgnoredColumns)
	if err := r.store.CreateLocked(ctx, record, jobID); err != nil {
		return nil, err
	}

	j := Job{
		ID:             jobID,
		Description:    fmt.Sprintf("RandomForest_%dtrees", params.Trees),
		DestinationKey: modelKey,
		State:          StateRunning,
		CreatedAt:      utctime.From(r.clock.Now()),
	}
	handle := newHandle(j, run.NewCancelFlag(), run.NewProgress(params.Trees))

	r.lock.Lock()
	r.jobs[jobID] = handle
	r.lock.Unlock()

	r.jobsWg.Add(1)
	go func() {
		defer r.jobsWg.Done()
		r.runJob(logger, handle, plan)
	}()

	logger.Infof(`started job "%s" on %d nodes`, j.Description, len(plan.Shares))
	return handle, nil
}

func (r *Registry) runJob(logger log.Logger, handle *Handle, plan run.Plan) {
	startTime := r.clock.Now()

	runErr := r.coordinator.Run(r.jobsCtx, plan, handle.flag, handle.progress)

	// The completion continuation runs exactly once on every path:
	// it stamps the elapsed time, unlocks the model record and deregisters the job.
	elapsed := r.clock.Since(startTime)
	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	finishedAt := utctime.From(r.clock.Now())
	stampErr := r.store.AtomicUpdate(cleanupCtx, plan.ModelKey, func(record *model.Record) {
		record.TrainDuration = elapsed
		if runErr == nil {
			record.FinishedAt = &finishedAt
		}
	})
	if stampErr != nil {
		logger.Errorf(`cannot stamp model record: %s`, stampErr)
	}
	if unlockErr := r.store.Unlock(cleanupCtx, plan.ModelKey, plan.JobID); unlockErr != nil {
		logger.Errorf(`cannot unlock model record: %s`, unlockErr)
	}

	j := handle.Job()
	j.FinishedAt = &finishedAt
	if runErr == nil {
		j.State = StateDone
		logger.Infof(`job succeeded (%s)`, elapsed)
	} else {
		j.State = StateCancelled
		j.CancelCause = runErr.Error()
		logger.Warnf(`job cancelled (%s): %s`, elapsed, runErr)
	}

	r.lock.Lock()
	delete(r.jobs, j.ID)
	r.lock.Unlock()

	handle.complete(j, runErr)
}
