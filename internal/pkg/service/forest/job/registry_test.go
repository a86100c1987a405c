package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovekit/grove/internal/pkg/service/forest/admission"
	"github.com/grovekit/grove/internal/pkg/service/forest/cluster"
	"github.com/grovekit/grove/internal/pkg/service/forest/config"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
	"github.com/grovekit/grove/internal/pkg/service/forest/dependencies"
	"github.com/grovekit/grove/internal/pkg/service/forest/job"
	"github.com/grovekit/grove/internal/pkg/service/forest/run"
	"github.com/grovekit/grove/internal/pkg/service/forest/tree"
	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

const gb = int64(1) << 30

func testPartition() *dataset.Partition {
	chunks := []dataset.Chunk{
		{Owner: "node-A", Rows: 100, Bytes: 1000},
		{Owner: "node-A", Rows: 100, Bytes: 1000},
		{Owner: "node-B", Rows: 100, Bytes: 1000},
		{Owner: "node-C", Rows: 100, Bytes: 1000},
	}
	return &dataset.Partition{
		Key: "in.data",
		Columns: []dataset.Column{
			{Name: "x", Chunks: chunks},
			{Name: "y", Chunks: chunks},
			{Name: "class", Chunks: chunks, IsInteger: true, Min: 0, Max: 2},
		},
		ResponseColumn: 2,
	}
}

func testSnapshot() cluster.Snapshot {
	member := func(id string) cluster.Member {
		return cluster.Member{ID: id, Heartbeat: cluster.Heartbeat{
			MaxMemory:   8 * gb,
			TotalMemory: 4 * gb,
			FreeMemory:  4 * gb,
		}}
	}
	return cluster.NewSnapshot(member("node-A"), member("node-B"), member("node-C"))
}

func TestSubmit_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d := dependencies.NewMocked()
	registry := job.NewRegistry(d)

	handle, err := registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "model-1")
	require.NoError(t, err)
	require.NotNil(t, handle)

	j := handle.Job()
	assert.Equal(t, "RandomForest_10trees", j.Description)
	assert.Equal(t, "model-1", j.DestinationKey)

	require.NoError(t, handle.Wait(ctx))
	assert.Equal(t, job.StateDone, handle.Job().State)
	assert.NotNil(t, handle.Job().FinishedAt)
	assert.InDelta(t, 1.0, handle.Progress(), 0.001)

	// Completion continuation stamped and unlocked the model record
	record, err := d.ModelStore().Get(ctx, "model-1")
	require.NoError(t, err)
	assert.False(t, record.IsLocked())
	assert.NotNil(t, record.FinishedAt)
	assert.Equal(t, 10, record.PublishedTrees())
	assert.Equal(t, map[string]int{"node-A": 4, "node-B": 3, "node-C": 3}, record.TreesPerNode)

	// The job deregistered itself
	assert.Equal(t, 0, registry.JobsCount())
	_, found := registry.Job(handle.Job().ID)
	assert.False(t, found)
}

func TestSubmit_GeneratedModelKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d := dependencies.NewMocked()
	registry := job.NewRegistry(d)

	// An empty destination key gets a generated one
	handle, err := registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "")
	require.NoError(t, err)

	key := handle.Job().DestinationKey
	assert.Regexp(t, `^model-[0-9a-zA-Z]{10}$`, key)

	require.NoError(t, handle.Wait(ctx))
	record, err := d.ModelStore().Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.False(t, record.IsLocked())
	assert.Equal(t, 10, record.PublishedTrees())
}

func TestSubmit_ValidationError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d := dependencies.NewMocked()
	registry := job.NewRegistry(d)

	params := config.NewTrainingParams(10)
	params.SampleRate = 2.0

	_, err := registry.Submit(ctx, params, testPartition(), testSnapshot(), "model-1")
	require.Error(t, err)
	var validationErr config.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	// The job never started, no model record was created
	record, getErr := d.ModelStore().Get(ctx, "model-1")
	require.NoError(t, getErr)
	assert.Nil(t, record)
	assert.Equal(t, 0, registry.JobsCount())
}

func TestSubmit_AdmissionError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	d := dependencies.NewMocked()
	registry := job.NewRegistry(d)

	// No usable memory on any node
	member := func(id string) cluster.Member {
		return cluster.Member{ID: id, Heartbeat: cluster.Heartbeat{
			MaxMemory:   1 << 10,
			TotalMemory: 1 << 10,
			FreeMemory:  0,
		}}
	}
	snapshot := cluster.NewSnapshot(member("node-A"), member("node-B"), member("node-C"))

	params := config.NewTrainingParams(10)
	params.UseNonLocalData = true

	_, err := registry.Submit(ctx, params, testPartition(), snapshot, "model-1")
	require.Error(t, err)
	var admissionErr *admission.Error
	require.ErrorAs(t, err, &admissionErr)
	assert.Equal(t, "node-A", admissionErr.Node)

	// Aborted before any node was forked
	record, getErr := d.ModelStore().Get(ctx, "model-1")
	require.NoError(t, getErr)
	assert.Nil(t, record)
}

func TestSubmit_RuntimeFailure(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	builderErr := errors.New("tree builder exploded")
	d := dependencies.NewMocked(dependencies.WithTreeBuilder(
		tree.BuilderFunc(func(_ context.Context, req tree.BuildRequest) (tree.BuildResult, error) {
			if req.Local.NodeID == "node-B" {
				return tree.BuildResult{}, builderErr
			}
			time.Sleep(20 * time.Millisecond)
			return tree.BuildResult{Trees: make([][]byte, req.Trees), Count: req.Trees}, nil
		}),
	))
	registry := job.NewRegistry(d)

	handle, err := registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "model-1")
	require.NoError(t, err)

	waitErr := handle.Wait(ctx)
	require.Error(t, waitErr)
	var nodeErr *run.NodeError
	require.ErrorAs(t, waitErr, &nodeErr)
	assert.Equal(t, "node-B", nodeErr.Node)

	j := handle.Job()
	assert.Equal(t, job.StateCancelled, j.State)
	assert.Contains(t, j.CancelCause, "node-B")

	// No partial-success model, but the record always ends up unlocked
	record, getErr := d.ModelStore().Get(ctx, "model-1")
	require.NoError(t, getErr)
	assert.Empty(t, record.TreesPerNode)
	assert.False(t, record.IsLocked())
	assert.Nil(t, record.FinishedAt)
}

func TestCancel_WhileBuilding(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	building := make(chan struct{}, 3)
	release := make(chan struct{})
	d := dependencies.NewMocked(dependencies.WithTreeBuilder(
		tree.BuilderFunc(func(_ context.Context, req tree.BuildRequest) (tree.BuildResult, error) {
			building <- struct{}{}
			<-release
			return tree.BuildResult{Trees: make([][]byte, req.Trees), Count: req.Trees}, nil
		}),
	))
	registry := job.NewRegistry(d)

	handle, err := registry.Submit(ctx, config.NewTrainingParams(9), testPartition(), testSnapshot(), "model-1")
	require.NoError(t, err)

	for range 3 {
		<-building
	}
	progressBefore := handle.Progress()
	cause := errors.New("cancelled by user")
	handle.Cancel(cause)
	close(release)

	waitErr := handle.Wait(ctx)
	require.ErrorIs(t, waitErr, cause)
	assert.Equal(t, job.StateCancelled, handle.Job().State)

	// Progress stopped advancing, nothing was published, the lock was released
	assert.Equal(t, progressBefore, handle.Progress())
	record, getErr := d.ModelStore().Get(ctx, "model-1")
	require.NoError(t, getErr)
	assert.Empty(t, record.TreesPerNode)
	assert.False(t, record.IsLocked())
	assert.Nil(t, record.FinishedAt)
}

func TestSubmit_ModelKeyHeldByAnotherJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	release := make(chan struct{})
	d := dependencies.NewMocked(dependencies.WithTreeBuilder(
		tree.BuilderFunc(func(_ context.Context, req tree.BuildRequest) (tree.BuildResult, error) {
			<-release
			return tree.BuildResult{Trees: make([][]byte, req.Trees), Count: req.Trees}, nil
		}),
	))
	registry := job.NewRegistry(d)

	first, err := registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "model-1")
	require.NoError(t, err)

	// The destination is locked by the first job
	_, err = registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "model-1")
	require.Error(t, err)

	close(release)
	require.NoError(t, first.Wait(ctx))

	// After completion the key is free again
	second, err := registry.Submit(ctx, config.NewTrainingParams(10), testPartition(), testSnapshot(), "model-1")
	require.NoError(t, err)
	require.NoError(t, second.Wait(ctx))
}
