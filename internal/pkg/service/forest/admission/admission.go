// Package admission gates the non-local data mode against per-node memory budgets.
//
// The check runs once, centrally, before any node instance is forked.
// It is not re-evaluated during the job execution.
package admission

import (
	"github.com/c2h5oh/datasize"

	"github.com/grovekit/grove/internal/pkg/log"
	"github.com/grovekit/grove/internal/pkg/service/forest/cluster"
	"github.com/grovekit/grove/internal/pkg/service/forest/dataset"
)

// overheadFactor is the fraction of the theoretical max memory considered
// safely usable after runtime overhead.
const overheadFactor = 3 / 8.0

type Controller struct {
	logger log.Logger
}

func NewController(logger log.Logger) *Controller {
	return &Controller{logger: logger.AddPrefix("[admission]")}
}

// Error names the first node that cannot hold the remote part of the dataset.
type Error struct {
	Node      string
	Available int64
	Required  int64
}

func (e *Error) Error() string {
	return "cannot load all data from remote nodes: node " + e.Node +
		" requires " + datasize.ByteSize(e.Required).HumanReadable() +
		" to load all data and perform computation, but only " + datasize.ByteSize(e.Available).HumanReadable() +
		" is available; provide more memory or disable the non-local data option"
}

// Check verifies that every node can hold the chunks it does not own.
//
// It short-circuits on the first violator in cluster order. When the
// non-local mode is off each node reads only its own chunks and the check
// trivially succeeds.
func (c *Controller) Check(snapshot cluster.Snapshot, part *dataset.Partition, useNonLocalData bool) error {
	if !useNonLocalData {
		return nil
	}

	totalBytes := part.TotalBytes()
	for _, member := range snapshot.Members() {
		hb := member.Heartbeat
		usable := int64(float64(hb.MaxMemory-(hb.TotalMemory-hb.FreeMemory)) * overheadFactor)
		required := totalBytes - part.BytesOwnedBy(member.ID)
		c.logger.Debugf("%s: computed available mem: %s", member.ID, datasize.ByteSize(usable).HumanReadable())
		c.logger.Debugf("%s: remote chunks require: %s", member.ID, datasize.ByteSize(required).HumanReadable())
		if usable-required <= 0 {
			return &Error{Node: member.ID, Available: usable, Required: required}
		}
	}
	return nil
}
