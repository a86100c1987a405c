// Package model manages the shared distributed model record.
//
// The record is the only value mutated by multiple writers during a job.
// Every node writes its own slot of the per-node maps, so concurrent updates
// are field-disjoint and the optimistic protocol almost never conflicts.
package model

import (
	"time"

	"github.com/grovekit/grove/internal/pkg/service/common/utctime"
)

// Record holds the ensemble metadata of one trained model.
type Record struct {
	Key            string `json:"key"`
	DatasetKey     string `json:"datasetKey"`
	IgnoredColumns []int  `json:"ignoredColumns,omitempty"`
	RequestedTrees int    `json:"requestedTrees"`
	// TreesPerNode maps node ID to the count of trees the node published.
	TreesPerNode map[string]int `json:"treesPerNode"`
	// SplitFeaturesPerNode maps node ID to the split-feature count the node resolved.
	SplitFeaturesPerNode map[string]int `json:"splitFeaturesPerNode"`
	// LockedBy is the ID of the job holding the coarse single-writer lock, empty if unlocked.
	LockedBy      string           `json:"lockedBy,omitempty"`
	TrainDuration time.Duration    `json:"trainDuration,omitempty"`
	FinishedAt    *utctime.UTCTime `json:"finishedAt,omitempty"`
}

func NewRecord(key, datasetKey string, requestedTrees int, ignoredColumns []int) *Record {
	return &Record{
		Key:                  key,
		DatasetKey:           datasetKey,
		IgnoredColumns:       ignoredColumns,
		RequestedTrees:       requestedTrees,
		TreesPerNode:         make(map[string]int),
		SplitFeaturesPerNode: make(map[string]int),
	}
}

// PublishedTrees returns the total count of trees published so far, all nodes together.
func (r *Record) PublishedTrees() int {
	total := 0
	for _, count := range r.TreesPerNode {
		total += count
	}
	return total
}

func (r *Record) IsLocked() bool {
	return r.LockedBy != ""
}

// Clone returns a deep copy, mutator functions work on the copy.
func (r *Record) Clone() *Record {
	out := *r
	out.TreesPerNode = make(map[string]int, len(r.TreesPerNode))
	for k, v := range r.TreesPerNode {
		out.TreesPerNode[k] = v
	}
	out.SplitFeaturesPerNode = make(map[string]int, len(r.SplitFeaturesPerNode))
	for k, v := range r.SplitFeaturesPerNode {
		out.SplitFeaturesPerNode[k] = v
	}
	out.IgnoredColumns = append([]int(nil), r.IgnoredColumns...)
	return &out
}
