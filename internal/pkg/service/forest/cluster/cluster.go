// Package cluster provides an immutable snapshot of the compute cluster topology.
//
// The snapshot is produced by the membership collaborator outside this core,
// the orchestration layer only reads it. Heartbeat figures are refreshed
// asynchronously by the collaborator, a job always works with the snapshot
// taken at submit time.
package cluster

import (
	"slices"
	"strings"
)

// Heartbeat carries memory statistics reported by a node.
type Heartbeat struct {
	MaxMemory   int64 `json:"maxMemory"`
	TotalMemory int64 `json:"totalMemory"`
	FreeMemory  int64 `json:"freeMemory"`
}

type Member struct {
	ID        string    `json:"id"`
	Heartbeat Heartbeat `json:"heartbeat"`
}

// Snapshot is an ordered list of live cluster members.
type Snapshot struct {
	members []Member
}

func NewSnapshot(members ...Member) Snapshot {
	out := make([]Member, len(members))
	copy(out, members)
	return Snapshot{members: out}
}

// Members returns members in cluster order.
func (s Snapshot) Members() []Member {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

func (s Snapshot) Len() int {
	return len(s.members)
}

// Member returns the member with the ID, if present.
func (s Snapshot) Member(id string) (Member, bool) {
	for _, m := range s.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// SortedIDs returns member IDs in the stable node-identity order,
// it is independent of the arrival order of the members.
func (s Snapshot) SortedIDs() []string {
	out := make([]string, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m.ID)
	}
	slices.SortFunc(out, strings.Compare)
	return out
}
