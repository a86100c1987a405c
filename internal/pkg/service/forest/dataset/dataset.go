// Package dataset describes a horizontally partitioned dataset.
//
// Each column is split into chunks, each chunk is owned by exactly one
// cluster node. The partition is produced by the ingestion collaborator and
// is immutable for the whole duration of a training job.
package dataset

import (
	"slices"
	"strings"

	"github.com/grovekit/grove/internal/pkg/utils/errors"
)

// Chunk is a contiguous row range of a column, owned by exactly one node.
type Chunk struct {
	Owner string `json:"owner"`
	Rows  int    `json:"rows"`
	Bytes int64  `json:"bytes"`
}

type Column struct {
	Name   string  `json:"name"`
	Chunks []Chunk `json:"chunks"`
	// IsInteger marks integer-valued columns, only those can serve as the response.
	IsInteger bool    `json:"isInteger"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Partition is the dataset split into columns and chunks.
type Partition struct {
	Key            string   `json:"key"`
	Columns        []Column `json:"columns"`
	ResponseColumn int      `json:"responseColumn"`
}

func (p *Partition) NumColumns() int {
	return len(p.Columns)
}

func (p *Partition) Response() (Column, error) {
	if p.ResponseColumn < 0 || p.ResponseColumn >= len(p.Columns) {
		return Column{}, errors.Errorf(`response column index %d is out of range, the dataset has %d columns`, p.ResponseColumn, len(p.Columns))
	}
	return p.Columns[p.ResponseColumn], nil
}

// Classes returns the number of distinct classes in the response column.
func (c Column) Classes() int {
	return int(c.Max-c.Min) + 1
}

func (p *Partition) NumRows() int {
	total := 0
	for _, chunk := range p.anyColumn().Chunks {
		total += chunk.Rows
	}
	return total
}

// TotalBytes returns the byte size of the whole dataset, all columns and chunks.
func (p *Partition) TotalBytes() int64 {
	var total int64
	for _, col := range p.Columns {
		for _, chunk := range col.Chunks {
			total += chunk.Bytes
		}
	}
	return total
}

// BytesOwnedBy returns the byte size of the chunks stored locally on the node.
func (p *Partition) BytesOwnedBy(nodeID string) int64 {
	var total int64
	for _, col := range p.Columns {
		for _, chunk := range col.Chunks {
			if chunk.Owner == nodeID {
				total += chunk.Bytes
			}
		}
	}
	return total
}

// LocalityNodes returns the distinct owners of at least one chunk,
// in the stable node-identity order.
func (p *Partition) LocalityNodes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, col := range p.Columns {
		for _, chunk := range col.Chunks {
			if !seen[chunk.Owner] {
				seen[chunk.Owner] = true
				out = append(out, chunk.Owner)
			}
		}
	}
	slices.SortFunc(out, strings.Compare)
	return out
}

// RowsPerChunk returns row counts of all chunks, in chunk order.
// The tree builder needs them to replay row sampling deterministically.
func (p *Partition) RowsPerChunk() []int {
	chunks := p.anyColumn().Chunks
	out := make([]int, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Rows
	}
	return out
}

// LocalView is the part of the partition visible to one node during the Build phase.
type LocalView struct {
	NodeID string
	// ChunkIdx lists indexes of readable chunks: the locally owned ones,
	// plus all remaining chunks when non-local data access was admitted.
	ChunkIdx []int
	Rows     int
}

// ViewFor assembles the node's view of the dataset.
func (p *Partition) ViewFor(nodeID string, includeRemote bool) LocalView {
	view := LocalView{NodeID: nodeID}
	for i, chunk := range p.anyColumn().Chunks {
		if chunk.Owner == nodeID || includeRemote {
			view.ChunkIdx = append(view.ChunkIdx, i)
			view.Rows += chunk.Rows
		}
	}
	return view
}

func (p *Partition) anyColumn() Column {
	if len(p.Columns) == 0 {
		return Column{}
	}
	return p.Columns[0]
}
