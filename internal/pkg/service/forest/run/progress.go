package run

import (
	"go.uber.org/atomic"
)

// Progress counts finished trees across all node instances.
// It is pollable concurrently and never blocks.
type Progress struct {
	total  int64
	built  atomic.Int64
	frozen atomic.Bool
}

func NewProgress(totalTrees int) *Progress {
	return &Progress{total: int64(totalTrees)}
}

// Add merges a per-node delta of finished trees into the counter.
func (p *Progress) Add(delta int) {
	if p.frozen.Load() {
		return
	}
	p.built.Add(int64(delta))
}

// Freeze stops the counter, further Add calls are ignored.
// Called when the job is cancelled, so the reported progress stops advancing.
func (p *Progress) Freeze() {
	p.frozen.Store(true)
}

// Fraction returns the completed fraction in [0,1].
func (p *Progress) Fraction() float64 {
	if p.total == 0 {
		return 0
	}
	built := p.built.Load()
	if built > p.total {
		built = p.total
	}
	return float64(built) / float64(p.total)
}
