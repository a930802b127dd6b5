package writer

import (
	"sync/atomic"
)

// RotationPolicy holds the batch-size threshold and the one-shot force-rotate
// flag. The writer reads both before admitting each record, so a caller may
// change them between records.
type RotationPolicy struct {
	batchSize atomic.Int64
	force     atomic.Bool
}

// NewRotationPolicy creates a policy rotating every batchSize records.
func NewRotationPolicy(batchSize int) *RotationPolicy {
	p := &RotationPolicy{}
	p.batchSize.Store(int64(batchSize))
	return p
}

// BatchSize returns the current threshold.
func (p *RotationPolicy) BatchSize() int {
	return int(p.batchSize.Load())
}

// SetBatchSize changes the threshold. It applies from the next record on.
func (p *RotationPolicy) SetBatchSize(n int) {
	p.batchSize.Store(int64(n))
}

// ForceRotate makes the next admitted record start a new chunk.
func (p *RotationPolicy) ForceRotate() {
	p.force.Store(true)
}

// ForceRotatePending reports whether a forced rotation has not fired yet.
func (p *RotationPolicy) ForceRotatePending() bool {
	return p.force.Load()
}

// shouldRotate is evaluated with a chunk open, before a record is appended.
// It consumes the force flag.
func (p *RotationPolicy) shouldRotate(records int) bool {
	if p.force.Swap(false) {
		return true
	}
	return records >= p.BatchSize()
}

// chunkOpened clears a force flag set while no chunk was open; the new
// chunk already satisfies it.
func (p *RotationPolicy) chunkOpened() {
	p.force.Store(false)
}
