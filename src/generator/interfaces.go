package generator

import (
	"tapInfinity/src/spec"
	"tapInfinity/src/util"
	"tapInfinity/src/writer"
)

// BatchEmitter announces finished chunks downstream.
type BatchEmitter interface {
	Emit(b writer.Batch) error
}

// rowSource feeds the batch writer. It counts rows for progress and, when
// forceEvery is positive, forces a new chunk every forceEvery rows.
type rowSource struct {
	src        writer.RecordSource
	policy     *writer.RotationPolicy
	logger     *util.ProgressLogger
	forceEvery int
	produced   int
}

func (s *rowSource) Next() (spec.Row, bool) {
	row, ok := s.src.Next()
	if !ok {
		return nil, false
	}
	if s.forceEvery > 0 && s.produced > 0 && s.produced%s.forceEvery == 0 {
		s.policy.ForceRotate()
	}
	s.produced++
	s.logger.UpdateRows(1)
	return row, true
}
