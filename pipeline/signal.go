// Package pipeline implements the Pipeline Runtime (spec.md §4.3): a
// worker pool that drives block-tuples through the ordered step list,
// honoring each step's parallel/serial/terminator contract, with
// backpressure, a block-index reordering buffer between stages, and a
// single cancellation signal checked at every queue operation -- grounded
// on the teacher's own worker-pool-plus-errors.Once pattern in
// encoding/bam/adjacent_sharded_bam_reader.go.
package pipeline

import (
	"sync/atomic"

	fqerrors "github.com/relion-bio/fqproc/errors"
)

// Signal is the single cancellation signal threaded through every stage
// (spec.md §5 "Cancellation"). It distinguishes a soft early-termination
// request -- which lets every block already pulled from Input continue to
// flow through the remaining pipeline -- from a hard failure, which tells
// every stage to stop doing real work and just drain its input channel so
// upstream producers never block on a full queue.
type Signal struct {
	stopRequested int32
	errOnce       fqerrors.Once
}

// NewSignal returns a fresh, unset Signal.
func NewSignal() *Signal { return &Signal{} }

// RequestStop records that some step returned (block, false): the Input
// Stage should stop pulling new blocks, but blocks already in flight keep
// flowing normally.
func (s *Signal) RequestStop() { atomic.StoreInt32(&s.stopRequested, 1) }

// StopRequested reports whether early termination was requested.
func (s *Signal) StopRequested() bool { return atomic.LoadInt32(&s.stopRequested) != 0 }

// Fail records the first fatal error. Stages that observe a non-nil Err
// stop calling into steps and drain their input channels instead.
func (s *Signal) Fail(err error) { s.errOnce.Set(err) }

// Err returns the first error recorded via Fail, or nil.
func (s *Signal) Err() error { return s.errOnce.Err() }

// Done reports whether the run should wind down: either a fatal error was
// recorded, or early termination was requested.
func (s *Signal) Done() bool { return s.Err() != nil || s.StopRequested() }
