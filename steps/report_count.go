package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// ReportCountResult is ReportCount's Finalize payload.
type ReportCountResult struct {
	Label string
	Count int
}

// ReportCount accumulates a molecule count across every block and hands it
// to finalize-report aggregation (spec.md §4.4 "Finalize aggregation"),
// grounded on internal_steps.rs's _InternalReadCount. It must see every
// block in order, and never triggers early termination itself even though
// it always "knows" its own count is final once Finalize runs -- spec.md
// §4.3 distinguishes terminator-blocking steps from ones that transmit
// premature termination.
type ReportCount struct {
	step.Base
	OutLabel string
	ReportNo int

	count int
}

func (r *ReportCount) NeedsSerial() bool                   { return true }
func (r *ReportCount) TransmitsPrematureTermination() bool { return false }
func (r *ReportCount) ToleratesCancellation() bool         { return true }

func (r *ReportCount) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	r.count += bc.Len()
	return bc, true, nil
}

func (r *ReportCount) Finalize(demux step.DemultiplexInfo) (*step.ReportResult, error) {
	return &step.ReportResult{
		ReportNo: r.ReportNo,
		Contents: ReportCountResult{Label: r.OutLabel, Count: r.count},
	}, nil
}
