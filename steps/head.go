package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Head keeps only the first N molecules across the whole run, then signals
// early termination (spec.md §8 scenario S5). Grounded on
// internal_steps.rs's _InternalReadCount shape, generalized here to
// actually stop the run rather than merely count.
//
// Head must run serially: the decision of which molecules survive depends
// on how many were seen in all earlier blocks, so block-index order must
// be exact regardless of worker count (spec.md §8 property 7,
// determinism).
type Head struct {
	step.Base
	N int

	seen int
}

func (h *Head) NeedsSerial() bool { return true }

func (h *Head) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	remaining := h.N - h.seen
	if remaining <= 0 {
		bc.ApplyBoolFilter(make([]bool, bc.Len()))
		return bc, false, nil
	}
	if bc.Len() <= remaining {
		h.seen += bc.Len()
		return bc, h.seen < h.N, nil
	}
	keep := make([]bool, bc.Len())
	for i := 0; i < remaining; i++ {
		keep[i] = true
	}
	bc.ApplyBoolFilter(keep)
	h.seen = h.N
	return bc, false, nil
}
