package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// ReverseComplement reverse-complements one segment's sequence (and
// reverses its quality) for every molecule, then remaps any Location tag
// referencing that segment so that its coordinates describe the same
// originally-matched bases in the new orientation (spec.md §8 scenario
// S3). The remapped hit keeps its originally recorded Sequence -- only the
// Region moves -- matching readstore.RemapNew rather than
// RemapNewWithSeq.
type ReverseComplement struct {
	step.Base
	seg resolvedSegment
}

// NewReverseComplement builds the step against the named segment.
func NewReverseComplement(segment string) *ReverseComplement {
	return &ReverseComplement{seg: resolvedSegment{name: segment}}
}

func (r *ReverseComplement) SegmentRefs() []string { return r.seg.refs() }

func (r *ReverseComplement) ValidateSegments(resolve func(string) (int, bool)) error {
	return r.seg.resolve(resolve)
}

func (r *ReverseComplement) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	seg := bc.Segments[r.seg.index]
	n := seg.Len()
	oldLens := make([]int, n)
	for i := 0; i < n; i++ {
		oldLens[i] = seg.Read(i).Len()
	}
	seg.ApplyInPlace(func(w readstore.WrappedReadMut) {
		w.ReverseComplement()
	})

	bc.FilterTagLocations(r.seg.index, nil, func(i int, h readstore.Hit) readstore.RemapResult {
		oldLen := oldLens[i]
		newStart := oldLen - (h.Location.Start + h.Location.Len)
		if newStart < 0 {
			return readstore.Remove()
		}
		return readstore.New(readstore.Region{
			SegmentIndex: r.seg.index,
			Start:        newStart,
			Len:          h.Location.Len,
		})
	})
	return bc, true, nil
}
