package steps

import (
	"github.com/relion-bio/fqproc/dupfilter"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// FilterDuplicates keeps only the first occurrence of each distinct
// fragment (the concatenation of the configured segments' sequences),
// grounded on OurCuckooFilter/FragmentEntryForCuckooFilter in
// transformations/prelude.rs (spec.md §8 scenario S4). It always runs
// serially: membership decisions depend on insertion order, exact set and
// cuckoo filter alike, and spec.md §8 property 7 requires the same output
// regardless of worker count, which only block-index order guarantees. The
// filter itself is still mutex-guarded (dupfilter.Filter) since the
// abstraction is shared with steps that may hold it across workers.
type FilterDuplicates struct {
	step.Base
	FPR             float64
	InitialCapacity int
	Seed            uint64
	Segments        []string

	segIdx []int
	filter *dupfilter.Filter
}

// NewFilterDuplicates builds the step over the named segments (all
// segments if empty).
func NewFilterDuplicates(fpr float64, initialCapacity int, seed uint64, segments []string) *FilterDuplicates {
	return &FilterDuplicates{FPR: fpr, InitialCapacity: initialCapacity, Seed: seed, Segments: segments}
}

func (d *FilterDuplicates) NeedsSerial() bool { return true }

func (d *FilterDuplicates) SegmentRefs() []string { return d.Segments }

func (d *FilterDuplicates) ValidateSegments(resolve func(string) (int, bool)) error {
	if len(d.Segments) == 0 {
		return nil
	}
	d.segIdx = make([]int, len(d.Segments))
	for i, name := range d.Segments {
		idx, ok := resolve(name)
		if !ok {
			return errUnknownSegment(name)
		}
		d.segIdx[i] = idx
	}
	return nil
}

func (d *FilterDuplicates) Init(info *step.InputInfo, outputPrefix string, demux step.DemultiplexInfo) (step.DemultiplexBarcodes, error) {
	if len(d.segIdx) == 0 {
		d.segIdx = make([]int, len(info.SegmentNames))
		for i := range info.SegmentNames {
			d.segIdx[i] = i
		}
	}
	d.filter = dupfilter.New(d.FPR, d.InitialCapacity, d.Seed)
	return nil, nil
}

func (d *FilterDuplicates) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	n := bc.Len()
	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		frag := dupfilter.Fragment(segmentSequences(bc, d.segIdx, i))
		keep[i] = !d.filter.ContainsOrInsert(frag)
	}
	bc.ApplyBoolFilter(keep)
	return bc, true, nil
}
