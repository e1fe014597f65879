package readstore

// BlocksCombined is a block-tuple: one Block per segment, aligned so that
// the k-th entry across every segment belongs to the same molecule, plus
// the tag table and demultiplex tags that travel with the block (spec.md
// §3). BlockNo identifies this tuple's position in the overall stream and
// is what the Pipeline Runtime orders on.
type BlocksCombined struct {
	BlockNo    int
	Segments   []*Block
	Tags       *TagTable
	OutputTags []uint32 // demultiplex tag per molecule; nil if unset
	Final      bool
}

// NewBlocksCombined builds a block-tuple from aligned segment blocks. It
// panics if the segments don't have equal entry counts -- callers in the
// Input Stage must have already turned a mismatch into a
// SegmentLengthMismatch error before reaching here.
func NewBlocksCombined(blockNo int, segments []*Block) *BlocksCombined {
	bc := &BlocksCombined{BlockNo: blockNo, Segments: segments, Tags: NewTagTable()}
	n := bc.Len()
	for _, s := range segments {
		if len(s.Entries) != n {
			panic("readstore: segment entry counts differ in block-tuple")
		}
	}
	return bc
}

// Len returns the molecule count of this block-tuple.
func (bc *BlocksCombined) Len() int {
	if len(bc.Segments) == 0 {
		return 0
	}
	return bc.Segments[0].Len()
}

// Validate checks the invariants in spec.md §8 property 1: equal segment
// entry counts, matching tag-vector lengths, matching OutputTags length.
func (bc *BlocksCombined) Validate() error {
	n := bc.Len()
	for i, s := range bc.Segments {
		if s.Len() != n {
			return errSegmentMismatch(i, s.Len(), n)
		}
	}
	if bc.Tags != nil {
		for _, name := range bc.Tags.Names() {
			col, _ := bc.Tags.Column(name)
			if len(col) != n {
				return errTagLengthMismatch(name, len(col), n)
			}
		}
	}
	if bc.OutputTags != nil && len(bc.OutputTags) != n {
		return errOutputTagsMismatch(len(bc.OutputTags), n)
	}
	return nil
}

// ApplyInPlace visits every read in one segment of this block-tuple.
func (bc *BlocksCombined) ApplyInPlace(segment int, fn func(WrappedReadMut)) {
	bc.Segments[segment].ApplyInPlace(fn)
}

// ApplyBoolFilter drops molecules whose keep[i] is false from every
// segment, from the tag table, and from OutputTags, preserving the order of
// survivors. It is the only operation permitted to change block
// cardinality (spec.md §4.1): partial per-segment removal would
// desynchronize molecules, so every segment is compacted with the same
// mask.
func (bc *BlocksCombined) ApplyBoolFilter(keep []bool) {
	if len(keep) != bc.Len() {
		panic("readstore: ApplyBoolFilter mask length mismatch")
	}
	for _, seg := range bc.Segments {
		out := seg.Entries[:0:0]
		for i, e := range seg.Entries {
			if keep[i] {
				out = append(out, e)
			}
		}
		seg.Entries = out
	}
	if bc.Tags != nil {
		bc.Tags.compact(keep)
	}
	if bc.OutputTags != nil {
		out := bc.OutputTags[:0:0]
		for i, tag := range bc.OutputTags {
			if keep[i] {
				out = append(out, tag)
			}
		}
		bc.OutputTags = out
	}
}

// LocationRemap is the result of remapping one Location hit after a
// length-changing or coordinate-changing edit to a segment.
type LocationRemap int

const (
	// RemapKeep leaves the hit's region untouched.
	RemapKeep LocationRemap = iota
	// RemapRemove drops the hit entirely. Used whenever the edit makes the
	// new coordinate ambiguous (spec.md §9 open question: "remove the tag
	// rather than guess").
	RemapRemove
	// RemapNew replaces the hit's region, keeping its original sequence.
	RemapNew
	// RemapNewWithSeq replaces both the region and the recorded sequence.
	RemapNewWithSeq
)

// RemapResult is returned by a remap function for one hit.
type RemapResult struct {
	Action   LocationRemap
	Region   Region
	Sequence []byte
}

// Keep, Remove, New and NewWithSeq build the four RemapResult variants.
func Keep() RemapResult   { return RemapResult{Action: RemapKeep} }
func Remove() RemapResult { return RemapResult{Action: RemapRemove} }
func New(r Region) RemapResult { return RemapResult{Action: RemapNew, Region: r} }
func NewWithSeq(r Region, seq []byte) RemapResult {
	return RemapResult{Action: RemapNewWithSeq, Region: r, Sequence: seq}
}

// FilterTagLocations rewrites Location tag hits that reference the given
// segment after an edit changes that segment's coordinates or length.
// remapFn is called once per hit whose Region.SegmentIndex == segment and
// condition(moleculeIndex) is true; its result replaces, keeps or drops
// that hit. Hits referencing other segments are untouched. See spec.md
// §4.1.
func (bc *BlocksCombined) FilterTagLocations(segment int, condition func(i int) bool, remapFn func(i int, hit Hit) RemapResult) {
	if bc.Tags == nil {
		return
	}
	for _, name := range bc.Tags.Names() {
		col, ok := bc.Tags.Column(name)
		if !ok {
			continue
		}
		for i, v := range col {
			if v.Type != TagLocation || v.Missing {
				continue
			}
			if condition != nil && !condition(i) {
				continue
			}
			newHits := make([]Hit, 0, len(v.Location))
			for _, h := range v.Location {
				if !h.HasLocation || h.Location.SegmentIndex != segment {
					newHits = append(newHits, h)
					continue
				}
				switch res := remapFn(i, h); res.Action {
				case RemapKeep:
					newHits = append(newHits, h)
				case RemapRemove:
					// drop
				case RemapNew:
					newHits = append(newHits, Hit{HasLocation: true, Location: res.Region, Sequence: h.Sequence})
				case RemapNewWithSeq:
					newHits = append(newHits, Hit{HasLocation: true, Location: res.Region, Sequence: res.Sequence})
				}
			}
			col[i] = LocationValue(newHits)
		}
	}
}

// FilterTagLocationsBeyondReadLength drops, for every molecule, any Location
// hit on the given segment whose Start+Len exceeds that molecule's new
// segment length. This restores the invariant in spec.md §8 property 3
// after any edit that shortens a segment without itself remapping tags.
func (bc *BlocksCombined) FilterTagLocationsBeyondReadLength(segment int) {
	seg := bc.Segments[segment]
	bc.FilterTagLocations(segment, nil, func(i int, h Hit) RemapResult {
		length := seg.Read(i).Len()
		if h.Location.Start+h.Location.Len > length {
			return Remove()
		}
		return Keep()
	})
}
