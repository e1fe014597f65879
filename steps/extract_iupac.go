package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Anchor selects which end of the segment's sequence an IUPAC query is
// matched against.
type Anchor int

const (
	AnchorLeft Anchor = iota
	AnchorRight
)

// iupacMatch maps an IUPAC query base to the set of literal bases it
// accepts, grounded on transformations/extract/iupac.rs's wildcard table.
// Both query characters and sequence bytes are upper-cased before lookup,
// so matching is case-insensitive on both sides.
var iupacMatch = map[byte]string{
	'A': "A", 'C': "C", 'G': "G", 'T': "T",
	'R': "AG", 'Y': "CT", 'S': "GC", 'W': "AT", 'K': "GT", 'M': "AC",
	'B': "CGT", 'D': "AGT", 'H': "ACT", 'V': "ACG",
	'N': "ACGT",
}

func upperBase(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

func matchesIUPAC(query, seq []byte) bool {
	if len(seq) < len(query) {
		return false
	}
	for i, q := range query {
		accepted, ok := iupacMatch[upperBase(q)]
		if !ok {
			return false
		}
		base := upperBase(seq[i])
		if !containsByte(accepted, base) {
			return false
		}
	}
	return true
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// ExtractIUPAC matches Query (an IUPAC pattern, 'N' accepting any base)
// against one end of a segment's sequence and records a Location tag hit
// on success, Missing on failure. Parallel: each molecule's match is
// independent of every other (spec.md §8 scenario S2).
type ExtractIUPAC struct {
	step.Base
	Query  string
	Anchor Anchor
	Label  string

	seg resolvedSegment
}

// NewExtractIUPAC builds the step against the named segment.
func NewExtractIUPAC(segment, query, label string, anchor Anchor) *ExtractIUPAC {
	return &ExtractIUPAC{Query: query, Anchor: anchor, Label: label, seg: resolvedSegment{name: segment}}
}

func (e *ExtractIUPAC) SegmentRefs() []string { return e.seg.refs() }

func (e *ExtractIUPAC) ValidateSegments(resolve func(string) (int, bool)) error {
	return e.seg.resolve(resolve)
}

func (e *ExtractIUPAC) DeclaresTagType() (step.TagDeclaration, bool) {
	return step.TagDeclaration{Name: e.Label, Type: readstore.TagLocation}, true
}

func (e *ExtractIUPAC) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	n := bc.Len()
	col := bc.Tags.EnsureColumn(e.Label, n)
	seg := bc.Segments[e.seg.index]
	query := []byte(e.Query)

	for i := 0; i < n; i++ {
		seq := seg.Read(i).Sequence()
		var start int
		var matched bool
		switch e.Anchor {
		case AnchorLeft:
			matched = matchesIUPAC(query, seq)
			start = 0
		case AnchorRight:
			if len(seq) >= len(query) {
				start = len(seq) - len(query)
				matched = matchesIUPAC(query, seq[start:])
			}
		}
		if !matched {
			col[i] = readstore.MissingValue()
			continue
		}
		hit := readstore.Hit{
			HasLocation: true,
			Location:    readstore.Region{SegmentIndex: e.seg.index, Start: start, Len: len(query)},
			Sequence:    append([]byte(nil), seq[start:start+len(query)]...),
		}
		col[i] = readstore.LocationValue([]readstore.Hit{hit})
	}
	bc.Tags.SetColumn(e.Label, col)
	return bc, true, nil
}
