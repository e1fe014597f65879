// Package steps ships a small library of concrete pipeline steps grounded
// on mbf-fastq-processor's transformation set (SPEC_FULL.md "Supplemented
// features"). The engine itself only specifies the step contract (spec.md
// §4.4); these give the Pipeline Runtime and Read Store real call sites and
// are what the end-to-end scenarios in spec.md §8 (S1-S6) exercise.
package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// resolvedSegment is the small helper every step that depends on exactly
// one segment embeds to turn its symbolic name into a validated index.
type resolvedSegment struct {
	name  string
	index int
}

func (s *resolvedSegment) refs() []string { return []string{s.name} }

func (s *resolvedSegment) resolve(resolve func(string) (int, bool)) error {
	idx, ok := resolve(s.name)
	if !ok {
		return errUnknownSegment(s.name)
	}
	s.index = idx
	return nil
}

// segmentSequences gathers, for one molecule of bc, the sequence of each
// segment listed in indices (in that order), used by
// steps.FilterDuplicates to build a fragment key.
func segmentSequences(bc *readstore.BlocksCombined, indices []int, molecule int) [][]byte {
	out := make([][]byte, len(indices))
	for i, segIdx := range indices {
		out[i] = bc.Segments[segIdx].Read(molecule).Sequence()
	}
	return out
}

// validateTagUse checks that every tag in uses was declared, with a
// compatible type, by some step at an earlier index than index -- the
// cross-step check spec.md §4.4 requires every step's ValidateOthers to
// perform before Init runs.
func validateTagUse(others []step.Step, index int, stepName string, uses []step.TagUse) error {
	for _, use := range uses {
		var declType readstore.TagValueType
		var declared bool
		for i, other := range others {
			if i >= index {
				break
			}
			decl, ok := other.DeclaresTagType()
			if ok && decl.Name == use.Name {
				declType = decl.Type
				declared = true
			}
			if name, ok := other.RemovesTag(); ok && name == use.Name {
				declared = false
			}
		}
		if !declared {
			return errUnknownTag(stepName, use.Name)
		}
		if len(use.AcceptedTypes) > 0 && !acceptsType(use.AcceptedTypes, declType) {
			return errUnknownTag(stepName, use.Name)
		}
	}
	return nil
}

func acceptsType(accepted []readstore.TagValueType, t readstore.TagValueType) bool {
	for _, a := range accepted {
		if a == t {
			return true
		}
	}
	return false
}

var (
	_ step.Step = (*Head)(nil)
	_ step.Step = (*ExtractIUPAC)(nil)
	_ step.Step = (*FilterTag)(nil)
	_ step.Step = (*FilterDuplicates)(nil)
	_ step.Step = (*ReverseComplement)(nil)
	_ step.Step = (*Rename)(nil)
	_ step.Step = (*Demultiplex)(nil)
	_ step.Step = (*Downsample)(nil)
	_ step.Step = (*ReportCount)(nil)
)
