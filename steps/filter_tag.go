package steps

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// KeepOrRemove selects FilterTag's polarity.
type KeepOrRemove int

const (
	Keep KeepOrRemove = iota
	Remove
)

// FilterTag drops molecules based on whether a previously-extracted tag is
// present (or, for Bool tags, true), grounded on
// transformations/filters/by_tag.rs (spec.md §8 scenario S2). It needs no
// cross-block state, so it runs in parallel: ApplyBoolFilter is a per-block
// operation.
type FilterTag struct {
	step.Base
	Label        string
	KeepOrRemove KeepOrRemove
}

func (f *FilterTag) UsesTags() []step.TagUse {
	return []step.TagUse{{Name: f.Label, AcceptedTypes: []readstore.TagValueType{
		readstore.TagString, readstore.TagNumeric, readstore.TagBool, readstore.TagLocation,
	}}}
}

func (f *FilterTag) ValidateOthers(others []step.Step, index int) error {
	return validateTagUse(others, index, "FilterTag", f.UsesTags())
}

func truthy(v readstore.TagValue) bool {
	if v.Missing {
		return false
	}
	if v.Type == readstore.TagBool {
		return v.Bool
	}
	if v.Type == readstore.TagLocation {
		return len(v.Location) > 0
	}
	return true
}

func (f *FilterTag) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	col, ok := bc.Tags.Column(f.Label)
	n := bc.Len()
	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		var present bool
		if ok {
			present = truthy(col[i])
		}
		if f.KeepOrRemove == Keep {
			keep[i] = present
		} else {
			keep[i] = !present
		}
	}
	bc.ApplyBoolFilter(keep)
	return bc, true, nil
}
