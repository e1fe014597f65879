package steps

import (
	"sort"

	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Demultiplex assigns each molecule a demultiplex tag by exact-matching a
// prefix of one segment's sequence against a configured barcode->label
// table, grounded on the `crate::demultiplex` references throughout
// transformations/prelude.rs (spec.md §8 scenario S6). It populates the
// shared registry once during Init; downstream steps and the Output Stage
// read it thereafter (spec.md §4.4 "Demultiplex service").
type Demultiplex struct {
	step.Base
	// Barcodes maps a literal barcode sequence to its output label.
	Barcodes map[string]string

	seg        resolvedSegment
	barcodeTag map[string]uint32
	ordered    []string // barcodes in sorted order, for deterministic matching
}

// NewDemultiplex builds the step, matching barcodes against a prefix of
// the named segment's sequence.
func NewDemultiplex(segment string, barcodes map[string]string) *Demultiplex {
	return &Demultiplex{Barcodes: barcodes, seg: resolvedSegment{name: segment}}
}

func (d *Demultiplex) SegmentRefs() []string { return d.seg.refs() }

func (d *Demultiplex) ValidateSegments(resolve func(string) (int, bool)) error {
	return d.seg.resolve(resolve)
}

// Init assigns one tag per distinct output label, in sorted label order so
// a fixed barcode table always yields the same tag numbering (spec.md §8
// property 7). Barcodes sharing a label share a tag. The returned handle
// maps label to tag, which is what names the per-tag output files.
func (d *Demultiplex) Init(info *step.InputInfo, outputPrefix string, demux step.DemultiplexInfo) (step.DemultiplexBarcodes, error) {
	labels := make([]string, 0, len(d.Barcodes))
	seen := make(map[string]bool, len(d.Barcodes))
	for _, label := range d.Barcodes {
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)

	labelTag := make(map[string]uint32, len(labels))
	out := make(step.DemultiplexBarcodes, len(labels))
	for i, label := range labels {
		tag := uint32(i + 1)
		labelTag[label] = tag
		out[label] = tag
	}

	d.barcodeTag = make(map[string]uint32, len(d.Barcodes))
	d.ordered = make([]string, 0, len(d.Barcodes))
	for barcode, label := range d.Barcodes {
		d.barcodeTag[barcode] = labelTag[label]
		d.ordered = append(d.ordered, barcode)
	}
	sort.Strings(d.ordered)
	return out, nil
}

func (d *Demultiplex) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	n := bc.Len()
	if bc.OutputTags == nil {
		bc.OutputTags = make([]uint32, n)
	}
	seg := bc.Segments[d.seg.index]
	for i := 0; i < n; i++ {
		seq := seg.Read(i).Sequence()
		bc.OutputTags[i] = 0
		for _, barcode := range d.ordered {
			if len(seq) >= len(barcode) && string(seq[:len(barcode)]) == barcode {
				bc.OutputTags[i] = d.barcodeTag[barcode]
				break
			}
		}
	}
	return bc, true, nil
}
