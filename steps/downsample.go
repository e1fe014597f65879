package steps

import (
	"math/rand"

	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Downsample randomly keeps a fraction of molecules, grounded on
// encoding/fastq's doDownsample (the teacher's read-pair downsampler,
// which draws one rand.Float64() per pair and keeps it when below Rate).
// Unlike the teacher's file-pair-at-a-time version this operates on
// whatever segments are already assembled into the block-tuple, so it
// samples every read segment together rather than just a single pair.
//
// It must run serially: a single seeded source decides every molecule's
// fate in block order, which is what makes a run reproducible for a given
// Seed regardless of worker count (spec.md §8 property 7).
type Downsample struct {
	step.Base
	Rate float64
	Seed int64

	rnd *rand.Rand
}

func NewDownsample(rate float64, seed int64) *Downsample {
	return &Downsample{Rate: rate, Seed: seed}
}

func (d *Downsample) NeedsSerial() bool { return true }

func (d *Downsample) Init(info *step.InputInfo, outputPrefix string, demux step.DemultiplexInfo) (step.DemultiplexBarcodes, error) {
	d.rnd = rand.New(rand.NewSource(d.Seed))
	return nil, nil
}

func (d *Downsample) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	n := bc.Len()
	keep := make([]bool, n)
	for i := 0; i < n; i++ {
		keep[i] = d.rnd.Float64() < d.Rate
	}
	bc.ApplyBoolFilter(keep)
	return bc, true, nil
}
