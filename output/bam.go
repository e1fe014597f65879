package output

import (
	biogobam "github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
)

// bamEncoder wraps a *bam.Writer the way input.BAMBlockParser wraps a
// *bam.Reader: every molecule becomes one unmapped alignment record,
// matching the round-trip this engine promises for BAM sinks (spec.md §6
// "BAM" -- output is written with the same biogo/hts/sam record shape the
// Input Stage reads). Quality is stored as raw Phred, biogo/hts converts
// to/from the '!'-offset ASCII representation on marshal.
type bamEncoder struct {
	w      *biogobam.Writer
	header *sam.Header
}

func newBAMEncoder(w *fileSink) (*bamEncoder, error) {
	op := fqerrors.Op("output.newBAMEncoder")
	header, err := sam.NewHeader(nil, nil)
	if err != nil {
		return nil, fqerrors.E(op, fqerrors.OutputOpen, w.path, err)
	}
	bw, err := biogobam.NewWriter(w, header, 1)
	if err != nil {
		return nil, fqerrors.E(op, fqerrors.OutputOpen, w.path, err)
	}
	return &bamEncoder{w: bw, header: header}, nil
}

func (e *bamEncoder) writeRecord(r readstore.WrappedRead) error {
	qual := append([]byte(nil), r.Quality()...)
	for i := range qual {
		qual[i] -= 33
	}
	rec := &sam.Record{
		Name:    string(r.Name()),
		Seq:     sam.NewSeq(r.Sequence()),
		Qual:    qual,
		Flags:   sam.Unmapped,
		Pos:     -1,
		MatePos: -1,
	}
	return e.w.Write(rec)
}

func (e *bamEncoder) close() error { return e.w.Close() }
