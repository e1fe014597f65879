package input

import (
	"io"
	"os"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
)

// BlockParser is the common interface FASTQ, FASTA, and BAM block parsers
// satisfy.
type BlockParser interface {
	NextBlock(targetReads int) (*readstore.Block, error)
	Done() bool
}

// NewSegmentParser opens paths (concatenated) and returns a BlockParser
// appropriate to the detected format, honoring the plan's FASTA fake
// quality and BAM inclusion flags.
func NewSegmentParser(paths []string, isFIFO bool, fastaFakeQuality byte, includeMapped, includeUnmapped bool, initialBufferSize int) (BlockParser, []io.Closer, error) {
	op := fqerrors.Op("input.NewSegmentParser")
	if len(paths) == 0 {
		return nil, nil, fqerrors.E(op, fqerrors.PlanInvalid, "segment has no input files")
	}

	readers := make([]io.Reader, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll(closers)
			return nil, nil, fqerrors.E(op, fqerrors.InputOpen, p, err)
		}
		readers = append(readers, f)
		closers = append(closers, f)
	}
	var combined io.Reader = readers[0]
	if len(readers) > 1 {
		combined = io.MultiReader(readers...)
	}

	parser, err := newParserForStream(combined, isFIFO, fastaFakeQuality, includeMapped, includeUnmapped, initialBufferSize)
	if err != nil {
		closeAll(closers)
		return nil, nil, err
	}
	return parser, closers, nil
}

func newParserForStream(r io.Reader, isFIFO bool, fastaFakeQuality byte, includeMapped, includeUnmapped bool, initialBufferSize int) (BlockParser, error) {
	op := fqerrors.Op("input.newParserForStream")
	detected, err := DetectAndWrap(r, isFIFO)
	if err != nil {
		return nil, err
	}
	switch detected.Format {
	case FormatFASTQ:
		return NewFASTQBlockParser(detected.Reader, initialBufferSize), nil
	case FormatFASTA:
		if fastaFakeQuality == 0 {
			return nil, fqerrors.E(op, fqerrors.PlanInvalid, "fasta_fake_quality not configured")
		}
		return NewFASTABlockParser(detected.Reader, fastaFakeQuality), nil
	case FormatBAM:
		if !includeMapped && !includeUnmapped {
			return nil, fqerrors.E(op, fqerrors.PlanInvalid, "BAM input requires include_mapped or include_unmapped")
		}
		return NewBAMBlockParser(detected.Reader, includeMapped, includeUnmapped)
	default:
		return nil, fqerrors.E(op, fqerrors.InputFormat, "unrecognized input format")
	}
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
