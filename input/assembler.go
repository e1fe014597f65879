package input

import (
	"io"
	"strconv"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
)

// Assembler joins one BlockParser per segment into a stream of
// BlocksCombined, synchronized by block index rather than by read count
// (spec.md §4.2 "Block-tuple assembly"): block k of every segment parser
// is joined into the k-th block-tuple, and a mismatched entry count at any
// index is a SegmentLengthMismatch error.
type Assembler struct {
	segmentNames []string
	parsers      []BlockParser
	closers      []io.Closer
	targetReads  int
	blockNo      int
}

// NewAssembler builds an assembler over one parser per segment, in
// segment-name order.
func NewAssembler(segmentNames []string, parsers []BlockParser, closers []io.Closer, targetReads int) *Assembler {
	return &Assembler{segmentNames: segmentNames, parsers: parsers, closers: closers, targetReads: targetReads}
}

// Done reports whether every segment parser is exhausted.
func (a *Assembler) Done() bool {
	for _, p := range a.parsers {
		if !p.Done() {
			return false
		}
	}
	return true
}

// Next produces the next BlocksCombined, or (nil, io.EOF) once every
// segment parser is exhausted.
func (a *Assembler) Next() (*readstore.BlocksCombined, int, error) {
	op := fqerrors.Op("input.Assembler.Next")
	if a.Done() {
		return nil, 0, io.EOF
	}

	blocks := make([]*readstore.Block, len(a.parsers))
	for i, p := range a.parsers {
		b, err := p.NextBlock(a.targetReads)
		if err != nil {
			return nil, 0, err
		}
		blocks[i] = b
	}

	n := blocks[0].Len()
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Len() != n {
			return nil, 0, fqerrors.E(op, fqerrors.SegmentLengthMismatch,
				"segment "+a.segmentNames[i]+" produced a different read count than "+a.segmentNames[0]+" at block "+strconv.Itoa(a.blockNo))
		}
	}

	blockNo := a.blockNo
	a.blockNo++
	bc := readstore.NewBlocksCombined(blockNo, blocks)
	bc.Final = blocks[0].Final
	return bc, blockNo, nil
}

// Close releases every underlying file handle.
func (a *Assembler) Close() {
	closeAll(a.closers)
}
