package input

import (
	"github.com/relion-bio/fqproc/readstore"
)

// InterleavedSource wraps a single underlying parser that multiplexes
// segmentCount segments round-robin into one file, and demultiplexes it
// back into one Block per segment per round (spec.md §4.2 "When a single
// interleaved file provides multiple segments, the single parser
// round-robins the emitted reads into N segment-blocks").
type InterleavedSource struct {
	parser       BlockParser
	segmentCount int
}

// NewInterleavedSource wraps parser, which must read a stream whose reads
// are pre-multiplexed segmentCount at a time (read 0 = segment 0, read 1 =
// segment 1, ..., read segmentCount = segment 0 again, and so on).
func NewInterleavedSource(parser BlockParser, segmentCount int) *InterleavedSource {
	return &InterleavedSource{parser: parser, segmentCount: segmentCount}
}

func (s *InterleavedSource) Done() bool { return s.parser.Done() }

// NextBlocks reads targetReads*segmentCount underlying reads and splits
// them round-robin into segmentCount Blocks, each carrying every
// segmentCount-th entry from the combined block's buffer.
func (s *InterleavedSource) NextBlocks(targetReads int) ([]*readstore.Block, error) {
	combined, err := s.parser.NextBlock(targetReads * s.segmentCount)
	if err != nil {
		return nil, err
	}

	blocks := make([]*readstore.Block, s.segmentCount)
	for seg := 0; seg < s.segmentCount; seg++ {
		var entries []readstore.Entry
		for i := seg; i < combined.Len(); i += s.segmentCount {
			entries = append(entries, combined.Entries[i])
		}
		b := readstore.NewBlock(combined.Buffer, entries)
		b.Final = combined.Final
		blocks[seg] = b
	}
	return blocks, nil
}
