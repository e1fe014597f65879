package engine

import (
	"io"
	"os"
	"reflect"

	"github.com/relion-bio/fqproc/input"
	"github.com/relion-bio/fqproc/plan"
	"github.com/relion-bio/fqproc/readstore"
)

// interleavedGroup shares one underlying InterleavedSource across the N
// BlockParser adapters the Assembler drives independently, since
// input.InterleavedSource.NextBlocks produces all N segment blocks from a
// single underlying read (spec.md §4.2 "When a single interleaved file
// provides multiple segments...").
type interleavedGroup struct {
	source   *input.InterleavedSource
	n        int
	cache    []*readstore.Block
	consumed int
}

func (g *interleavedGroup) next(targetReads int) ([]*readstore.Block, error) {
	if g.cache == nil {
		blocks, err := g.source.NextBlocks(targetReads)
		if err != nil {
			return nil, err
		}
		g.cache = blocks
	}
	return g.cache, nil
}

func (g *interleavedGroup) release() {
	g.consumed++
	if g.consumed == g.n {
		g.consumed = 0
		g.cache = nil
	}
}

// interleavedSegmentAdapter implements input.BlockParser for one segment
// of an interleavedGroup. It relies on the Assembler always driving a
// group's adapters in the same fixed order every round (true of
// input.Assembler.Next's sequential for-loop), so only the first adapter
// touched in a round actually reads from the underlying source.
type interleavedSegmentAdapter struct {
	group *interleavedGroup
	index int
}

func (a *interleavedSegmentAdapter) NextBlock(targetReads int) (*readstore.Block, error) {
	blocks, err := a.group.next(targetReads)
	if err != nil {
		return nil, err
	}
	b := blocks[a.index]
	a.group.release()
	return b, nil
}

func (a *interleavedSegmentAdapter) Done() bool { return a.group.source.Done() }

func isFIFO(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeNamedPipe != 0
}

// buildParsers opens one input.BlockParser per segment named in
// in.Segments, handling the interleaved case by grouping consecutive
// entries that share the same underlying file list (spec.md §4.2
// "Block-tuple assembly").
func buildParsers(in plan.Input, initialBufferSize int) (names []string, parsers []input.BlockParser, closers []closerFunc, err error) {
	segs := in.Segments
	i := 0
	for i < len(segs) {
		cur := segs[i]
		if !cur.Interleaved {
			fifo := len(cur.Files) > 0 && isFIFO(cur.Files[0])
			p, cls, perr := input.NewSegmentParser(cur.Files, fifo, in.FASTAFakeQuality, in.IncludeMapped, in.IncludeUnmapped, initialBufferSize)
			if perr != nil {
				return nil, nil, nil, perr
			}
			names = append(names, cur.SegmentName)
			parsers = append(parsers, p)
			closers = append(closers, closeAllFn(cls))
			i++
			continue
		}

		groupSize := cur.InterleavedSegmentCount
		if groupSize < 1 {
			groupSize = 1
		}
		j := i + 1
		for j < len(segs) && j < i+groupSize && segs[j].Interleaved && reflect.DeepEqual(segs[j].Files, cur.Files) {
			j++
		}
		groupNames := make([]string, 0, j-i)
		for k := i; k < j; k++ {
			groupNames = append(groupNames, segs[k].SegmentName)
		}

		fifo := len(cur.Files) > 0 && isFIFO(cur.Files[0])
		underlying, cls, perr := input.NewSegmentParser(cur.Files, fifo, in.FASTAFakeQuality, in.IncludeMapped, in.IncludeUnmapped, initialBufferSize)
		if perr != nil {
			return nil, nil, nil, perr
		}
		src := input.NewInterleavedSource(underlying, len(groupNames))
		group := &interleavedGroup{source: src, n: len(groupNames)}
		for k, name := range groupNames {
			names = append(names, name)
			parsers = append(parsers, &interleavedSegmentAdapter{group: group, index: k})
		}
		closers = append(closers, closeAllFn(cls))
		i = j
	}
	return names, parsers, closers, nil
}

type closerFunc func()

func closeAllFn(closers []io.Closer) closerFunc {
	return func() {
		for _, c := range closers {
			c.Close()
		}
	}
}
