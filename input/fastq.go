package input

import (
	"bytes"
	"io"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
)

// FASTQBlockParser implements the block parser from spec.md §4.2: a
// growable byte buffer accumulates raw record text until either
// targetReads complete records or EOF is reached, then emits a Block.
// Grounded on the four-line grammar the teacher's
// encoding/fastq.Scanner validates line-by-line with bufio.Scanner;
// this parser instead keeps the raw bytes in place so Entries can
// reference them directly, since Scanner's Text()/Bytes() would force a
// copy per line.
type FASTQBlockParser struct {
	r        io.Reader
	leftover []byte
	initSize int
	eof      bool
}

// NewFASTQBlockParser wraps r. initialBufferSize is the starting buffer
// capacity; the parser doubles it whenever a record straddles the end of
// the buffer (spec.md requires tolerating buffers as small as 4 bytes).
func NewFASTQBlockParser(r io.Reader, initialBufferSize int) *FASTQBlockParser {
	if initialBufferSize < 4 {
		initialBufferSize = 4
	}
	return &FASTQBlockParser{r: r, initSize: initialBufferSize}
}

// Done reports whether the underlying stream is exhausted and there is no
// pending partial record.
func (p *FASTQBlockParser) Done() bool {
	return p.eof && len(p.leftover) == 0
}

// NextBlock parses up to targetReads records, returning a Block whose
// Final field is set once the stream is exhausted.
func (p *FASTQBlockParser) NextBlock(targetReads int) (*readstore.Block, error) {
	op := fqerrors.Op("input.FASTQBlockParser.NextBlock")

	cap0 := p.initSize
	if len(p.leftover) > cap0 {
		cap0 = len(p.leftover) * 2
	}
	buf := make([]byte, len(p.leftover), cap0)
	copy(buf, p.leftover)
	p.leftover = nil
	filled := len(buf)

	var entries []readstore.Entry
	pos := 0

	for len(entries) < targetReads {
		entry, next, ok, err := tryParseRecord(buf[:filled], pos)
		if err != nil {
			return nil, fqerrors.E(op, fqerrors.InputParse, err)
		}
		if ok {
			entries = append(entries, entry)
			pos = next
			continue
		}
		if p.eof {
			if pos == filled {
				break
			}
			return nil, fqerrors.E(op, fqerrors.InputParse, "truncated FASTQ record at end of file")
		}
		if filled == cap(buf) {
			newCap := cap(buf) * 2
			if newCap == 0 {
				newCap = p.initSize
			}
			nb := make([]byte, filled, newCap)
			copy(nb, buf)
			buf = nb
		}
		n, rerr := p.r.Read(buf[filled:cap(buf)])
		filled += n
		buf = buf[:filled]
		if rerr == io.EOF {
			p.eof = true
		} else if rerr != nil {
			return nil, fqerrors.E(op, fqerrors.InputOpen, rerr)
		}
	}

	p.leftover = append([]byte(nil), buf[pos:filled]...)
	block := readstore.NewBlock(buf[:pos], entries)
	block.Final = p.eof && len(p.leftover) == 0
	return block, nil
}

// tryParseRecord attempts to parse one four-line record starting at pos.
// It returns ok == false when buf doesn't yet contain a complete record
// (caller should read more and retry from the same pos), and a non-nil
// error only for structural violations that more data can't fix.
func tryParseRecord(buf []byte, pos int) (readstore.Entry, int, bool, error) {
	nameStart, nameEnd, p1, ok := readLine(buf, pos)
	if !ok {
		return readstore.Entry{}, 0, false, nil
	}
	if nameEnd == nameStart || buf[nameStart] != '@' {
		return readstore.Entry{}, 0, false, errInvalidFASTQ("expected '@' record marker")
	}

	seqStart, seqEnd, p2, ok := readLine(buf, p1)
	if !ok {
		return readstore.Entry{}, 0, false, nil
	}

	sepStart, sepEnd, p3, ok := readLine(buf, p2)
	if !ok {
		return readstore.Entry{}, 0, false, nil
	}
	if sepEnd == sepStart || buf[sepStart] != '+' {
		return readstore.Entry{}, 0, false, errInvalidFASTQ("expected '+' separator marker")
	}

	qualStart, qualEnd, p4, ok := readLine(buf, p3)
	if !ok {
		return readstore.Entry{}, 0, false, nil
	}

	if (seqEnd - seqStart) != (qualEnd - qualStart) {
		return readstore.Entry{}, 0, false, errInvalidFASTQ("sequence/quality length mismatch")
	}
	if nameStart+1 == nameEnd {
		return readstore.Entry{}, 0, false, errInvalidFASTQ("empty read name")
	}

	entry := readstore.NewEntry(nameStart+1, nameEnd, seqStart, seqEnd, sepStart, sepEnd, qualStart, qualEnd)
	return entry, p4, true, nil
}

// readLine finds the next '\n'-terminated line starting at pos, trimming a
// trailing '\r' from the returned content range. It returns ok == false
// if no '\n' appears in buf[pos:] yet.
func readLine(buf []byte, pos int) (start, end, next int, ok bool) {
	idx := bytes.IndexByte(buf[pos:], '\n')
	if idx < 0 {
		return 0, 0, 0, false
	}
	lineEnd := pos + idx
	contentEnd := lineEnd
	if contentEnd > pos && buf[contentEnd-1] == '\r' {
		contentEnd--
	}
	return pos, contentEnd, lineEnd + 1, true
}

type fastqFormatError string

func (e fastqFormatError) Error() string { return string(e) }

func errInvalidFASTQ(msg string) error { return fastqFormatError(msg) }
