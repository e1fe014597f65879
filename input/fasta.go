package input

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
)

// FASTABlockParser reads standard multi-line FASTA records and synthesizes
// a quality string for each (spec.md §4.2 "FASTA parser"). Unlike the
// teacher's indexed encoding/fasta reader (built for random access lookups
// into a persistent reference), this parser only ever streams forward,
// which is all the Input Stage needs.
type FASTABlockParser struct {
	r           *bufio.Reader
	fakeQuality byte
	pendingName []byte
	eof         bool
}

// NewFASTABlockParser wraps r. fakeQuality is the byte repeated to build
// each synthetic quality string; spec.md requires configuring it whenever
// any input segment is FASTA.
func NewFASTABlockParser(r io.Reader, fakeQuality byte) *FASTABlockParser {
	return &FASTABlockParser{r: bufio.NewReader(r), fakeQuality: fakeQuality}
}

func (p *FASTABlockParser) Done() bool { return p.eof && p.pendingName == nil }

// NextBlock parses up to targetReads FASTA records into a Block. Because
// FASTA records are not fixed-width on the wire, the resulting Block's
// buffer is synthesized fresh (name + '\n' + sequence + '\n' + "+" + '\n'
// + synthetic quality + '\n') so WrappedRead's zero-copy accessors still
// work uniformly across input formats.
func (p *FASTABlockParser) NextBlock(targetReads int) (*readstore.Block, error) {
	op := fqerrors.Op("input.FASTABlockParser.NextBlock")
	var buf []byte
	var entries []readstore.Entry

	name := p.pendingName
	p.pendingName = nil

	for len(entries) < targetReads {
		if name == nil {
			line, err := p.readLine()
			if err == io.EOF {
				p.eof = true
				break
			}
			if err != nil {
				return nil, fqerrors.E(op, fqerrors.InputOpen, err)
			}
			if len(line) == 0 || line[0] != '>' {
				return nil, fqerrors.E(op, fqerrors.InputParse, errors.Errorf("malformed FASTA record: expected '>' marker, got %q", line))
			}
			fields := bytes.Fields(line[1:])
			if len(fields) == 0 {
				return nil, fqerrors.E(op, fqerrors.InputParse, errors.Errorf("malformed FASTA record: empty header line"))
			}
			name = append([]byte(nil), fields[0]...)
		}

		var seq []byte
		for {
			line, err := p.readLine()
			if err == io.EOF {
				p.eof = true
				break
			}
			if err != nil {
				return nil, fqerrors.E(op, fqerrors.InputOpen, err)
			}
			if len(line) > 0 && line[0] == '>' {
				fields := bytes.Fields(line[1:])
				if len(fields) == 0 {
					return nil, fqerrors.E(op, fqerrors.InputParse, errors.Errorf("malformed FASTA record: empty header line"))
				}
				p.pendingName = append([]byte(nil), fields[0]...)
				break
			}
			seq = append(seq, line...)
		}

		nameStart := len(buf)
		buf = append(buf, name...)
		nameEnd := len(buf)
		buf = append(buf, '\n')

		seqStart := len(buf)
		buf = append(buf, seq...)
		seqEnd := len(buf)
		buf = append(buf, '\n')

		sepStart := len(buf)
		buf = append(buf, '+')
		sepEnd := len(buf)
		buf = append(buf, '\n')

		qualStart := len(buf)
		for i := 0; i < len(seq); i++ {
			buf = append(buf, p.fakeQuality)
		}
		qualEnd := len(buf)
		buf = append(buf, '\n')

		entries = append(entries, readstore.NewEntry(nameStart, nameEnd, seqStart, seqEnd, sepStart, sepEnd, qualStart, qualEnd))

		name = p.pendingName
		p.pendingName = nil
		if p.eof && name == nil {
			break
		}
	}
	// A name pulled out of pendingName but not consumed (block filled up
	// first) must survive into the next NextBlock call.
	if name != nil {
		p.pendingName = name
	}

	block := readstore.NewBlock(buf, entries)
	block.Final = p.eof && p.pendingName == nil
	return block, nil
}

// readLine returns the next line with its terminator stripped. It returns
// io.EOF only once no bytes at all remain; a final unterminated line is
// returned along with a nil error, matching bufio.Scanner's last-line
// behavior.
func (p *FASTABlockParser) readLine() ([]byte, error) {
	line, err := p.r.ReadBytes('\n')
	if len(line) == 0 && err != nil {
		return nil, err
	}
	return bytes.TrimRight(line, "\r\n"), nil
}
