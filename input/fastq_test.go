package input

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type parsedRead struct {
	name, seq, qual string
}

// parseAll drains the parser, returning every read across every block.
func parseAll(t *testing.T, p *FASTQBlockParser, targetReads int) []parsedRead {
	t.Helper()
	var out []parsedRead
	for !p.Done() {
		block, err := p.NextBlock(targetReads)
		require.NoError(t, err)
		for i := 0; i < block.Len(); i++ {
			r := block.Read(i)
			out = append(out, parsedRead{string(r.Name()), string(r.Sequence()), string(r.Quality())})
		}
	}
	return out
}

// serialize renders reads back to canonical four-line FASTQ.
func serialize(reads []parsedRead) string {
	var b strings.Builder
	for _, r := range reads {
		b.WriteByte('@')
		b.WriteString(r.name)
		b.WriteByte('\n')
		b.WriteString(r.seq)
		b.WriteString("\n+\n")
		b.WriteString(r.qual)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestFASTQParserBasic(t *testing.T) {
	in := "@r1\nACGT\n+\nIIII\n@r2\nTT\n+\n##\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	reads := parseAll(t, p, 100)
	assert.Equal(t, []parsedRead{
		{"r1", "ACGT", "IIII"},
		{"r2", "TT", "##"},
	}, reads)
}

func TestFASTQParserNormalizesCRLF(t *testing.T) {
	in := "@r1\r\nACGT\r\n+\r\nIIII\r\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	reads := parseAll(t, p, 100)
	require.Len(t, reads, 1)
	assert.Equal(t, parsedRead{"r1", "ACGT", "IIII"}, reads[0])
}

func TestFASTQParserKeepsSeparatorName(t *testing.T) {
	// The '+' line may repeat the name; it is not validated against '@'.
	in := "@r1\nACGT\n+anything goes\nIIII\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	reads := parseAll(t, p, 100)
	require.Len(t, reads, 1)
	assert.Equal(t, "ACGT", reads[0].seq)
}

// Serializing the parsed reads and re-parsing yields identical triples,
// for inputs with mixed line endings.
func TestFASTQParserRoundTrip(t *testing.T) {
	in := "@a 1\nACGTN\n+\n!!!!!\n@b\r\nTTTTTTTT\r\n+b\r\nIIIIIIII\r\n@c\nG\n+\n#\n"
	first := parseAll(t, NewFASTQBlockParser(strings.NewReader(in), 64), 2)
	second := parseAll(t, NewFASTQBlockParser(strings.NewReader(serialize(first)), 64), 2)
	assert.Equal(t, first, second)
}

// The parsed read sequence is identical for every buffer size >= 4,
// including sizes far smaller than a single record.
func TestFASTQParserBufferSizeInvariant(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("@read")
		b.WriteByte(byte('a' + i))
		b.WriteString("\nACGTACGTACGT\n+\nIIIIIIIIIIII\n")
	}
	in := b.String()

	want := parseAll(t, NewFASTQBlockParser(strings.NewReader(in), 1<<16), 7)
	require.Len(t, want, 20)
	for size := 4; size <= 67; size++ {
		got := parseAll(t, NewFASTQBlockParser(strings.NewReader(in), size), 7)
		assert.Equal(t, want, got, "buffer size %d", size)
	}
}

func TestFASTQParserBlockBoundaries(t *testing.T) {
	in := "@r1\nAA\n+\nII\n@r2\nCC\n+\nII\n@r3\nGG\n+\nII\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)

	b1, err := p.NextBlock(2)
	require.NoError(t, err)
	assert.Equal(t, 2, b1.Len())
	assert.False(t, b1.Final)

	b2, err := p.NextBlock(2)
	require.NoError(t, err)
	assert.Equal(t, 1, b2.Len())
	assert.True(t, b2.Final)
	assert.True(t, p.Done())
}

func TestFASTQParserRejectsLengthMismatch(t *testing.T) {
	in := "@r1\nACGT\n+\nIII\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	_, err := p.NextBlock(10)
	assert.Error(t, err)
}

func TestFASTQParserRejectsTruncatedRecord(t *testing.T) {
	in := "@r1\nACGT\n+\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	_, err := p.NextBlock(10)
	assert.Error(t, err)
}

func TestFASTQParserRejectsMissingMarker(t *testing.T) {
	in := "r1\nACGT\n+\nIIII\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	_, err := p.NextBlock(10)
	assert.Error(t, err)
}

func TestFASTQParserEmptyInput(t *testing.T) {
	p := NewFASTQBlockParser(bytes.NewReader(nil), 1<<10)
	block, err := p.NextBlock(10)
	require.NoError(t, err)
	assert.Equal(t, 0, block.Len())
	assert.True(t, block.Final)
	assert.True(t, p.Done())
}

// Mutating one read in a parsed block leaves the block's other entries and
// the shared buffer view intact.
func TestParsedBlockSupportsMutation(t *testing.T) {
	in := "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\n####\n"
	p := NewFASTQBlockParser(strings.NewReader(in), 1<<10)
	block, err := p.NextBlock(10)
	require.NoError(t, err)
	require.Equal(t, 2, block.Len())

	block.MutRead(0).TrimEnd(2)
	assert.Equal(t, "AC", string(block.Read(0).Sequence()))
	assert.Equal(t, "TTTT", string(block.Read(1).Sequence()))
}

var _ BlockParser = (*FASTQBlockParser)(nil)
