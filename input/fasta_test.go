package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFASTAParserSynthesizesQuality(t *testing.T) {
	in := ">r1 description ignored\nACGT\nACGT\n>r2\nTT\n"
	p := NewFASTABlockParser(strings.NewReader(in), 'I')

	block, err := p.NextBlock(10)
	require.NoError(t, err)
	require.Equal(t, 2, block.Len())

	r0 := block.Read(0)
	assert.Equal(t, "r1", string(r0.Name()))
	assert.Equal(t, "ACGTACGT", string(r0.Sequence()))
	assert.Equal(t, "IIIIIIII", string(r0.Quality()))

	r1 := block.Read(1)
	assert.Equal(t, "r2", string(r1.Name()))
	assert.Equal(t, "TT", string(r1.Sequence()))
	assert.Equal(t, "II", string(r1.Quality()))
	assert.True(t, block.Final)
	assert.True(t, p.Done())
}

// A record whose header was already consumed when the block filled up must
// not be lost between NextBlock calls.
func TestFASTAParserCarriesPendingRecordAcrossBlocks(t *testing.T) {
	in := ">r1\nAAAA\n>r2\nCCCC\n>r3\nGGGG\n"
	p := NewFASTABlockParser(strings.NewReader(in), '#')

	var names []string
	for !p.Done() {
		block, err := p.NextBlock(1)
		require.NoError(t, err)
		for i := 0; i < block.Len(); i++ {
			names = append(names, string(block.Read(i).Name()))
		}
	}
	assert.Equal(t, []string{"r1", "r2", "r3"}, names)
}

func TestFASTAParserRejectsMissingMarker(t *testing.T) {
	p := NewFASTABlockParser(strings.NewReader("ACGT\n"), 'I')
	_, err := p.NextBlock(10)
	assert.Error(t, err)
}

// A bare '>' header with no name is an InputParse error, not a panic,
// whether it opens the stream or follows another record's sequence.
func TestFASTAParserRejectsEmptyHeader(t *testing.T) {
	p := NewFASTABlockParser(strings.NewReader(">\nACGT\n"), 'I')
	_, err := p.NextBlock(10)
	assert.Error(t, err)

	p = NewFASTABlockParser(strings.NewReader(">r1\nACGT\n>  \nTTTT\n"), 'I')
	_, err = p.NextBlock(10)
	assert.Error(t, err)
}

func TestFASTAParserFinalLineWithoutNewline(t *testing.T) {
	p := NewFASTABlockParser(strings.NewReader(">r1\nACGT"), 'I')
	block, err := p.NextBlock(10)
	require.NoError(t, err)
	require.Equal(t, 1, block.Len())
	assert.Equal(t, "ACGT", string(block.Read(0).Sequence()))
}
