package readstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBlock(t *testing.T, names, seqs, quals []string) *Block {
	t.Helper()
	require.Equal(t, len(names), len(seqs))
	require.Equal(t, len(seqs), len(quals))
	var buf []byte
	entries := make([]Entry, len(names))
	for i := range names {
		start := len(buf)
		buf = append(buf, names[i]...)
		nameEnd := len(buf)
		buf = append(buf, seqs[i]...)
		seqEnd := len(buf)
		sepStart := len(buf)
		buf = append(buf, '+')
		sepEnd := len(buf)
		buf = append(buf, quals[i]...)
		qualEnd := len(buf)
		entries[i] = Entry{
			Name:      byteRange{start, nameEnd},
			Sequence:  byteRange{nameEnd, seqEnd},
			Separator: byteRange{sepStart, sepEnd},
			Quality:   byteRange{sepEnd, qualEnd},
		}
	}
	return NewBlock(buf, entries)
}

func TestWrappedReadAccessors(t *testing.T) {
	b := makeBlock(t, []string{"r1", "r2"}, []string{"ACGT", "TTTT"}, []string{"IIII", "####"})
	r0 := b.Read(0)
	assert.Equal(t, "r1", string(r0.Name()))
	assert.Equal(t, "ACGT", string(r0.Sequence()))
	assert.Equal(t, "IIII", string(r0.Quality()))
	assert.Equal(t, 4, r0.Len())
}

func TestReplaceSequenceAndQualityIsolatesOtherReads(t *testing.T) {
	b := makeBlock(t, []string{"r1", "r2"}, []string{"ACGT", "TTTT"}, []string{"IIII", "####"})
	b.MutRead(0).ReplaceSequenceAndQuality([]byte("AC"), []byte("II"))

	r0 := b.Read(0)
	assert.Equal(t, "AC", string(r0.Sequence()))
	assert.Equal(t, "r1", string(r0.Name()))

	r1 := b.Read(1)
	assert.Equal(t, "TTTT", string(r1.Sequence()))
	assert.Equal(t, "r2", string(r1.Name()))
}

func TestReplaceSequenceAndQualityPanicsOnLengthMismatch(t *testing.T) {
	b := makeBlock(t, []string{"r1"}, []string{"ACGT"}, []string{"IIII"})
	assert.Panics(t, func() {
		b.MutRead(0).ReplaceSequenceAndQuality([]byte("AC"), []byte("III"))
	})
}

func TestTrimStartEnd(t *testing.T) {
	b := makeBlock(t, []string{"r1"}, []string{"ACGTACGT"}, []string{"12345678"})
	b.MutRead(0).TrimStart(2)
	assert.Equal(t, "GTACGT", string(b.Read(0).Sequence()))
	assert.Equal(t, "345678", string(b.Read(0).Quality()))
	b.MutRead(0).TrimEnd(2)
	assert.Equal(t, "GTAC", string(b.Read(0).Sequence()))
	assert.Equal(t, "3456", string(b.Read(0).Quality()))
}

func TestReverseComplementMatchesScenarioS3(t *testing.T) {
	b := makeBlock(t, []string{"r"}, []string{"ACGTAAA"}, []string{"!!!!!!!"})
	bc := NewBlocksCombined(0, []*Block{b})
	loc := LocationValue([]Hit{{HasLocation: true, Location: Region{SegmentIndex: 0, Start: 0, Len: 3}, Sequence: []byte("ACG")}})
	bc.Tags.SetColumn("t", []TagValue{loc})

	bc.ApplyInPlace(0, func(w WrappedReadMut) { w.ReverseComplement() })
	// remap: new start = newLen - (oldStart+oldLen) = 7 - 3 = 4
	bc.FilterTagLocations(0, nil, func(i int, h Hit) RemapResult {
		newStart := b.Read(i).Len() - (h.Location.Start + h.Location.Len)
		return New(Region{SegmentIndex: 0, Start: newStart, Len: h.Location.Len})
	})

	assert.Equal(t, "TTTACGT", string(b.Read(0).Sequence()))
	col, ok := bc.Tags.Column("t")
	require.True(t, ok)
	require.Len(t, col[0].Location, 1)
	assert.Equal(t, Region{SegmentIndex: 0, Start: 4, Len: 3}, col[0].Location[0].Location)
}

func TestApplyBoolFilterPreservesOrderAndCardinality(t *testing.T) {
	b := makeBlock(t, []string{"r1", "r2", "r3"}, []string{"AAA", "CCC", "GGG"}, []string{"III", "III", "III"})
	bc := NewBlocksCombined(0, []*Block{b})
	bc.Tags.SetColumn("t", []TagValue{BoolValue(true), BoolValue(false), BoolValue(true)})
	bc.OutputTags = []uint32{0, 1, 0}

	bc.ApplyBoolFilter([]bool{true, false, true})

	require.Equal(t, 2, bc.Len())
	assert.Equal(t, "AAA", string(b.Read(0).Sequence()))
	assert.Equal(t, "GGG", string(b.Read(1).Sequence()))
	col, _ := bc.Tags.Column("t")
	assert.Equal(t, []TagValue{BoolValue(true), BoolValue(true)}, col)
	assert.Equal(t, []uint32{0, 0}, bc.OutputTags)
	assert.NoError(t, bc.Validate())
}

func TestFilterTagLocationsBeyondReadLength(t *testing.T) {
	b := makeBlock(t, []string{"r"}, []string{"ACGT"}, []string{"IIII"})
	bc := NewBlocksCombined(0, []*Block{b})
	bc.Tags.SetColumn("t", []TagValue{LocationValue([]Hit{
		{HasLocation: true, Location: Region{SegmentIndex: 0, Start: 0, Len: 2}},
		{HasLocation: true, Location: Region{SegmentIndex: 0, Start: 3, Len: 5}},
	})})
	b.MutRead(0).TrimEnd(2) // sequence now length 2
	bc.FilterTagLocationsBeyondReadLength(0)
	col, _ := bc.Tags.Column("t")
	require.Len(t, col[0].Location, 1)
	assert.Equal(t, Region{SegmentIndex: 0, Start: 0, Len: 2}, col[0].Location[0].Location)
}
