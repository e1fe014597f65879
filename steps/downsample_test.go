package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsampleIsDeterministicForAGivenSeed(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	seqs := make([]string, len(names))
	quals := make([]string, len(names))
	for i := range names {
		seqs[i] = "ACGT"
		quals[i] = "IIII"
	}

	run := func() []string {
		d := NewDownsample(0.5, 42)
		_, err := d.Init(singleSegInfo, "", nil)
		require.NoError(t, err)
		bc := oneSegmentTuple(names, seqs, quals)
		out, cont, err := d.Apply(bc, singleSegInfo, 0, nil)
		require.NoError(t, err)
		assert.True(t, cont)
		kept := make([]string, out.Len())
		for i := 0; i < out.Len(); i++ {
			kept[i] = string(out.Segments[0].Read(i).Name())
		}
		return kept
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), len(names))
}

func TestDownsampleRateZeroDropsEverything(t *testing.T) {
	d := NewDownsample(0, 1)
	_, err := d.Init(singleSegInfo, "", nil)
	require.NoError(t, err)
	bc := oneSegmentTuple([]string{"a", "b"}, []string{"ACGT", "ACGT"}, []string{"IIII", "IIII"})
	out, _, err := d.Apply(bc, singleSegInfo, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
}
