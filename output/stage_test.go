package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relion-bio/fqproc/plan"
	"github.com/relion-bio/fqproc/readstore"
)

func buildBlock(names, seqs, quals []string) *readstore.Block {
	var buf []byte
	entries := make([]readstore.Entry, len(names))
	for i := range names {
		nameStart := len(buf)
		buf = append(buf, names[i]...)
		nameEnd := len(buf)
		seqStart := len(buf)
		buf = append(buf, seqs[i]...)
		seqEnd := len(buf)
		sepStart := len(buf)
		buf = append(buf, '+')
		sepEnd := len(buf)
		qualStart := len(buf)
		buf = append(buf, quals[i]...)
		qualEnd := len(buf)
		entries[i] = readstore.NewEntry(nameStart, nameEnd, seqStart, seqEnd, sepStart, sepEnd, qualStart, qualEnd)
	}
	return readstore.NewBlock(buf, entries)
}

// S1 -- identity passthrough: writes come out byte-identical FASTQ.
func TestStageWritesFASTQIdentityPassthrough(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out_read1.fq")

	out := plan.Output{
		Sinks: []plan.OutputSink{{SegmentName: "read1", Path: outPath, Format: plan.FormatFASTQ}},
	}
	stage, err := NewStage(out, nil, []string{"read1"})
	require.NoError(t, err)
	require.NotNil(t, stage)

	bc := readstore.NewBlocksCombined(0, []*readstore.Block{
		buildBlock([]string{"r1", "r2"}, []string{"ACGT", "TTTT"}, []string{"IIII", "####"}),
	})
	require.NoError(t, stage.Write(bc, 0))
	require.NoError(t, stage.Close())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "@r1\nACGT\n+\nIIII\n@r2\nTTTT\n+\n####\n", string(got))
}

func TestStageRejectsExistingFileUnlessAllowOverwrite(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out_read1.fq")
	require.NoError(t, os.WriteFile(outPath, []byte("existing"), 0o644))

	out := plan.Output{
		Sinks: []plan.OutputSink{{SegmentName: "read1", Path: outPath, Format: plan.FormatFASTQ}},
	}
	_, err := NewStage(out, nil, []string{"read1"})
	assert.Error(t, err)

	out.AllowOverwrite = true
	stage, err := NewStage(out, nil, []string{"read1"})
	require.NoError(t, err)
	require.NoError(t, stage.Close())
}
