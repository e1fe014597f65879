package input

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPlainFASTQ(t *testing.T) {
	d, err := DetectAndWrap(strings.NewReader("@r1\nACGT\n+\nIIII\n"), false)
	require.NoError(t, err)
	assert.Equal(t, FormatFASTQ, d.Format)
}

func TestDetectPlainFASTA(t *testing.T) {
	d, err := DetectAndWrap(strings.NewReader(">r1\nACGT\n"), false)
	require.NoError(t, err)
	assert.Equal(t, FormatFASTA, d.Format)
}

func TestDetectGzippedFASTQ(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte("@r1\nACGT\n+\nIIII\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	d, err := DetectAndWrap(bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, FormatFASTQ, d.Format)

	body, err := io.ReadAll(d.Reader)
	require.NoError(t, err)
	assert.Equal(t, "@r1\nACGT\n+\nIIII\n", string(body))
}

func TestDetectZstdFASTA(t *testing.T) {
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write([]byte(">r1\nACGT\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	d, err := DetectAndWrap(bytes.NewReader(buf.Bytes()), false)
	require.NoError(t, err)
	assert.Equal(t, FormatFASTA, d.Format)

	body, err := io.ReadAll(d.Reader)
	require.NoError(t, err)
	assert.Equal(t, ">r1\nACGT\n", string(body))
}

func TestDetectRejectsUnknownFormat(t *testing.T) {
	_, err := DetectAndWrap(strings.NewReader("not a read file"), false)
	assert.Error(t, err)
}

func TestDetectFIFOAssumesFASTQ(t *testing.T) {
	d, err := DetectAndWrap(strings.NewReader("@r1\nACGT\n+\nIIII\n"), true)
	require.NoError(t, err)
	assert.Equal(t, FormatFASTQ, d.Format)
}
