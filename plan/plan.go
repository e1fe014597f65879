// Package plan defines the resolved, already-validated plan the engine
// receives (spec.md §6). The engine never parses a configuration document;
// it only consumes these Go values, constructed by an external
// collaborator.
package plan

import (
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Format names an input/output encoding.
type Format int

const (
	FormatFASTQ Format = iota
	FormatFASTA
	FormatBAM
)

// Compression names a transparent (de)compression scheme.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
)

// SegmentInput describes one segment's input files. Interleaved is true
// when a single file supplies every segment, round-robined.
type SegmentInput struct {
	SegmentName string
	Files       []string
	Interleaved bool
	// InterleavedSegmentCount is only meaningful when Interleaved is true:
	// the number of segments multiplexed into each file.
	InterleavedSegmentCount int
}

// Input is the ordered per-segment input descriptor.
type Input struct {
	Segments []SegmentInput

	// FASTAFakeQuality is required when any input segment is FASTA.
	FASTAFakeQuality byte

	// BAM alignment inclusion flags; both false is a plan error.
	IncludeMapped   bool
	IncludeUnmapped bool
}

// OutputSink describes one output file (or file-group member) destination.
type OutputSink struct {
	SegmentName string
	Path        string
	Format      Format
	Compression Compression
	// CompressionLevel is optional; zero means "implementation default".
	CompressionLevel int
}

// Output is the ordered output descriptor. Empty Sinks means "no output
// stage" (used by tests that only exercise the runtime).
type Output struct {
	Sinks []OutputSink

	Prefix         string
	IXSeparator    string
	AllowOverwrite bool
	KeepPartial    bool

	OutputHashUncompressed bool
	OutputHashCompressed   bool
}

// TagMetadata is the resolved tag-name -> declared-type mapping (spec.md
// §3).
type TagMetadata map[string]readstore.TagValueType

// Options bundles the engine-wide knobs from spec.md §6.
type Options struct {
	ThreadCount         int
	TargetReadsPerBlock int
	InitialBufferSize   int
	QueueMultiplier     int // queue bound = QueueMultiplier * ThreadCount
}

// DefaultOptions returns sensible defaults matching the teacher's own
// default shard/queue sizing conventions.
func DefaultOptions() Options {
	return Options{
		ThreadCount:         4,
		TargetReadsPerBlock: 10000,
		InitialBufferSize:   1 << 16,
		QueueMultiplier:     2,
	}
}

// Plan is the fully resolved plan handed to engine.Run.
type Plan struct {
	Input       Input
	Steps       []step.Step
	Output      Output
	Options     Options
	TagMetadata TagMetadata
}
