package output

import (
	"fmt"
	"os"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/plan"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// target is one opened output destination: a (demultiplex tag, segment)
// pair, wrapping either a FASTQ fileSink or a BAM encoder.
type target struct {
	format plan.Format
	fastq  *fileSink
	bam    *bamEncoder
}

func (t *target) write(r readstore.WrappedRead) error {
	if t.bam != nil {
		return t.bam.writeRecord(r)
	}
	return writeFASTQRecord(t.fastq, r)
}

func (t *target) close() error {
	if t.bam != nil {
		if err := t.bam.close(); err != nil {
			return err
		}
	}
	return t.fastq.close()
}

type outputKey struct {
	tag     uint32
	segment string
}

// Stage is the Output Stage (spec.md §4.5): it implements pipeline.Sink,
// opening one sink per (segment, demultiplex tag) pair up front during
// NewStage and writing every block-tuple's molecules into the matching
// sink, in block-index order (guaranteed by the Pipeline Runtime's reorder
// buffer upstream of the last stage).
type Stage struct {
	segmentNames []string
	outputs      map[outputKey]*target
	order        []*target // close order == open order, for determinism

	prefix                 string
	outputHashUncompressed bool
	outputHashCompressed   bool
	keepPartial            bool
}

// NewStage opens every output sink declared in out, one per segment per
// registered demultiplex tag (including the implicit 0/"no-barcode"
// bucket whenever demux is non-empty). Returns (nil, nil) when out has no
// sinks configured (tests that only exercise the runtime).
func NewStage(out plan.Output, demux step.DemultiplexInfo, segmentNames []string) (*Stage, error) {
	if len(out.Sinks) == 0 {
		return nil, nil
	}
	op := fqerrors.Op("output.NewStage")
	s := &Stage{
		segmentNames:           segmentNames,
		outputs:                make(map[outputKey]*target),
		prefix:                 out.Prefix,
		outputHashUncompressed: out.OutputHashUncompressed,
		outputHashCompressed:   out.OutputHashCompressed,
		keepPartial:            out.KeepPartial,
	}

	tags := []uint32{0}
	demuxActive := demux != nil && demux.TagCount() > 0
	if demuxActive {
		tags = append(tags, demux.Tags()...)
	}

	for _, sinkSpec := range out.Sinks {
		for _, tag := range tags {
			path := sinkSpec.Path
			if demuxActive {
				label := "no-barcode"
				if tag != 0 {
					label = demux.Name(tag)
				}
				path = demuxedPath(out.Prefix, out.IXSeparator, label, sinkSpec.SegmentName, sinkSpec.Format, sinkSpec.Compression)
			}

			fs, err := openFileSink(path, sinkSpec.Compression, sinkSpec.CompressionLevel, out.AllowOverwrite, out.OutputHashUncompressed, out.OutputHashCompressed)
			if err != nil {
				s.closeAll()
				return nil, err
			}

			t := &target{format: sinkSpec.Format, fastq: fs}
			if sinkSpec.Format == plan.FormatBAM {
				enc, err := newBAMEncoder(fs)
				if err != nil {
					fs.close()
					s.closeAll()
					return nil, fqerrors.E(op, fqerrors.OutputOpen, path, err)
				}
				t.bam = enc
			}

			s.outputs[outputKey{tag, sinkSpec.SegmentName}] = t
			s.order = append(s.order, t)
			if !demuxActive {
				break // one sink per segment when there's no demultiplexing
			}
		}
	}
	return s, nil
}

func demuxedPath(prefix, sep, label, segment string, format plan.Format, compression plan.Compression) string {
	ext := "fq"
	if format == plan.FormatBAM {
		ext = "bam"
	}
	switch compression {
	case plan.CompressionGzip:
		ext += ".gz"
	case plan.CompressionZstd:
		ext += ".zst"
	}
	return fmt.Sprintf("%s%s%s%s%s.%s", prefix, sep, label, sep, segment, ext)
}

// Write implements pipeline.Sink: it writes every molecule in bc to the
// sink matching its segment and demultiplex tag (spec.md §4.5).
func (s *Stage) Write(bc *readstore.BlocksCombined, blockNo int) error {
	op := fqerrors.Op("output.Stage.Write")
	for segIdx, segName := range s.segmentNames {
		if segIdx >= len(bc.Segments) {
			continue
		}
		seg := bc.Segments[segIdx]
		for i := 0; i < seg.Len(); i++ {
			var molTag uint32
			if bc.OutputTags != nil {
				molTag = bc.OutputTags[i]
			}
			t, ok := s.outputs[outputKey{molTag, segName}]
			if !ok {
				t, ok = s.outputs[outputKey{0, segName}]
			}
			if !ok {
				continue
			}
			if err := t.write(seg.Read(i)); err != nil {
				return fqerrors.E(op, fqerrors.OutputWrite, err)
			}
		}
	}
	return nil
}

// Close flushes and closes every opened sink and, if any hashing was
// requested, writes the "{prefix}.sha256" side-channel file (spec.md §6
// "Hash side-channels").
func (s *Stage) Close() error {
	var firstErr error
	var hashLines []string
	for _, t := range s.order {
		if err := t.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		hashLines = append(hashLines, t.fastq.hashLines()...)
	}
	if firstErr != nil {
		return firstErr
	}
	if (s.outputHashUncompressed || s.outputHashCompressed) && len(hashLines) > 0 {
		if err := writeHashFile(s.prefix+".sha256", hashLines); err != nil {
			return err
		}
	}
	return nil
}

func writeHashFile(path string, lines []string) error {
	op := fqerrors.Op("output.writeHashFile")
	f, err := os.Create(path)
	if err != nil {
		return fqerrors.E(op, fqerrors.OutputWrite, path, err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := fmt.Fprintln(f, line); err != nil {
			return fqerrors.E(op, fqerrors.OutputWrite, path, err)
		}
	}
	return nil
}

func (s *Stage) closeAll() {
	for _, t := range s.order {
		t.close()
	}
}

// RemoveAll deletes every opened output file, used by the engine after a
// fatal run error when KeepPartial was not requested (spec.md §7 "Output
// finalization is best-effort: partially written files are removed unless
// --keep-partial was set").
func (s *Stage) RemoveAll() {
	if s.keepPartial {
		return
	}
	for _, t := range s.order {
		os.Remove(t.fastq.path)
	}
}
