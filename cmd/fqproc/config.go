package main

import (
	"encoding/json"
	"fmt"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/plan"
	"github.com/relion-bio/fqproc/step"
	"github.com/relion-bio/fqproc/steps"
)

// jsonPlan is the on-disk shape of a plan document (spec.md §6 "External
// interfaces": the engine itself only consumes a resolved plan.Plan; this
// thin JSON layer is the CLI-only convenience around it, the way the
// teacher's own commands read flags rather than a config document -- here
// a whole pipeline plan is too shaped to fit flags, so it is decoded with
// encoding/json instead).
type jsonPlan struct {
	Input   jsonInput         `json:"input"`
	Steps   []json.RawMessage `json:"steps"`
	Output  jsonOutput        `json:"output"`
	Options jsonOptions       `json:"options"`
}

type jsonSegmentInput struct {
	Name                    string   `json:"name"`
	Files                   []string `json:"files"`
	Interleaved             bool     `json:"interleaved"`
	InterleavedSegmentCount int      `json:"interleaved_segment_count"`
}

type jsonInput struct {
	Segments         []jsonSegmentInput `json:"segments"`
	FASTAFakeQuality string             `json:"fasta_fake_quality"`
	IncludeMapped    bool               `json:"include_mapped"`
	IncludeUnmapped  bool               `json:"include_unmapped"`
}

type jsonOutputSink struct {
	SegmentName      string `json:"segment"`
	Path             string `json:"path"`
	Format           string `json:"format"`
	Compression      string `json:"compression"`
	CompressionLevel int    `json:"compression_level"`
}

type jsonOutput struct {
	Sinks                  []jsonOutputSink `json:"sinks"`
	Prefix                 string           `json:"prefix"`
	IXSeparator            string           `json:"ix_separator"`
	AllowOverwrite         bool             `json:"allow_overwrite"`
	KeepPartial            bool             `json:"keep_partial"`
	OutputHashUncompressed bool             `json:"output_hash_uncompressed"`
	OutputHashCompressed   bool             `json:"output_hash_compressed"`
}

type jsonOptions struct {
	ThreadCount         int `json:"thread_count"`
	TargetReadsPerBlock int `json:"target_reads_per_block"`
	InitialBufferSize   int `json:"initial_buffer_size"`
	QueueMultiplier     int `json:"queue_multiplier"`
}

// jsonStepHeader reads just the discriminator every step document carries.
type jsonStepHeader struct {
	Kind string `json:"kind"`
}

func parseFormat(s string) (plan.Format, error) {
	switch s {
	case "", "fastq":
		return plan.FormatFASTQ, nil
	case "fasta":
		return plan.FormatFASTA, nil
	case "bam":
		return plan.FormatBAM, nil
	default:
		return 0, fmt.Errorf("unrecognized format %q", s)
	}
}

func parseCompression(s string) (plan.Compression, error) {
	switch s {
	case "", "none":
		return plan.CompressionNone, nil
	case "gzip":
		return plan.CompressionGzip, nil
	case "zstd":
		return plan.CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unrecognized compression %q", s)
	}
}

func byteOrZero(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[0]
}

// decodePlan converts the JSON document data into a resolved plan.Plan,
// resolving each step's "kind" against the steps package's concrete
// implementations.
func decodePlan(data []byte) (plan.Plan, error) {
	op := fqerrors.Op("main.decodePlan")
	var jp jsonPlan
	if err := json.Unmarshal(data, &jp); err != nil {
		return plan.Plan{}, fqerrors.E(op, fqerrors.PlanInvalid, err)
	}

	opts := plan.DefaultOptions()
	if jp.Options.ThreadCount > 0 {
		opts.ThreadCount = jp.Options.ThreadCount
	}
	if jp.Options.TargetReadsPerBlock > 0 {
		opts.TargetReadsPerBlock = jp.Options.TargetReadsPerBlock
	}
	if jp.Options.InitialBufferSize > 0 {
		opts.InitialBufferSize = jp.Options.InitialBufferSize
	}
	if jp.Options.QueueMultiplier > 0 {
		opts.QueueMultiplier = jp.Options.QueueMultiplier
	}

	in := plan.Input{
		FASTAFakeQuality: byteOrZero(jp.Input.FASTAFakeQuality),
		IncludeMapped:    jp.Input.IncludeMapped,
		IncludeUnmapped:  jp.Input.IncludeUnmapped,
	}
	for _, s := range jp.Input.Segments {
		in.Segments = append(in.Segments, plan.SegmentInput{
			SegmentName:             s.Name,
			Files:                   s.Files,
			Interleaved:             s.Interleaved,
			InterleavedSegmentCount: s.InterleavedSegmentCount,
		})
	}

	out := plan.Output{
		Prefix:                 jp.Output.Prefix,
		IXSeparator:            jp.Output.IXSeparator,
		AllowOverwrite:         jp.Output.AllowOverwrite,
		KeepPartial:            jp.Output.KeepPartial,
		OutputHashUncompressed: jp.Output.OutputHashUncompressed,
		OutputHashCompressed:   jp.Output.OutputHashCompressed,
	}
	for _, sinkSpec := range jp.Output.Sinks {
		format, err := parseFormat(sinkSpec.Format)
		if err != nil {
			return plan.Plan{}, fqerrors.E(op, fqerrors.PlanInvalid, err)
		}
		compression, err := parseCompression(sinkSpec.Compression)
		if err != nil {
			return plan.Plan{}, fqerrors.E(op, fqerrors.PlanInvalid, err)
		}
		out.Sinks = append(out.Sinks, plan.OutputSink{
			SegmentName:      sinkSpec.SegmentName,
			Path:             sinkSpec.Path,
			Format:           format,
			Compression:      compression,
			CompressionLevel: sinkSpec.CompressionLevel,
		})
	}

	stepList, err := decodeSteps(jp.Steps)
	if err != nil {
		return plan.Plan{}, err
	}

	return plan.Plan{Input: in, Steps: stepList, Output: out, Options: opts}, nil
}

func decodeSteps(raw []json.RawMessage) ([]step.Step, error) {
	var out []step.Step
	for i, msg := range raw {
		var hdr jsonStepHeader
		if err := json.Unmarshal(msg, &hdr); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		st, err := decodeStep(hdr.Kind, msg)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, hdr.Kind, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func decodeStep(kind string, msg json.RawMessage) (step.Step, error) {
	switch kind {
	case "head":
		var body struct {
			N int `json:"n"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return &steps.Head{N: body.N}, nil

	case "extract_iupac":
		var body struct {
			Segment string `json:"segment"`
			Query   string `json:"query"`
			Label   string `json:"label"`
			Anchor  string `json:"anchor"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		anchor := steps.AnchorLeft
		if body.Anchor == "right" {
			anchor = steps.AnchorRight
		}
		return steps.NewExtractIUPAC(body.Segment, body.Query, body.Label, anchor), nil

	case "filter_tag":
		var body struct {
			Label string `json:"label"`
			Mode  string `json:"mode"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		mode := steps.Keep
		if body.Mode == "remove" {
			mode = steps.Remove
		}
		return &steps.FilterTag{Label: body.Label, KeepOrRemove: mode}, nil

	case "reverse_complement":
		var body struct {
			Segment string `json:"segment"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return steps.NewReverseComplement(body.Segment), nil

	case "filter_duplicates":
		var body struct {
			FPR             float64  `json:"fpr"`
			InitialCapacity int      `json:"initial_capacity"`
			Seed            uint64   `json:"seed"`
			Segments        []string `json:"segments"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return steps.NewFilterDuplicates(body.FPR, body.InitialCapacity, body.Seed, body.Segments), nil

	case "rename":
		var body struct {
			Segment     string `json:"segment"`
			Search      string `json:"search"`
			Replacement string `json:"replacement"`
			FillQuality string `json:"fill_quality"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		fill := byteOrZero(body.FillQuality)
		if fill == 0 {
			fill = 'I'
		}
		return steps.NewRename(body.Segment, body.Search, body.Replacement, fill), nil

	case "demultiplex":
		var body struct {
			Segment  string            `json:"segment"`
			Barcodes map[string]string `json:"barcodes"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return steps.NewDemultiplex(body.Segment, body.Barcodes), nil

	case "downsample":
		var body struct {
			Rate float64 `json:"rate"`
			Seed int64   `json:"seed"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return steps.NewDownsample(body.Rate, body.Seed), nil

	case "report_count":
		var body struct {
			Label    string `json:"label"`
			ReportNo int    `json:"report_no"`
		}
		if err := json.Unmarshal(msg, &body); err != nil {
			return nil, err
		}
		return &steps.ReportCount{OutLabel: body.Label, ReportNo: body.ReportNo}, nil

	default:
		return nil, fmt.Errorf("unknown step kind %q", kind)
	}
}
