// Package engine wires package plan's resolved Plan into the Input Stage,
// Pipeline Runtime, and Output Stage, and is the single entry point the
// CLI (or any other caller) uses to run a pipeline end to end (spec.md §4
// "System overview", §6 "External interfaces").
package engine

import (
	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/demux"
	"github.com/relion-bio/fqproc/input"
	"github.com/relion-bio/fqproc/output"
	"github.com/relion-bio/fqproc/pipeline"
	"github.com/relion-bio/fqproc/plan"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Run validates p, opens its input and output stages, drives every block
// through p.Steps via the Pipeline Runtime, and returns the collected
// Finalize reports. On a fatal error it removes any partially written
// output unless p.Output.KeepPartial is set (spec.md §7 "Output
// finalization is best-effort").
func Run(p plan.Plan) ([]*step.ReportResult, error) {
	op := fqerrors.Op("engine.Run")

	segmentNames := make([]string, len(p.Input.Segments))
	for i, seg := range p.Input.Segments {
		segmentNames[i] = seg.SegmentName
	}
	// Every PlanInvalid check runs before any file is opened (spec.md §7).
	if err := validatePlan(p, segmentNames); err != nil {
		return nil, err
	}

	_, parsers, closers, err := buildParsers(p.Input, p.Options.InitialBufferSize)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	info := &step.InputInfo{SegmentNames: segmentNames}
	registry := demux.NewRegistry()

	for _, st := range p.Steps {
		barcodes, err := st.Init(info, p.Output.Prefix, registry)
		if err != nil {
			return nil, fqerrors.E(op, fqerrors.PlanInvalid, err)
		}
		if len(barcodes) > 0 {
			registry.Populate(barcodes)
		}
	}

	// Assembler-level closers are left nil: engine owns file-handle
	// cleanup itself via the closerFunc slice from buildParsers, since
	// those closers also cover the underlying parser for interleaved
	// groups that Assembler never sees directly.
	assembler := input.NewAssembler(segmentNames, parsers, nil, p.Options.TargetReadsPerBlock)

	var sink pipeline.Sink
	outStage, err := output.NewStage(p.Output, registry, segmentNames)
	if err != nil {
		return nil, err
	}
	if outStage == nil {
		sink = noopSink{}
	} else {
		sink = outStage
	}

	reports, runErr := pipeline.Run(p.Steps, info, registry, assembler, sink, pipeline.Options{
		ThreadCount:     p.Options.ThreadCount,
		QueueMultiplier: p.Options.QueueMultiplier,
	})

	if runErr != nil && outStage != nil {
		outStage.RemoveAll()
	}
	return reports, runErr
}

// noopSink discards every block-tuple; used when the plan declares no
// output sinks (spec.md §6 "a plan may declare zero output sinks, e.g.
// when only reports are wanted").
type noopSink struct{}

func (noopSink) Write(*readstore.BlocksCombined, int) error { return nil }
func (noopSink) Close() error                                { return nil }
