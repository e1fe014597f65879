package pipeline

import (
	"io"

	"github.com/grailbio/base/log"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// Source is what feeds the Pipeline Runtime block-tuples; package input's
// Assembler satisfies it without pipeline needing to import input (which
// would otherwise create input -> pipeline -> ... -> input cycles once
// engine wires both together).
type Source interface {
	Next() (*readstore.BlocksCombined, int, error)
}

// Sink receives the fully-processed block-tuples in block-index order,
// the way package output's writers do.
type Sink interface {
	Write(bc *readstore.BlocksCombined, blockNo int) error
	Close() error
}

// Options bundles the runtime's sizing knobs (spec.md §6 "options").
type Options struct {
	ThreadCount     int
	QueueMultiplier int
}

func (o Options) queueBound() int {
	n := o.ThreadCount * o.QueueMultiplier
	if n < 1 {
		n = 1
	}
	return n
}

// Run drives source's blocks through steps in order and into sink,
// returning the first error encountered (input, step, or output) and the
// collected finalize reports in plan order. It implements spec.md §4.3 in
// full: backpressure via bounded channels, a reordering buffer after every
// Parallel stage, early termination via Signal.RequestStop, and failure
// propagation via Signal.Fail.
func Run(steps []step.Step, info *step.InputInfo, demux step.DemultiplexInfo, source Source, sink Sink, opts Options) ([]*step.ReportResult, error) {
	sig := NewSignal()
	queueBound := opts.queueBound()
	threadCount := opts.ThreadCount
	if threadCount < 1 {
		threadCount = 1
	}

	log.Debug.Printf("starting pipeline: %d steps, %d threads per stage, queue bound %d", len(steps), threadCount, queueBound)

	head := make(chan workItem, queueBound)
	go pump(source, head, sig)

	stageOut := (<-chan workItem)(head)
	var doneChans []<-chan struct{}
	for i, st := range steps {
		log.Debug.Printf("stage %d: creating workers", i)
		var done <-chan struct{}
		stageOut, done = runStage(st, stageOut, queueBound, threadCount, info, demux, sig)
		doneChans = append(doneChans, done)
	}

	consumeErr := consume(stageOut, sink, sig)

	for _, d := range doneChans {
		<-d
	}

	reports, finalizeErr := finalizeAll(steps, demux, sig.Err() != nil)

	if err := sig.Err(); err != nil {
		return reports, err
	}
	if consumeErr != nil {
		return reports, consumeErr
	}
	return reports, finalizeErr
}

// pump is the Input Stage's driving goroutine: it pulls from source until
// EOF, a fatal error, or an early-termination request, tagging each
// block-tuple with its index before handing it to the first stage.
func pump(source Source, out chan<- workItem, sig *Signal) {
	defer close(out)
	for {
		if sig.Done() {
			return
		}
		bc, blockNo, err := source.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			log.Error.Printf("input stage failed reading block: %v", err)
			sig.Fail(err)
			return
		}
		out <- workItem{bc: bc, blockNo: blockNo}
	}
}

// consume is the Output Stage's driving loop: it writes every block-tuple
// that survives the step chain, in order (the last stage's reorder buffer
// guarantees this), and stops writing (while still draining) once sig
// reports a failure.
func consume(in <-chan workItem, sink Sink, sig *Signal) error {
	op := fqerrors.Op("pipeline.consume")
	var writeErr error
	for item := range in {
		if sig.Err() != nil || writeErr != nil {
			continue
		}
		if err := sink.Write(item.bc, item.blockNo); err != nil {
			writeErr = fqerrors.E(op, fqerrors.OutputWrite, err)
			log.Error.Printf("output stage failed writing block %d: %v", item.blockNo, writeErr)
			sig.Fail(writeErr)
		}
	}
	if err := sink.Close(); err != nil && writeErr == nil {
		writeErr = fqerrors.E(op, fqerrors.OutputWrite, err)
	}
	return writeErr
}

// finalizeAll calls Finalize on every step in plan order (spec.md §4.4)
// and collects the results that opted into reporting; the first error is
// remembered but does not stop later steps from finalizing. After a fatal
// error, only steps that tolerate cancellation still finalize (spec.md §5
// "Cancellation").
func finalizeAll(steps []step.Step, demux step.DemultiplexInfo, cancelled bool) ([]*step.ReportResult, error) {
	op := fqerrors.Op("pipeline.finalizeAll")
	var reports []*step.ReportResult
	var firstErr error
	for _, st := range steps {
		if cancelled && !st.ToleratesCancellation() {
			continue
		}
		res, err := st.Finalize(demux)
		if err != nil && firstErr == nil {
			firstErr = fqerrors.E(op, fqerrors.StepRuntime, err)
		}
		if res != nil {
			reports = append(reports, res)
		}
	}
	return reports, firstErr
}
