package pipeline

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

func makeTuple(blockNo, reads int) *readstore.BlocksCombined {
	var buf []byte
	entries := make([]readstore.Entry, reads)
	for i := 0; i < reads; i++ {
		name := fmt.Sprintf("b%d-r%d", blockNo, i)
		seq := "ACGT"
		nameStart := len(buf)
		buf = append(buf, name...)
		nameEnd := len(buf)
		seqStart := len(buf)
		buf = append(buf, seq...)
		seqEnd := len(buf)
		sepStart := len(buf)
		buf = append(buf, '+')
		sepEnd := len(buf)
		qualStart := len(buf)
		buf = append(buf, "IIII"...)
		qualEnd := len(buf)
		entries[i] = readstore.NewEntry(nameStart, nameEnd, seqStart, seqEnd, sepStart, sepEnd, qualStart, qualEnd)
	}
	return readstore.NewBlocksCombined(blockNo, []*readstore.Block{readstore.NewBlock(buf, entries)})
}

// sliceSource serves a fixed number of single-read block-tuples.
type sliceSource struct {
	total int
	next  int
}

func (s *sliceSource) Next() (*readstore.BlocksCombined, int, error) {
	if s.next >= s.total {
		return nil, 0, io.EOF
	}
	n := s.next
	s.next++
	return makeTuple(n, 1), n, nil
}

// collectSink records the block order it observes.
type collectSink struct {
	blockNos []int
	closed   bool
}

func (c *collectSink) Write(bc *readstore.BlocksCombined, blockNo int) error {
	c.blockNos = append(c.blockNos, blockNo)
	return nil
}

func (c *collectSink) Close() error {
	c.closed = true
	return nil
}

// jitterStep is a parallel step that sleeps a block-dependent amount so
// workers genuinely finish out of order, exercising the reorder buffer.
type jitterStep struct {
	step.Base
}

func (j *jitterStep) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	time.Sleep(time.Duration((blockNo%5)*300) * time.Microsecond)
	return bc, true, nil
}

// stopAtStep requests early termination once it has seen stopAt blocks.
type stopAtStep struct {
	step.Base
	stopAt int
	seen   int
}

func (s *stopAtStep) NeedsSerial() bool { return true }

func (s *stopAtStep) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	s.seen++
	return bc, s.seen < s.stopAt, nil
}

type panicStep struct {
	step.Base
}

func (panicStep) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	panic("boom")
}

type failStep struct {
	step.Base
}

func (failStep) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	return nil, false, fqerrors.New("synthetic failure")
}

// reportStep finalizes with a fixed report; tolerant controls whether it
// still finalizes after a failed run.
type reportStep struct {
	step.Base
	tolerant bool
}

func (r *reportStep) TransmitsPrematureTermination() bool { return false }
func (r *reportStep) ToleratesCancellation() bool         { return r.tolerant }

func (r *reportStep) Apply(bc *readstore.BlocksCombined, info *step.InputInfo, blockNo int, demux step.DemultiplexInfo) (*readstore.BlocksCombined, bool, error) {
	return bc, true, nil
}

func (r *reportStep) Finalize(demux step.DemultiplexInfo) (*step.ReportResult, error) {
	return &step.ReportResult{ReportNo: 1, Contents: "done"}, nil
}

var testInfo = &step.InputInfo{SegmentNames: []string{"read1"}}

// Block order at the sink matches input order for any worker count, even
// with a parallel stage whose workers finish out of order.
func TestRunPreservesBlockOrderAcrossWorkerCounts(t *testing.T) {
	const total = 40
	for _, threads := range []int{1, 2, 8} {
		source := &sliceSource{total: total}
		sink := &collectSink{}
		steps := []step.Step{&jitterStep{}, &jitterStep{}}
		_, err := Run(steps, testInfo, nil, source, sink, Options{ThreadCount: threads, QueueMultiplier: 2})
		require.NoError(t, err, "threads=%d", threads)
		require.True(t, sink.closed)

		want := make([]int, total)
		for i := range want {
			want[i] = i
		}
		assert.Equal(t, want, sink.blockNos, "threads=%d", threads)
	}
}

func TestRunStopsPullingAfterEarlyTermination(t *testing.T) {
	const total = 100000
	source := &sliceSource{total: total}
	sink := &collectSink{}
	steps := []step.Step{&stopAtStep{stopAt: 4}}

	_, err := Run(steps, testInfo, nil, source, sink, Options{ThreadCount: 4, QueueMultiplier: 2})
	require.NoError(t, err)

	// In-flight blocks are still delivered in order, but the source must
	// have stopped far short of exhaustion.
	require.GreaterOrEqual(t, len(sink.blockNos), 4)
	assert.Less(t, source.next, total)
	for i, n := range sink.blockNos {
		assert.Equal(t, i, n)
	}
}

func TestRunConvertsPanicToWorkerPanicked(t *testing.T) {
	source := &sliceSource{total: 3}
	sink := &collectSink{}
	_, err := Run([]step.Step{panicStep{}}, testInfo, nil, source, sink, Options{ThreadCount: 2, QueueMultiplier: 2})
	require.Error(t, err)
	assert.True(t, fqerrors.Is(fqerrors.WorkerPanicked, err))
}

func TestRunFinalizeAfterFailureHonorsTolerance(t *testing.T) {
	source := &sliceSource{total: 3}
	sink := &collectSink{}

	tolerant := &reportStep{tolerant: true}
	intolerant := &reportStep{tolerant: false}
	steps := []step.Step{tolerant, intolerant, failStep{}}

	reports, err := Run(steps, testInfo, nil, source, sink, Options{ThreadCount: 1, QueueMultiplier: 1})
	require.Error(t, err)
	// Only the cancellation-tolerant step's report survives the failure.
	require.Len(t, reports, 1)
	assert.Equal(t, "done", reports[0].Contents)
}

func TestRunNoStepsPassesThrough(t *testing.T) {
	source := &sliceSource{total: 5}
	sink := &collectSink{}
	reports, err := Run(nil, testInfo, nil, source, sink, Options{ThreadCount: 2, QueueMultiplier: 2})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sink.blockNos)
}
