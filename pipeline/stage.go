package pipeline

import (
	"fmt"
	"sync"

	fqerrors "github.com/relion-bio/fqproc/errors"
	"github.com/relion-bio/fqproc/readstore"
	"github.com/relion-bio/fqproc/step"
)

// workItem is one block-tuple in flight, tagged with its block index so a
// reorder buffer can restore order after a Parallel stage.
type workItem struct {
	bc      *readstore.BlocksCombined
	blockNo int
}

// runStage drives one step's Apply over every item from in, honoring its
// NeedsSerial contract, and returns the (possibly reordered) output
// channel plus a channel that closes once the stage has fully shut down.
//
// Parallel steps (the default, spec.md §4.3) get workerCount goroutines
// pulling from in; their results land on an internal collector channel
// that a single reorder-buffer goroutine resequences by block index
// before forwarding, since concurrent workers may finish out of order.
// Serial steps get exactly one goroutine, which -- because in is already
// in block-index order -- needs no reordering on its own output.
func runStage(st step.Step, in <-chan workItem, queueBound, workerCount int, info *step.InputInfo, demux step.DemultiplexInfo, sig *Signal) (<-chan workItem, <-chan struct{}) {
	out := make(chan workItem, queueBound)
	done := make(chan struct{})

	if st.NeedsSerial() {
		go func() {
			defer close(out)
			defer close(done)
			for item := range in {
				if sig.Err() != nil {
					continue
				}
				processOne(st, item, info, demux, sig, out)
			}
		}()
		return out, done
	}

	collector := make(chan workItem, queueBound)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for item := range in {
				if sig.Err() != nil {
					continue
				}
				processOne(st, item, info, demux, sig, collector)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(collector)
	}()

	go func() {
		defer close(out)
		defer close(done)
		reorder(collector, out)
	}()

	return out, done
}

func processOne(st step.Step, item workItem, info *step.InputInfo, demux step.DemultiplexInfo, sig *Signal, out chan<- workItem) {
	result, cont, err := applyStep(st, item, info, demux)
	if err != nil {
		sig.Fail(err)
		return
	}
	if !cont && st.TransmitsPrematureTermination() {
		sig.RequestStop()
	}
	out <- workItem{bc: result, blockNo: item.blockNo}
}

// applyStep converts a panic inside a step's Apply into a WorkerPanicked
// error (spec.md §7) rather than letting it take the whole process down
// with channels still holding blocks.
func applyStep(st step.Step, item workItem, info *step.InputInfo, demux step.DemultiplexInfo) (result *readstore.BlocksCombined, cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fqerrors.E(fqerrors.Op("pipeline.applyStep"), fqerrors.WorkerPanicked,
				fmt.Errorf("block %d: %v", item.blockNo, r))
		}
	}()
	return st.Apply(item.bc, info, item.blockNo, demux)
}

// reorder resequences items from in by ascending blockNo and forwards them
// to out in order. Block numbers are assigned by the Input Stage starting
// at 0 and are contiguous regardless of early termination, so the first
// expected index is always 0.
func reorder(in <-chan workItem, out chan<- workItem) {
	pending := make(map[int]workItem)
	next := 0
	for item := range in {
		pending[item.blockNo] = item
		for {
			ready, ok := pending[next]
			if !ok {
				break
			}
			out <- ready
			delete(pending, next)
			next++
		}
	}
}
