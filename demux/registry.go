// Package demux implements the demultiplex service described in spec.md
// §4.4: a label->tag registry populated once during a step's Init and
// read thereafter by later steps and the Output Stage. The sharded,
// hash-bucketed lookup mirrors the teacher's concurrentMap
// (encoding/bamprovider/concurrentmap.go), which shards a
// sequence-name->record map the same way to keep per-shard mutexes small
// and contention low; here the table is read-mostly after Init, so the
// sharding mainly keeps the one-time population cheap when several workers
// populate it concurrently in the rare case of a multi-file barcode list.
package demux

import (
	"sort"
	"sync"

	"blainsmith.com/go/seahash"
)

const numShards = 64

// noBarcodeTag is the reserved "no-barcode / default" tag (spec.md §3).
const noBarcodeTag uint32 = 0

type shard struct {
	mu   sync.RWMutex
	tags map[string]uint32
}

// Registry is the demultiplex label->tag mapping. The zero value is not
// usable; use NewRegistry.
type Registry struct {
	shards [numShards]shard
	names  sync.Map // tag(uint32) -> name(string), for Name()
}

// NewRegistry returns an empty registry (only tag 0, "no-barcode", is
// implicitly defined).
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].tags = make(map[string]uint32)
	}
	r.names.Store(noBarcodeTag, "no-barcode")
	return r
}

func (r *Registry) shardFor(label string) *shard {
	h := seahash.Sum64([]byte(label))
	return &r.shards[h%uint64(numShards)]
}

// Populate registers every label->tag pair from labels, recording each
// tag's display name as the label itself. Called once, during a
// demultiplexing step's Init.
func (r *Registry) Populate(labels map[string]uint32) {
	for label, tag := range labels {
		s := r.shardFor(label)
		s.mu.Lock()
		s.tags[label] = tag
		s.mu.Unlock()
		r.names.Store(tag, label)
	}
}

// Lookup implements step.DemultiplexInfo.
func (r *Registry) Lookup(label []byte) (uint32, bool) {
	s := r.shardFor(string(label))
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.tags[string(label)]
	return tag, ok
}

// TagCount implements step.DemultiplexInfo.
func (r *Registry) TagCount() int {
	return len(r.Tags())
}

// Tags implements step.DemultiplexInfo: the distinct registered tags,
// excluding the implicit 0, in ascending order.
func (r *Registry) Tags() []uint32 {
	seen := map[uint32]bool{}
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, tag := range s.tags {
			seen[tag] = true
		}
		s.mu.RUnlock()
	}
	out := make([]uint32, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name implements step.DemultiplexInfo.
func (r *Registry) Name(tag uint32) string {
	if v, ok := r.names.Load(tag); ok {
		return v.(string)
	}
	return "no-barcode"
}
