// Package step defines the uniform contract every pipeline step implements
// (spec.md §4.4) plus the small read-only types the Pipeline Runtime passes
// into it. It deliberately has no dependency on package plan or package
// pipeline: a step only ever sees per-run info, not the whole resolved
// plan, which keeps the dependency graph acyclic (plan and pipeline both
// import step, not the other way around).
package step

import "github.com/relion-bio/fqproc/readstore"

// InputInfo is the read-only per-run information available to every step.
// It is built once by the Input Stage and shared by reference.
type InputInfo struct {
	// SegmentNames lists the symbolic segment names in the order their
	// index was assigned (spec.md §3, "Read segment").
	SegmentNames []string
}

// SegmentIndex resolves a symbolic segment name to its integer index, or
// -1, false if no such segment exists.
func (i *InputInfo) SegmentIndex(name string) (int, bool) {
	for idx, n := range i.SegmentNames {
		if n == name {
			return idx, true
		}
	}
	return -1, false
}

// DemultiplexInfo is the read-only view of the demultiplex registry a step
// sees during Apply/Finalize. It is implemented by package demux.
type DemultiplexInfo interface {
	// Lookup returns the tag registered under label, or (0, false) if none
	// is registered (0 is always the "no barcode" default, spec.md §3).
	Lookup(label []byte) (tag uint32, ok bool)
	// TagCount returns the number of distinct non-zero tags registered.
	TagCount() int
	// Tags returns the registered tags in ascending order, excluding 0.
	Tags() []uint32
	// Name returns the human-readable label for a tag (the sample label the
	// barcode table declared, or "no-barcode" for tag 0), used to build
	// output filenames.
	Name(tag uint32) string
}

// DemultiplexBarcodes is what a demultiplexing step's Init returns to
// populate the registry: output label to tag. Barcodes mapping to the same
// label share a tag.
type DemultiplexBarcodes map[string]uint32

// TagUse declares one tag a step consumes, and which declared types it
// will accept.
type TagUse struct {
	Name          string
	AcceptedTypes []readstore.TagValueType
}

// TagDeclaration is the (name, type) pair a step produces, if any.
type TagDeclaration struct {
	Name string
	Type readstore.TagValueType
}

// ReportResult is what Finalize optionally returns: a value to be merged
// into the final report document, keyed by ReportNo (spec.md §4.4).
type ReportResult struct {
	ReportNo int
	Contents interface{}
}

// Step is the uniform interface every pipeline step implements (spec.md
// §4.3 "Step lifecycle", §4.4 "Step contract").
type Step interface {
	// --- capability declarations, consulted before Init ---

	// NeedsSerial reports whether Apply must be called in block-index
	// order, one at a time for this step.
	NeedsSerial() bool
	// TransmitsPrematureTermination reports whether this step's Apply may
	// return (block, false) to trigger early shutdown. Reports and other
	// observational steps return false here even if they internally know
	// they've seen everything they need.
	TransmitsPrematureTermination() bool
	// MustSeeAllTags reports whether this step requires the full tag table
	// to have been built before it runs. Neither the Pipeline Runtime nor
	// the engine's plan validation reads this declaration.
	MustSeeAllTags() bool
	// RemovesAllTags reports whether this step invalidates the entire tag
	// table (rare; e.g. a step that reconstructs molecules from scratch).
	RemovesAllTags() bool

	// --- tag declarations, validated before Init ---

	DeclaresTagType() (TagDeclaration, bool)
	RemovesTag() (string, bool)
	UsesTags() []TagUse

	// --- segment declarations ---

	// SegmentRefs returns the symbolic segment names this step depends on.
	SegmentRefs() []string

	// --- lifecycle ---

	// ValidateSegments resolves this step's symbolic segment references
	// using resolve, returning a PlanInvalid-flavored error for any name
	// that doesn't exist.
	ValidateSegments(resolve func(name string) (int, bool)) error
	// ValidateOthers performs cross-step checks, e.g. verifying that every
	// tag this step consumes was declared by some earlier step in others.
	ValidateOthers(others []Step, index int) error
	// Init opens files, allocates filters, and optionally registers
	// demultiplex barcodes.
	Init(info *InputInfo, outputPrefix string, demux DemultiplexInfo) (DemultiplexBarcodes, error)
	// Apply performs the per-block operation, returning the (possibly
	// mutated) block-tuple and whether the pipeline should keep pulling
	// more input.
	Apply(block *readstore.BlocksCombined, info *InputInfo, blockNo int, demux DemultiplexInfo) (*readstore.BlocksCombined, bool, error)
	// Finalize runs once, in plan order, after all blocks have flowed
	// through (or after cancellation, for steps that opt in).
	Finalize(demux DemultiplexInfo) (*ReportResult, error)
	// ToleratesCancellation reports whether Finalize should still run after
	// a cancellation (reports do; most steps don't need to).
	ToleratesCancellation() bool
}

// Base embeds into concrete step types to provide sensible zero-value
// defaults for the less commonly overridden contract methods, the way the
// teacher's smaller BagProcessor-style types lean on embedding rather than
// repeating boilerplate (markduplicates.BagProcessorFactory callers do the
// same). Concrete steps embed Base and override only what they need.
type Base struct{}

func (Base) NeedsSerial() bool                               { return false }
func (Base) TransmitsPrematureTermination() bool             { return true }
func (Base) MustSeeAllTags() bool                            { return false }
func (Base) RemovesAllTags() bool                            { return false }
func (Base) DeclaresTagType() (TagDeclaration, bool)         { return TagDeclaration{}, false }
func (Base) RemovesTag() (string, bool)                      { return "", false }
func (Base) UsesTags() []TagUse                              { return nil }
func (Base) SegmentRefs() []string                           { return nil }
func (Base) ValidateSegments(func(string) (int, bool)) error { return nil }
func (Base) ValidateOthers([]Step, int) error                { return nil }
func (Base) Init(*InputInfo, string, DemultiplexInfo) (DemultiplexBarcodes, error) {
	return nil, nil
}
func (Base) Finalize(DemultiplexInfo) (*ReportResult, error) { return nil, nil }
func (Base) ToleratesCancellation() bool                     { return false }
