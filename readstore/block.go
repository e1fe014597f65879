// Package readstore implements the zero-copy read representation described
// in spec.md §3/§4.1: a Block is a raw byte buffer plus an ordered list of
// byte-range entries; a BlocksCombined aligns one Block per segment into a
// single block-tuple, carrying the per-block tag table and demultiplex tags
// alongside it.
package readstore

import "github.com/relion-bio/fqproc/biosimd"

// byteRange is a half-open [Start, End) range into a Block's buffer.
type byteRange struct {
	Start, End int
}

func (r byteRange) len() int { return r.End - r.Start }

// Entry locates one read's four fields within a Block's buffer. A read is
// never copied out of the block; mutation allocates a per-read replacement
// buffer only when a field's bytes change (see WrappedReadMut).
type Entry struct {
	Name      byteRange
	Sequence  byteRange
	Separator byteRange
	Quality   byteRange

	// replacement, when non-nil, overrides Buffer for this entry: all four
	// ranges above are then interpreted as offsets into replacement instead
	// of the Block's shared Buffer. This lets a single mutated read grow or
	// shrink without touching any other read's ranges.
	replacement []byte
}

// Block is a contiguous buffer holding the raw serialized bytes of many
// reads for one segment, plus their entries in order.
type Block struct {
	Buffer  []byte
	Entries []Entry
	Final   bool // true if this is the last block for its segment
}

// NewBlock wraps buf with the given entries.
func NewBlock(buf []byte, entries []Entry) *Block {
	return &Block{Buffer: buf, Entries: entries}
}

// NewEntry builds an Entry from byte offsets into whatever buffer it will be
// attached to. Parsers outside this package (input.*) use this instead of
// constructing byteRange directly, since byteRange's fields are exported but
// its type isn't: the indirection keeps every Entry's invariant
// (Sequence.len() == Quality.len()) checkable in one place if ever needed.
func NewEntry(nameStart, nameEnd, seqStart, seqEnd, sepStart, sepEnd, qualStart, qualEnd int) Entry {
	return Entry{
		Name:      byteRange{nameStart, nameEnd},
		Sequence:  byteRange{seqStart, seqEnd},
		Separator: byteRange{sepStart, sepEnd},
		Quality:   byteRange{qualStart, qualEnd},
	}
}

func (b *Block) bytes(r byteRange, entry *Entry) []byte {
	if entry.replacement != nil {
		return entry.replacement[r.Start:r.End]
	}
	return b.Buffer[r.Start:r.End]
}

// WrappedRead is a read-only view of one entry in a block.
type WrappedRead struct {
	block *Block
	entry *Entry
}

// Read returns a read-only view of the i-th entry in b.
func (b *Block) Read(i int) WrappedRead {
	return WrappedRead{block: b, entry: &b.Entries[i]}
}

func (w WrappedRead) Name() []byte     { return w.block.bytes(w.entry.Name, w.entry) }
func (w WrappedRead) Sequence() []byte { return w.block.bytes(w.entry.Sequence, w.entry) }
func (w WrappedRead) Quality() []byte  { return w.block.bytes(w.entry.Quality, w.entry) }
func (w WrappedRead) Len() int         { return w.entry.Sequence.len() }

// WrappedReadMut is a mutable view of one entry in a block. All mutating
// methods replace the backing bytes for this read only; other reads in the
// block are untouched (spec.md §9, "Zero-copy reads").
type WrappedReadMut struct {
	block *Block
	entry *Entry
}

// MutRead returns a mutable view of the i-th entry in b.
func (b *Block) MutRead(i int) WrappedReadMut {
	return WrappedReadMut{block: b, entry: &b.Entries[i]}
}

func (w WrappedReadMut) Name() []byte     { return w.block.bytes(w.entry.Name, w.entry) }
func (w WrappedReadMut) Sequence() []byte { return w.block.bytes(w.entry.Sequence, w.entry) }
func (w WrappedReadMut) Quality() []byte  { return w.block.bytes(w.entry.Quality, w.entry) }
func (w WrappedReadMut) Len() int         { return w.entry.Sequence.len() }

// materialize ensures entry has its own replacement buffer containing
// exactly its current name/sequence/separator/quality bytes, laid out
// contiguously, and rewrites entry's ranges to point into it. Idempotent.
func (w WrappedReadMut) materialize() {
	e := w.entry
	if e.replacement != nil {
		return
	}
	name := w.block.Buffer[e.Name.Start:e.Name.End]
	seq := w.block.Buffer[e.Sequence.Start:e.Sequence.End]
	sep := w.block.Buffer[e.Separator.Start:e.Separator.End]
	qual := w.block.Buffer[e.Quality.Start:e.Quality.End]

	buf := make([]byte, 0, len(name)+len(seq)+len(sep)+len(qual))
	buf = append(buf, name...)
	nameEnd := len(buf)
	buf = append(buf, seq...)
	seqEnd := len(buf)
	buf = append(buf, sep...)
	sepEnd := len(buf)
	buf = append(buf, qual...)
	qualEnd := len(buf)

	e.replacement = buf
	e.Name = byteRange{0, nameEnd}
	e.Sequence = byteRange{nameEnd, seqEnd}
	e.Separator = byteRange{seqEnd, sepEnd}
	e.Quality = byteRange{sepEnd, qualEnd}
}

// ReplaceName overwrites the read's name.
func (w WrappedReadMut) ReplaceName(name []byte) {
	w.replaceField(&w.entry.Name, name, func(e *Entry) *byteRange { return &e.Name })
}

// ReplaceSequenceAndQuality overwrites sequence and quality together; both
// must have the same length (the per-entry invariant in spec.md §3).
func (w WrappedReadMut) ReplaceSequenceAndQuality(seq, qual []byte) {
	if len(seq) != len(qual) {
		panic("readstore: ReplaceSequenceAndQuality requires len(seq) == len(qual)")
	}
	w.materialize()
	e := w.entry
	name := w.block.bytes(e.Name, e)
	sep := w.block.bytes(e.Separator, e)
	buf := make([]byte, 0, len(name)+len(seq)+len(sep)+len(qual))
	buf = append(buf, name...)
	nameEnd := len(buf)
	buf = append(buf, seq...)
	seqEnd := len(buf)
	buf = append(buf, sep...)
	sepEnd := len(buf)
	buf = append(buf, qual...)
	qualEnd := len(buf)
	e.replacement = buf
	e.Name = byteRange{0, nameEnd}
	e.Sequence = byteRange{nameEnd, seqEnd}
	e.Separator = byteRange{seqEnd, sepEnd}
	e.Quality = byteRange{sepEnd, qualEnd}
}

// replaceField rebuilds the whole replacement buffer with one field's bytes
// swapped in, used for fields whose length change doesn't require
// re-deriving other fields (name, separator).
func (w WrappedReadMut) replaceField(_ *byteRange, newBytes []byte, sel func(*Entry) *byteRange) {
	w.materialize()
	e := w.entry
	name := w.block.bytes(e.Name, e)
	seq := w.block.bytes(e.Sequence, e)
	sep := w.block.bytes(e.Separator, e)
	qual := w.block.bytes(e.Quality, e)

	fields := [][]byte{name, seq, sep, qual}
	ranges := []*byteRange{&e.Name, &e.Sequence, &e.Separator, &e.Quality}
	target := sel(e)
	for i, r := range ranges {
		if r == target {
			fields[i] = newBytes
		}
	}
	buf := make([]byte, 0, len(fields[0])+len(fields[1])+len(fields[2])+len(fields[3]))
	var offs [4]int
	for i, f := range fields {
		buf = append(buf, f...)
		offs[i] = len(buf)
	}
	e.replacement = buf
	e.Name = byteRange{0, offs[0]}
	e.Sequence = byteRange{offs[0], offs[1]}
	e.Separator = byteRange{offs[1], offs[2]}
	e.Quality = byteRange{offs[2], offs[3]}
}

// TrimStart removes the first n bases from sequence and quality.
func (w WrappedReadMut) TrimStart(n int) {
	if n <= 0 {
		return
	}
	seq, qual := w.Sequence(), w.Quality()
	if n > len(seq) {
		n = len(seq)
	}
	w.ReplaceSequenceAndQuality(append([]byte(nil), seq[n:]...), append([]byte(nil), qual[n:]...))
}

// TrimEnd removes the last n bases from sequence and quality.
func (w WrappedReadMut) TrimEnd(n int) {
	if n <= 0 {
		return
	}
	seq, qual := w.Sequence(), w.Quality()
	if n > len(seq) {
		n = len(seq)
	}
	end := len(seq) - n
	w.ReplaceSequenceAndQuality(append([]byte(nil), seq[:end]...), append([]byte(nil), qual[:end]...))
}

// ReverseComplement reverse-complements the sequence in place and reverses
// the quality string to match, using the teacher's table-based biosimd
// routine.
func (w WrappedReadMut) ReverseComplement() {
	seq := append([]byte(nil), w.Sequence()...)
	qual := append([]byte(nil), w.Quality()...)
	biosimd.ReverseComp8Inplace(seq)
	reverseInPlace(qual)
	w.ReplaceSequenceAndQuality(seq, qual)
}

func reverseInPlace(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Prefix prepends seq/qual to the read's sequence and quality.
func (w WrappedReadMut) Prefix(seq, qual []byte) {
	newSeq := append(append([]byte(nil), seq...), w.Sequence()...)
	newQual := append(append([]byte(nil), qual...), w.Quality()...)
	w.ReplaceSequenceAndQuality(newSeq, newQual)
}

// Postfix appends seq/qual to the read's sequence and quality.
func (w WrappedReadMut) Postfix(seq, qual []byte) {
	newSeq := append(append([]byte(nil), w.Sequence()...), seq...)
	newQual := append(append([]byte(nil), w.Quality()...), qual...)
	w.ReplaceSequenceAndQuality(newSeq, newQual)
}

// ApplyInPlace visits every read in the block, calling fn with a mutable
// view of each.
func (b *Block) ApplyInPlace(fn func(WrappedReadMut)) {
	for i := range b.Entries {
		fn(b.MutRead(i))
	}
}

// Len returns the number of entries (molecules) in the block.
func (b *Block) Len() int { return len(b.Entries) }
