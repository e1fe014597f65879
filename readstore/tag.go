package readstore

// TagValueType is the declared type of a tag, resolved once in the plan and
// checked against every step that produces or consumes it. See spec.md §3.
type TagValueType int

const (
	TagString TagValueType = iota
	TagNumeric
	TagBool
	TagLocation
)

func (t TagValueType) String() string {
	switch t {
	case TagString:
		return "String"
	case TagNumeric:
		return "Numeric"
	case TagBool:
		return "Bool"
	case TagLocation:
		return "Location"
	default:
		return "Unknown"
	}
}

// Region references a substring of one segment's sequence for one molecule.
type Region struct {
	SegmentIndex int
	Start        int
	Len          int
}

// Hit is one located match within a molecule's Location tag value.
type Hit struct {
	// HasLocation is false when the hit carries only a sequence (e.g. a
	// match found outside any single segment's coordinate space).
	HasLocation bool
	Location    Region
	Sequence    []byte
}

// TagValue is a sum type over the four kinds a tag can hold. Exactly one of
// the typed fields is meaningful, selected by Type. Missing is not the zero
// value: the zero TagValue is a TagString with a nil Str, and Missing is its
// own marker (see MissingValue) so "unset" is unambiguous from "empty
// string".
type TagValue struct {
	Missing  bool
	Type     TagValueType
	Str      []byte
	Num      float64
	Bool     bool
	Location []Hit
}

// MissingValue returns the Missing tag value.
func MissingValue() TagValue { return TagValue{Missing: true} }

// StringValue wraps a byte-string tag value.
func StringValue(b []byte) TagValue { return TagValue{Type: TagString, Str: b} }

// NumericValue wraps a numeric tag value.
func NumericValue(f float64) TagValue { return TagValue{Type: TagNumeric, Num: f} }

// BoolValue wraps a boolean tag value.
func BoolValue(b bool) TagValue { return TagValue{Type: TagBool, Bool: b} }

// LocationValue wraps an ordered list of hits.
func LocationValue(hits []Hit) TagValue { return TagValue{Type: TagLocation, Location: hits} }

// TagTable is a structure-of-arrays mapping tag name to one value per
// molecule in the owning block-tuple, as described in spec.md §9 ("Tag
// tables as structure-of-arrays"). Every vector is kept the same length as
// the block-tuple's molecule count.
type TagTable struct {
	columns map[string][]TagValue
}

// NewTagTable returns an empty tag table.
func NewTagTable() *TagTable {
	return &TagTable{columns: make(map[string][]TagValue)}
}

// EnsureColumn creates (if absent) a column of n Missing values for name and
// returns it for in-place population by an "extract" step.
func (t *TagTable) EnsureColumn(name string, n int) []TagValue {
	col, ok := t.columns[name]
	if !ok {
		col = make([]TagValue, n)
		for i := range col {
			col[i] = MissingValue()
		}
		t.columns[name] = col
	}
	return col
}

// SetColumn installs col as the tag's full value vector, replacing any
// previous column with the same name.
func (t *TagTable) SetColumn(name string, col []TagValue) {
	t.columns[name] = col
}

// Column returns the tag's value vector and whether it is present.
func (t *TagTable) Column(name string) ([]TagValue, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Remove deletes a tag column entirely ("forget" steps, spec.md §3).
func (t *TagTable) Remove(name string) {
	delete(t.columns, name)
}

// Names returns the tag names currently present, in no particular order.
func (t *TagTable) Names() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	return names
}

// Len returns the molecule count implied by any one column, or 0 if empty.
func (t *TagTable) Len() int {
	for _, col := range t.columns {
		return len(col)
	}
	return 0
}

// clone returns a deep-enough copy: columns are independent slices, but
// TagValue contents (byte slices, Hit slices) are shared -- the caller must
// not mutate in place if this table and the original are both live.
func (t *TagTable) clone() *TagTable {
	out := NewTagTable()
	for name, col := range t.columns {
		dup := make([]TagValue, len(col))
		copy(dup, col)
		out.columns[name] = dup
	}
	return out
}

// compact rewrites every column to keep only the indices where keep[i] is
// true, preserving order. Used by apply_bool_filter (spec.md §4.1).
func (t *TagTable) compact(keep []bool) {
	for name, col := range t.columns {
		out := col[:0:0]
		for i, v := range col {
			if keep[i] {
				out = append(out, v)
			}
		}
		t.columns[name] = out
	}
}
