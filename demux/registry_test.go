package demux

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPopulateAndLookup(t *testing.T) {
	r := NewRegistry()
	r.Populate(map[string]uint32{"s1": 1, "s2": 2})

	tag, ok := r.Lookup([]byte("s1"))
	require.True(t, ok)
	assert.Equal(t, uint32(1), tag)

	_, ok = r.Lookup([]byte("missing"))
	assert.False(t, ok)
}

func TestRegistryTagsSortedExcludingDefault(t *testing.T) {
	r := NewRegistry()
	r.Populate(map[string]uint32{"c": 3, "a": 1, "b": 2})
	assert.Equal(t, []uint32{1, 2, 3}, r.Tags())
	assert.Equal(t, 3, r.TagCount())
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	r.Populate(map[string]uint32{"sampleA": 1})
	assert.Equal(t, "sampleA", r.Name(1))
	assert.Equal(t, "no-barcode", r.Name(0))
	assert.Equal(t, "no-barcode", r.Name(99))
}

func TestEmptyRegistryHasNoTags(t *testing.T) {
	r := NewRegistry()
	assert.Empty(t, r.Tags())
	assert.Equal(t, 0, r.TagCount())
}
