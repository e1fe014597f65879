package dupfilter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactFilterContainsOrInsert(t *testing.T) {
	f := New(0, 16, 1)

	assert.False(t, f.ContainsOrInsert([]byte("ACGT")))
	assert.True(t, f.Contains([]byte("ACGT")))
	assert.True(t, f.ContainsOrInsert([]byte("ACGT")))
	assert.False(t, f.Contains([]byte("TTTT")))
}

func TestExactFilterIsDeterministicAcrossRuns(t *testing.T) {
	inputs := [][]byte{[]byte("AAA"), []byte("CCC"), []byte("AAA"), []byte("GGG")}

	run := func() []bool {
		f := New(0, 4, 7)
		var seen []bool
		for _, in := range inputs {
			seen = append(seen, f.ContainsOrInsert(in))
		}
		return seen
	}

	first := run()
	second := run()
	assert.Equal(t, first, second)
	assert.Equal(t, []bool{false, false, true, false}, first)
}

func TestCuckooFilterContainsOrInsert(t *testing.T) {
	f := New(0.01, 64, 42)

	assert.False(t, f.ContainsOrInsert([]byte("ACGTACGTACGT")))
	assert.True(t, f.Contains([]byte("ACGTACGTACGT")))
	assert.True(t, f.ContainsOrInsert([]byte("ACGTACGTACGT")))
}

func TestCuckooFilterDeterministicForFixedSeedAndOrder(t *testing.T) {
	fragments := make([][]byte, 200)
	for i := range fragments {
		fragments[i] = []byte(fmt.Sprintf("FRAGMENT-%d", i%50))
	}

	run := func() []bool {
		f := New(0.01, 32, 99)
		out := make([]bool, len(fragments))
		for i, frag := range fragments {
			out[i] = f.ContainsOrInsert(frag)
		}
		return out
	}

	require.Equal(t, run(), run())
}

// Members displaced by an exhausted eviction chain land in the stash and
// remain visible to contains; a membership filter must never forget an
// element it previously accepted.
func TestCuckooFilterStashKeepsDisplacedMembers(t *testing.T) {
	cf := newCuckooFilter(2, 7)
	var items [][]byte
	for i := 0; len(cf.stash) == 0 && i < 10000; i++ {
		item := []byte(fmt.Sprintf("member-%d", i))
		items = append(items, item)
		cf.insert(item)
	}
	require.NotEmpty(t, cf.stash)
	for _, item := range items {
		assert.True(t, cf.contains(item), "lost member %s", item)
	}
}

func TestCuckooFilterScalesUpWhenGenerationFills(t *testing.T) {
	f := New(0.01, 8, 3)
	for i := 0; i < 500; i++ {
		f.Insert([]byte(fmt.Sprintf("item-%d", i)))
	}
	assert.True(t, len(f.generations) > 1)
	for i := 0; i < 500; i++ {
		assert.True(t, f.Contains([]byte(fmt.Sprintf("item-%d", i))))
	}
}

func TestFragmentJoinsWithSeparator(t *testing.T) {
	got := Fragment([][]byte{[]byte("ACGT"), []byte("TTTT")})
	want := append(append([]byte("ACGT"), FragmentSeparator), []byte("TTTT")...)
	assert.Equal(t, want, got)
}

func TestFragmentSingleSegment(t *testing.T) {
	got := Fragment([][]byte{[]byte("ACGT")})
	assert.Equal(t, []byte("ACGT"), got)
}
