package biosimd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReverseComp8Inplace(t *testing.T) {
	cases := []struct{ in, want string }{
		{"ACGT", "ACGT"},
		{"AAAA", "TTTT"},
		{"ACGTN", "NACGT"},
		{"", ""},
		{"A", "T"},
	}
	for _, c := range cases {
		b := []byte(c.in)
		ReverseComp8Inplace(b)
		assert.Equal(t, c.want, string(b), "input %q", c.in)
	}
}

func TestReverseComp8(t *testing.T) {
	src := []byte("ACGTAAA")
	dst := make([]byte, len(src))
	ReverseComp8(dst, src)
	assert.Equal(t, "TTTACGT", string(dst))
}

func TestReverseComp8Panics(t *testing.T) {
	assert.Panics(t, func() {
		ReverseComp8(make([]byte, 2), make([]byte, 3))
	})
}
