package crush

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDigester(t *testing.T) *Digester {
	t.Helper()
	d, err := NewDigester([]byte("test-key"))
	require.NoError(t, err)
	return d
}

func TestDigest_Deterministic(t *testing.T) {
	d := newTestDigester(t)
	a := d.Digest("a@y.edu", "b@y.edu")
	assert.Equal(t, a, d.Digest("a@y.edu", "b@y.edu"))
	assert.Len(t, a.String(), 64)
}

func TestDigest_Asymmetric(t *testing.T) {
	d := newTestDigester(t)
	for i := 0; i < 50; i++ {
		a := fmt.Sprintf("p%d@y.edu", i)
		b := fmt.Sprintf("q%d@y.edu", i)
		assert.NotEqual(t, d.Digest(a, b), d.Digest(b, a), "pair %d", i)
	}
}

func TestDigest_NoBoundaryCollision(t *testing.T) {
	d := newTestDigester(t)
	assert.NotEqual(t, d.Digest("ab", "c"), d.Digest("a", "bc"))
}

func TestDigest_KeyMatters(t *testing.T) {
	d1 := newTestDigester(t)
	d2, err := NewDigester([]byte("other-key"))
	require.NoError(t, err)
	assert.NotEqual(t, d1.Digest("a", "b"), d2.Digest("a", "b"))
}

func TestNewDigester_KeyBounds(t *testing.T) {
	_, err := NewDigester(nil)
	assert.Error(t, err)

	_, err = NewDigester(make([]byte, 65))
	assert.Error(t, err)

	_, err = NewDigester(make([]byte, 64))
	assert.NoError(t, err)
}
