package bunlock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveStringInline(t *testing.T) {
	h := inlineHandle("hi")
	s, err := resolveString(stringHandle(h), nil)
	assert.NoError(t, err)
	assert.Equal(t, "hi", s)
}

func TestResolveStringInlineEmpty(t *testing.T) {
	var h stringHandle
	s, err := resolveString(h, nil)
	assert.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestResolveStringHeap(t *testing.T) {
	arena := []byte("hello-world")
	h := heapHandle(6, 5)
	s, err := resolveString(stringHandle(h), arena)
	assert.NoError(t, err)
	assert.Equal(t, "world", s)
}

func TestResolveStringHeapOutOfRange(t *testing.T) {
	arena := []byte("short")
	h := heapHandle(0, 100)
	_, err := resolveString(stringHandle(h), arena)
	assert.ErrorIs(t, err, ErrBadStringPointer)
}

func TestResolveStringInvalidUTF8(t *testing.T) {
	arena := []byte{0xff, 0xfe, 0xfd}
	h := heapHandle(0, 3)
	_, err := resolveString(stringHandle(h), arena)
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestStringHandleTopBitSelectsHeapMode(t *testing.T) {
	h := heapHandle(1, 2)
	assert.True(t, stringHandle(h).isHeap())

	inline := inlineHandle("abc")
	assert.False(t, stringHandle(inline).isHeap())
}
