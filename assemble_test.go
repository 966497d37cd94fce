package bunlock

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLockfileWithDependencyOverflow builds a single root package whose
// dependency slice claims one entry while the Dependencies buffer is
// empty, exercising the §4.7 slice-overflow recovery path.
func buildLockfileWithDependencyOverflow() []byte {
	b := &builder{}
	b.raw(magic)
	b.u32(1)
	b.zeros(32)
	totalSizeOffset := b.pos()
	b.u64(0)

	tableBegin := b.pos() + 40
	tableEnd := tableBegin + columnRowSize
	b.u64(1)
	b.u64(8)
	b.u64(minFieldCount)
	b.u64(tableBegin)
	b.u64(tableEnd)

	b.stringHandle(inlineHandle("root"))
	b.u64(0)
	b.resolutionRoot()
	b.externalSliceField(0, 1) // DepSlice claims 1 entry from an empty buffer
	b.externalSliceField(0, 0)
	b.absentIntegrity()
	b.absentBin()

	bufferRegionStart := b.pos()
	bufferPointersEnd := bufferRegionStart + 96
	for i := 0; i < 6; i++ {
		b.u64(bufferPointersEnd)
		b.u64(bufferPointersEnd)
	}
	b.u64(0)

	out := b.buf
	binary.LittleEndian.PutUint64(out[totalSizeOffset:], uint64(len(out)))
	return out
}

func TestAssembleDependencySliceOverflow(t *testing.T) {
	data := buildLockfileWithDependencyOverflow()

	lf, warnings, err := DecodeWithWarnings(data)
	require.NoError(t, err)
	require.Len(t, lf.Packages, 1)
	assert.Nil(t, lf.Packages[0].Dependencies)

	found := false
	for _, w := range warnings {
		if w.Tag == "DependencySliceOverflow" {
			found = true
		}
	}
	assert.True(t, found, "expected a DependencySliceOverflow warning, got %v", warnings)
}

// buildLockfileWithNpmPackage builds a single npm-resolved package whose
// name and registry URL live in the heap string-bytes buffer, exercising
// the inline/heap StringHandle boundary and the Npm resolution payload.
func buildLockfileWithNpmPackage(name, url string, major, minor, patch uint64) []byte {
	b := &builder{}
	b.raw(magic)
	b.u32(1)
	b.zeros(32)
	totalSizeOffset := b.pos()
	b.u64(0)

	tableBegin := b.pos() + 40
	tableEnd := tableBegin + columnRowSize
	b.u64(1)
	b.u64(8)
	b.u64(minFieldCount)
	b.u64(tableBegin)
	b.u64(tableEnd)

	nameOff, nameLen := uint32(0), uint32(len(name))
	urlOff, urlLen := nameLen, uint32(len(url))

	b.stringHandle(heapHandle(nameOff, nameLen))
	b.u64(0)

	// C3: Npm resolution payload.
	b.u8(resolutionNpm)
	b.zeros(7)
	b.stringHandle(heapHandle(urlOff, urlLen))
	b.u64(major)
	b.u64(minor)
	b.u64(patch)
	b.stringHandle([8]byte{}) // Pre: absent
	b.u64(0)                  // Pre hash
	b.stringHandle([8]byte{}) // Build: absent
	b.u64(0)                  // Build hash

	b.externalSliceField(0, 0)
	b.externalSliceField(0, 0)
	b.absentIntegrity()
	b.absentBin()

	bufferRegionStart := b.pos()
	bufferPointersEnd := bufferRegionStart + 96

	stringBytes := append([]byte(name), []byte(url)...)
	stringBytesBegin := uint64(bufferPointersEnd)
	stringBytesEnd := stringBytesBegin + uint64(len(stringBytes))

	// on-disk order: Dependencies, ExternStrings, Trees,
	// HoistedDependencies, Resolutions, StringBytes (§9).
	b.u64(bufferPointersEnd) // Dependencies
	b.u64(bufferPointersEnd)
	b.u64(bufferPointersEnd) // ExternStrings
	b.u64(bufferPointersEnd)
	b.u64(bufferPointersEnd) // Trees
	b.u64(bufferPointersEnd)
	b.u64(bufferPointersEnd) // HoistedDependencies
	b.u64(bufferPointersEnd)
	b.u64(bufferPointersEnd) // Resolutions
	b.u64(bufferPointersEnd)
	b.u64(stringBytesBegin) // StringBytes
	b.u64(stringBytesEnd)

	b.raw(stringBytes)
	b.u64(0) // sentinel

	out := b.buf
	binary.LittleEndian.PutUint64(out[totalSizeOffset:], uint64(len(out)))
	return out
}

func TestDecodeNpmPackageHeapStrings(t *testing.T) {
	data := buildLockfileWithNpmPackage("left-pad", "https://registry.npmjs.org/left-pad", 1, 2, 3)

	lf, warnings, err := DecodeOptions{SkipHashVerification: true}.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, lf.Packages, 1)

	pkg := lf.Packages[0]
	assert.Equal(t, "left-pad", pkg.Name)
	assert.Equal(t, ResolutionNpmKind{Version: "1.2.3", Registry: "https://registry.npmjs.org/left-pad"}, pkg.Resolution)
	assert.Equal(t, "1.2.3", pkg.Version())
	assert.Equal(t, "https://registry.npmjs.org/left-pad", pkg.RegistryURL())
}
