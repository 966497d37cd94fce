package bunlock

import "encoding/binary"

// builder assembles a synthetic bunlock binary by hand, byte by byte,
// mirroring exactly the layout parseHeader/parseTableHeader/
// parsePackageColumns/parseBuffers expect. There are no real .lockb
// fixtures available, so every decode test constructs its input this
// way (grounded on how the teacher's own helper_test.go hand-builds
// byte buffers for structUnpack-style tests).
type builder struct {
	buf []byte
}

func (b *builder) u8(v uint8)  { b.buf = append(b.buf, v) }
func (b *builder) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}
func (b *builder) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf = append(b.buf, tmp[:]...)
}
func (b *builder) raw(p []byte) { b.buf = append(b.buf, p...) }
func (b *builder) zeros(n int)  { b.buf = append(b.buf, make([]byte, n)...) }
func (b *builder) pos() uint64  { return uint64(len(b.buf)) }

// inlineHandle encodes s (len <= 7) as an inline StringHandle.
func inlineHandle(s string) [8]byte {
	if len(s) > 7 {
		panic("inlineHandle: string too long for inline encoding")
	}
	var h [8]byte
	copy(h[:], s)
	return h
}

// heapHandle encodes an (off, length) pair as a heap-mode StringHandle.
func heapHandle(off, length uint32) [8]byte {
	raw := uint64(off) | uint64(length)<<32
	raw |= uint64(stringHandleTopBit) << 56
	var h [8]byte
	binary.LittleEndian.PutUint64(h[:], raw)
	return h
}

func (b *builder) stringHandle(h [8]byte) { b.raw(h[:]) }

// resolutionRoot writes a tag=root rawResolution with a zeroed
// 64-byte payload.
func (b *builder) resolutionRoot() {
	b.u8(resolutionRoot)
	b.zeros(7)
	b.zeros(versionedUrlSize)
}

// externalSliceField writes an (off,len) pair.
func (b *builder) externalSliceField(off, length uint32) {
	b.u32(off)
	b.u32(length)
}

// absentIntegrity writes a zeroed {tag=absent, value[64]} record.
func (b *builder) absentIntegrity() {
	b.u8(integrityTagAbsent)
	b.zeros(7)
	b.zeros(64)
}

// absentBin writes a zeroed bin record.
func (b *builder) absentBin() {
	b.u8(0)
	b.zeros(7)
	b.externalSliceField(0, 0)
}

const columnRowSize = 8 + 8 + rawResolutionSize + externalSliceSize + externalSliceSize + metaRecordSize + binRecordSize

// buildMinimalLockfile builds a single-package, root-resolved,
// dependency-free, trailer-free lockfile: the smallest valid input
// Decode accepts.
func buildMinimalLockfile() []byte {
	b := &builder{}
	b.raw(magic)
	b.u32(1) // format_version
	b.zeros(32)
	totalSizeOffset := b.pos()
	b.u64(0) // total_size, patched below

	tableBegin := b.pos() + 40
	tableEnd := tableBegin + columnRowSize
	b.u64(1)          // Len
	b.u64(8)          // Alignment
	b.u64(minFieldCount) // FieldCount
	b.u64(tableBegin) // Begin
	b.u64(tableEnd)   // End

	// C1 Names
	b.stringHandle(inlineHandle("root"))
	// C2 NameHashes
	b.u64(0)
	// C3 Resolutions
	b.resolutionRoot()
	// C4 DepSlices
	b.externalSliceField(0, 0)
	// C5 ResSlices
	b.externalSliceField(0, 0)
	// C6 Metas
	b.absentIntegrity()
	// C7 Bins
	b.absentBin()

	bufferRegionStart := b.pos()
	bufferPointersEnd := bufferRegionStart + 96
	for i := 0; i < 6; i++ {
		b.u64(bufferPointersEnd)
		b.u64(bufferPointersEnd)
	}
	b.u64(0) // sentinel

	out := b.buf
	binary.LittleEndian.PutUint64(out[totalSizeOffset:], uint64(len(out)))
	return out
}
