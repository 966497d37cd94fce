// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import (
	"encoding/binary"
	"unicode/utf8"
)

// stringHandle is the raw 8-byte dual-representation string reference
// described in §3: if the top bit of the last byte is 0, the 8 bytes are
// an inline NUL-padded UTF-8 string of length 0-8. Otherwise the 64-bit
// little-endian value with the top bit cleared is `offset | (length << 32)`
// into the string-bytes buffer.
type stringHandle [8]byte

const stringHandleTopBit = 0x80

func (h stringHandle) isHeap() bool {
	return h[7]&stringHandleTopBit != 0
}

func (h stringHandle) heapOffsetLength() (off, length uint64) {
	raw := binary.LittleEndian.Uint64(h[:])
	raw &^= uint64(stringHandleTopBit) << 56
	off = raw & 0xFFFFFFFF
	length = raw >> 32
	return off, length
}

func (h stringHandle) isZero() bool {
	for _, b := range h {
		if b != 0 {
			return false
		}
	}
	return true
}

// resolve decodes h against the string-bytes arena. Inline mode returns
// the first NUL-terminated prefix of the 8 raw bytes; heap mode extracts
// off/len and returns the referenced range. Empty (all-zero) handles
// yield the empty string. Fails with ErrBadStringPointer on out-of-range
// heap references and ErrInvalidUTF8 on non-UTF-8 bytes.
func resolveString(h stringHandle, arena []byte) (string, error) {
	if h.isZero() {
		return "", nil
	}

	if !h.isHeap() {
		n := 0
		for n < len(h) && h[n] != 0 {
			n++
		}
		s := h[:n]
		if !utf8.Valid(s) {
			return "", ErrInvalidUTF8
		}
		return string(s), nil
	}

	off, length := h.heapOffsetLength()
	if off+length < off || off+length > uint64(len(arena)) {
		return "", &BadStringPointerError{Offset: off, Length: length}
	}
	s := arena[off : off+length]
	if !utf8.Valid(s) {
		return "", ErrInvalidUTF8
	}
	return string(s), nil
}

// externalString pairs a stringHandle with an informational 64-bit hash
// that is never validated (§3 ExternalString).
type externalString struct {
	handle stringHandle
	hash   uint64
}

func (c *cursor) readExternalString() (externalString, error) {
	h, err := c.readStringHandle()
	if err != nil {
		return externalString{}, err
	}
	hash, err := c.readU64()
	if err != nil {
		return externalString{}, err
	}
	return externalString{handle: h, hash: hash}, nil
}

func (e externalString) resolve(arena []byte) (string, error) {
	return resolveString(e.handle, arena)
}
