// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import (
	"encoding/binary"
	"fmt"
)

// cursor is a bounds-checked, little-endian read head over an immutable
// byte slice. It never seeks beyond the end of the slice and never
// mutates the underlying bytes.
type cursor struct {
	data []byte
	pos  uint64
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() uint64 {
	if c.pos >= uint64(len(c.data)) {
		return 0
	}
	return uint64(len(c.data)) - c.pos
}

func (c *cursor) require(n uint64) error {
	if c.remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, c.pos, c.remaining())
	}
	return nil
}

// seek repositions the cursor to an absolute offset. Seeking beyond the
// end of the slice is rejected; seeking exactly to the end is allowed
// (a subsequent read will fail with ErrTruncated).
func (c *cursor) seek(off uint64) error {
	if off > uint64(len(c.data)) {
		return fmt.Errorf("%w: seek to %d beyond length %d", ErrTruncated, off, len(c.data))
	}
	c.pos = off
	return nil
}

func (c *cursor) tell() uint64 { return c.pos }

func (c *cursor) readU8() (uint8, error) {
	if err := c.require(1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *cursor) readU16() (uint16, error) {
	if err := c.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.data[c.pos:])
	c.pos += 2
	return v, nil
}

func (c *cursor) readU32() (uint32, error) {
	if err := c.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.data[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) readU64() (uint64, error) {
	if err := c.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.data[c.pos:])
	c.pos += 8
	return v, nil
}

// readBytes returns a borrowed view (no copy) of the next n bytes.
func (c *cursor) readBytes(n uint64) ([]byte, error) {
	if err := c.require(n); err != nil {
		return nil, err
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// readArray reads exactly len(dst) bytes into dst.
func (c *cursor) readArray(dst []byte) error {
	if err := c.require(uint64(len(dst))); err != nil {
		return err
	}
	copy(dst, c.data[c.pos:c.pos+uint64(len(dst))])
	c.pos += uint64(len(dst))
	return nil
}

// readStringHandle reads the raw 8-byte StringHandle without interpreting it.
func (c *cursor) readStringHandle() (stringHandle, error) {
	var h stringHandle
	if err := c.readArray(h[:]); err != nil {
		return stringHandle{}, err
	}
	return h, nil
}
