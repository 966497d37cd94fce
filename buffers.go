// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "sort"

// bufferKind enumerates the six foreign-key buffers in their canonical
// order (§4.4). The on-disk order of the (begin,end) pointer pairs is
// NOT this enumeration order — it is this enumeration stably sorted by
// alignment, descending (§9 "Alignment-descending, stable pointer
// order"). We compute that sort rather than hand-picking an order, so a
// future alignment change to this table is automatically reflected in
// on-disk layout expectations.
type bufferKind int

const (
	bufferDependencies bufferKind = iota
	bufferExternStrings
	bufferTrees
	bufferHoistedDependencies
	bufferResolutions
	bufferStringBytes
	bufferKindCount
)

func (k bufferKind) String() string {
	switch k {
	case bufferDependencies:
		return "Dependencies"
	case bufferExternStrings:
		return "ExternStrings"
	case bufferTrees:
		return "Trees"
	case bufferHoistedDependencies:
		return "HoistedDependencies"
	case bufferResolutions:
		return "Resolutions"
	case bufferStringBytes:
		return "StringBytes"
	default:
		return "Unknown"
	}
}

var bufferAlignment = [bufferKindCount]uint64{
	bufferDependencies:        8,
	bufferExternStrings:       8,
	bufferTrees:               4,
	bufferHoistedDependencies: 4,
	bufferResolutions:         4,
	bufferStringBytes:         1,
}

// onDiskBufferOrder returns the canonical buffer kinds sorted by
// alignment descending, with ties broken by original enumeration order
// (Go's sort.SliceStable guarantees this).
func onDiskBufferOrder() []bufferKind {
	order := make([]bufferKind, bufferKindCount)
	for i := range order {
		order[i] = bufferKind(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return bufferAlignment[order[i]] > bufferAlignment[order[j]]
	})
	return order
}

type bufferPointer struct {
	Begin, End uint64
}

func (p bufferPointer) empty() bool { return p.Begin == p.End }

func (p bufferPointer) slice(data []byte) []byte { return data[p.Begin:p.End] }

// buffers holds the decoded six buffers after bounds validation. Trees,
// HoistedDependencies and ExternStrings are validated but not
// interpreted by this decoder (§4.4).
type buffers struct {
	Pointers     [bufferKindCount]bufferPointer
	Dependencies []dependencyExternalRecord
	Resolutions  []uint32
	StringBytes  []byte
}

// parseBuffers reads the six (begin,end) pairs in on-disk order
// immediately following the package table's end, validates each, and
// decodes the three buffers this decoder interprets (§4.4).
func parseBuffers(c *cursor, fileLen uint64) (buffers, []Warning, error) {
	var bufs buffers
	var warnings []Warning

	cursorAfterColumns := c.tell()

	for _, kind := range onDiskBufferOrder() {
		begin, err := c.readU64()
		if err != nil {
			return bufs, warnings, err
		}
		end, err := c.readU64()
		if err != nil {
			return bufs, warnings, err
		}
		if end < begin || end > fileLen {
			return bufs, warnings, &CorruptOffsetsError{Begin: begin, End: end, FileLen: fileLen, What: kind.String() + " buffer"}
		}
		bufs.Pointers[kind] = bufferPointer{Begin: begin, End: end}
	}

	maxEnd := cursorAfterColumns
	if c.tell() > maxEnd {
		maxEnd = c.tell()
	}
	for _, p := range bufs.Pointers {
		if p.End > maxEnd {
			maxEnd = p.End
		}
	}

	depPtr := bufs.Pointers[bufferDependencies]
	if !depPtr.empty() {
		raw := depPtr.slice(c.data)
		if len(raw)%dependencyExternalRecordSize != 0 {
			return bufs, warnings, &CorruptOffsetsError{Begin: depPtr.Begin, End: depPtr.End, FileLen: fileLen, What: "Dependencies buffer not a multiple of record size"}
		}
		dc := newCursor(raw)
		count := len(raw) / dependencyExternalRecordSize
		bufs.Dependencies = make([]dependencyExternalRecord, count)
		for i := 0; i < count; i++ {
			rec, err := dc.readDependencyExternalRecord()
			if err != nil {
				return bufs, warnings, err
			}
			bufs.Dependencies[i] = rec
		}
	}

	resPtr := bufs.Pointers[bufferResolutions]
	if !resPtr.empty() {
		raw := resPtr.slice(c.data)
		if len(raw)%4 != 0 {
			return bufs, warnings, &CorruptOffsetsError{Begin: resPtr.Begin, End: resPtr.End, FileLen: fileLen, What: "Resolutions buffer not a multiple of 4"}
		}
		rc := newCursor(raw)
		count := len(raw) / 4
		bufs.Resolutions = make([]uint32, count)
		for i := 0; i < count; i++ {
			v, err := rc.readU32()
			if err != nil {
				return bufs, warnings, err
			}
			bufs.Resolutions[i] = v
		}
	}

	strPtr := bufs.Pointers[bufferStringBytes]
	if !strPtr.empty() {
		bufs.StringBytes = strPtr.slice(c.data)
	}

	if err := c.seek(maxEnd); err != nil {
		return bufs, warnings, err
	}

	sentinel, err := c.readU64()
	if err != nil {
		return bufs, warnings, err
	}
	if sentinel != 0 {
		return bufs, warnings, ErrCorruptSentinel
	}

	return bufs, warnings, nil
}
