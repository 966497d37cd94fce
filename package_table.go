// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "bytes"

// magic is the 42-byte literal every bunlock binary starts with (§4.3.1).
var magic = []byte("#!/usr/bin/env bun\nbun-lockfile-format-v0\n")

const maxSupportedFormatVersion = 3

// header is the fixed prefix of §4.3 steps 1-4.
type header struct {
	FormatVersion uint32
	MetaHash      [32]byte
	TotalSize     uint64
}

// tableHeader is the five-u64 package-table header of §4.3.5.
type tableHeader struct {
	Len         uint64
	Alignment   uint64
	FieldCount  uint64
	Begin       uint64
	End         uint64
	HasScripts  bool
}

const minFieldCount = 7
const scriptsFieldCount = 8

// parseHeader consumes the magic, format_version, meta_hash and total_size
// fields (§4.3 steps 1-4).
func parseHeader(c *cursor, fileLen uint64) (header, error) {
	var h header

	magicBytes, err := c.readBytes(uint64(len(magic)))
	if err != nil {
		return h, err
	}
	if !bytes.Equal(magicBytes, magic) {
		return h, ErrInvalidMagic
	}

	version, err := c.readU32()
	if err != nil {
		return h, err
	}
	if version > maxSupportedFormatVersion {
		return h, &UnsupportedFormatError{Version: version}
	}
	h.FormatVersion = version

	if err := c.readArray(h.MetaHash[:]); err != nil {
		return h, err
	}

	totalSize, err := c.readU64()
	if err != nil {
		return h, err
	}
	if totalSize > fileLen {
		return h, &CorruptOffsetsError{Begin: 0, End: totalSize, FileLen: fileLen, What: "total_size"}
	}
	h.TotalSize = totalSize

	return h, nil
}

// parseTableHeader consumes the five-u64 package-table header (§4.3.5).
func parseTableHeader(c *cursor, fileLen uint64) (tableHeader, error) {
	var th tableHeader

	readField := func() (uint64, error) { return c.readU64() }

	var err error
	if th.Len, err = readField(); err != nil {
		return th, err
	}
	if th.Alignment, err = readField(); err != nil {
		return th, err
	}
	if th.FieldCount, err = readField(); err != nil {
		return th, err
	}
	if th.Begin, err = readField(); err != nil {
		return th, err
	}
	if th.End, err = readField(); err != nil {
		return th, err
	}

	if th.End > fileLen {
		return th, &CorruptOffsetsError{Begin: th.Begin, End: th.End, FileLen: fileLen, What: "package table"}
	}
	if th.Begin > th.End {
		return th, &CorruptOffsetsError{Begin: th.Begin, End: th.End, FileLen: fileLen, What: "package table"}
	}
	if th.Begin < c.tell() {
		return th, &CorruptOffsetsError{Begin: th.Begin, End: th.End, FileLen: fileLen, What: "package table begin precedes cursor"}
	}
	if th.FieldCount < minFieldCount {
		return th, &OutdatedFormatError{FieldCount: th.FieldCount}
	}
	th.HasScripts = th.FieldCount == scriptsFieldCount

	return th, nil
}

// packageColumns holds the raw, not-yet-resolved column arrays decoded
// from the package table (§4.3.6). Each slice has length N == th.Len.
type packageColumns struct {
	Names       []stringHandle
	NameHashes  []uint64
	Resolutions []rawResolution
	DepSlices   []externalSlice
	ResSlices   []externalSlice
	Metas       []metaRecord
	Bins        []binRecord
	Scripts     []scriptsRecord // nil unless th.HasScripts
}

// parsePackageColumns reads the N-element column arrays in the exact
// on-disk order C1..C8 (§4.3.6), tightly packed with no padding between
// columns. An undershoot relative to th.End is reported as a recoverable
// ColumnOverflow warning and the cursor is moved to th.End; a table whose
// th.Len rows cannot fit between th.Begin and th.End is a hard
// CorruptOffsetsError.
func parsePackageColumns(c *cursor, th tableHeader) (packageColumns, []Warning, error) {
	var warnings []Warning
	n := th.Len
	rowSize := uint64(8 + 8 + rawResolutionSize + 2*externalSliceSize + metaRecordSize + binRecordSize)
	if th.HasScripts {
		rowSize += scriptsRecordSize
	}
	if n > (th.End-th.Begin)/rowSize {
		return packageColumns{}, warnings, &CorruptOffsetsError{Begin: th.Begin, End: th.End, FileLen: uint64(len(c.data)), What: "package table overshoot"}
	}
	cols := packageColumns{
		Names:       make([]stringHandle, n),
		NameHashes:  make([]uint64, n),
		Resolutions: make([]rawResolution, n),
		DepSlices:   make([]externalSlice, n),
		ResSlices:   make([]externalSlice, n),
		Metas:       make([]metaRecord, n),
		Bins:        make([]binRecord, n),
	}
	if th.HasScripts {
		cols.Scripts = make([]scriptsRecord, n)
	}

	if err := c.seek(th.Begin); err != nil {
		return cols, warnings, err
	}

	var err error
	for i := uint64(0); i < n; i++ {
		if cols.Names[i], err = c.readStringHandle(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.NameHashes[i], err = c.readU64(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.Resolutions[i], err = c.readRawResolution(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.DepSlices[i], err = c.readExternalSlice(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.ResSlices[i], err = c.readExternalSlice(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.Metas[i], err = c.readMetaRecord(); err != nil {
			return cols, warnings, err
		}
	}
	for i := uint64(0); i < n; i++ {
		if cols.Bins[i], err = c.readBinRecord(); err != nil {
			return cols, warnings, err
		}
	}
	if th.HasScripts {
		for i := uint64(0); i < n; i++ {
			if cols.Scripts[i], err = c.readScriptsRecord(); err != nil {
				return cols, warnings, err
			}
		}
	}

	if c.tell() != th.End {
		if c.tell() <= th.End {
			warnings = append(warnings, warnf("ColumnOverflow",
				"package table ended at %d, declared end is %d", c.tell(), th.End))
			if err := c.seek(th.End); err != nil {
				return cols, warnings, err
			}
		} else {
			return cols, warnings, &CorruptOffsetsError{Begin: th.Begin, End: th.End, FileLen: uint64(len(c.data)), What: "package table overshoot"}
		}
	}

	return cols, warnings, nil
}
