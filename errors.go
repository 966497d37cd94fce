// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import (
	"errors"
	"fmt"
)

// Hard errors abort decoding immediately; no partial inventory is returned.
// Soft errors accumulate into the warnings list returned alongside a fully
// assembled inventory and never cross into the hard-error channel.
var (
	// ErrInvalidMagic is returned when the 42-byte literal magic does not match.
	ErrInvalidMagic = errors.New("bunlock: invalid magic header")

	// ErrTruncated is returned when fewer bytes remain than a read requires.
	ErrTruncated = errors.New("bunlock: truncated input")

	// ErrCorruptSentinel is returned when the sentinel following the buffer
	// block is non-zero.
	ErrCorruptSentinel = errors.New("bunlock: corrupt sentinel")

	// ErrBadStringPointer is returned when a StringHandle's heap offset/length
	// falls outside the string-bytes buffer.
	ErrBadStringPointer = errors.New("bunlock: string pointer out of range")

	// ErrInvalidUTF8 is returned when a required string field decodes to
	// invalid UTF-8.
	ErrInvalidUTF8 = errors.New("bunlock: invalid utf-8")
)

// UnsupportedFormatError is returned when format_version exceeds the
// generation this decoder targets (§1 Non-goals: this decoder rejects
// higher generations explicitly rather than guessing their layout).
type UnsupportedFormatError struct{ Version uint32 }

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("bunlock: unsupported format version %d", e.Version)
}

// OutdatedFormatError is returned when the package table declares fewer
// than 7 fields (§3 Invariant 6).
type OutdatedFormatError struct{ FieldCount uint64 }

func (e *OutdatedFormatError) Error() string {
	return fmt.Sprintf("bunlock: format too old, field_count=%d", e.FieldCount)
}

// CorruptOffsetsError is returned when a (begin, end) pair violates
// begin <= end <= |file|, or otherwise falls outside the file (§3
// Invariant 4).
type CorruptOffsetsError struct {
	Begin, End, FileLen uint64
	What                string
}

func (e *CorruptOffsetsError) Error() string {
	return fmt.Sprintf("bunlock: corrupt offsets in %s: begin=%d end=%d file_len=%d",
		e.What, e.Begin, e.End, e.FileLen)
}

// BadStringPointerError carries the offending offset/length for
// ErrBadStringPointer.
type BadStringPointerError struct{ Offset, Length uint64 }

func (e *BadStringPointerError) Error() string {
	return fmt.Sprintf("%v: off=%d len=%d", ErrBadStringPointer, e.Offset, e.Length)
}

func (e *BadStringPointerError) Unwrap() error { return ErrBadStringPointer }

// Warning is a string-tagged, human-readable non-fatal decode anomaly. It
// never aborts decoding.
type Warning struct {
	// Tag identifies the warning kind, e.g. "DependencySliceOverflow".
	Tag string
	// Message is a human-readable rendering, safe to print under --verbose.
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("[%s] %s", w.Tag, w.Message) }

func warnf(tag, format string, args ...any) Warning {
	return Warning{Tag: tag, Message: fmt.Sprintf(format, args...)}
}
