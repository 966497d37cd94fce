// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import (
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/lockscan/bunlock/internal/log"
)

// DecodeOptions tunes the decoder's optional enrichment passes. The zero
// value is the default: hash verification runs, logging is discarded.
type DecodeOptions struct {
	// SkipHashVerification disables the xxhash64 cross-check of each
	// package's name against its on-disk name_hash column (hash.go).
	SkipHashVerification bool

	// Logger receives Debug-level progress notes and Warn-level notes
	// mirroring the returned warnings. Defaults to a no-op logger.
	Logger log.Logger
}

func (o DecodeOptions) logger() log.Logger {
	if o.Logger == nil {
		return log.NopLogger{}
	}
	return o.Logger
}

// Decode parses data as a bunlock binary lockfile and returns the
// assembled inventory, discarding any accumulated warnings. Use
// DecodeWithWarnings to see them.
func Decode(data []byte) (*Lockfile, error) {
	lf, _, err := DecodeWithWarnings(data)
	return lf, err
}

// DecodeWithWarnings parses data with default options. Equivalent to
// DecodeOptions{}.Decode(data).
func DecodeWithWarnings(data []byte) (*Lockfile, []Warning, error) {
	return DecodeOptions{}.Decode(data)
}

// Decode parses data per o. A non-nil error means decoding aborted with
// no usable inventory (§1: a hard error never returns a partial
// Lockfile); repairable inconsistencies instead accumulate into the
// returned warnings alongside a fully assembled Lockfile.
func (o DecodeOptions) Decode(data []byte) (*Lockfile, []Warning, error) {
	logger := o.logger()
	fileLen := uint64(len(data))
	c := newCursor(data)

	h, err := parseHeader(c, fileLen)
	if err != nil {
		logger.Error("bunlock: header parse failed", log.Fields{"error": err.Error()})
		return nil, nil, err
	}
	logger.Debug("bunlock: header parsed", log.Fields{"format_version": h.FormatVersion, "total_size": h.TotalSize})

	th, err := parseTableHeader(c, fileLen)
	if err != nil {
		logger.Error("bunlock: package table header parse failed", log.Fields{"error": err.Error()})
		return nil, nil, err
	}

	cols, warnings, err := parsePackageColumns(c, th)
	if err != nil {
		logger.Error("bunlock: package columns parse failed", log.Fields{"error": err.Error()})
		return nil, nil, err
	}

	bufs, bufWarnings, err := parseBuffers(c, fileLen)
	warnings = append(warnings, bufWarnings...)
	if err != nil {
		logger.Error("bunlock: buffer parse failed", log.Fields{"error": err.Error()})
		return nil, nil, err
	}

	trailers, trailerWarnings := parseTrailers(c, h.TotalSize, fileLen)
	warnings = append(warnings, trailerWarnings...)

	lf, assembleWarnings, err := assemble(h, cols, bufs, trailers, o)
	warnings = append(warnings, assembleWarnings...)
	if err != nil {
		logger.Error("bunlock: assembly failed", log.Fields{"error": err.Error()})
		return nil, warnings, err
	}

	for _, w := range warnings {
		logger.Warn("bunlock: decode warning", log.Fields{"tag": w.Tag, "message": w.Message})
	}
	logger.Info("bunlock: decode complete", log.Fields{"packages": len(lf.Packages), "warnings": len(warnings)})

	return lf, warnings, nil
}

// DecodeFile memory-maps path read-only and decodes it, avoiding a
// full-file copy for large lockfiles (grounded on the teacher's own
// mmap-go-backed File.New).
func DecodeFile(path string) (*Lockfile, []Warning, error) {
	return DecodeOptions{}.DecodeFile(path)
}

// DecodeFile memory-maps path per o.
func (o DecodeOptions) DecodeFile(path string) (*Lockfile, []Warning, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, nil, err
	}
	defer data.Unmap()

	return o.Decode([]byte(data))
}
