// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "bytes"

// Trailer tags (§4.8), 8 ASCII bytes each.
var (
	tagWorkspaces    = []byte("wOrKsPaC")
	tagTrusted       = []byte("tRuStEDd")
	tagEmptyTrusted  = []byte("eMpTrUsT")
	tagOverrides     = []byte("oVeRriDs")
	tagPatched       = []byte("pAtChEdD")
	tagCatalogs      = []byte("cAtAlOgS")
	tagConfigVersion = []byte("cNfGvRsN")
)

// OverrideEntry is one entry of the `oVeRriDs` trailer.
type OverrideEntry struct {
	NameHash uint32
	Name     string
	Req      string
}

// PatchedEntry is one entry of the `pAtChEdD` trailer.
type PatchedEntry struct {
	NameHash    uint32
	VersionHash uint32
	Name        string
}

// CatalogEntry is one entry of the default catalog in the `cAtAlOgS`
// trailer (§4.8; nested per-group catalogs are intentionally not parsed,
// see §9 Open Questions).
type CatalogEntry struct {
	Name string
	Req  string
}

// TrailerInfo is the auxiliary metadata assembled from the trailer
// stream (§3 TrailerInfo, §4.8).
type TrailerInfo struct {
	TrustedHashes   []uint32
	HasEmptyTrusted bool
	Overrides       []OverrideEntry
	Patched         []PatchedEntry
	DefaultCatalog  []CatalogEntry
	WorkspaceCount  int
	ConfigVersion   *uint64
}

// skipArray reads a (begin,end) pair and seeks to end, per §4.8's
// "skip_array" primitive, returning the raw bytes in between.
func skipArray(c *cursor, fileLen uint64) ([]byte, error) {
	begin, err := c.readU64()
	if err != nil {
		return nil, err
	}
	end, err := c.readU64()
	if err != nil {
		return nil, err
	}
	if end < begin || end > fileLen {
		return nil, &CorruptOffsetsError{Begin: begin, End: end, FileLen: fileLen, What: "trailer array"}
	}
	raw := c.data[begin:end]
	if err := c.seek(end); err != nil {
		return nil, err
	}
	return raw, nil
}

// parseTrailers consumes zero or more trailer sections up to
// header.TotalSize (§4.8). Truncated or unknown-tagged trailers stop
// parsing without producing a hard error; an unknown tag first rewinds
// the cursor over the 8-byte tag it just read, per spec.
func parseTrailers(c *cursor, totalSize uint64, fileLen uint64) (TrailerInfo, []Warning) {
	var info TrailerInfo
	var warnings []Warning

	for {
		if c.tell()+8 > totalSize || c.tell()+8 > fileLen {
			return info, warnings
		}

		tagStart := c.tell()
		tag, err := c.readBytes(8)
		if err != nil {
			return info, warnings
		}
		tagCopy := append([]byte(nil), tag...)

		ok, recovered, stop := tryParseTrailerSection(c, tagCopy, totalSize, fileLen, &info)
		if recovered {
			warnings = append(warnings, warnf("TrailerTruncated",
				"trailer %q truncated, stopped parsing trailers", tagCopy))
			return info, warnings
		}
		if !ok {
			_ = c.seek(tagStart)
			warnings = append(warnings, warnf("TrailerUnknownTag",
				"unrecognized trailer tag %q, stopped parsing trailers", tagCopy))
			return info, warnings
		}
		if stop {
			return info, warnings
		}
	}
}

// tryParseTrailerSection attempts to decode the section for a known tag.
// Returns ok=false for an unrecognized tag (caller rewinds). Returns
// recovered=true when a known tag's payload ran out of bytes partway
// through (truncation, non-fatal).
func tryParseTrailerSection(c *cursor, tag []byte, totalSize, fileLen uint64, info *TrailerInfo) (ok bool, recovered bool, stop bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, isStop := r.(stopTrailersSentinel); isStop {
			ok, recovered, stop = true, false, true
			return
		}
		ok, recovered = true, true
	}()

	switch {
	case bytes.Equal(tag, tagWorkspaces):
		mustSkip(c, fileLen) // name-hashes
		mustSkip(c, fileLen) // versions
		mustSkip(c, fileLen) // path-hashes
		pathStrings := mustSkip(c, fileLen)
		info.WorkspaceCount = len(pathStrings) / 8
		return true, false, false

	case bytes.Equal(tag, tagTrusted):
		raw := mustSkip(c, fileLen)
		rc := newCursor(raw)
		for rc.remaining() >= 4 {
			v, err := rc.readU32()
			if err != nil {
				break
			}
			info.TrustedHashes = append(info.TrustedHashes, v)
		}
		return true, false, false

	case bytes.Equal(tag, tagEmptyTrusted):
		info.HasEmptyTrusted = true
		return true, false, false

	case bytes.Equal(tag, tagOverrides):
		hashesRaw := mustSkip(c, fileLen)
		entriesRaw := mustSkip(c, fileLen)
		hc := newCursor(hashesRaw)
		ec := newCursor(entriesRaw)
		for ec.remaining() >= dependencyExternalRecordSize {
			hash, herr := hc.readU32()
			rec, rerr := ec.readDependencyExternalRecord()
			if herr != nil || rerr != nil {
				break
			}
			name, _ := rec.Name.resolve(c.data)
			req, _ := rec.Req.resolve(c.data)
			info.Overrides = append(info.Overrides, OverrideEntry{NameHash: hash, Name: name, Req: req})
		}
		return true, false, false

	case bytes.Equal(tag, tagPatched):
		hashesRaw := mustSkip(c, fileLen)
		entriesRaw := mustSkip(c, fileLen)
		hc := newCursor(hashesRaw)
		ec := newCursor(entriesRaw)
		for hc.remaining() >= 8 && ec.remaining() >= 16 {
			nameHash, _ := hc.readU32()
			versionHash, _ := hc.readU32()
			es, err := ec.readExternalString()
			if err != nil {
				break
			}
			name, _ := es.resolve(c.data)
			info.Patched = append(info.Patched, PatchedEntry{NameHash: nameHash, VersionHash: versionHash, Name: name})
		}
		return true, false, false

	case bytes.Equal(tag, tagCatalogs):
		namesRaw := mustSkip(c, fileLen)
		depsRaw := mustSkip(c, fileLen)
		nc := newCursor(namesRaw)
		dc := newCursor(depsRaw)
		for dc.remaining() >= dependencyExternalRecordSize {
			h, herr := nc.readStringHandle()
			rec, rerr := dc.readDependencyExternalRecord()
			if herr != nil || rerr != nil {
				break
			}
			name, _ := resolveString(h, c.data)
			req, _ := rec.Req.resolve(c.data)
			info.DefaultCatalog = append(info.DefaultCatalog, CatalogEntry{Name: name, Req: req})
		}
		// Per §4.8/§9: the nested per-group catalog layout is
		// unspecified. Stop the whole trailer stream here rather than
		// guess where this section ends.
		panic(stopTrailersSentinel{})

	case bytes.Equal(tag, tagConfigVersion):
		v, err := c.readU64()
		if err != nil {
			panic(err)
		}
		info.ConfigVersion = &v
		return true, false, false

	default:
		return false, false, false
	}
}

// stopTrailersSentinel signals a clean, intentional end of trailer
// parsing (the cAtAlOgS case) rather than a truncation; it carries no
// warning, unlike a recovered read error.
type stopTrailersSentinel struct{}

// mustSkip calls skipArray and panics on error so the calling section's
// deferred recover() in tryParseTrailerSection can turn any truncation
// into a clean, non-fatal stop.
func mustSkip(c *cursor, fileLen uint64) []byte {
	raw, err := skipArray(c, fileLen)
	if err != nil {
		panic(err)
	}
	return raw
}
