// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "fmt"

// externalSlice indexes into one of the six foreign-key buffers (§4.4).
type externalSlice struct {
	Off uint32
	Len uint32
}

const externalSliceSize = 8

func (c *cursor) readExternalSlice() (externalSlice, error) {
	off, err := c.readU32()
	if err != nil {
		return externalSlice{}, err
	}
	length, err := c.readU32()
	if err != nil {
		return externalSlice{}, err
	}
	return externalSlice{Off: off, Len: length}, nil
}

// semverVersion is the fixed-size on-disk version record (§4.5 Npm payload).
type semverVersion struct {
	Major, Minor, Patch uint64
	Pre, Build          externalString
}

const semverVersionSize = 8*3 + 16*2 // 56

func (c *cursor) readSemverVersion() (semverVersion, error) {
	var v semverVersion
	var err error
	if v.Major, err = c.readU64(); err != nil {
		return v, err
	}
	if v.Minor, err = c.readU64(); err != nil {
		return v, err
	}
	if v.Patch, err = c.readU64(); err != nil {
		return v, err
	}
	if v.Pre, err = c.readExternalString(); err != nil {
		return v, err
	}
	if v.Build, err = c.readExternalString(); err != nil {
		return v, err
	}
	return v, nil
}

// render produces "M.m.p[-pre][+build]" per §4.5.
func (v semverVersion) render(arena []byte) (string, error) {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)

	pre, err := v.Pre.resolve(arena)
	if err != nil {
		return "", err
	}
	if pre != "" {
		s += "-" + pre
	}

	build, err := v.Build.resolve(arena)
	if err != nil {
		return "", err
	}
	if build != "" {
		s += "+" + build
	}
	return s, nil
}

// versionedUrl is the Npm resolution payload (§4.5).
type versionedUrl struct {
	URL     stringHandle
	Version semverVersion
}

const versionedUrlSize = 8 + semverVersionSize // 64

func (c *cursor) readVersionedUrl() (versionedUrl, error) {
	var vu versionedUrl
	var err error
	if vu.URL, err = c.readStringHandle(); err != nil {
		return vu, err
	}
	if vu.Version, err = c.readSemverVersion(); err != nil {
		return vu, err
	}
	return vu, nil
}

// repository is the Git/Github resolution payload: five StringHandles
// (§4.5).
type repository struct {
	Owner, Repo, Committish, Resolved, PackageName stringHandle
}

const repositorySize = 8 * 5 // 40

func (c *cursor) readRepository() (repository, error) {
	var r repository
	var err error
	if r.Owner, err = c.readStringHandle(); err != nil {
		return r, err
	}
	if r.Repo, err = c.readStringHandle(); err != nil {
		return r, err
	}
	if r.Committish, err = c.readStringHandle(); err != nil {
		return r, err
	}
	if r.Resolved, err = c.readStringHandle(); err != nil {
		return r, err
	}
	if r.PackageName, err = c.readStringHandle(); err != nil {
		return r, err
	}
	return r, nil
}

// integrityTag values (§4.6).
const (
	integrityTagAbsent = 0
	integrityTagSHA1   = 1
	integrityTagSHA256 = 2
	integrityTagSHA384 = 3
	integrityTagSHA512 = 4
)

// integrityRecord is the fixed-size {tag, value[64]} record of §4.6.
type integrityRecord struct {
	Tag   uint8
	Value [64]byte
}

const integrityRecordSize = 72 // tag(1) + pad(7) + value(64), 8-byte aligned

func (c *cursor) readIntegrityRecord() (integrityRecord, error) {
	var rec integrityRecord
	tag, err := c.readU8()
	if err != nil {
		return rec, err
	}
	rec.Tag = tag
	var pad [7]byte
	if err := c.readArray(pad[:]); err != nil {
		return rec, err
	}
	if err := c.readArray(rec.Value[:]); err != nil {
		return rec, err
	}
	return rec, nil
}

// metaRecord is positionally decoded; only its embedded integrity record
// influences the public inventory (§4.6). The real on-disk Meta record
// also carries per-package platform/arch bitsets that spec.md does not
// detail (see DESIGN.md); this decoder models the record as exactly the
// integrity sub-field (72 bytes) and reads no further bytes for it.
type metaRecord struct {
	Integrity integrityRecord
}

const metaRecordSize = integrityRecordSize // 72

func (c *cursor) readMetaRecord() (metaRecord, error) {
	rec, err := c.readIntegrityRecord()
	if err != nil {
		return metaRecord{}, err
	}
	return metaRecord{Integrity: rec}, nil
}

// renderIntegrity implements the §4.6 rendering table. Returns ("", nil)
// when integrity is absent, and a warning when the tag is unrecognized.
func renderIntegrity(rec integrityRecord) (string, *Warning) {
	var prefix string
	var n int
	switch rec.Tag {
	case integrityTagAbsent:
		return "", nil
	case integrityTagSHA1:
		prefix, n = "sha1-", 20
	case integrityTagSHA256:
		prefix, n = "sha256-", 32
	case integrityTagSHA384:
		prefix, n = "sha384-", 48
	case integrityTagSHA512:
		prefix, n = "sha512-", 64
	default:
		w := warnf("UnknownIntegrityTag", "unrecognized integrity tag %d", rec.Tag)
		return "", &w
	}
	return prefix + base64NoPad(rec.Value[:n]), nil
}

// binRecord (column C7) is read but not exposed in the public inventory;
// its on-disk layout is not detailed by spec.md (§9 Open Questions treats
// the sibling Scripts column the same way). A single opaque
// externalSlice payload is reserved so column offsets stay
// self-consistent without guessing semantics the spec deliberately
// leaves unspecified.
type binRecord struct {
	Tag     uint8
	Payload externalSlice
}

const binRecordSize = 16 // tag(1) + pad(7) + externalSlice(8)

func (c *cursor) readBinRecord() (binRecord, error) {
	var rec binRecord
	tag, err := c.readU8()
	if err != nil {
		return rec, err
	}
	rec.Tag = tag
	var pad [7]byte
	if err := c.readArray(pad[:]); err != nil {
		return rec, err
	}
	if rec.Payload, err = c.readExternalSlice(); err != nil {
		return rec, err
	}
	return rec, nil
}

// scriptsRecord (column C8, present only when field_count == 8) is read
// but never exposed — §9: "if downstream consumers require script hooks,
// extend the inventory."
type scriptsRecord struct {
	PreInstall, Install, PostInstall, Prepublish externalSlice
}

const scriptsRecordSize = externalSliceSize * 4 // 32

func (c *cursor) readScriptsRecord() (scriptsRecord, error) {
	var rec scriptsRecord
	var err error
	if rec.PreInstall, err = c.readExternalSlice(); err != nil {
		return rec, err
	}
	if rec.Install, err = c.readExternalSlice(); err != nil {
		return rec, err
	}
	if rec.PostInstall, err = c.readExternalSlice(); err != nil {
		return rec, err
	}
	if rec.Prepublish, err = c.readExternalSlice(); err != nil {
		return rec, err
	}
	return rec, nil
}

// dependencyExternalRecord is one element of the Dependencies buffer
// (§4.7): a name, a requirement literal, and a behavior-flags byte. The
// resolved package id lives in the separate parallel Resolutions buffer,
// not in this record.
type dependencyExternalRecord struct {
	Name, Req externalString
	Behavior  uint8
}

const dependencyExternalRecordSize = 16*2 + 8 // 40 (name+req externalStrings, behavior byte padded to 8)

func (c *cursor) readDependencyExternalRecord() (dependencyExternalRecord, error) {
	var rec dependencyExternalRecord
	var err error
	if rec.Name, err = c.readExternalString(); err != nil {
		return rec, err
	}
	if rec.Req, err = c.readExternalString(); err != nil {
		return rec, err
	}
	b, err := c.readU8()
	if err != nil {
		return rec, err
	}
	rec.Behavior = b
	var pad [7]byte
	if err := c.readArray(pad[:]); err != nil {
		return rec, err
	}
	return rec, nil
}
