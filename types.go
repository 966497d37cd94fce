// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// BehaviorFlags is the dependency-edge bitset of §3 DependencyEntry,
// occupying bits 1..6. Unknown bits are truncated silently for forward
// compatibility (§4.7).
type BehaviorFlags uint8

const (
	BehaviorProd      BehaviorFlags = 1 << 1
	BehaviorOptional  BehaviorFlags = 1 << 2
	BehaviorDev       BehaviorFlags = 1 << 3
	BehaviorPeer      BehaviorFlags = 1 << 4
	BehaviorWorkspace BehaviorFlags = 1 << 5
	BehaviorBundled   BehaviorFlags = 1 << 6

	behaviorKnownMask = BehaviorProd | BehaviorOptional | BehaviorDev |
		BehaviorPeer | BehaviorWorkspace | BehaviorBundled
)

// behaviorFlagsFromByte truncates unknown bits, per §4.7's forward
// compatibility rule.
func behaviorFlagsFromByte(b uint8) BehaviorFlags {
	return BehaviorFlags(b) & behaviorKnownMask
}

func (f BehaviorFlags) Has(bit BehaviorFlags) bool { return f&bit != 0 }

func (f BehaviorFlags) String() string {
	var s string
	add := func(bit BehaviorFlags, name string) {
		if f.Has(bit) {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(BehaviorProd, "prod")
	add(BehaviorOptional, "optional")
	add(BehaviorDev, "dev")
	add(BehaviorPeer, "peer")
	add(BehaviorWorkspace, "workspace")
	add(BehaviorBundled, "bundled")
	if s == "" {
		return "none"
	}
	return s
}

// DependencyEntry is one dependency edge of a Package (§3).
type DependencyEntry struct {
	Name     string
	Req      string
	Behavior BehaviorFlags
	// ResolvedPackageIndex is nil when the writer didn't resolve this
	// edge to a package in this lockfile (e.g. the resolved/res slice
	// ran short, §3 Invariant 2) or when the index would be
	// out-of-bounds.
	ResolvedPackageIndex *int
}

// Package is one decoded package entry (§3).
type Package struct {
	Name         string
	Resolution   ResolutionKind
	Integrity    string // rendered per §4.6; empty when absent
	Dependencies []DependencyEntry

	// NameHash is the on-disk name_hash column value, carried through
	// verbatim (§3 StringHandle / name-hash pairing). Verified against
	// Name via xxhash unless DecodeOptions.SkipHashVerification is set;
	// see hash.go.
	NameHash uint64
}

// Version renders a display version string from the package's
// resolution kind. For Npm resolutions this is the semver string;
// other kinds render a scheme-prefixed representation consistent with
// how the audit rules' "suspicious-version" heuristics expect to see
// git/file/tarball origins (§6).
func (p Package) Version() string {
	switch r := p.Resolution.(type) {
	case ResolutionNpmKind:
		return r.Version
	case ResolutionGitKind:
		return fmt.Sprintf("git+%s#%s", r.Repo, r.Commit)
	case ResolutionGithubKind:
		return fmt.Sprintf("%s/%s#%s", r.Owner, r.Repo, r.Reference)
	case ResolutionFolderKind:
		return "file:" + r.Path
	case ResolutionLocalTarballKind:
		return "file:" + r.Path
	case ResolutionSymlinkKind:
		return "link:" + r.Path
	case ResolutionWorkspaceKind:
		return "workspace:" + r.Name
	case ResolutionRemoteTarballKind:
		return r.URL
	case ResolutionSingleFileModuleKind:
		return r.URL
	case ResolutionUnknownKind:
		return r.Raw
	default:
		return ""
	}
}

// RegistryURL renders a display origin URL from the package's resolution
// kind, used by the audit package's untrusted-registry rule (§6).
func (p Package) RegistryURL() string {
	switch r := p.Resolution.(type) {
	case ResolutionNpmKind:
		return r.Registry
	case ResolutionGitKind:
		return r.Repo
	case ResolutionGithubKind:
		return "https://github.com/" + r.Owner + "/" + r.Repo
	case ResolutionRemoteTarballKind:
		return r.URL
	case ResolutionSingleFileModuleKind:
		return r.URL
	default:
		return ""
	}
}

// EncodeMsgpack implements msgpack.CustomEncoder. Resolution is an
// interface (ResolutionKind); msgpack has no way to decode back into an
// interface field without knowing the concrete type ahead of time, so
// it's flattened through resolutionSnapshot instead of encoded directly.
func (p Package) EncodeMsgpack(enc *msgpack.Encoder) error {
	snap := snapshotResolution(p.Resolution)
	return enc.EncodeMulti(p.Name, snap, p.Integrity, p.Dependencies, p.NameHash)
}

// DecodeMsgpack implements msgpack.CustomDecoder, the inverse of
// EncodeMsgpack.
func (p *Package) DecodeMsgpack(dec *msgpack.Decoder) error {
	var snap resolutionSnapshot
	if err := dec.DecodeMulti(&p.Name, &snap, &p.Integrity, &p.Dependencies, &p.NameHash); err != nil {
		return err
	}
	p.Resolution = snap.restore()
	return nil
}

// Lockfile is the assembled root entity (§3).
type Lockfile struct {
	FormatVersion uint32
	MetaHash      [32]byte
	Packages      []Package
	Trailers      TrailerInfo
}
