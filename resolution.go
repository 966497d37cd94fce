// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

import "fmt"

// Resolution tag values (§4.5).
const (
	resolutionUninitialized = 0
	resolutionRoot          = 1
	resolutionNpm           = 2
	resolutionFolder        = 4
	resolutionLocalTarball  = 8
	resolutionGithub        = 16
	resolutionGit           = 32
	resolutionSymlink       = 64
	resolutionWorkspace     = 72
	resolutionRemoteTarball = 80
	resolutionSingleFileMod = 100
)

// ResolutionKind is the closed sum type of §4.5, implemented as the
// teacher's own "tagged struct behind an interface" idiom (mirrors how
// ImageOptionalHeader32/64 are carried as an interface{} and type-asserted
// by callers, see pe.go ParseDataDirectories). Exactly one concrete type
// below is ever assigned.
type ResolutionKind interface {
	isResolutionKind()
}

// ResolutionRootKind marks the workspace root package; it carries no payload.
type ResolutionRootKind struct{}

// ResolutionNpmKind is a registry-resolved package.
type ResolutionNpmKind struct {
	Version  string
	Registry string
}

// ResolutionGitKind is resolved from an arbitrary git remote.
type ResolutionGitKind struct {
	Repo   string
	Commit string
}

// ResolutionGithubKind is resolved from a GitHub owner/repo@ref shorthand.
type ResolutionGithubKind struct {
	Owner     string
	Repo      string
	Reference string
}

// ResolutionFolderKind is a local directory dependency.
type ResolutionFolderKind struct{ Path string }

// ResolutionSymlinkKind is a `link:` dependency.
type ResolutionSymlinkKind struct{ Path string }

// ResolutionWorkspaceKind is a monorepo workspace member.
type ResolutionWorkspaceKind struct{ Name string }

// ResolutionLocalTarballKind is resolved from a tarball on local disk.
type ResolutionLocalTarballKind struct{ Path string }

// ResolutionRemoteTarballKind is resolved from a tarball URL.
type ResolutionRemoteTarballKind struct{ URL string }

// ResolutionSingleFileModuleKind is a single-file ESM/CJS module resolution.
type ResolutionSingleFileModuleKind struct{ URL string }

// ResolutionUnknownKind preserves the raw tag byte for forward
// compatibility (§4.5, §9 "Tagged variants").
type ResolutionUnknownKind struct{ Raw string }

func (ResolutionRootKind) isResolutionKind()            {}
func (ResolutionNpmKind) isResolutionKind()             {}
func (ResolutionGitKind) isResolutionKind()              {}
func (ResolutionGithubKind) isResolutionKind()          {}
func (ResolutionFolderKind) isResolutionKind()          {}
func (ResolutionSymlinkKind) isResolutionKind()         {}
func (ResolutionWorkspaceKind) isResolutionKind()       {}
func (ResolutionLocalTarballKind) isResolutionKind()    {}
func (ResolutionRemoteTarballKind) isResolutionKind()   {}
func (ResolutionSingleFileModuleKind) isResolutionKind() {}
func (ResolutionUnknownKind) isResolutionKind()         {}

// rawResolution is the on-disk 72-byte record: a 1-byte tag, 7 bytes of
// padding, then a tag-determined payload occupying the remaining 64
// bytes (sized to the largest variant, Npm's VersionedUrl). Interpreting
// the payload is deferred until the string-bytes arena is available, at
// assembly time.
type rawResolution struct {
	Tag     uint8
	Payload [versionedUrlSize]byte
}

const rawResolutionSize = 8 + versionedUrlSize // 72

func (c *cursor) readRawResolution() (rawResolution, error) {
	var rr rawResolution
	tag, err := c.readU8()
	if err != nil {
		return rr, err
	}
	rr.Tag = tag
	var pad [7]byte
	if err := c.readArray(pad[:]); err != nil {
		return rr, err
	}
	if err := c.readArray(rr.Payload[:]); err != nil {
		return rr, err
	}
	return rr, nil
}

// resolve decodes the tag-determined payload and resolves any embedded
// string handles against arena. An unrecognized tag yields
// ResolutionUnknownKind and a recoverable UnknownResolutionTag warning,
// never a hard error (§4.5).
func (rr rawResolution) resolve(arena []byte) (ResolutionKind, *Warning, error) {
	pc := newCursor(rr.Payload[:])

	switch rr.Tag {
	case resolutionUninitialized:
		return ResolutionRootKind{}, nil, nil

	case resolutionRoot:
		return ResolutionRootKind{}, nil, nil

	case resolutionNpm:
		vu, err := pc.readVersionedUrl()
		if err != nil {
			return nil, nil, err
		}
		url, err := resolveString(vu.URL, arena)
		if err != nil {
			return nil, nil, err
		}
		version, err := vu.Version.render(arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionNpmKind{Version: version, Registry: url}, nil, nil

	case resolutionFolder:
		path, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionFolderKind{Path: path}, nil, nil

	case resolutionLocalTarball:
		path, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionLocalTarballKind{Path: path}, nil, nil

	case resolutionSymlink:
		path, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionSymlinkKind{Path: path}, nil, nil

	case resolutionWorkspace:
		name, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionWorkspaceKind{Name: name}, nil, nil

	case resolutionRemoteTarball:
		url, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionRemoteTarballKind{URL: url}, nil, nil

	case resolutionSingleFileMod:
		url, err := readSinglePathPayload(pc, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionSingleFileModuleKind{URL: url}, nil, nil

	case resolutionGit:
		repo, err := pc.readRepository()
		if err != nil {
			return nil, nil, err
		}
		repoStr, err := resolveString(repo.Repo, arena)
		if err != nil {
			return nil, nil, err
		}
		commit, err := resolveString(repo.Committish, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionGitKind{Repo: repoStr, Commit: commit}, nil, nil

	case resolutionGithub:
		repo, err := pc.readRepository()
		if err != nil {
			return nil, nil, err
		}
		owner, err := resolveString(repo.Owner, arena)
		if err != nil {
			return nil, nil, err
		}
		repoStr, err := resolveString(repo.Repo, arena)
		if err != nil {
			return nil, nil, err
		}
		reference, err := resolveString(repo.Committish, arena)
		if err != nil {
			return nil, nil, err
		}
		return ResolutionGithubKind{Owner: owner, Repo: repoStr, Reference: reference}, nil, nil

	default:
		w := warnf("UnknownResolutionTag", "unrecognized resolution tag %d", rr.Tag)
		return ResolutionUnknownKind{Raw: fmt.Sprintf("tag=%d", rr.Tag)}, &w, nil
	}
}

// resolutionSnapshot is a flat, msgpack-friendly mirror of ResolutionKind,
// used to round-trip the sum type through internal/cache without
// requiring the msgpack codec to know about every concrete variant
// (see Package.EncodeMsgpack/DecodeMsgpack in types.go).
type resolutionSnapshot struct {
	Tag   uint8
	Text1 string
	Text2 string
	Text3 string
}

func snapshotResolution(k ResolutionKind) resolutionSnapshot {
	switch r := k.(type) {
	case ResolutionNpmKind:
		return resolutionSnapshot{Tag: resolutionNpm, Text1: r.Version, Text2: r.Registry}
	case ResolutionGitKind:
		return resolutionSnapshot{Tag: resolutionGit, Text1: r.Repo, Text2: r.Commit}
	case ResolutionGithubKind:
		return resolutionSnapshot{Tag: resolutionGithub, Text1: r.Owner, Text2: r.Repo, Text3: r.Reference}
	case ResolutionFolderKind:
		return resolutionSnapshot{Tag: resolutionFolder, Text1: r.Path}
	case ResolutionSymlinkKind:
		return resolutionSnapshot{Tag: resolutionSymlink, Text1: r.Path}
	case ResolutionWorkspaceKind:
		return resolutionSnapshot{Tag: resolutionWorkspace, Text1: r.Name}
	case ResolutionLocalTarballKind:
		return resolutionSnapshot{Tag: resolutionLocalTarball, Text1: r.Path}
	case ResolutionRemoteTarballKind:
		return resolutionSnapshot{Tag: resolutionRemoteTarball, Text1: r.URL}
	case ResolutionSingleFileModuleKind:
		return resolutionSnapshot{Tag: resolutionSingleFileMod, Text1: r.URL}
	case ResolutionUnknownKind:
		return resolutionSnapshot{Tag: 0xFF, Text1: r.Raw}
	default: // ResolutionRootKind and any future no-payload kind
		return resolutionSnapshot{Tag: resolutionRoot}
	}
}

func (s resolutionSnapshot) restore() ResolutionKind {
	switch s.Tag {
	case resolutionNpm:
		return ResolutionNpmKind{Version: s.Text1, Registry: s.Text2}
	case resolutionGit:
		return ResolutionGitKind{Repo: s.Text1, Commit: s.Text2}
	case resolutionGithub:
		return ResolutionGithubKind{Owner: s.Text1, Repo: s.Text2, Reference: s.Text3}
	case resolutionFolder:
		return ResolutionFolderKind{Path: s.Text1}
	case resolutionSymlink:
		return ResolutionSymlinkKind{Path: s.Text1}
	case resolutionWorkspace:
		return ResolutionWorkspaceKind{Name: s.Text1}
	case resolutionLocalTarball:
		return ResolutionLocalTarballKind{Path: s.Text1}
	case resolutionRemoteTarball:
		return ResolutionRemoteTarballKind{URL: s.Text1}
	case resolutionSingleFileMod:
		return ResolutionSingleFileModuleKind{URL: s.Text1}
	case 0xFF:
		return ResolutionUnknownKind{Raw: s.Text1}
	default:
		return ResolutionRootKind{}
	}
}

func readSinglePathPayload(pc *cursor, arena []byte) (string, error) {
	h, err := pc.readStringHandle()
	if err != nil {
		return "", err
	}
	return resolveString(h, arena)
}
