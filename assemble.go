// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bunlock

// assemble cross-joins the parsed package columns against the decoded
// buffers to produce the public Lockfile inventory (§4.7, §4.9). Hard
// errors here are reserved for corruption in fields this decoder treats
// as required (package name, resolution payload strings); everything
// else degrades to a Warning and a best-effort value.
func assemble(h header, cols packageColumns, bufs buffers, trailers TrailerInfo, opts DecodeOptions) (*Lockfile, []Warning, error) {
	n := len(cols.Names)
	lf := &Lockfile{
		FormatVersion: h.FormatVersion,
		MetaHash:      h.MetaHash,
		Packages:      make([]Package, n),
		Trailers:      trailers,
	}
	var warnings []Warning

	for i := 0; i < n; i++ {
		name, err := resolveString(cols.Names[i], bufs.StringBytes)
		if err != nil {
			return nil, warnings, err
		}

		resolution, warn, err := cols.Resolutions[i].resolve(bufs.StringBytes)
		if err != nil {
			return nil, warnings, err
		}
		if warn != nil {
			warnings = append(warnings, *warn)
		}

		integrity, warn := renderIntegrity(cols.Metas[i].Integrity)
		if warn != nil {
			warnings = append(warnings, *warn)
		}

		deps, depWarnings := assembleDependencies(cols.DepSlices[i], cols.ResSlices[i], bufs, n)
		warnings = append(warnings, depWarnings...)

		pkg := Package{
			Name:         name,
			Resolution:   resolution,
			Integrity:    integrity,
			Dependencies: deps,
			NameHash:     cols.NameHashes[i],
		}

		if !opts.SkipHashVerification {
			if w := verifyNameHash(pkg.Name, pkg.NameHash); w != nil {
				warnings = append(warnings, *w)
			}
		}

		lf.Packages[i] = pkg
	}

	return lf, warnings, nil
}

// assembleDependencies resolves one package's dependency slice against
// the shared Dependencies and Resolutions buffers (§4.7).
//
// Invariant 1: a slice whose off+len overruns its buffer yields an empty
// dependency list and a DependencySliceOverflow warning rather than a
// hard error.
//
// Invariant 2: the dependency slice and its parallel resolution slice
// are expected to share a length; positions beyond the shorter one are
// left with an absent ResolvedPackageIndex, and a mismatch in declared
// lengths is reported once.
func assembleDependencies(depSlice, resSlice externalSlice, bufs buffers, packageCount int) ([]DependencyEntry, []Warning) {
	var warnings []Warning
	if depSlice.Len == 0 {
		return nil, warnings
	}

	depEnd := uint64(depSlice.Off) + uint64(depSlice.Len)
	if depEnd > uint64(len(bufs.Dependencies)) {
		warnings = append(warnings, warnf("DependencySliceOverflow",
			"dependency slice [%d:%d) overruns Dependencies buffer of length %d",
			depSlice.Off, depEnd, len(bufs.Dependencies)))
		return nil, warnings
	}

	resEnd := uint64(resSlice.Off) + uint64(resSlice.Len)
	resOverflow := resSlice.Len != 0 && resEnd > uint64(len(bufs.Resolutions))
	if resOverflow {
		warnings = append(warnings, warnf("DependencySliceOverflow",
			"resolution slice [%d:%d) overruns Resolutions buffer of length %d",
			resSlice.Off, resEnd, len(bufs.Resolutions)))
		return nil, warnings
	}
	if depSlice.Len != resSlice.Len && resSlice.Len != 0 {
		warnings = append(warnings, warnf("DependencyResolutionLengthMismatch",
			"dependency slice has %d entries but resolution slice has %d",
			depSlice.Len, resSlice.Len))
	}

	entries := make([]DependencyEntry, depSlice.Len)
	for j := uint32(0); j < depSlice.Len; j++ {
		rec := bufs.Dependencies[uint64(depSlice.Off)+uint64(j)]

		depName, _ := rec.Name.resolve(bufs.StringBytes)
		depReq, _ := rec.Req.resolve(bufs.StringBytes)

		entry := DependencyEntry{
			Name:     depName,
			Req:      depReq,
			Behavior: behaviorFlagsFromByte(rec.Behavior),
		}

		if !resOverflow && uint32(j) < resSlice.Len {
			pkgIdx := bufs.Resolutions[uint64(resSlice.Off)+uint64(j)]
			if pkgIdx < uint32(packageCount) {
				v := int(pkgIdx)
				entry.ResolvedPackageIndex = &v
			}
		}

		entries[j] = entry
	}

	return entries, warnings
}
