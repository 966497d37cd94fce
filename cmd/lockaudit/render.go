// Copyright 2021 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/lockscan/bunlock"
	"github.com/lockscan/bunlock/audit"
)

// renderSummary prints the one-line-per-rule overview, grounded on the
// original run_audit's render_summary.
func renderSummary(r audit.Report) {
	pterm.Success.Printfln("%d packages parsed", r.TotalPackages)

	if len(r.PhantomDependencies) == 0 {
		pterm.Success.Println("No phantom dependencies")
	} else {
		pterm.Error.Printfln("%d phantom dependencies", len(r.PhantomDependencies))
	}

	if len(r.UntrustedRegistries) == 0 {
		pterm.Success.Println("All registries trusted")
	} else {
		pterm.Warning.Printfln("%d packages from untrusted registry (%s)",
			len(r.UntrustedRegistries), formatHostCounts(r.UntrustedRegistries))
	}

	if len(r.IntegrityMismatches) == 0 {
		pterm.Success.Println("Integrity OK")
	} else {
		top := r.IntegrityMismatches[0]
		pterm.Error.Printfln("HIGH: %s@%s integrity mismatch", top.Name, top.Version())
	}

	if len(r.MissingIntegrity) > 0 {
		pterm.Warning.Printfln("%d packages missing an integrity hash", len(r.MissingIntegrity))
	}
}

// renderTables prints one combined findings table, grounded on the
// original render_tables' comfy_table layout.
func renderTables(r audit.Report) {
	rows := [][]string{{"Issue", "Package", "Version", "Registry"}}

	add := func(issue string, packages []bunlock.Package) {
		for _, p := range packages {
			rows = append(rows, []string{issue, p.Name, p.Version(), p.RegistryURL()})
		}
	}

	add("Phantom", r.PhantomDependencies)
	add("Untrusted Registry", r.UntrustedRegistries)
	add("Integrity Mismatch", r.IntegrityMismatches)
	add("Missing Integrity", r.MissingIntegrity)
	add("Suspicious Version", r.SuspiciousVersions)

	if len(rows) == 1 {
		return
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println()
	fmt.Println(table)
}

// renderVerbose prints trailer diagnostics, grounded on the original
// run_audit's --verbose eprintln block.
func renderVerbose(r audit.Report) {
	for _, w := range r.Warnings {
		pterm.Warning.Printfln("[warn] %s", w.String())
	}
	t := r.Trailers
	if t.HasEmptyTrusted {
		pterm.Info.Println("trustedDependencies present but empty")
	}
	if len(t.TrustedHashes) > 0 {
		pterm.Info.Printfln("trustedDependencies count=%d", len(t.TrustedHashes))
	}
	if len(t.Overrides) > 0 {
		pterm.Info.Printfln("overrides entries=%d", len(t.Overrides))
	}
	if len(t.Patched) > 0 {
		pterm.Info.Printfln("patched dependencies=%d", len(t.Patched))
	}
	if len(t.DefaultCatalog) > 0 {
		pterm.Info.Printfln("default catalog entries=%d", len(t.DefaultCatalog))
	}
	if t.WorkspaceCount > 0 {
		pterm.Info.Printfln("workspace packages=%d", t.WorkspaceCount)
	}
	if t.ConfigVersion != nil {
		pterm.Info.Printfln("config version=%d", *t.ConfigVersion)
	}
}

// formatHostCounts renders a "host: count, host: count" summary,
// grounded on the original summarize_registry_counts.
func formatHostCounts(packages []bunlock.Package) string {
	counts := audit.RegistryHostCounts(packages)
	first := true
	s := ""
	for host, count := range counts {
		if !first {
			s += ", "
		}
		first = false
		s += fmt.Sprintf("%s: %d", host, count)
	}
	return s
}
