// Package audit implements the boundary-level supply-chain rules run
// over a decoded lockfile, grounded on the original bun-xray-core
// SecurityScanner trait.
package audit

import (
	"strings"

	"github.com/lockscan/bunlock"
	"github.com/lockscan/bunlock/manifest"
)

// trustedRegistryHosts mirrors is_registry_trusted's substring checks.
var trustedRegistryHosts = []string{
	"npmjs.org",
	"npmjs.com",
	"jsr",
	"github.com",
}

// extractHost mirrors the original extract_host: take whatever follows
// "://", or the whole string if there's no scheme, up to the first '/'.
func extractHost(url string) string {
	s := url
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

func isRegistryTrusted(registryURL string) bool {
	host := strings.ToLower(extractHost(registryURL))
	if host == "npm" {
		return true
	}
	for _, trusted := range trustedRegistryHosts {
		if strings.Contains(host, trusted) {
			return true
		}
	}
	return false
}

func isIntegrityValid(hash string) bool {
	h := strings.ToLower(strings.TrimSpace(hash))
	return strings.HasPrefix(h, "sha") && len(h) > 10
}

func isVersionSuspicious(version string) bool {
	v := strings.TrimSpace(version)
	return strings.HasPrefix(v, "git+") ||
		strings.Contains(v, "://") ||
		strings.HasPrefix(v, "file:") ||
		strings.Contains(v, "#") ||
		strings.Contains(v, "-")
}

// Report is the scan result, mirroring the original ScanResult shape.
type Report struct {
	TotalPackages       int                `json:"total_packages"`
	PhantomDependencies []bunlock.Package  `json:"phantom_dependencies,omitempty"`
	UntrustedRegistries []bunlock.Package  `json:"untrusted_registries,omitempty"`
	IntegrityMismatches []bunlock.Package  `json:"integrity_mismatches,omitempty"`
	SuspiciousVersions  []bunlock.Package  `json:"suspicious_versions,omitempty"`
	MissingIntegrity    []bunlock.Package  `json:"missing_integrity,omitempty"`
	Warnings            []bunlock.Warning  `json:"warnings,omitempty"`
	Trailers            bunlock.TrailerInfo `json:"-"`
}

// Scan runs every rule over lf. pkgJSON may be nil, in which case the
// phantom-dependency rule is skipped entirely (there is nothing
// "declared" to compare against).
func Scan(lf *bunlock.Lockfile, warnings []bunlock.Warning, pkgJSON *manifest.PackageJSON) Report {
	var declared map[string]struct{}
	if pkgJSON != nil {
		declared = pkgJSON.DeclaredNames()
	}

	report := Report{
		TotalPackages: len(lf.Packages),
		Warnings:      warnings,
		Trailers:      lf.Trailers,
	}

	for _, pkg := range lf.Packages {
		if declared != nil {
			if _, ok := declared[pkg.Name]; !ok {
				report.PhantomDependencies = append(report.PhantomDependencies, pkg)
			}
		}

		if !isRegistryTrusted(pkg.RegistryURL()) {
			report.UntrustedRegistries = append(report.UntrustedRegistries, pkg)
		}

		if pkg.Integrity == "" {
			report.MissingIntegrity = append(report.MissingIntegrity, pkg)
		} else if !isIntegrityValid(pkg.Integrity) {
			report.IntegrityMismatches = append(report.IntegrityMismatches, pkg)
		}

		if isVersionSuspicious(pkg.Version()) {
			report.SuspiciousVersions = append(report.SuspiciousVersions, pkg)
		}
	}

	return report
}

// RegistryHostCounts summarizes untrusted-registry packages by host,
// grounded on the original summarize_registry_counts.
func RegistryHostCounts(packages []bunlock.Package) map[string]int {
	counts := make(map[string]int)
	for _, pkg := range packages {
		host := extractHost(pkg.RegistryURL())
		if host == "" {
			host = "unknown"
		}
		counts[host]++
	}
	return counts
}
