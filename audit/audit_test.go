package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockscan/bunlock"
	"github.com/lockscan/bunlock/manifest"
)

func npmPackage(name, version, registry, integrity string) bunlock.Package {
	return bunlock.Package{
		Name:       name,
		Resolution: bunlock.ResolutionNpmKind{Version: version, Registry: registry},
		Integrity:  integrity,
	}
}

func TestScanPhantomDependency(t *testing.T) {
	lf := &bunlock.Lockfile{
		Packages: []bunlock.Package{
			npmPackage("declared", "1.0.0", "https://registry.npmjs.org/declared", "sha512-abcdefghij"),
			npmPackage("undeclared", "1.0.0", "https://registry.npmjs.org/undeclared", "sha512-abcdefghij"),
		},
	}
	pj := &manifest.PackageJSON{Dependencies: map[string]string{"declared": "1.0.0"}}

	report := Scan(lf, nil, pj)
	require.Len(t, report.PhantomDependencies, 1)
	assert.Equal(t, "undeclared", report.PhantomDependencies[0].Name)
}

func TestScanSkipsPhantomCheckWithoutPackageJSON(t *testing.T) {
	lf := &bunlock.Lockfile{
		Packages: []bunlock.Package{
			npmPackage("a", "1.0.0", "https://registry.npmjs.org/a", "sha512-abcdefghij"),
		},
	}
	report := Scan(lf, nil, nil)
	assert.Empty(t, report.PhantomDependencies)
}

func TestScanUntrustedRegistry(t *testing.T) {
	lf := &bunlock.Lockfile{
		Packages: []bunlock.Package{
			npmPackage("a", "1.0.0", "https://registry.npmjs.org/a", "sha512-abcdefghij"),
			npmPackage("b", "1.0.0", "https://sketchy-mirror.example/b", "sha512-abcdefghij"),
		},
	}
	report := Scan(lf, nil, nil)
	require.Len(t, report.UntrustedRegistries, 1)
	assert.Equal(t, "b", report.UntrustedRegistries[0].Name)
}

func TestScanMissingAndInvalidIntegrity(t *testing.T) {
	lf := &bunlock.Lockfile{
		Packages: []bunlock.Package{
			npmPackage("missing", "1.0.0", "https://registry.npmjs.org/missing", ""),
			npmPackage("bad", "1.0.0", "https://registry.npmjs.org/bad", "short"),
			npmPackage("good", "1.0.0", "https://registry.npmjs.org/good", "sha512-abcdefghij"),
		},
	}
	report := Scan(lf, nil, nil)
	require.Len(t, report.MissingIntegrity, 1)
	assert.Equal(t, "missing", report.MissingIntegrity[0].Name)
	require.Len(t, report.IntegrityMismatches, 1)
	assert.Equal(t, "bad", report.IntegrityMismatches[0].Name)
}

func TestScanSuspiciousVersion(t *testing.T) {
	lf := &bunlock.Lockfile{
		Packages: []bunlock.Package{
			{Name: "gitdep", Resolution: bunlock.ResolutionGitKind{Repo: "git@example.com:x/y", Commit: "abc123"}},
			npmPackage("normal", "1.2.3", "https://registry.npmjs.org/normal", "sha512-abcdefghij"),
		},
	}
	report := Scan(lf, nil, nil)
	require.Len(t, report.SuspiciousVersions, 1)
	assert.Equal(t, "gitdep", report.SuspiciousVersions[0].Name)
}

func TestReportSeverityAndExitCode(t *testing.T) {
	clean := Report{}
	assert.Equal(t, SeverityClean, clean.Severity())
	assert.Equal(t, 0, clean.ExitCode())

	findings := Report{PhantomDependencies: []bunlock.Package{{Name: "x"}}}
	assert.Equal(t, SeverityFindings, findings.Severity())
	assert.Equal(t, 1, findings.ExitCode())

	critical := Report{IntegrityMismatches: []bunlock.Package{{Name: "x"}}}
	assert.Equal(t, SeverityCritical, critical.Severity())
	assert.Equal(t, 2, critical.ExitCode())
}

func TestRegistryHostCounts(t *testing.T) {
	packages := []bunlock.Package{
		npmPackage("a", "1.0.0", "https://registry.npmjs.org/a", ""),
		npmPackage("b", "1.0.0", "https://registry.npmjs.org/b", ""),
		npmPackage("c", "1.0.0", "https://example.com/c", ""),
	}
	counts := RegistryHostCounts(packages)
	assert.Equal(t, 2, counts["registry.npmjs.org"])
	assert.Equal(t, 1, counts["example.com"])
}
