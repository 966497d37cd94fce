// Package manifest reads the sibling package.json of a bun.lockb file,
// grounded on the original bun-xray-core PackageJson reader.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PackageJSON is the subset of package.json fields the audit package's
// phantom-dependency rule needs.
type PackageJSON struct {
	Dependencies    map[string]string `json:"dependencies,omitempty"`
	DevDependencies map[string]string `json:"devDependencies,omitempty"`
}

// DeclaredNames returns the union of dependencies and devDependencies
// keys.
func (p *PackageJSON) DeclaredNames() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Dependencies)+len(p.DevDependencies))
	for name := range p.Dependencies {
		set[name] = struct{}{}
	}
	for name := range p.DevDependencies {
		set[name] = struct{}{}
	}
	return set
}

// Load reads and parses a package.json file at path. encoding/json is
// used rather than a third-party decoder: this is a small, fully
// static, trusted-shape local file, the kind of boundary the standard
// library already handles without surprises.
func Load(path string) (*PackageJSON, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pj PackageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return nil, err
	}
	return &pj, nil
}

// Resolve locates a package.json for a given lockfile path: an
// explicitly supplied path always wins, otherwise it looks for a
// package.json next to the lockfile. Returns (nil, nil) when no
// package.json applies — the audit package treats that as "phantom
// dependency detection unavailable", not an error (grounded on the
// original lockb-xray-cli's resolve_package_json).
func Resolve(lockfilePath string, explicit string) (*PackageJSON, error) {
	candidate := explicit
	if candidate == "" {
		candidate = filepath.Join(filepath.Dir(lockfilePath), "package.json")
		if _, err := os.Stat(candidate); err != nil {
			return nil, nil
		}
	}
	return Load(candidate)
}
