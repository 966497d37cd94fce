package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndDeclaredNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"dependencies": {"left-pad": "^1.0.0"},
		"devDependencies": {"jest": "^29.0.0"}
	}`), 0o644))

	pj, err := Load(path)
	require.NoError(t, err)

	declared := pj.DeclaredNames()
	assert.Contains(t, declared, "left-pad")
	assert.Contains(t, declared, "jest")
	assert.NotContains(t, declared, "phantom-pkg")
}

func TestResolveSiblingDiscovery(t *testing.T) {
	dir := t.TempDir()
	lockfile := filepath.Join(dir, "bun.lockb")
	sibling := filepath.Join(dir, "package.json")
	require.NoError(t, os.WriteFile(sibling, []byte(`{"dependencies":{"a":"1.0.0"}}`), 0o644))

	pj, err := Resolve(lockfile, "")
	require.NoError(t, err)
	require.NotNil(t, pj)
	assert.Contains(t, pj.DeclaredNames(), "a")
}

func TestResolveNoSiblingReturnsNil(t *testing.T) {
	dir := t.TempDir()
	lockfile := filepath.Join(dir, "bun.lockb")

	pj, err := Resolve(lockfile, "")
	require.NoError(t, err)
	assert.Nil(t, pj)
}

func TestResolveExplicitPathWins(t *testing.T) {
	dir := t.TempDir()
	lockfile := filepath.Join(dir, "bun.lockb")
	explicit := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(explicit, []byte(`{"dependencies":{"b":"2.0.0"}}`), 0o644))

	pj, err := Resolve(lockfile, explicit)
	require.NoError(t, err)
	require.NotNil(t, pj)
	assert.Contains(t, pj.DeclaredNames(), "b")
}
