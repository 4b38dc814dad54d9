package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".conferente"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".conferente", "conferente.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".conferente", "history.sqlite"), p.HistorySQLite)
	assert.Equal(t, filepath.Join("/project", ".conferente", "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join("/project", ".conferente", "log"), p.LogDir)
	assert.Equal(t, filepath.Join("/project", ".conferente", "log", "serve.log"), p.LogFile)
	assert.Equal(t, filepath.Join("/project", ".conferente", "run"), p.RunDir)
	assert.Equal(t, filepath.Join("/project", ".conferente", "run", "http.addr"), p.AddrFile)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.LogDir, p.RunDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestCleanEphemeral(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())
	require.NoError(t, os.WriteFile(p.AddrFile, []byte("127.0.0.1:8765"), 0644))

	p.CleanEphemeral()
	_, err := os.Stat(p.AddrFile)
	assert.True(t, os.IsNotExist(err))

	// Nothing to clean is fine.
	p.CleanEphemeral()
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, NewPaths(root).EnsureDirs())
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	got := FindRoot(nested)
	want, _ := filepath.EvalSymlinks(root)
	gotReal, _ := filepath.EvalSymlinks(got)
	assert.Equal(t, want, gotReal)
}

func TestFindRoot_FallsBackToDir(t *testing.T) {
	dir := t.TempDir()
	abs, _ := filepath.Abs(dir)
	// No .conferente anywhere above a fresh temp dir is assumed.
	if FindRoot(dir) != abs {
		t.Skip("an ancestor of the temp dir already holds a .conferente directory")
	}
	assert.Equal(t, abs, FindRoot(dir))
}
