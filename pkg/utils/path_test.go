package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	p, err := ResolvePath("~/.assemble/data")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".assemble", "data"), p)

	p, err = ResolvePath("")
	require.NoError(t, err)
	assert.Empty(t, p)

	p, err = ResolvePath("rel/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p))
}

func TestEnsureDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	abs, err := EnsureDataDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, abs)

	info, err := os.Stat(abs)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
