package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGetPaths tests path resolution against the executable directory
func TestGetPaths(t *testing.T) {
	t.Run("basic path resolution", func(t *testing.T) {
		paths, err := GetPaths(Default().Paths)
		require.NoError(t, err)
		require.NotNil(t, paths)

		assert.True(t, filepath.IsAbs(paths.BaseDir), "BaseDir should be absolute")
		assert.Equal(t, filepath.Join(paths.BaseDir, "data"), paths.DataDir)
		assert.Equal(t, filepath.Join(paths.BaseDir, "data", "exports"), paths.ExportsDir)
		assert.Equal(t, filepath.Join(paths.BaseDir, "logs"), paths.LogsDir)
	})

	t.Run("consistent calls return same paths", func(t *testing.T) {
		paths1, err1 := GetPaths(Default().Paths)
		require.NoError(t, err1)

		paths2, err2 := GetPaths(Default().Paths)
		require.NoError(t, err2)

		assert.Equal(t, paths1, paths2)
	})
}

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	paths := NewPaths(base, PathsConfig{
		DataDir:    "data",
		ExportsDir: abs,
		LogsDir:    "",
	})

	assert.Equal(t, filepath.Join(base, "data"), paths.DataDir)
	assert.Equal(t, abs, paths.ExportsDir, "absolute paths are kept")
	assert.Empty(t, paths.LogsDir)
	assert.Equal(t, filepath.Join(base, "logs", "app.log"), paths.Resolve("logs/app.log"))
	assert.Equal(t, abs, paths.Resolve(abs))
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	paths := NewPaths(base, Default().Paths)

	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DataDir, paths.ExportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDirectories_Error(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "data")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not dir"), 0644))

	err := NewPaths(base, Default().Paths).EnsureDirectories()

	assert.Error(t, err)
}
