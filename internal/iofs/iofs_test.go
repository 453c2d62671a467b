package iofs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirs(t *testing.T) {
	home := t.TempDir()

	require.NoError(t, EnsureDirs(home))

	for _, dir := range []string{
		config.ConfigDir(home),
		config.CacheDir(home),
		config.LogDir(home),
	} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Second run is a no-op.
	require.NoError(t, EnsureDirs(home))
}

func TestEnsureConfigFile(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, EnsureDirs(home))

	require.NoError(t, EnsureConfigFile(home))

	data, err := os.ReadFile(config.ConfigFilePath(home))
	require.NoError(t, err)
	assert.Equal(t, ConfigYAML, string(data))

	// An existing file is never overwritten.
	custom := []byte("log:\n  level: debug\n")
	require.NoError(t,
		os.WriteFile(config.ConfigFilePath(home), custom, 0644))
	require.NoError(t, EnsureConfigFile(home))

	data, err = os.ReadFile(config.ConfigFilePath(home))
	require.NoError(t, err)
	assert.Equal(t, custom, data)
}

func TestEnsureRegistryFiles(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, EnsureDirs(home))

	require.NoError(t, EnsureRegistryFiles(home))

	days, err := os.ReadFile(config.DaysFilePath(home))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(days), "day,date,patterns"))

	cont, err := os.ReadFile(config.ContinuumFilePath(home))
	require.NoError(t, err)
	assert.True(t,
		strings.HasPrefix(string(cont), "min_long,max_long"))
}

func TestTouchDirOverFile(t *testing.T) {
	home := t.TempDir()
	blocker := filepath.Join(home, ".config")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := EnsureDirs(home)
	assert.Error(t, err)
}
