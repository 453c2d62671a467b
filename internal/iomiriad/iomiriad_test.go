package iomiriad_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installTool places an executable shell script on a private PATH.
func installTool(t *testing.T, name, script string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools are not available on windows")
	}
	dir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t,
		os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func TestRun(t *testing.T) {
	installTool(t, "atlod", `echo "ATLOD: reading $1"`)

	r := iomiriad.New("")
	out, err := r.Run(context.Background(), "atlod", "in=raw/2012-01-06.rpf")
	require.NoError(t, err)
	assert.Contains(t, out, "ATLOD: reading in=raw/2012-01-06.rpf")
}

func TestRunWorkingDir(t *testing.T) {
	installTool(t, "pwdtool", "pwd")
	dir := t.TempDir()

	r := iomiriad.New(dir)
	out, err := r.Run(context.Background(), "pwdtool")
	require.NoError(t, err)

	// MacOS tempdirs live behind a /private symlink.
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Base(resolved))
}

func TestRunFailure(t *testing.T) {
	installTool(t, "mfcal", `echo "Fatal Error: no calibrator" >&2; exit 1`)

	r := iomiriad.New("")
	out, err := r.Run(context.Background(), "mfcal", "vis=whatever")
	require.Error(t, err)
	// The captured output is returned even on failure.
	assert.Contains(t, out, "no calibrator")
	assert.Contains(t, err.Error(), "mfcal")
}

func TestRunMissingTool(t *testing.T) {
	r := iomiriad.New("")
	_, err := r.Run(context.Background(), "no-such-tool-here")
	assert.Error(t, err)
}

func TestCheckTools(t *testing.T) {
	installTool(t, "uvsplit", "exit 0")

	assert.NoError(t, iomiriad.CheckTools("uvsplit"))
	assert.Error(t, iomiriad.CheckTools("uvsplit", "definitely-absent-tool"))
}

func TestKeyval(t *testing.T) {
	assert.Equal(t, "vis=day27.uv", iomiriad.Keyval("vis", "day27.uv"))
}
