package ioprocess_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ktjameson/magmo-HI/internal/ioprocess"
	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const histoOutput = `
  All 1053 planes selected
  Maximum value 3.5000E-01 at pixel (512,511,300)
  Minimum value -4.2000E-02 at pixel (12,800,45)
  Mean 1.2000E-04  Rms 1.0000E-02
`

func stubTools(t *testing.T, names ...string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script tools are not available on windows")
	}
	dir := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(
			filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0755))
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

var allTools = []string{
	"uvflag", "mfcal", "gpcal", "gpcopy",
	"invert", "clean", "restor", "fits", "histo",
}

// fakeRunner records calls and fails any call whose rendered command
// contains the failOn substring.
type fakeRunner struct {
	calls  []string
	failOn string
}

func (f *fakeRunner) Run(_ context.Context, tool string, args ...string) (string, error) {
	call := tool + " " + strings.Join(args, " ")
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.Contains(call, f.failOn) {
		return "Fatal Error", assert.AnError
	}
	if tool == "histo" {
		return histoOutput, nil
	}
	return "", nil
}

func (f *fakeRunner) count(tool string) int {
	var n int
	for _, c := range f.calls {
		if strings.HasPrefix(c, tool+" ") {
			n++
		}
	}
	return n
}

func setup(t *testing.T, datasets ...string) (*config.Config, registry.Day) {
	t.Helper()
	cfg := config.New()
	cfg.Data.DataDir = t.TempDir()

	dayDir := filepath.Join(cfg.Data.DataDir, "day27")
	for _, ds := range datasets {
		require.NoError(t, os.MkdirAll(filepath.Join(dayDir, ds), 0755))
		require.NoError(t, os.WriteFile(
			filepath.Join(dayDir, ds, "header"), []byte("h"), 0644))
	}

	day := registry.Day{
		ID:       "27",
		Date:     "2012-01-06",
		Patterns: registry.Patterns{"2012-01-06*"},
	}
	return cfg, day
}

func TestProcess(t *testing.T) {
	stubTools(t, allTools...)
	cfg, day := setup(t,
		"1934-638.1420", "1934-638.1757", "0823-500.1420",
		"282.255-2.253.1420", "282.255-2.253.1757",
		"291.270-0.719.1420", "291.270-0.719.1757",
	)

	fr := &fakeRunner{}
	p := ioprocess.New(cfg, fr)

	res, err := p.Process(context.Background(), day)
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t,
		[]string{"282.255-2.253", "291.270-0.719"}, res.Processed)
	assert.Empty(t, res.Failed)

	// One bandpass solution per band.
	assert.Equal(t, 2, fr.count("mfcal"))
	// Solutions are copied to the secondary and every science dataset
	// present in each band.
	assert.Equal(t, 5, fr.count("gpcopy"))
	// Two images per field: continuum and cube.
	assert.Equal(t, 4, fr.count("invert"))
	assert.Equal(t, 4, fr.count("fits"))

	stats, err := ioregistry.ReadStats(
		filepath.Join(cfg.Data.DataDir, "day27", "stats.csv"))
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "282.255-2.253", stats[0].Field)
	assert.InDelta(t, 0.35, stats[0].Max, 1e-9)
	assert.InDelta(t, 0.01, stats[0].StdDev, 1e-9)
	assert.InDelta(t, 35.0, stats[0].SN, 1e-9)
}

func TestProcessPartialFailure(t *testing.T) {
	stubTools(t, allTools...)
	cfg, day := setup(t,
		"1934-638.1420", "1934-638.1757",
		"282.255-2.253.1420", "282.255-2.253.1757",
		"291.270-0.719.1420", "291.270-0.719.1757",
	)

	// Every command touching this dataset breaks; the other field must
	// still complete.
	fr := &fakeRunner{failOn: "282.255-2.253.1757"}

	p := ioprocess.New(cfg, fr)
	res, err := p.Process(context.Background(), day)
	require.NoError(t, err)

	assert.Equal(t, []string{"291.270-0.719"}, res.Processed)
	assert.Equal(t, []string{"282.255-2.253"}, res.Failed)

	stats, err := ioregistry.ReadStats(
		filepath.Join(cfg.Data.DataDir, "day27", "stats.csv"))
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "291.270-0.719", stats[0].Field)
}

func TestProcessNoDatasets(t *testing.T) {
	stubTools(t, allTools...)
	cfg, day := setup(t)
	require.NoError(t, os.MkdirAll(
		filepath.Join(cfg.Data.DataDir, "day27"), 0755))

	p := ioprocess.New(cfg, &fakeRunner{})
	res, err := p.Process(context.Background(), day)
	require.NoError(t, err)

	assert.Empty(t, res.Processed)
	assert.Empty(t, res.Failed)
}

func TestProcessMissingTools(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "empty-bin")
	require.NoError(t, os.MkdirAll(dir, 0755))
	t.Setenv("PATH", dir)

	cfg, day := setup(t, "1934-638.1420")
	p := ioprocess.New(cfg, &fakeRunner{})
	_, err := p.Process(context.Background(), day)
	assert.Error(t, err)
}

func TestParseHisto(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		max, rms float64
		ok       bool
	}{
		{
			name:   "standard layout",
			output: histoOutput,
			max:    0.35, rms: 0.01, ok: true,
		},
		{
			name:   "colon separated",
			output: "Maximum: 1.5\nRms: 0.5\n",
			max:    1.5, rms: 0.5, ok: true,
		},
		{
			name:   "missing rms",
			output: "Maximum value 1.5\n",
			ok:     false,
		},
		{
			name:   "empty",
			output: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			max, rms, ok := ioprocess.ParseHisto(tt.output)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.max, max, 1e-9)
				assert.InDelta(t, tt.rms, rms, 1e-9)
			}
		})
	}
}
