package config_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestDirs(t *testing.T) {
	home := filepath.Join("home", "user")

	assert.Equal(t, filepath.Join(home, ".config", "magmo"),
		config.ConfigDir(home))
	assert.Equal(t, filepath.Join(home, ".cache", "magmo"),
		config.CacheDir(home))
	assert.Equal(t, filepath.Join(home, ".local", "share", "magmo", "logs"),
		config.LogDir(home))
	assert.Equal(t, filepath.Join(home, ".config", "magmo", "config.yaml"),
		config.ConfigFilePath(home))
	assert.Equal(t, filepath.Join(home, ".config", "magmo", "days.csv"),
		config.DaysFilePath(home))
	assert.Equal(t,
		filepath.Join(home, ".config", "magmo", "magmo-continuum.csv"),
		config.ContinuumFilePath(home))
}

func TestNew(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, "C2291", cfg.Archive.ProjectCode)
	assert.Equal(t, "rawdata", cfg.Data.RawDir)
	assert.Equal(t, 1.3, cfg.Analysis.MinFieldSN)
	assert.Equal(t, 10.0, cfg.Analysis.MinSourceSN)
	assert.Equal(t, 0.02, cfg.Analysis.MinSourceFlux)
	assert.Equal(t, 10, cfg.Analysis.EdgeChannels)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, runtime.NumCPU(), cfg.JobsNumber)
}

func TestOptionsValid(t *testing.T) {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptArchiveProjectCode("C111"),
		config.OptDataDir("/data/magmo"),
		config.OptRawDir("raw"),
		config.OptMinFieldSN(2.0),
		config.OptMinSourceSN(5),
		config.OptMinSourceFlux(0.05),
		config.OptEdgeChannels(4),
		config.OptLogLevel("debug"),
		config.OptLogFormat("text"),
		config.OptLogDestination("stderr"),
		config.OptJobsNumber(3),
		config.OptHomeDir("/home/obs"),
		config.OptExtractOnly(true),
	})

	assert.Equal(t, "C111", cfg.Archive.ProjectCode)
	assert.Equal(t, "/data/magmo", cfg.Data.DataDir)
	assert.Equal(t, "raw", cfg.Data.RawDir)
	assert.Equal(t, 2.0, cfg.Analysis.MinFieldSN)
	assert.Equal(t, 5.0, cfg.Analysis.MinSourceSN)
	assert.Equal(t, 0.05, cfg.Analysis.MinSourceFlux)
	assert.Equal(t, 4, cfg.Analysis.EdgeChannels)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "stderr", cfg.Log.Destination)
	assert.Equal(t, 3, cfg.JobsNumber)
	assert.Equal(t, "/home/obs", cfg.HomeDir)
	assert.True(t, cfg.ExtractOnly)
}

func TestOptionsInvalid(t *testing.T) {
	tests := []struct {
		name string
		opt  config.Option
	}{
		{"empty raw dir", config.OptRawDir("")},
		{"negative field sn", config.OptMinFieldSN(-1)},
		{"zero source sn", config.OptMinSourceSN(0)},
		{"negative edge channels", config.OptEdgeChannels(-2)},
		{"bad log level", config.OptLogLevel("chatty")},
		{"bad log format", config.OptLogFormat("xml")},
		{"bad log destination", config.OptLogDestination("syslog")},
		{"zero jobs", config.OptJobsNumber(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Invalid options must leave the defaults untouched.
			cfg := config.New()
			def := *config.New()
			cfg.Update([]config.Option{tt.opt})

			assert.Equal(t, def.Data.RawDir, cfg.Data.RawDir)
			assert.Equal(t, def.Analysis, cfg.Analysis)
			assert.Equal(t, def.Log, cfg.Log)
			assert.Equal(t, def.JobsNumber, cfg.JobsNumber)
		})
	}
}

func TestToOptionsRoundTrip(t *testing.T) {
	orig := config.New()
	orig.Update([]config.Option{
		config.OptMinFieldSN(1.9),
		config.OptLogFormat("text"),
		config.OptJobsNumber(2),
	})

	cfg := config.New()
	cfg.Update(orig.ToOptions())

	assert.Equal(t, orig.Archive, cfg.Archive)
	assert.Equal(t, orig.Analysis, cfg.Analysis)
	assert.Equal(t, orig.Log, cfg.Log)
	assert.Equal(t, orig.JobsNumber, cfg.JobsNumber)
}

func TestToOptionsExcludesRuntimeFields(t *testing.T) {
	orig := config.New()
	orig.Update([]config.Option{
		config.OptHomeDir("/home/obs"),
		config.OptExtractOnly(true),
	})

	cfg := config.New()
	cfg.Update(orig.ToOptions())

	assert.Empty(t, cfg.HomeDir)
	assert.False(t, cfg.ExtractOnly)
}
