// Package config provides configuration management for the MAGMO pipeline.
//
// This package has no I/O dependencies (no file operations, no network
// calls). Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Archive: tap_url, login_url, download_url, project_code
//   - Data: data_dir, raw_dir, emission_dir
//   - Analysis: min_field_sn, min_source_sn, min_source_flux, edge_channels
//   - Log: level, format, destination
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - ExtractOnly (per-command)
//   - HomeDir (set once at startup)
package config

import (
	"runtime"
)

// Config represents the complete magmo configuration.
type Config struct {
	// Archive contains the ATOA archive endpoints used by `magmo find`.
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`

	// Data locates the campaign's raw and derived files.
	Data DataConfig `mapstructure:"data" yaml:"data"`

	// Analysis holds the thresholds of the source finding and spectrum
	// extraction stages.
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// JobsNumber is the number of concurrent workers used where a stage
	// can read independent files in parallel (aggregate).
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// ExtractOnly reuses previous source finding results during analyse.
	// Runtime-only, set by the --extract-only flag.
	ExtractOnly bool `mapstructure:"-" yaml:"-"`

	// HomeDir determines where config, cache and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string `mapstructure:"-" yaml:"-"`
}

// ArchiveConfig contains the ATOA service endpoints.
type ArchiveConfig struct {
	// TapURL is the sync endpoint of the ATOA TAP service.
	TapURL string `mapstructure:"tap_url" yaml:"tap_url"`

	// LoginURL is the ATOA web login endpoint used to obtain a download
	// session.
	LoginURL string `mapstructure:"login_url" yaml:"login_url"`

	// DownloadURL is the RPFITS retrieval service.
	DownloadURL string `mapstructure:"download_url" yaml:"download_url"`

	// ProjectCode is the observing program whose files are retrieved.
	ProjectCode string `mapstructure:"project_code" yaml:"project_code"`
}

// DataConfig locates the campaign files on disk.
type DataConfig struct {
	// DataDir is the root of the day directories and catalogues.
	// Empty means the current working directory.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// RawDir holds the downloaded RPFITS recordings, relative to DataDir
	// unless absolute.
	RawDir string `mapstructure:"raw_dir" yaml:"raw_dir"`

	// EmissionDir holds the HI emission survey cubes used to estimate
	// the emission around each absorption spectrum, relative to DataDir
	// unless absolute. An empty or missing directory disables the
	// emission estimate.
	EmissionDir string `mapstructure:"emission_dir" yaml:"emission_dir"`
}

// AnalysisConfig holds source finding and spectrum extraction thresholds.
type AnalysisConfig struct {
	// MinFieldSN is the signal-to-noise a field needs before its
	// continuum image is searched for background sources.
	MinFieldSN float64 `mapstructure:"min_field_sn" yaml:"min_field_sn"`

	// MinSourceSN is the signal-to-noise a detected component needs to
	// have a spectrum extracted.
	MinSourceSN float64 `mapstructure:"min_source_sn" yaml:"min_source_sn"`

	// MinSourceFlux is the minimum peak flux in Jy for a component.
	MinSourceFlux float64 `mapstructure:"min_source_flux" yaml:"min_source_flux"`

	// EdgeChannels is the number of channels dropped from each end of a
	// spectrum after the empty leading/trailing channels are removed.
	EdgeChannels int `mapstructure:"edge_channels" yaml:"edge_channels"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json' or 'text'.
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Archive: ArchiveConfig{
			TapURL:      "http://atoavo.atnf.csiro.au/tap/sync",
			LoginURL:    "http://atoa.atnf.csiro.au/login",
			DownloadURL: "http://atoa.atnf.csiro.au/RPFITS",
			ProjectCode: "C2291",
		},
		Data: DataConfig{
			DataDir:     "",
			RawDir:      "rawdata",
			EmissionDir: "sgps",
		},
		Analysis: AnalysisConfig{
			MinFieldSN:    1.3,
			MinSourceSN:   10,
			MinSourceFlux: 0.02,
			EdgeChannels:  10,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		JobsNumber: runtime.NumCPU(),
	}
	return res
}

// Update applies the given options to the config in order.
func (c *Config) Update(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// ToOptions converts the persistent fields of the config into Option
// functions. Runtime-only fields (HomeDir, ExtractOnly) are excluded.
func (c *Config) ToOptions() []Option {
	return []Option{
		OptArchiveTapURL(c.Archive.TapURL),
		OptArchiveLoginURL(c.Archive.LoginURL),
		OptArchiveDownloadURL(c.Archive.DownloadURL),
		OptArchiveProjectCode(c.Archive.ProjectCode),
		OptDataDir(c.Data.DataDir),
		OptRawDir(c.Data.RawDir),
		OptEmissionDir(c.Data.EmissionDir),
		OptMinFieldSN(c.Analysis.MinFieldSN),
		OptMinSourceSN(c.Analysis.MinSourceSN),
		OptMinSourceFlux(c.Analysis.MinSourceFlux),
		OptEdgeChannels(c.Analysis.EdgeChannels),
		OptLogLevel(c.Log.Level),
		OptLogFormat(c.Log.Format),
		OptLogDestination(c.Log.Destination),
		OptJobsNumber(c.JobsNumber),
	}
}
