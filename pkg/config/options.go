package config

import (
	"strings"

	"github.com/gnames/gn"
)

// Option is a function that modifies a Config.
// Options validate inputs and reject invalid values with warnings.
type Option func(*Config)

// OptArchiveTapURL sets the sync endpoint of the ATOA TAP service.
func OptArchiveTapURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Archive TAP URL", s) {
			c.Archive.TapURL = s
		}
	}
}

// OptArchiveLoginURL sets the ATOA login endpoint.
func OptArchiveLoginURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Archive Login URL", s) {
			c.Archive.LoginURL = s
		}
	}
}

// OptArchiveDownloadURL sets the RPFITS retrieval service endpoint.
func OptArchiveDownloadURL(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Archive Download URL", s) {
			c.Archive.DownloadURL = s
		}
	}
}

// OptArchiveProjectCode sets the observing program code.
func OptArchiveProjectCode(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Archive Project Code", s) {
			c.Archive.ProjectCode = s
		}
	}
}

// OptDataDir sets the root of the day directories. An empty value is
// allowed and means the current working directory.
func OptDataDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Data.DataDir = s
	}
}

// OptRawDir sets the directory of the downloaded RPFITS recordings.
func OptRawDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Raw Data Dir", s) {
			c.Data.RawDir = s
		}
	}
}

// OptEmissionDir sets the directory of the HI emission survey cubes.
// An empty value disables the emission estimate.
func OptEmissionDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		c.Data.EmissionDir = s
	}
}

// OptMinFieldSN sets the field selection signal-to-noise threshold.
func OptMinFieldSN(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Min Field S/N", f) {
			c.Analysis.MinFieldSN = f
		}
	}
}

// OptMinSourceSN sets the component acceptance signal-to-noise threshold.
func OptMinSourceSN(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Min Source S/N", f) {
			c.Analysis.MinSourceSN = f
		}
	}
}

// OptMinSourceFlux sets the minimum component peak flux in Jy.
func OptMinSourceFlux(f float64) Option {
	return func(c *Config) {
		if isValidFloat("Min Source Flux", f) {
			c.Analysis.MinSourceFlux = f
		}
	}
}

// OptEdgeChannels sets the number of edge channels trimmed from spectra.
func OptEdgeChannels(i int) Option {
	return func(c *Config) {
		if i < 0 {
			gn.Warn("Edge Channels cannot be negative, ignoring %d", i)
			return
		}
		c.Analysis.EdgeChannels = i
	}
}

// OptExtractOnly reuses previous source finding results during analyse.
// Runtime-only field - not in ToOptions().
func OptExtractOnly(b bool) Option {
	return func(c *Config) {
		c.ExtractOnly = b
	}
}

// OptLogLevel sets the logging level.
func OptLogLevel(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "debug", "info", "warn", "error":
			c.Log.Level = s
		default:
			gn.Warn("Invalid Log Level '%s', keeping '%s'", s, c.Log.Level)
		}
	}
}

// OptLogFormat sets the logging format.
func OptLogFormat(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "json", "text":
			c.Log.Format = s
		default:
			gn.Warn("Invalid Log Format '%s', keeping '%s'", s, c.Log.Format)
		}
	}
}

// OptLogDestination sets where the log output goes.
func OptLogDestination(s string) Option {
	s = strings.ToLower(strings.TrimSpace(s))
	return func(c *Config) {
		switch s {
		case "file", "stdout", "stderr":
			c.Log.Destination = s
		default:
			gn.Warn("Invalid Log Destination '%s', keeping '%s'",
				s, c.Log.Destination)
		}
	}
}

// OptJobsNumber sets the number of concurrent workers. Zero or negative
// keeps the default (number of CPU threads), without a warning, so a
// config file may simply omit the field.
func OptJobsNumber(i int) Option {
	return func(c *Config) {
		if i > 0 {
			c.JobsNumber = i
		}
	}
}

// OptHomeDir sets the home directory used to derive config, cache and log
// paths. Runtime-only field - not in ToOptions().
func OptHomeDir(s string) Option {
	s = strings.TrimSpace(s)
	return func(c *Config) {
		if isValidString("Home Dir", s) {
			c.HomeDir = s
		}
	}
}

func isValidString(field, s string) bool {
	if s == "" {
		gn.Warn("%s cannot be empty, ignoring", field)
		return false
	}
	return true
}

func isValidFloat(field string, f float64) bool {
	if f <= 0 {
		gn.Warn("%s must be positive, ignoring %f", field, f)
		return false
	}
	return true
}
