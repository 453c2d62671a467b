// Package magmo defines the contracts for the MAGMO HI pipeline stages.
//
// Each stage of the pipeline is expressed as a small interface. The
// implementations live in internal/io* packages and are wired together by
// the CLI. Stages are run one day at a time; a failure for one day or one
// source is reported and does not stop the remaining work.
package magmo

import (
	"context"

	"github.com/ktjameson/magmo-HI/pkg/registry"
)

// Finder locates the raw RPFITS files for a day in the ATOA archive and
// writes the list of download URLs for that day.
type Finder interface {
	// Find queries the archive for the day's observations, skips
	// calibration-only scans, and writes filelist/day<d>.txt.
	Find(ctx context.Context, day registry.Day) error
}

// Loader converts a day's raw recordings into per-source visibility
// datasets and archives the pristine flag/header/history state of each
// dataset before any later stage mutates it.
type Loader interface {
	// Load runs the conversion and split for one day. Zero sources found
	// in a recording is a warning, not an error.
	Load(ctx context.Context, day registry.Day) (*LoadResult, error)
}

// LoadResult reports what a Load run produced.
type LoadResult struct {
	RunID    string
	Datasets []string
	Warnings []string
}

// Processor flags, calibrates and images the loaded datasets of a day.
// Calibration failure for one source must not abort the other sources.
type Processor interface {
	Process(ctx context.Context, day registry.Day) (*ProcessResult, error)
}

// ProcessResult reports per-source outcomes of a Process run.
type ProcessResult struct {
	RunID     string
	Processed []string
	Failed    []string
	Stats     []registry.FieldStats
}

// Analyser finds background sources on the continuum images of a day and
// extracts an opacity spectrum for each detection. Zero detections for a
// field produce zero spectrum files and no error.
type Analyser interface {
	Analyse(ctx context.Context, day registry.Day) (*AnalyseResult, error)
}

// AnalyseResult reports what an Analyse run produced.
type AnalyseResult struct {
	Fields   int
	Spectra  int
	Skipped  int
	Warnings []string
}

// Aggregator reads every spectrum produced across all days and builds the
// spectra catalogue, the longitude-velocity diagram and the summary
// histograms. Spectra with broken or missing metadata are skipped with a
// warning so one bad day cannot poison the campaign summary.
type Aggregator interface {
	Aggregate(ctx context.Context) (*AggregateResult, error)
}

// AggregateResult reports catalogue totals for an Aggregate run.
type AggregateResult struct {
	Spectra int
	Skipped int
}

// Decomposer fits each catalogued spectrum with a sum of Gaussian velocity
// components. Non-convergence is recorded per spectrum, never fatal.
type Decomposer interface {
	Decompose(ctx context.Context) (*DecomposeResult, error)
}

// DecomposeResult reports fit totals for a Decompose run.
type DecomposeResult struct {
	Spectra      int
	Components   int
	NonConverged int
}

// Examiner turns fitted components into gas physical properties and writes
// the gas catalogue.
type Examiner interface {
	Examine(ctx context.Context) (*ExamineResult, error)
}

// ExamineResult reports totals for an Examine run.
type ExamineResult struct {
	Components int
	Gas        int
}

// Cleaner reverses the pipeline for a day. Scope selects how much is
// removed. Cleaning a day with no prior output is a no-op.
type Cleaner interface {
	Clean(ctx context.Context, day registry.Day, scope CleanScope) (*CleanResult, error)
}

// CleanScope selects which derived products a Clean run removes.
type CleanScope int

const (
	// CleanAnalysis removes analysis outputs only: spectra, plots,
	// source lists and the day's entries in the catalogues.
	CleanAnalysis CleanScope = iota
	// CleanFull also deletes images and cubes and restores the archived
	// flag/header/history state of every dataset.
	CleanFull
)

// CleanResult reports what a Clean run removed.
type CleanResult struct {
	Removed  int
	Restored int
}
