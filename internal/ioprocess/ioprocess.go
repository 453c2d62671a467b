// Package ioprocess flags, calibrates and images a day's source datasets.
// Bandpass and flux calibration is solved on 1934-638, gain solutions are
// copied onto every science dataset, and each field is imaged twice: a
// 1757 MHz continuum image and a 1420 MHz spectral-line cube. A failure
// for one source never aborts the rest of the day.
package ioprocess

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/gnames/gn"
	"github.com/google/uuid"
	"github.com/ktjameson/magmo-HI/internal/ioload"
	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
)

const (
	bandpassCal  = "1934-638"
	secondaryCal = "0823-500"

	contFreq = "1757"
	lineFreq = "1420"
)

// requiredTools are checked up front so a missing toolkit cannot leave a
// day half processed.
var requiredTools = []string{
	"uvflag", "mfcal", "gpcal", "gpcopy",
	"invert", "clean", "restor", "fits", "histo",
}

// Processor implements the calibration and imaging stage.
type Processor struct {
	cfg    *config.Config
	runner iomiriad.Runner
}

// New creates a Processor driving the given tool runner.
func New(cfg *config.Config, runner iomiriad.Runner) *Processor {
	return &Processor{cfg: cfg, runner: runner}
}

// Process calibrates and images one day and writes the day's stats.csv.
func (p *Processor) Process(ctx context.Context, day registry.Day) (*magmo.ProcessResult, error) {
	if err := iomiriad.CheckTools(requiredTools...); err != nil {
		return nil, err
	}

	res := &magmo.ProcessResult{RunID: uuid.NewString()}
	slog.Info("Processing day", "day", day.ID, "run_id", res.RunID)

	dayDir := filepath.Join(p.cfg.Data.DataDir, day.DirName())
	datasets, err := ioload.Datasets(dayDir)
	if err != nil {
		return nil, FlagError(day.ID, err)
	}
	if len(datasets) == 0 {
		gn.Warn("Day %s has no loaded datasets; run load first", day.ID)
		return res, nil
	}

	fields, freqs := partition(datasets)

	for _, freq := range freqs {
		if err := p.calibrate(ctx, dayDir, fields, freq); err != nil {
			// A band without a calibrator solution still gets imaged;
			// its spectra are only useful for bookkeeping, but the
			// failure stays visible per field below.
			gn.Warn("Day %s: calibration failed for %s MHz: %v",
				day.ID, freq, err)
		}
	}

	bar := pb.Full.Start(len(fields))
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for _, field := range fields {
		if err := p.imageField(ctx, dayDir, field); err != nil {
			slog.Error("Field failed", "day", day.ID, "field", field,
				"error", err)
			res.Failed = append(res.Failed, field)
			bar.Increment()
			continue
		}
		res.Processed = append(res.Processed, field)
		bar.Increment()
	}

	stats := p.fieldStats(ctx, dayDir, res.Processed)
	res.Stats = stats
	if err := ioregistry.WriteStats(
		filepath.Join(dayDir, "stats.csv"), stats); err != nil {
		return nil, StatsError(day.ID, err)
	}

	gn.Info("Day %s: processed %d fields, %d failed",
		day.ID, len(res.Processed), len(res.Failed))
	return res, nil
}

// partition splits dataset names into science field names and the set of
// frequency bands present. Calibrator datasets are excluded from fields.
func partition(datasets []string) (fields, freqs []string) {
	fieldSet := make(map[string]bool)
	freqSet := make(map[string]bool)

	for _, ds := range datasets {
		source, freq, ok := splitDataset(ds)
		if !ok {
			continue
		}
		freqSet[freq] = true
		if source == bandpassCal || source == secondaryCal {
			continue
		}
		fieldSet[source] = true
	}

	for f := range fieldSet {
		fields = append(fields, f)
	}
	for f := range freqSet {
		freqs = append(freqs, f)
	}
	sort.Strings(fields)
	sort.Strings(freqs)
	return fields, freqs
}

// splitDataset separates "<source>.<freq>" on the last dot, because
// field names themselves contain dots (galactic coordinates).
func splitDataset(ds string) (source, freq string, ok bool) {
	i := strings.LastIndex(ds, ".")
	if i <= 0 || i == len(ds)-1 {
		return "", "", false
	}
	return ds[:i], ds[i+1:], true
}

// calibrate solves bandpass and gains on the calibrators of one band and
// copies the solutions onto every science dataset.
func (p *Processor) calibrate(ctx context.Context, dayDir string, fields []string, freq string) error {
	calVis := filepath.Join(dayDir, bandpassCal+"."+freq)
	if _, err := os.Stat(calVis); err != nil {
		return CalibrateError(bandpassCal+"."+freq, err)
	}

	// Birdie channels at the band edges corrupt the bandpass solution.
	if _, err := p.runner.Run(ctx, "uvflag",
		iomiriad.Keyval("vis", calVis),
		iomiriad.Keyval("edge", "10"),
		iomiriad.Keyval("flagval", "flag"),
	); err != nil {
		return FlagError(bandpassCal+"."+freq, err)
	}

	if _, err := p.runner.Run(ctx, "mfcal",
		iomiriad.Keyval("vis", calVis),
		iomiriad.Keyval("interval", "0.1"),
	); err != nil {
		return CalibrateError(bandpassCal+"."+freq, err)
	}
	if _, err := p.runner.Run(ctx, "gpcal",
		iomiriad.Keyval("vis", calVis),
		iomiriad.Keyval("interval", "0.1"),
		iomiriad.Keyval("options", "xyvary"),
	); err != nil {
		return CalibrateError(bandpassCal+"."+freq, err)
	}

	// The secondary tracks gain drift between primary scans.
	secVis := filepath.Join(dayDir, secondaryCal+"."+freq)
	if _, err := os.Stat(secVis); err == nil {
		if _, err := p.runner.Run(ctx, "gpcopy",
			iomiriad.Keyval("vis", calVis),
			iomiriad.Keyval("out", secVis),
			iomiriad.Keyval("mode", "copy"),
		); err != nil {
			return CalibrateError(secondaryCal+"."+freq, err)
		}
		if _, err := p.runner.Run(ctx, "gpcal",
			iomiriad.Keyval("vis", secVis),
			iomiriad.Keyval("interval", "0.1"),
			iomiriad.Keyval("options", "xyvary,qusolve"),
		); err != nil {
			return CalibrateError(secondaryCal+"."+freq, err)
		}
	}

	for _, field := range fields {
		vis := filepath.Join(dayDir, field+"."+freq)
		if _, err := os.Stat(vis); err != nil {
			continue
		}
		if _, err := p.runner.Run(ctx, "gpcopy",
			iomiriad.Keyval("vis", calVis),
			iomiriad.Keyval("out", vis),
			iomiriad.Keyval("mode", "copy"),
		); err != nil {
			return CalibrateError(field+"."+freq, err)
		}
	}
	return nil
}

// imageField produces the continuum image and the spectral-line cube of
// one field, exported as FITS for the analyser.
func (p *Processor) imageField(ctx context.Context, dayDir, field string) error {
	if err := p.imageContinuum(ctx, dayDir, field); err != nil {
		return err
	}
	return p.imageCube(ctx, dayDir, field)
}

func (p *Processor) imageContinuum(ctx context.Context, dayDir, field string) error {
	vis := filepath.Join(dayDir, field+"."+contFreq)
	if _, err := os.Stat(vis); err != nil {
		return ImageError(field, err)
	}

	outDir := filepath.Join(dayDir, contFreq)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return ImageError(field, err)
	}

	stem := filepath.Join(outDir, "magmo-"+field+"_"+contFreq)
	steps := [][]string{
		{"invert",
			iomiriad.Keyval("vis", vis),
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("robust", "0.5"),
			iomiriad.Keyval("stokes", "ii"),
			iomiriad.Keyval("options", "mfs,double"),
		},
		{"clean",
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("out", stem+"_clean"),
			iomiriad.Keyval("niters", "2000"),
		},
		{"restor",
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("model", stem+"_clean"),
			iomiriad.Keyval("out", stem+"_restor"),
		},
		{"fits",
			iomiriad.Keyval("in", stem+"_restor"),
			iomiriad.Keyval("op", "xyout"),
			iomiriad.Keyval("out", stem+"_restor.fits"),
		},
	}
	return p.runSteps(ctx, field, steps)
}

func (p *Processor) imageCube(ctx context.Context, dayDir, field string) error {
	vis := filepath.Join(dayDir, field+"."+lineFreq)
	if _, err := os.Stat(vis); err != nil {
		return ImageError(field, err)
	}

	outDir := filepath.Join(dayDir, lineFreq)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return ImageError(field, err)
	}

	stem := filepath.Join(outDir, "magmo-"+field+"_"+lineFreq+"_sl")
	steps := [][]string{
		{"invert",
			iomiriad.Keyval("vis", vis),
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("robust", "0.5"),
			iomiriad.Keyval("stokes", "ii"),
			iomiriad.Keyval("line", "velocity,1053,-250.0,0.4,0.4"),
			iomiriad.Keyval("slop", "1.0"),
		},
		{"clean",
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("out", stem+"_clean"),
			iomiriad.Keyval("niters", "500"),
		},
		{"restor",
			iomiriad.Keyval("map", stem+".map"),
			iomiriad.Keyval("beam", stem+".beam"),
			iomiriad.Keyval("model", stem+"_clean"),
			iomiriad.Keyval("out", stem+"_restor"),
		},
		{"fits",
			iomiriad.Keyval("in", stem+"_restor"),
			iomiriad.Keyval("op", "xyout"),
			iomiriad.Keyval("out", stem+"_restor.fits"),
		},
	}
	return p.runSteps(ctx, field, steps)
}

func (p *Processor) runSteps(ctx context.Context, field string, steps [][]string) error {
	for _, step := range steps {
		if _, err := p.runner.Run(ctx, step[0], step[1:]...); err != nil {
			return ImageError(field, err)
		}
	}
	return nil
}

// fieldStats measures each imaged cube and derives the field's peak
// signal-to-noise, later used by the analyser to pick fields worth
// searching. A field whose cube cannot be measured gets a zero row so
// the analyser can still account for it.
func (p *Processor) fieldStats(ctx context.Context, dayDir string, fields []string) []registry.FieldStats {
	stats := make([]registry.FieldStats, 0, len(fields))
	for _, field := range fields {
		cube := filepath.Join(dayDir, lineFreq,
			"magmo-"+field+"_"+lineFreq+"_sl_restor")

		row := registry.FieldStats{Field: field}
		out, err := p.runner.Run(ctx, "histo",
			iomiriad.Keyval("in", cube))
		if err != nil {
			slog.Warn("Cannot measure cube", "field", field, "error", err)
			stats = append(stats, row)
			continue
		}

		max, rms, ok := ParseHisto(out)
		if !ok {
			slog.Warn("Unexpected histo output", "field", field)
			stats = append(stats, row)
			continue
		}
		row.Max = max
		row.StdDev = rms
		if rms > 0 {
			row.SN = max / rms
		}
		stats = append(stats, row)
	}
	return stats
}

// ParseHisto pulls the maximum and rms deviation out of MIRIAD histo
// output. The parser is keyword driven because histo's layout varies
// between versions.
func ParseHisto(output string) (max, rms float64, ok bool) {
	var haveMax, haveRms bool
	for _, line := range strings.Split(output, "\n") {
		tokens := strings.Fields(line)
		for i, tok := range tokens {
			key := strings.ToLower(strings.TrimRight(tok, ":"))
			if key != "maximum" && key != "rms" {
				continue
			}
			v, found := nextFloat(tokens[i+1:])
			if !found {
				continue
			}
			switch key {
			case "maximum":
				max, haveMax = v, true
			case "rms":
				rms, haveRms = v, true
			}
		}
	}
	return max, rms, haveMax && haveRms
}

func nextFloat(tokens []string) (float64, bool) {
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(strings.TrimRight(tok, ","), 64)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}
