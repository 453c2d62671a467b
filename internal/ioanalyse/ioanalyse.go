// Package ioanalyse finds background continuum sources in a day's imaged
// fields and extracts an opacity spectrum for every detection. Fields are
// selected by the signal-to-noise measured during processing, sources by
// the Aegean finder run on the continuum images, and each spectrum is
// written as a VOTable with a preview plot and an HTML index per day.
package ioanalyse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/gn"
	"github.com/google/uuid"
	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/coords"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/ktjameson/magmo-HI/pkg/spectrum"
	"github.com/ktjameson/magmo-HI/pkg/votable"
)

// Analyser implements the source finding and spectrum extraction stage.
type Analyser struct {
	cfg    *config.Config
	runner iomiriad.Runner
	ranges []registry.ContinuumRange
}

// New creates an Analyser. The continuum ranges come from the registry
// file seeded at bootstrap.
func New(cfg *config.Config, runner iomiriad.Runner, ranges []registry.ContinuumRange) *Analyser {
	return &Analyser{cfg: cfg, runner: runner, ranges: ranges}
}

// Analyse runs source finding and spectrum extraction for one day.
func (a *Analyser) Analyse(ctx context.Context, day registry.Day) (*magmo.AnalyseResult, error) {
	res := &magmo.AnalyseResult{}
	runID := uuid.NewString()
	slog.Info("Analysing day", "day", day.ID, "run_id", runID)

	dayDir := filepath.Join(a.cfg.Data.DataDir, day.DirName())
	if _, err := os.Stat(dayDir); err != nil {
		return nil, CubeError(day.ID, err)
	}

	stats, err := ioregistry.ReadStats(filepath.Join(dayDir, "stats.csv"))
	if err != nil {
		return nil, CubeError(day.ID, err)
	}

	var fields []string
	for _, s := range stats {
		if s.SN > a.cfg.Analysis.MinFieldSN {
			fields = append(fields, s.Field)
		}
	}
	res.Fields = len(fields)
	slog.Info("Fields of interest", "day", day.ID,
		"selected", len(fields), "total", len(stats))

	if !a.cfg.ExtractOnly {
		if err := iomiriad.CheckTools("bane", "aegean"); err != nil {
			return nil, err
		}
		for _, field := range fields {
			if err := a.findSources(ctx, dayDir, field); err != nil {
				warn := fmt.Sprintf("source finding failed for field %s: %v",
					field, err)
				gn.Warn("Day %s: %s", day.ID, warn)
				res.Warnings = append(res.Warnings, warn)
			}
		}
	}

	idx := newHTMLIndex(day.ID)
	for _, field := range fields {
		a.extractField(dayDir, field, runID, idx, res)
	}
	if err := idx.WriteFile(filepath.Join(dayDir, "spectra.html")); err != nil {
		return nil, SpectrumError(day.ID, err)
	}

	gn.Info("Day %s: %d spectra from %d fields, %d skipped",
		day.ID, res.Spectra, res.Fields, res.Skipped)
	return res, nil
}

// findSources runs the background estimator and the Aegean source finder
// on a field's continuum image.
func (a *Analyser) findSources(ctx context.Context, dayDir, field string) error {
	contFile := filepath.Join(dayDir, "1757",
		"magmo-"+field+"_1757_restor.fits")
	if _, err := os.Stat(contFile); err != nil {
		return SourceFindError(field, err)
	}

	if _, err := a.runner.Run(ctx, "bane", contFile); err != nil {
		return SourceFindError(field, err)
	}

	tableFile := filepath.Join(dayDir, field+"_src.vot")
	_, err := a.runner.Run(ctx, "aegean", contFile,
		"--autoload", "--telescope=ATCA", "--cores=1", "--island",
		"--table="+tableFile)
	if err != nil {
		return SourceFindError(field, err)
	}
	return nil
}

// extractField extracts one spectrum per accepted component of a field.
// All failures inside a field are warnings; a field without a cube or
// without detections simply contributes nothing.
func (a *Analyser) extractField(dayDir, field, runID string, idx *htmlIndex, res *magmo.AnalyseResult) {
	cubePath := filepath.Join(dayDir, "1420",
		"magmo-"+field+"_1420_sl_restor.fits")
	if _, err := os.Stat(cubePath); err != nil {
		warn := "no spectral cube for field " + field
		gn.Warn("%s, skipping extraction", warn)
		res.Warnings = append(res.Warnings, warn)
		return
	}

	comps, err := ReadComponents(
		filepath.Join(dayDir, field+"_src_comp.vot"),
		a.cfg.Analysis.MinSourceSN, a.cfg.Analysis.MinSourceFlux)
	if err != nil {
		warn := fmt.Sprintf("cannot read components of field %s: %v", field, err)
		gn.Warn("%s", warn)
		res.Warnings = append(res.Warnings, warn)
		return
	}
	islands, err := ReadIslands(filepath.Join(dayDir, field+"_src_isle.vot"))
	if err != nil {
		warn := fmt.Sprintf("cannot read islands of field %s: %v", field, err)
		gn.Warn("%s", warn)
		res.Warnings = append(res.Warnings, warn)
		return
	}
	if len(comps) == 0 {
		return
	}

	cube, err := OpenCube(cubePath)
	if err != nil {
		warn := fmt.Sprintf("cannot open cube of field %s: %v", field, err)
		gn.Warn("%s", warn)
		res.Warnings = append(res.Warnings, warn)
		return
	}
	dx, dy := cube.PixelSize()
	boxes := IslandRanges(islands, dx, dy)

	idx.StartField(field)
	for _, comp := range comps {
		if a.extractSpectrum(dayDir, field, runID, cube, comp, boxes, idx) {
			res.Spectra++
		} else {
			res.Skipped++
		}
	}
}

// extractSpectrum produces the opacity VOTable and plot of one component.
func (a *Analyser) extractSpectrum(dayDir, field, runID string, cube *Cube, comp Component, boxes []Box, idx *htmlIndex) bool {
	prefix := field + "_src" + comp.ID
	l, b := coords.Galactic(comp.RA, comp.Dec)

	rng, ok := registry.LookupContinuumRange(a.ranges, int(l))
	if !ok {
		gn.Warn("Skipped spectrum %s: no continuum range at longitude %.3f",
			prefix, l)
		return false
	}

	flux := integratedSpectrum(cube, comp,
		float64(rng.MinVelocity)*1000, float64(rng.MaxVelocity)*1000)

	lo, hi := spectrum.FindEdges(flux, a.cfg.Analysis.EdgeChannels)
	if hi <= lo {
		gn.Warn("Skipped spectrum %s: no usable channels", prefix)
		return false
	}
	planes := make([]int, hi-lo)
	for i := range planes {
		planes[i] = lo + i
	}
	velocity := cube.Velocities[lo:hi]
	flux = flux[lo:hi]

	mean, contSD, ok := spectrum.MeanContinuum(velocity, flux, rng)
	if !ok {
		gn.Warn("Skipped spectrum %s with no continuum data", prefix)
		return false
	}
	if mean < 0 {
		gn.Warn("Skipped spectrum %s with negative mean: %.5f", prefix, mean)
		return false
	}

	name := spectrum.Name(l, b)
	slog.Info("Continuum measured", "name", name, "source", prefix,
		"mean", mean, "sd", contSD)

	opacity := spectrum.Opacity(flux, mean)
	tempBright := spectrum.BrightnessTemp(flux, cube.BeamArea())

	emission := a.extractEmission(dayDir, prefix, l, b, velocity,
		comp, boxes, rng)
	sigmaTau := spectrum.SigmaTau(contSD, emission.Mean, len(opacity))

	plotPath := filepath.Join(dayDir, prefix+"_plot.png")
	if err := plotSpectrum(plotPath, "Spectra for source "+name,
		velocity, opacity, sigmaTau, rng); err != nil {
		gn.Warn("Cannot plot spectrum %s: %v", prefix, err)
	}

	votPath := filepath.Join(dayDir, prefix+"_opacity.votable.xml")
	if err := writeSpectrum(votPath, runID, l, b, cube.BeamArea(),
		planes, velocity, opacity, flux, tempBright, sigmaTau); err != nil {
		gn.Warn("Cannot write spectrum %s: %v", prefix, err)
		return false
	}

	idx.AddSpectrum(htmlRow{
		Name:     name,
		Long:     l,
		PeakFlux: comp.PeakFlux,
		Mean:     mean,
		ContSD:   contSD,
		PlotFile: prefix + "_plot.png",
		EmFile:   emission.PlotFile,
	})
	return true
}

// writeSpectrum serialises one opacity spectrum with its provenance.
func writeSpectrum(path, runID string, l, b, beamArea float64, planes []int, velocity, opacity, flux, tempBright, sigmaTau []float64) error {
	table := votable.Table{
		Name: filepath.Base(path),
		ID:   "opacity",
		Params: []votable.Param{
			{Name: "run_id", Datatype: "char", Value: runID},
		},
		Fields: []votable.Field{
			{Name: "plane", Datatype: "int"},
			{Name: "velocity", Datatype: "double", Unit: "m/s"},
			{Name: "opacity", Datatype: "double"},
			{Name: "flux", Datatype: "double", Unit: "Jy",
				Description: "Flux per beam"},
			{Name: "temp_brightness", Datatype: "double", Unit: "K"},
			{Name: "sigma_tau", Datatype: "double",
				Description: "Noise in the optical depth"},
		},
	}
	for i := range velocity {
		table.AddRow(planes[i], velocity[i], opacity[i], flux[i],
			tempBright[i], sigmaTau[i])
	}

	vot := votable.New(table,
		votable.Info{Name: "longitude", Value: votable.FormatValue(l)},
		votable.Info{Name: "latitude", Value: votable.FormatValue(b)},
		votable.Info{Name: "beam_area", Value: votable.FormatValue(beamArea)},
	)
	return vot.WriteFile(path)
}
