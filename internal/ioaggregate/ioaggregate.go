// Package ioaggregate reads every opacity spectrum produced across all
// days and builds the campaign summary: the spectra catalogue (VOTable,
// SQLite and CSV), the detected absorption regions, the
// longitude-velocity diagram and the quality histograms.
package ioaggregate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/spectrum"
	"github.com/ktjameson/magmo-HI/pkg/votable"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Summary is one spectrum's catalogue entry.
type Summary struct {
	Day       string  `csv:"day"`
	Field     string  `csv:"field"`
	Source    string  `csv:"source"`
	Name      string  `csv:"name"`
	Longitude float64 `csv:"longitude"`
	Latitude  float64 `csv:"latitude"`
	Channels  int     `csv:"channels"`

	MinVelocity float64 `csv:"min_velocity"`
	MaxVelocity float64 `csv:"max_velocity"`

	MinOpacity   float64 `csv:"min_opacity"`
	MaxOpacity   float64 `csv:"max_opacity"`
	MeanSigmaTau float64 `csv:"mean_sigma_tau"`

	// Rating grades the spectrum quality from A (clean) to F (unusable).
	Rating string `csv:"rating"`
	RunID  string `csv:"run_id"`

	velocity []float64
	opacity  []float64
	sigma    []float64
}

// Region is one contiguous significant absorption feature.
type Region struct {
	Day         string
	Field       string
	Source      string
	Name        string
	Longitude   float64
	MinVelocity float64
	MaxVelocity float64
	PeakDepth   float64
	MaxSigma    float64
}

// Aggregator implements the campaign summary stage.
type Aggregator struct {
	cfg *config.Config
}

// New creates an Aggregator.
func New(cfg *config.Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate scans all day directories, reads every non-empty spectrum
// and writes the catalogues and summary plots. Spectra with broken or
// missing metadata are skipped with a warning.
func (a *Aggregator) Aggregate(ctx context.Context) (*magmo.AggregateResult, error) {
	res := &magmo.AggregateResult{}

	files, err := filepath.Glob(filepath.Join(
		a.cfg.Data.DataDir, "day*", "*_opacity.votable.xml"))
	if err != nil {
		return nil, ScanError(a.cfg.Data.DataDir, err)
	}
	sort.Strings(files)
	slog.Info("Aggregating spectra", "files", len(files),
		"workers", a.cfg.JobsNumber)

	// The files are independent, read-only inputs, so they can be read
	// in parallel. Failures skip the file rather than aborting the
	// whole campaign summary.
	summaries := make([]*Summary, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, a.cfg.JobsNumber))
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := readSpectrum(a.cfg.Data.DataDir, file)
			if err != nil {
				gn.Warn("Skipping spectrum <em>%s</em>: %v", file, err)
				return nil
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, ScanError(a.cfg.Data.DataDir, err)
	}

	var spectra []*Summary
	for _, s := range summaries {
		if s != nil {
			spectra = append(spectra, s)
		}
	}
	res.Spectra = len(spectra)
	res.Skipped = len(files) - len(spectra)

	regions := findRegions(spectra)

	if err := writeSpectraVOT(
		filepath.Join(a.cfg.Data.DataDir, "magmo-spectra.vot"),
		spectra); err != nil {
		return nil, CatalogueError("magmo-spectra.vot", err)
	}
	if err := writeSpectraCSV(
		filepath.Join(a.cfg.Data.DataDir, "magmo-spectra.csv"),
		spectra); err != nil {
		return nil, CatalogueError("magmo-spectra.csv", err)
	}
	if err := writeCatalogueDB(
		filepath.Join(a.cfg.Data.DataDir, "magmo-catalogue.db"),
		spectra, regions); err != nil {
		return nil, CatalogueError("magmo-catalogue.db", err)
	}

	if err := plotLongitudeVelocity(
		filepath.Join(a.cfg.Data.DataDir, "magmo-lv.png"),
		spectra); err != nil {
		return nil, CatalogueError("magmo-lv.png", err)
	}
	if err := plotHistograms(a.cfg.Data.DataDir, spectra); err != nil {
		return nil, CatalogueError("histograms", err)
	}

	minOpacities := make([]float64, len(spectra))
	for i, s := range spectra {
		minOpacities[i] = s.MinOpacity
	}
	slog.Info("Catalogue written",
		"spectra", len(spectra),
		"regions", len(regions),
		"mean_min_opacity", stat.Mean(minOpacities, nil),
		"sd_min_opacity", stat.StdDev(minOpacities, nil),
	)

	gn.Info("Catalogued %s spectra (%d skipped) with %s absorption regions",
		humanize.Comma(int64(res.Spectra)), res.Skipped,
		humanize.Comma(int64(len(regions))))
	return res, nil
}

// readSpectrum loads one opacity spectrum file and summarises it. An
// empty table or missing positional metadata is an error so the caller
// can skip the file.
func readSpectrum(dataDir, path string) (*Summary, error) {
	day, field, source, err := parseSpectrumPath(dataDir, path)
	if err != nil {
		return nil, err
	}

	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}
	if table.NumRows() == 0 {
		return nil, fmt.Errorf("spectrum is empty")
	}

	longitude, err := infoFloat(vot, "longitude")
	if err != nil {
		return nil, err
	}
	latitude, err := infoFloat(vot, "latitude")
	if err != nil {
		return nil, err
	}

	velocity, err := table.Floats("velocity")
	if err != nil {
		return nil, err
	}
	opacity, err := table.Floats("opacity")
	if err != nil {
		return nil, err
	}
	sigma, err := table.Floats("sigma_tau")
	if err != nil {
		return nil, err
	}

	s := &Summary{
		Day:       day,
		Field:     field,
		Source:    source,
		Name:      spectrum.Name(longitude, latitude),
		Longitude: longitude,
		Latitude:  latitude,
		Channels:  len(opacity),
		velocity:  velocity,
		opacity:   opacity,
		sigma:     sigma,
	}
	s.RunID, _ = table.Param("run_id")

	s.MinVelocity, s.MaxVelocity = minMax(velocity)
	s.MinVelocity /= 1000
	s.MaxVelocity /= 1000
	s.MinOpacity, s.MaxOpacity = minMax(opacity)
	s.MeanSigmaTau = stat.Mean(sigma, nil)
	s.Rating = rate(opacity, sigma)
	return s, nil
}

// parseSpectrumPath recovers (day, field, source) from a spectrum file
// path of the form day<d>/<field>_src<id>_opacity.votable.xml.
func parseSpectrumPath(dataDir, path string) (day, field, source string, err error) {
	dir := filepath.Base(filepath.Dir(path))
	if !strings.HasPrefix(dir, "day") {
		return "", "", "", fmt.Errorf("%s is not inside a day directory", path)
	}
	day = strings.TrimPrefix(dir, "day")

	base := strings.TrimSuffix(filepath.Base(path), "_opacity.votable.xml")
	i := strings.LastIndex(base, "_src")
	if i < 0 {
		return "", "", "", fmt.Errorf("%s has no source id", path)
	}
	return day, base[:i], base[i+len("_src"):], nil
}

func infoFloat(vot *votable.VOTable, name string) (float64, error) {
	value, ok := vot.Info(name)
	if !ok {
		return 0, fmt.Errorf("no %s provided", name)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", name, value)
	}
	return f, nil
}

// rate grades a spectrum by its optical depth noise. Spectra whose
// opacity leaves the physically plausible band are unusable regardless
// of their formal noise.
func rate(opacity, sigma []float64) string {
	for _, o := range opacity {
		if o > 6 || o < -8 {
			return "F"
		}
	}

	mean := stat.Mean(sigma, nil)
	switch {
	case mean <= 0.05:
		return "A"
	case mean <= 0.1:
		return "B"
	case mean <= 0.2:
		return "C"
	case mean <= 0.3:
		return "D"
	default:
		return "E"
	}
}

// findRegions extracts the contiguous absorption features of every
// spectrum that dip below the noise envelope by at least 3 sigma.
func findRegions(spectra []*Summary) []Region {
	var regions []Region
	for _, s := range spectra {
		var start int
		active := false
		for i := 0; i <= len(s.opacity); i++ {
			significant := false
			if i < len(s.opacity) {
				depth := 1 - s.opacity[i]
				significant = s.sigma[i] > 0 && depth > 3*s.sigma[i]
			}

			switch {
			case significant && !active:
				start, active = i, true
			case !significant && active:
				regions = append(regions, newRegion(s, start, i))
				active = false
			}
		}
	}
	return regions
}

func newRegion(s *Summary, start, end int) Region {
	r := Region{
		Day:         s.Day,
		Field:       s.Field,
		Source:      s.Source,
		Name:        s.Name,
		Longitude:   s.Longitude,
		MinVelocity: s.velocity[start] / 1000,
		MaxVelocity: s.velocity[end-1] / 1000,
	}
	for i := start; i < end; i++ {
		depth := 1 - s.opacity[i]
		if depth > r.PeakDepth {
			r.PeakDepth = depth
		}
		if s.sigma[i] > r.MaxSigma {
			r.MaxSigma = s.sigma[i]
		}
	}
	if r.MinVelocity > r.MaxVelocity {
		r.MinVelocity, r.MaxVelocity = r.MaxVelocity, r.MinVelocity
	}
	return r
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
