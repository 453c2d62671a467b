// Package iodecompose fits every catalogued absorption spectrum with a
// sum of Gaussian velocity components and writes the component
// catalogue. Spectra that do not converge are counted and kept with
// their best-effort fit, never treated as fatal.
package iodecompose

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/gaussian"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/votable"
	"gonum.org/v1/gonum/stat"
)

// maxComponents caps the number of Gaussians fitted to one spectrum.
const maxComponents = 5

// FittedComponent is one Gaussian component of one spectrum's fit.
// Velocities and widths are in km/s.
type FittedComponent struct {
	Day       string
	Field     string
	Source    string
	Name      string
	Longitude float64
	Latitude  float64

	Amplitude    float64
	MeanVelocity float64
	FWHM         float64

	// Residual is the RMS of the whole spectrum's fit, repeated on each
	// of its components.
	Residual  float64
	Converged bool
}

// Decomposer implements the Gaussian decomposition stage.
type Decomposer struct {
	cfg *config.Config
}

// New creates a Decomposer.
func New(cfg *config.Config) *Decomposer {
	return &Decomposer{cfg: cfg}
}

// Decompose fits each spectrum of the aggregate catalogue and writes
// magmo-components.vot. Spectra rated F are excluded, their opacities
// are not physical. A spectrum whose file cannot be read is skipped
// with a warning.
func (d *Decomposer) Decompose(ctx context.Context) (*magmo.DecomposeResult, error) {
	catPath := filepath.Join(d.cfg.Data.DataDir, "magmo-spectra.vot")
	entries, err := readCatalogue(catPath)
	if err != nil {
		return nil, ReadError("magmo-spectra.vot", err)
	}
	slog.Info("Decomposing spectra", "catalogued", len(entries))

	res := &magmo.DecomposeResult{}
	var comps []FittedComponent

	bar := pb.Full.Start(len(entries))
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, ReadError("magmo-spectra.vot", err)
		}
		bar.Increment()
		if e.Rating == "F" {
			continue
		}

		dayDir := filepath.Join(d.cfg.Data.DataDir, "day"+e.Day)
		prefix := e.Field + "_src" + e.Source
		specPath := filepath.Join(dayDir, prefix+"_opacity.votable.xml")

		velocity, opacity, sigma, err := readProfile(specPath)
		if err != nil {
			gn.Warn("Skipping spectrum <em>%s</em>: %v", specPath, err)
			continue
		}

		// Fit the positive-going absorption profile against velocity in
		// km/s, thresholding on the spectrum's own noise envelope.
		x := make([]float64, len(velocity))
		y := make([]float64, len(opacity))
		for i := range velocity {
			x[i] = velocity[i] / 1000
			y[i] = 1 - opacity[i]
		}
		fit, err := gaussian.Fit(x, y, gaussian.Options{
			MaxComponents: maxComponents,
			Noise:         stat.Mean(sigma, nil),
		})
		if err != nil {
			gn.Warn("Cannot fit spectrum <em>%s</em>: %v", specPath, err)
			continue
		}

		res.Spectra++
		res.Components += len(fit.Components)
		if !fit.Converged {
			res.NonConverged++
			slog.Warn("Fit did not converge",
				"day", e.Day, "field", e.Field, "source", e.Source,
				"residual", fit.Residual)
		}

		for _, c := range fit.Components {
			comps = append(comps, FittedComponent{
				Day:          e.Day,
				Field:        e.Field,
				Source:       e.Source,
				Name:         e.Name,
				Longitude:    e.Longitude,
				Latitude:     e.Latitude,
				Amplitude:    c.Amplitude,
				MeanVelocity: c.Center,
				FWHM:         c.FWHM,
				Residual:     fit.Residual,
				Converged:    fit.Converged,
			})
		}

		plotPath := filepath.Join(dayDir, prefix+"_fit.png")
		if err := plotFit(plotPath, x, y, fit.Components); err != nil {
			gn.Warn("Cannot plot fit for <em>%s</em>: %v", prefix, err)
		}
	}

	if err := writeComponentsVOT(
		filepath.Join(d.cfg.Data.DataDir, "magmo-components.vot"),
		comps); err != nil {
		return nil, FitError("magmo-components.vot", err)
	}

	gn.Info("Fitted %s components to %s spectra (%d did not converge)",
		humanize.Comma(int64(res.Components)),
		humanize.Comma(int64(res.Spectra)), res.NonConverged)
	return res, nil
}

// catalogueEntry is one spectrum row of magmo-spectra.vot.
type catalogueEntry struct {
	Day       string
	Field     string
	Source    string
	Name      string
	Rating    string
	Longitude float64
	Latitude  float64
}

func readCatalogue(path string) ([]catalogueEntry, error) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	days, err := table.Strings("day")
	if err != nil {
		return nil, err
	}
	fields, err := table.Strings("field")
	if err != nil {
		return nil, err
	}
	sources, err := table.Strings("source")
	if err != nil {
		return nil, err
	}
	names, err := table.Strings("name")
	if err != nil {
		return nil, err
	}
	ratings, err := table.Strings("rating")
	if err != nil {
		return nil, err
	}
	longitudes, err := table.Floats("longitude")
	if err != nil {
		return nil, err
	}
	latitudes, err := table.Floats("latitude")
	if err != nil {
		return nil, err
	}

	entries := make([]catalogueEntry, len(days))
	for i := range entries {
		entries[i] = catalogueEntry{
			Day:       days[i],
			Field:     fields[i],
			Source:    sources[i],
			Name:      names[i],
			Rating:    ratings[i],
			Longitude: longitudes[i],
			Latitude:  latitudes[i],
		}
	}
	return entries, nil
}

func readProfile(path string) (velocity, opacity, sigma []float64, err error) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, nil, nil, err
	}
	if velocity, err = table.Floats("velocity"); err != nil {
		return nil, nil, nil, err
	}
	if opacity, err = table.Floats("opacity"); err != nil {
		return nil, nil, nil, err
	}
	if sigma, err = table.Floats("sigma_tau"); err != nil {
		return nil, nil, nil, err
	}
	return velocity, opacity, sigma, nil
}

// writeComponentsVOT writes the fitted component catalogue.
func writeComponentsVOT(path string, comps []FittedComponent) error {
	table := votable.Table{
		Name: filepath.Base(path),
		ID:   "components",
		Fields: []votable.Field{
			{Name: "day", Datatype: "char", ArraySize: "*"},
			{Name: "field", Datatype: "char", ArraySize: "*"},
			{Name: "source", Datatype: "char", ArraySize: "*"},
			{Name: "name", Datatype: "char", ArraySize: "*"},
			{Name: "longitude", Datatype: "double", Unit: "deg"},
			{Name: "latitude", Datatype: "double", Unit: "deg"},
			{Name: "amplitude", Datatype: "double"},
			{Name: "mean_velocity", Datatype: "double", Unit: "km/s"},
			{Name: "fwhm", Datatype: "double", Unit: "km/s"},
			{Name: "residual", Datatype: "double"},
			{Name: "converged", Datatype: "boolean"},
		},
	}
	for _, c := range comps {
		table.AddRow(c.Day, c.Field, c.Source, c.Name,
			c.Longitude, c.Latitude,
			c.Amplitude, c.MeanVelocity, c.FWHM,
			c.Residual, c.Converged)
	}
	return votable.New(table).WriteFile(path)
}
