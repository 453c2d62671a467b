package ioaggregate

import (
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// opacityClasses bucket the LV diagram points by absorption strength,
// deep absorption drawn darkest.
var opacityClasses = []struct {
	limit float64
	color color.RGBA
}{
	{0.3, color.RGBA{R: 120, A: 255}},
	{0.7, color.RGBA{R: 200, G: 80, A: 255}},
	{0.95, color.RGBA{R: 250, G: 170, B: 80, A: 255}},
}

// plotLongitudeVelocity draws the campaign's longitude-velocity diagram.
// Longitudes are folded to the +-180 range and spectra rated F are left
// out, they would only smear noise over the diagram.
func plotLongitudeVelocity(path string, spectra []*Summary) error {
	p := plot.New()
	p.Title.Text = "Longitude-Velocity"
	p.X.Label.Text = "Galactic longitude (l)"
	p.Y.Label.Text = "LSR Velocity (km/s)"

	classes := make([]plotter.XYs, len(opacityClasses))
	for _, s := range spectra {
		if s.Rating == "F" {
			continue
		}
		longitude := s.Longitude
		if longitude > 180 {
			longitude -= 360
		}
		for i, o := range s.opacity {
			for c, class := range opacityClasses {
				if o < class.limit {
					classes[c] = append(classes[c], plotter.XY{
						X: longitude, Y: s.velocity[i] / 1000})
					break
				}
			}
		}
	}

	// Weak classes first so deep absorption stays visible on top.
	for c := len(classes) - 1; c >= 0; c-- {
		if len(classes[c]) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(classes[c])
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = opacityClasses[c].color
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
	}

	// Flip the X axis: galactic longitude is plotted descending.
	p.X.Min, p.X.Max = 180, -180
	p.X.AutoRescale = false

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

// plotHistograms writes the quality histograms: the distribution of the
// deepest opacity per spectrum and of the optical depth noise.
func plotHistograms(dir string, spectra []*Summary) error {
	minOpacities := make(plotter.Values, 0, len(spectra))
	noises := make(plotter.Values, 0, len(spectra))
	for _, s := range spectra {
		minOpacities = append(minOpacities, s.MinOpacity)
		noises = append(noises, s.MeanSigmaTau)
	}

	if err := histogram(
		filepath.Join(dir, "magmo-hist-opacity.png"),
		"Minimum opacity per spectrum", "e^(-tau)",
		minOpacities); err != nil {
		return err
	}
	return histogram(
		filepath.Join(dir, "magmo-hist-noise.png"),
		"Optical depth noise", "mean sigma_tau", noises)
}

func histogram(path, title, xLabel string, values plotter.Values) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Spectra"

	if len(values) > 0 {
		hist, err := plotter.NewHist(values, 16)
		if err != nil {
			return err
		}
		hist.FillColor = color.RGBA{R: 100, G: 140, B: 200, A: 255}
		p.Add(hist)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
