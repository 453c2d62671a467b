package ioanalyse

import (
	"image/color"

	"github.com/ktjameson/magmo-HI/pkg/registry"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	continuumLineColor = color.RGBA{G: 160, A: 255}
	unityLineColor     = color.RGBA{R: 200, A: 255}
	noiseBandColor     = color.RGBA{R: 211, G: 211, B: 211, A: 255}

	guideDashes = []vg.Length{vg.Points(4), vg.Points(2)}
)

// plotSpectrum renders an opacity spectrum with its noise envelope and
// the continuum measurement window.
func plotSpectrum(path, title string, velocity, opacity, sigmaTau []float64, rng registry.ContinuumRange) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Velocity relative to LSR (km/s)"
	p.Y.Label.Text = "e^(-tau)"
	p.Add(plotter.NewGrid())

	if len(sigmaTau) > 0 {
		upper := make([]float64, len(opacity))
		lower := make([]float64, len(opacity))
		for i := range opacity {
			upper[i] = 1 + sigmaTau[i]
			lower[i] = 1 - sigmaTau[i]
		}
		if err := addBand(p, velocity, lower, upper); err != nil {
			return err
		}
	}

	if err := addLine(p, velocity, opacity, nil, nil); err != nil {
		return err
	}

	yLo, yHi := minMax(opacity)
	xLo, xHi := minMax(velocity)
	addGuide(p, plotter.XYs{
		{X: xLo / 1000, Y: 1}, {X: xHi / 1000, Y: 1}},
		unityLineColor, nil)
	addGuide(p, plotter.XYs{
		{X: float64(rng.MinVelocity), Y: yLo},
		{X: float64(rng.MinVelocity), Y: yHi}},
		continuumLineColor, guideDashes)
	addGuide(p, plotter.XYs{
		{X: float64(rng.MaxVelocity), Y: yLo},
		{X: float64(rng.MaxVelocity), Y: yHi}},
		continuumLineColor, guideDashes)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// plotEmission renders an emission spectrum with its spread.
func plotEmission(path, title string, velocity, mean, std []float64, rng registry.ContinuumRange) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Velocity relative to LSR (km/s)"
	p.Y.Label.Text = "T_B (K)"
	p.Add(plotter.NewGrid())

	upper := make([]float64, len(mean))
	lower := make([]float64, len(mean))
	for i := range mean {
		upper[i] = mean[i] + std[i]
		lower[i] = mean[i] - std[i]
	}
	if err := addBand(p, velocity, lower, upper); err != nil {
		return err
	}
	if err := addLine(p, velocity, mean, nil, nil); err != nil {
		return err
	}

	yLo, yHi := minMax(mean)
	addGuide(p, plotter.XYs{
		{X: float64(rng.MinVelocity), Y: yLo},
		{X: float64(rng.MinVelocity), Y: yHi}},
		continuumLineColor, guideDashes)
	addGuide(p, plotter.XYs{
		{X: float64(rng.MaxVelocity), Y: yLo},
		{X: float64(rng.MaxVelocity), Y: yHi}},
		continuumLineColor, guideDashes)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// addBand fills the area between a lower and upper envelope.
func addBand(p *plot.Plot, velocity, lower, upper []float64) error {
	band := make(plotter.XYs, 0, 2*len(velocity))
	for i := range velocity {
		band = append(band, plotter.XY{X: velocity[i] / 1000, Y: upper[i]})
	}
	for i := len(velocity) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: velocity[i] / 1000, Y: lower[i]})
	}

	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = noiseBandColor
	poly.LineStyle.Width = 0
	p.Add(poly)
	return nil
}

// addLine plots y against velocity in km/s.
func addLine(p *plot.Plot, velocity, y []float64, c color.Color, dashes []vg.Length) error {
	xys := make(plotter.XYs, len(velocity))
	for i := range velocity {
		xys[i] = plotter.XY{X: velocity[i] / 1000, Y: y[i]}
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	if c != nil {
		line.Color = c
	}
	line.Dashes = dashes
	p.Add(line)
	return nil
}

func addGuide(p *plot.Plot, xys plotter.XYs, c color.Color, dashes []vg.Length) {
	// NewLine cannot fail on a fixed 2-point guide.
	line, _ := plotter.NewLine(xys)
	line.Color = c
	line.Dashes = dashes
	p.Add(line)
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
