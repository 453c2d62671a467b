package iogas

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// widthClasses bucket gas components by equivalent width for the LV
// diagram, wider lines drawn warmer.
var widthClasses = []struct {
	limit float64
	color color.RGBA
}{
	{2, color.RGBA{R: 60, G: 90, B: 200, A: 255}},
	{5, color.RGBA{R: 120, G: 180, B: 120, A: 255}},
	{10, color.RGBA{R: 240, G: 170, B: 60, A: 255}},
	{1e308, color.RGBA{R: 200, G: 40, B: 40, A: 255}},
}

// plotEquivWidthLV draws the equivalent width of the fitted gas
// components over the longitude-velocity plane, longitude descending
// the way galactic plane surveys are presented.
func plotEquivWidthLV(path string, all []Gas) error {
	p := plot.New()
	p.Title.Text = "Equivalent Width of Fitted Gas Components"
	p.X.Label.Text = "Galactic longitude (deg)"
	p.Y.Label.Text = "LSR Velocity (km/s)"

	classes := make([]plotter.XYs, len(widthClasses))
	minLong, maxLong := 0.0, 360.0
	for i, g := range all {
		if i == 0 || g.Longitude < minLong {
			minLong = g.Longitude
		}
		if i == 0 || g.Longitude > maxLong {
			maxLong = g.Longitude
		}
		for c, class := range widthClasses {
			if g.EquivWidth < class.limit {
				classes[c] = append(classes[c],
					plotter.XY{X: g.Longitude, Y: g.Velocity})
				break
			}
		}
	}

	for c, points := range classes {
		if len(points) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(points)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = widthClasses[c].color
		scatter.GlyphStyle.Radius = vg.Points(2.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
	}

	p.X.Min, p.X.Max = maxLong+5, minLong-5
	p.X.AutoRescale = false

	return p.Save(10*vg.Inch, 6*vg.Inch, path)
}
