package iodecompose

import (
	"image/color"

	"github.com/ktjameson/magmo-HI/pkg/gaussian"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	dataLineColor      = color.RGBA{R: 80, G: 80, B: 80, A: 255}
	modelLineColor     = color.RGBA{R: 220, A: 255}
	componentLineColor = color.RGBA{B: 200, A: 255}
	componentDashes    = []vg.Length{vg.Points(3), vg.Points(3)}
)

// plotFit draws the absorption profile with the fitted model and its
// individual components overlaid.
func plotFit(path string, x, y []float64, comps []gaussian.Component) error {
	p := plot.New()
	p.Title.Text = "Gaussian decomposition"
	p.X.Label.Text = "LSR Velocity (km/s)"
	p.Y.Label.Text = "1 - e^(-tau)"
	p.Add(plotter.NewGrid())

	data := make(plotter.XYs, len(x))
	for i := range x {
		data[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	dataLine, err := plotter.NewLine(data)
	if err != nil {
		return err
	}
	dataLine.Color = dataLineColor
	p.Add(dataLine)

	for _, c := range comps {
		single := make(plotter.XYs, len(x))
		for i := range x {
			single[i] = plotter.XY{X: x[i], Y: c.Eval(x[i])}
		}
		line, err := plotter.NewLine(single)
		if err != nil {
			return err
		}
		line.Color = componentLineColor
		line.Dashes = componentDashes
		p.Add(line)
	}

	if len(comps) > 0 {
		model := make(plotter.XYs, len(x))
		for i := range x {
			model[i] = plotter.XY{X: x[i], Y: gaussian.Sum(comps, x[i])}
		}
		modelLine, err := plotter.NewLine(model)
		if err != nil {
			return err
		}
		modelLine.Color = modelLineColor
		p.Add(modelLine)
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
