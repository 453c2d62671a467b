package ioanalyse

import (
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/ktjameson/magmo-HI/pkg/spectrum"
	"github.com/ktjameson/magmo-HI/pkg/votable"
)

// Component is one fitted source from the finder's component table.
type Component struct {
	// ID is "<island>-<source>", the identifier used in spectrum file
	// names.
	ID       string
	Island   int
	RA, Dec  float64
	PeakFlux float64
	LocalRMS float64
	SN       float64

	// Ellipse of the fitted component: semi axes in arcsec, position
	// angle in degrees.
	A, B, PA float64
}

// ReadComponents reads the finder's component table and keeps the
// components bright and significant enough to yield a usable absorption
// spectrum. A missing table means the field had no detections.
func ReadComponents(path string, minSN, minFlux float64) ([]Component, error) {
	if _, err := os.Stat(path); err != nil {
		slog.Warn("No component table, skipping source read", "path", path)
		return nil, nil
	}

	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	cols := map[string][]float64{}
	for _, name := range []string{
		"island", "source", "ra", "dec",
		"local_rms", "peak_flux", "a", "b", "pa",
	} {
		col, err := table.Floats(name)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}

	var comps []Component
	for i := 0; i < table.NumRows(); i++ {
		c := Component{
			Island:   int(cols["island"][i]),
			RA:       cols["ra"][i],
			Dec:      cols["dec"][i],
			LocalRMS: cols["local_rms"][i],
			PeakFlux: cols["peak_flux"][i],
			A:        cols["a"][i],
			B:        cols["b"][i],
			PA:       cols["pa"][i],
		}
		c.ID = strconv.Itoa(c.Island) + "-" +
			strconv.Itoa(int(cols["source"][i]))
		if c.LocalRMS > 0 {
			c.SN = c.PeakFlux / c.LocalRMS
		}

		if c.SN > minSN && c.PeakFlux > minFlux {
			comps = append(comps, c)
		} else {
			slog.Debug("Ignoring weak source", "id", c.ID,
				"sn", c.SN, "peak_flux", c.PeakFlux)
		}
	}
	return comps, nil
}

// Island is one entry of the finder's island table.
type Island struct {
	ID             int
	RA, Dec        float64
	XWidth, YWidth float64
}

// ReadIslands reads the finder's island table. A missing table is an
// empty result, matching ReadComponents.
func ReadIslands(path string) ([]Island, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}

	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	cols := map[string][]float64{}
	for _, name := range []string{"island", "ra", "dec", "x_width", "y_width"} {
		col, err := table.Floats(name)
		if err != nil {
			return nil, err
		}
		cols[name] = col
	}

	islands := make([]Island, table.NumRows())
	for i := range islands {
		islands[i] = Island{
			ID:     int(cols["island"][i]),
			RA:     cols["ra"][i],
			Dec:    cols["dec"][i],
			XWidth: cols["x_width"][i],
			YWidth: cols["y_width"][i],
		}
	}
	return islands, nil
}

// Box is the sky extent of an island in degrees.
type Box struct {
	MinRA, MaxRA   float64
	MinDec, MaxDec float64
}

// Contains reports whether a position falls inside the box.
func (b Box) Contains(ra, dec float64) bool {
	return b.MinRA <= ra && ra <= b.MaxRA &&
		b.MinDec <= dec && dec <= b.MaxDec
}

// IslandRanges converts pixel-sized islands into sky boxes using the
// cube's pixel increments.
func IslandRanges(islands []Island, dx, dy float64) []Box {
	boxes := make([]Box, len(islands))
	for i, isle := range islands {
		raWidth := math.Abs(isle.XWidth * dx)
		decWidth := math.Abs(isle.YWidth * dy)
		boxes[i] = Box{
			MinRA:  isle.RA - raWidth/2,
			MaxRA:  isle.RA + raWidth/2,
			MinDec: isle.Dec - decWidth/2,
			MaxDec: isle.Dec + decWidth/2,
		}
	}
	return boxes
}

// pointInEllipse reports whether a sky position falls inside a
// component's fitted ellipse.
func pointInEllipse(originRA, originDec, ra, dec, aArcsec, bArcsec, paDeg float64) bool {
	paRad := degToRad(paDeg)
	dRA := ra - originRA
	dDec := dec - originDec
	x := dRA*math.Cos(paRad) + dDec*math.Sin(paRad)
	y := -dRA*math.Sin(paRad) + dDec*math.Cos(paRad)

	aDeg := aArcsec / 3600
	bDeg := bArcsec / 3600
	if aDeg == 0 || bDeg == 0 {
		return false
	}

	dist := math.Sqrt((x/aDeg)*(x/aDeg) + (y/bDeg)*(y/bDeg))
	return dist <= 1.0
}

// extractRadius is the half-width in pixels of the box sampled around a
// component's peak.
const extractRadius = 2

// integratedSpectrum averages the cube flux across a component,
// weighting each pixel by its squared mean continuum level so bright
// continuum pixels dominate and off-source noise is suppressed. Pixels
// outside the component's fitted ellipse are excluded.
func integratedSpectrum(cube *Cube, comp Component, contLo, contHi float64) []float64 {
	xc, yc := cube.PixelAt(comp.RA, comp.Dec)

	type pixel struct{ x, y int }
	var inside []pixel
	for x := xc - extractRadius; x <= xc+extractRadius; x++ {
		for y := yc - extractRadius; y <= yc+extractRadius; y++ {
			ra, dec := cube.WorldAt(x, y)
			if pointInEllipse(comp.RA, comp.Dec, ra, dec,
				comp.A, comp.B, comp.PA) {
				inside = append(inside, pixel{x, y})
			}
		}
	}
	if len(inside) == 0 {
		// Degenerate fits still get a spectrum from the peak pixel.
		inside = append(inside, pixel{xc, yc})
	}

	// Per-pixel mean over the gas-free continuum channels.
	means := make([]float64, len(inside))
	for i, p := range inside {
		var sum float64
		var n int
		for plane, v := range cube.Velocities {
			if v > contLo && v < contHi {
				sum += cube.Flux(plane, p.x, p.y)
				n++
			}
		}
		if n > 0 {
			means[i] = sum / float64(n)
		}
	}
	weights := spectrum.Weights(means)

	integrated := make([]float64, cube.NPlanes)
	for plane := range integrated {
		var sum float64
		for i, p := range inside {
			sum += cube.Flux(plane, p.x, p.y) * weights[i]
		}
		integrated[plane] = sum / float64(len(inside))
	}
	return integrated
}
