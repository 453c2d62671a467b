package ioanalyse

import (
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/coords"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/ktjameson/magmo-HI/pkg/spectrum"
	"github.com/ktjameson/magmo-HI/pkg/votable"
)

// offsetBeamSize is the sampling step around a source when looking for
// emission, in degrees. Matches the survey beam.
const offsetBeamSize = 0.03611

// offsetMaxDist caps how far from the source an emission sample may sit,
// in degrees.
const offsetMaxDist = 0.04

// emission holds the mean and standard deviation of the HI emission
// around one absorption spectrum, interpolated onto its velocity grid.
type emission struct {
	Mean, Std []float64
	// PlotFile is the emission preview image name, empty when no
	// emission data was found.
	PlotFile string
}

// extractEmission estimates the HI emission around a source from the
// survey cubes. The source itself and any continuum islands are avoided,
// the surrounding samples are averaged per velocity channel and
// interpolated onto the absorption spectrum's velocities. Missing survey
// data yields an empty result and removes any stale emission files.
func (a *Analyser) extractEmission(dayDir, prefix string, l, b float64, velocity []float64, comp Component, boxes []Box, rng registry.ContinuumRange) emission {
	votPath := filepath.Join(dayDir, prefix+"_emission.votable.xml")
	plotPath := filepath.Join(dayDir, prefix+"_emission.png")

	cubes := a.emissionCubes()
	if len(cubes) == 0 {
		removeStale(votPath, plotPath)
		return emission{}
	}

	points := offsetPoints(l, b, comp, boxes)
	var ems [][]float64
	var emVelocity []float64
	for _, pt := range points {
		for _, path := range cubes {
			flux, vel, ok := sampleCube(path, pt.l, pt.b)
			if !ok {
				continue
			}
			// Adjacent survey tiles can carry different channel
			// counts; only samples on the first sample's grid can
			// be averaged.
			if emVelocity != nil && len(flux) != len(emVelocity) {
				slog.Warn("Emission sample skipped, channel grid differs",
					"cube", filepath.Base(path),
					"channels", len(flux),
					"expected", len(emVelocity))
				continue
			}
			ems = append(ems, flux)
			if emVelocity == nil {
				emVelocity = vel
			}
			break
		}
	}

	if len(ems) == 0 {
		gn.Warn("Unable to find emission data for %s", prefix)
		removeStale(votPath, plotPath)
		return emission{}
	}
	slog.Info("Emission sampled", "source", prefix,
		"points", len(ems), "offsets", len(points))

	mean := make([]float64, len(emVelocity))
	std := make([]float64, len(emVelocity))
	for i := range emVelocity {
		var sum float64
		for _, em := range ems {
			sum += em[i]
		}
		m := sum / float64(len(ems))
		var sq float64
		for _, em := range ems {
			d := em[i] - m
			sq += d * d
		}
		mean[i] = m
		std[i] = math.Sqrt(sq / float64(len(ems)))
	}

	if err := writeEmission(votPath, l, b, emVelocity, mean, std); err != nil {
		gn.Warn("Cannot write emission spectrum %s: %v", prefix, err)
	}
	if err := plotEmission(plotPath, "Emission around "+spectrum.Name(l, b),
		emVelocity, mean, std, rng); err != nil {
		gn.Warn("Cannot plot emission spectrum %s: %v", prefix, err)
	}

	return emission{
		Mean:     interp(velocity, emVelocity, mean),
		Std:      interp(velocity, emVelocity, std),
		PlotFile: filepath.Base(plotPath),
	}
}

// emissionCubes lists the available survey cubes.
func (a *Analyser) emissionCubes() []string {
	dir := a.cfg.Data.EmissionDir
	if dir == "" {
		return nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.cfg.Data.DataDir, dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.fits"))
	if err != nil {
		return nil
	}
	sort.Strings(matches)
	return matches
}

type galacticPoint struct{ l, b float64 }

// offsetPoints picks sample positions in a ring around the source,
// stepping outwards until a position clears the source's fitted ellipse
// and every continuum island. Directions that stay blocked inside the
// distance cap are dropped.
func offsetPoints(l, b float64, comp Component, boxes []Box) []galacticPoint {
	const numPoints = 6
	spacing := 2 * math.Pi / numPoints

	var points []galacticPoint
	for i := 0; i < numPoints; i++ {
		angle := spacing * float64(i)
		for mult := 0.5; mult*offsetBeamSize <= offsetMaxDist; mult += 0.5 {
			gl := l + math.Sin(angle)*offsetBeamSize*mult
			gb := b + math.Cos(angle)*offsetBeamSize*mult
			ra, dec := coords.Equatorial(gl, gb)

			if pointInEllipse(comp.RA, comp.Dec, ra, dec,
				comp.A, comp.B, comp.PA) {
				continue
			}
			if inAnyBox(boxes, ra, dec) {
				continue
			}
			points = append(points, galacticPoint{gl, gb})
			break
		}
	}
	return points
}

func inAnyBox(boxes []Box, ra, dec float64) bool {
	for _, box := range boxes {
		if box.Contains(ra, dec) {
			return true
		}
	}
	return false
}

// sampleCube extracts the brightness temperature spectrum at a galactic
// position from one survey cube. ok is false when the position is off
// the cube.
func sampleCube(path string, l, b float64) (flux, velocity []float64, ok bool) {
	cube, err := OpenCube(path)
	if err != nil {
		slog.Warn("Cannot open emission cube", "path", path, "error", err)
		return nil, nil, false
	}

	x, y := cube.PixelAt(l, b)
	if x < 0 || x >= cube.NX || y < 0 || y >= cube.NY {
		return nil, nil, false
	}

	flux = make([]float64, cube.NPlanes)
	for plane := range flux {
		flux[plane] = cube.Flux(plane, x, y)
	}
	return flux, cube.Velocities, true
}

// interp linearly interpolates a sampled function onto new x positions,
// clamping outside the sampled range.
func interp(x, xs, ys []float64) []float64 {
	res := make([]float64, len(x))
	if len(xs) == 0 {
		return res
	}

	asc := len(xs) < 2 || xs[0] <= xs[len(xs)-1]
	at := func(i int) (float64, float64) {
		if asc {
			return xs[i], ys[i]
		}
		return xs[len(xs)-1-i], ys[len(ys)-1-i]
	}

	for i, xi := range x {
		x0, y0 := at(0)
		xn, yn := at(len(xs) - 1)
		switch {
		case xi <= x0:
			res[i] = y0
		case xi >= xn:
			res[i] = yn
		default:
			j := sort.Search(len(xs)-1, func(j int) bool {
				xj, _ := at(j + 1)
				return xj >= xi
			})
			xa, ya := at(j)
			xb, yb := at(j + 1)
			if xb == xa {
				res[i] = ya
				continue
			}
			res[i] = ya + (yb-ya)*(xi-xa)/(xb-xa)
		}
	}
	return res
}

func removeStale(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			os.Remove(path)
		}
	}
}

// writeEmission serialises an emission spectrum.
func writeEmission(path string, l, b float64, velocity, mean, std []float64) error {
	table := votable.Table{
		Name: filepath.Base(path),
		ID:   "emission",
		Fields: []votable.Field{
			{Name: "velocity", Datatype: "double", Unit: "m/s"},
			{Name: "em_mean", Datatype: "double", Unit: "K"},
			{Name: "em_std", Datatype: "double", Unit: "K"},
		},
	}
	for i := range velocity {
		table.AddRow(velocity[i], mean[i], std[i])
	}

	vot := votable.New(table,
		votable.Info{Name: "longitude", Value: votable.FormatValue(l)},
		votable.Info{Name: "latitude", Value: votable.FormatValue(b)},
	)
	return vot.WriteFile(path)
}
