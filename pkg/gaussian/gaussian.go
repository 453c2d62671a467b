// Package gaussian decomposes absorption profiles into sums of Gaussian
// velocity components by iterative peak seeding and least-squares
// refinement. Non-convergence is reported in the result, never as an
// error, so a stubborn spectrum cannot abort a batch run.
package gaussian

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// fwhmFactor converts a Gaussian sigma to full width at half maximum.
const fwhmFactor = 2.3548200450309493

// Component is a single Gaussian velocity component. Center and FWHM are
// in the units of the fitted x axis (km/s in this pipeline); Amplitude is
// in the units of the fitted profile.
type Component struct {
	Amplitude float64
	Center    float64
	FWHM      float64
}

// Eval returns the component's value at x.
func (c Component) Eval(x float64) float64 {
	sigma := c.FWHM / fwhmFactor
	d := (x - c.Center) / sigma
	return c.Amplitude * math.Exp(-0.5*d*d)
}

// Sum evaluates a sum of components at x.
func Sum(comps []Component, x float64) float64 {
	var res float64
	for _, c := range comps {
		res += c.Eval(x)
	}
	return res
}

// Options tunes the decomposition.
type Options struct {
	// MaxComponents caps the number of fitted components.
	MaxComponents int
	// Noise is the detection threshold in profile units. Zero means
	// estimate it from the data.
	Noise float64
	// MinSeparation rejects a new seed closer than this to an existing
	// component center, in x units. Zero means two channel widths.
	MinSeparation float64
}

// FitResult holds the fitted components and the quality of the fit.
type FitResult struct {
	Components []Component
	// Converged is false when the optimizer hit its iteration limit or
	// failed outright; the components then hold the best point found.
	Converged bool
	// Residual is the root mean square of the data minus the model.
	Residual float64
	// Noise is the threshold that ended the peak search.
	Noise float64
}

// Fit decomposes profile y over axis x. The profile is expected to be
// positive-going (1 - opacity for absorption spectra). Zero components is
// a valid outcome for a featureless profile.
func Fit(x, y []float64, opts Options) (*FitResult, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("axis and profile lengths differ: %d vs %d",
			len(x), len(y))
	}
	if len(x) < 3 {
		return nil, fmt.Errorf("profile too short to fit: %d channels", len(x))
	}
	if opts.MaxComponents == 0 {
		opts.MaxComponents = 5
	}
	noise := opts.Noise
	if noise == 0 {
		noise = EstimateNoise(y)
	}

	channel := math.Abs(x[1] - x[0])
	minSep := opts.MinSeparation
	if minSep == 0 {
		minSep = 2 * channel
	}

	var comps []Component
	converged := true

	for len(comps) < opts.MaxComponents {
		seed, ok := nextSeed(x, y, comps, noise, minSep, channel)
		if !ok {
			break
		}
		candidate := append(append([]Component{}, comps...), seed)

		refined, ok := refine(x, y, candidate)
		if !ok {
			// Keep the seeded guess but flag the fit.
			converged = false
			comps = candidate
			break
		}
		// A refined component narrower than a channel or weaker than
		// the noise is fitting noise, not gas.
		if degenerate(refined, noise, channel) {
			break
		}
		comps = refined
	}

	return &FitResult{
		Components: comps,
		Converged:  converged,
		Residual:   rms(x, y, comps),
		Noise:      noise,
	}, nil
}

// nextSeed finds the highest residual peak above 3 sigma that is not on
// top of an existing component.
func nextSeed(x, y []float64, comps []Component, noise, minSep, channel float64) (Component, bool) {
	best := -1
	bestVal := 3 * noise
	for i := range x {
		r := y[i] - Sum(comps, x[i])
		if r <= bestVal {
			continue
		}
		tooClose := false
		for _, c := range comps {
			if math.Abs(x[i]-c.Center) < minSep {
				tooClose = true
				break
			}
		}
		if !tooClose {
			best = i
			bestVal = r
		}
	}
	if best < 0 {
		return Component{}, false
	}
	return Component{
		Amplitude: bestVal,
		Center:    x[best],
		FWHM:      3 * channel * fwhmFactor / 2,
	}, true
}

// refine jointly optimizes all components with Nelder-Mead least squares.
func refine(x, y []float64, comps []Component) ([]Component, bool) {
	p0 := pack(comps)

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			cs := unpack(p)
			var sse float64
			for i := range x {
				d := y[i] - Sum(cs, x[i])
				sse += d * d
			}
			return sse
		},
	}

	result, err := optimize.Minimize(problem, p0, nil, &optimize.NelderMead{})
	if err != nil {
		return comps, false
	}
	refined := unpack(result.X)
	ok := result.Status != optimize.IterationLimit &&
		result.Status != optimize.Failure
	return refined, ok
}

// degenerate reports whether the last fitted component collapsed into the
// noise floor or below channel resolution.
func degenerate(comps []Component, noise, channel float64) bool {
	last := comps[len(comps)-1]
	return last.Amplitude < noise || last.FWHM < channel
}

func pack(comps []Component) []float64 {
	p := make([]float64, 0, 3*len(comps))
	for _, c := range comps {
		p = append(p, c.Amplitude, c.Center, c.FWHM/fwhmFactor)
	}
	return p
}

// unpack rebuilds components from the flat parameter vector. Widths are
// folded to positive values, the two signs being equivalent for a
// Gaussian.
func unpack(p []float64) []Component {
	comps := make([]Component, 0, len(p)/3)
	for i := 0; i+2 < len(p); i += 3 {
		comps = append(comps, Component{
			Amplitude: p[i],
			Center:    p[i+1],
			FWHM:      math.Abs(p[i+2]) * fwhmFactor,
		})
	}
	return comps
}

func rms(x, y []float64, comps []Component) float64 {
	var sse float64
	for i := range x {
		d := y[i] - Sum(comps, x[i])
		sse += d * d
	}
	return math.Sqrt(sse / float64(len(x)))
}

// EstimateNoise estimates the profile noise with the scaled median
// absolute deviation, which ignores the line features themselves.
func EstimateNoise(y []float64) float64 {
	med := median(y)
	dev := make([]float64, len(y))
	for i, v := range y {
		dev[i] = math.Abs(v - med)
	}
	return 1.4826 * median(dev)
}

func median(v []float64) float64 {
	s := append([]float64{}, v...)
	sort.Float64s(s)
	return stat.Quantile(0.5, stat.Empirical, s, nil)
}
