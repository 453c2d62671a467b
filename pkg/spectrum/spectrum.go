// Package spectrum holds the pure numeric transforms applied to HI
// absorption spectra: edge trimming, continuum measurement, opacity and
// brightness temperature conversion and the noise envelope.
//
// Velocities are in m/s relative to the LSR, fluxes in Jy/beam unless
// stated otherwise.
package spectrum

import (
	"fmt"
	"math"

	"github.com/ktjameson/magmo-HI/pkg/registry"
)

const (
	// Wavelength of the HI line in metres.
	Wavelength = 0.210996048
	// Boltzmann constant in J/K.
	Boltzmann = 1.3806503e-23
	// JyToSI converts Jansky to J s^-1 m^-2 Hz^-1.
	JyToSI = 1e-26
	// TSys is the system temperature of the receiver in K.
	TSys = 44.7
)

// Spectrum is one extracted absorption spectrum with its provenance.
type Spectrum struct {
	Day       string
	Field     string
	Source    string
	Longitude float64
	Latitude  float64
	BeamArea  float64
	Plane     []int
	Velocity  []float64
	Flux      []float64
}

// Name returns the campaign designation of a position, for example
// "MAGMOHI G012.345-0.123". Coordinates are truncated, not rounded.
func Name(longitude, latitude float64) string {
	glong := math.Floor(longitude*1000) / 1000
	glat := math.Floor(latitude*1000) / 1000
	return fmt.Sprintf("MAGMOHI G%07.3f%+06.3f", glong, glat)
}

// FindEdges seeks in from both ends of a flux array past the empty
// channels the correlator records at band edges, then drops a further
// edgeChan channels on each side. The returned bounds are for slicing,
// lo inclusive and hi exclusive. An all-zero spectrum yields lo >= hi.
func FindEdges(fluxes []float64, edgeChan int) (lo, hi int) {
	lo = 0
	hi = len(fluxes) - 1

	for lo < len(fluxes) && fluxes[lo] == 0 {
		lo++
	}
	for hi > 0 && fluxes[hi] == 0 {
		hi--
	}

	lo += edgeChan
	hi -= edgeChan
	if lo < 0 {
		lo = 0
	}
	if hi >= len(fluxes) {
		hi = len(fluxes) - 1
	}
	if hi < lo {
		return lo, lo
	}
	return lo, hi
}

// Trim applies FindEdges to the spectrum and returns a view restricted to
// the usable channels.
func (s *Spectrum) Trim(edgeChan int) *Spectrum {
	lo, hi := FindEdges(s.Flux, edgeChan)
	res := *s
	res.Velocity = s.Velocity[lo:hi]
	res.Flux = s.Flux[lo:hi]
	if s.Plane != nil {
		res.Plane = s.Plane[lo:hi]
	}
	return &res
}

// MeanContinuum measures the continuum level of a spectrum inside the
// velocity window known to be free of gas at the spectrum's longitude.
// The returned deviation is normalised by the mean. ok is false when the
// window does not overlap the spectrum's velocity coverage.
func MeanContinuum(velocity, flux []float64, rng registry.ContinuumRange) (mean, sd float64, ok bool) {
	lo := float64(rng.MinVelocity) * 1000
	hi := float64(rng.MaxVelocity) * 1000

	var sample []float64
	for i, v := range velocity {
		if v > lo && v < hi {
			sample = append(sample, flux[i])
		}
	}
	if len(sample) == 0 {
		return 0, 0, false
	}

	for _, f := range sample {
		mean += f
	}
	mean /= float64(len(sample))

	if mean != 0 {
		var sum float64
		for _, f := range sample {
			d := f/mean - 1
			sum += d * d
		}
		sd = math.Sqrt(sum / float64(len(sample)))
	}
	return mean, sd, true
}

// Opacity converts a flux spectrum to e^(-tau) by dividing out the mean
// continuum level of the background source.
func Opacity(flux []float64, mean float64) []float64 {
	res := make([]float64, len(flux))
	for i, f := range flux {
		res[i] = f / mean
	}
	return res
}

// BrightnessTemp converts a Jy/beam flux spectrum to brightness
// temperature in K for the given beam solid angle in radian^2.
func BrightnessTemp(flux []float64, beamArea float64) []float64 {
	factor := (Wavelength * Wavelength / (2 * Boltzmann)) * JyToSI /
		(math.Pi * beamArea / 4)
	res := make([]float64, len(flux))
	for i, f := range flux {
		res[i] = factor * f
	}
	return res
}

// SigmaTau computes the noise envelope of the optical depth profile.
// Where emission data is available the noise grows with the antenna
// temperature contributed by the emission; otherwise it is flat at the
// continuum deviation.
func SigmaTau(contSD float64, emMean []float64, n int) []float64 {
	res := make([]float64, n)
	if len(emMean) == 0 {
		for i := range res {
			res[i] = contSD
		}
		return res
	}
	for i := range res {
		em := 0.0
		if i < len(emMean) && emMean[i] > 0 {
			em = emMean[i]
		}
		res[i] = contSD * (TSys + em) / TSys
	}
	return res
}

// Weights turns a per-pixel mean continuum map, flattened to a slice,
// into normalised squared-intensity weights. Pixels of bright continuum
// dominate the integrated spectrum, suppressing off-source noise.
func Weights(meanCont []float64) []float64 {
	res := make([]float64, len(meanCont))
	var sum float64
	for i, m := range meanCont {
		sq := m * m
		res[i] = sq
		sum += sq
	}
	if sum == 0 {
		return res
	}
	for i := range res {
		res[i] /= sum
	}
	return res
}
