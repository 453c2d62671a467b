package spectrum_test

import (
	"math"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/ktjameson/magmo-HI/pkg/spectrum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		name      string
		longitude float64
		latitude  float64
		want      string
	}{
		{"positive latitude", 12.3456, 0.5678, "MAGMOHI G012.345+0.567"},
		{"negative latitude", 305.1999, -0.0201, "MAGMOHI G305.199-0.021"},
		{"low longitude", 0.5, 0.0, "MAGMOHI G000.500+0.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, spectrum.Name(tt.longitude, tt.latitude))
		})
	}
}

func TestFindEdges(t *testing.T) {
	tests := []struct {
		name     string
		fluxes   []float64
		edgeChan int
		wantLo   int
		wantHi   int
	}{
		{
			name:     "no empty channels",
			fluxes:   []float64{1, 2, 3, 4, 5, 6, 7, 8},
			edgeChan: 2,
			wantLo:   2,
			wantHi:   5,
		},
		{
			name:     "leading and trailing zeros",
			fluxes:   []float64{0, 0, 1, 2, 3, 4, 0},
			edgeChan: 1,
			wantLo:   3,
			wantHi:   4,
		},
		{
			name:     "all zero",
			fluxes:   []float64{0, 0, 0, 0},
			edgeChan: 0,
			wantLo:   4,
			wantHi:   4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := spectrum.FindEdges(tt.fluxes, tt.edgeChan)
			assert.Equal(t, tt.wantLo, lo)
			assert.Equal(t, tt.wantHi, hi)
			assert.GreaterOrEqual(t, hi, lo)
		})
	}
}

func TestTrim(t *testing.T) {
	s := &spectrum.Spectrum{
		Plane:    []int{0, 1, 2, 3, 4, 5},
		Velocity: []float64{-3000, -2000, -1000, 0, 1000, 2000},
		Flux:     []float64{0, 1, 2, 3, 4, 0},
	}
	trimmed := s.Trim(1)
	assert.Equal(t, []float64{2, 3}, trimmed.Flux)
	assert.Equal(t, []float64{-1000, 0}, trimmed.Velocity)
	assert.Equal(t, []int{2, 3}, trimmed.Plane)
	// The original spectrum is untouched.
	assert.Len(t, s.Flux, 6)
}

func TestMeanContinuum(t *testing.T) {
	rng := registry.ContinuumRange{
		MinLongitude: 10, MaxLongitude: 20,
		MinVelocity: -150, MaxVelocity: -50,
	}

	velocity := []float64{-200000, -100000, -100000, -100000, 0}
	flux := []float64{9, 2, 2, 2, 9}

	mean, sd, ok := spectrum.MeanContinuum(velocity, flux, rng)
	require.True(t, ok)
	assert.InDelta(t, 2.0, mean, 1e-9)
	assert.InDelta(t, 0.0, sd, 1e-9)

	// Window outside the velocity coverage.
	_, _, ok = spectrum.MeanContinuum([]float64{0, 1000}, []float64{1, 1}, rng)
	assert.False(t, ok)
}

func TestOpacity(t *testing.T) {
	op := spectrum.Opacity([]float64{1, 2, 4}, 2)
	assert.Equal(t, []float64{0.5, 1, 2}, op)
}

func TestBrightnessTemp(t *testing.T) {
	// A 30x30 arcsec beam.
	bmaj := 30.0 / 3600 * math.Pi / 180
	beamArea := bmaj * bmaj

	tb := spectrum.BrightnessTemp([]float64{1}, beamArea)
	require.Len(t, tb, 1)

	want := (spectrum.Wavelength * spectrum.Wavelength /
		(2 * spectrum.Boltzmann)) * spectrum.JyToSI /
		(math.Pi * beamArea / 4)
	assert.InDelta(t, want, tb[0], want*1e-12)
	// A Jy/beam in a half-arcminute beam is hundreds of kelvin.
	assert.Greater(t, tb[0], 100.0)
}

func TestSigmaTau(t *testing.T) {
	// Without emission data the noise envelope is flat.
	st := spectrum.SigmaTau(0.05, nil, 3)
	assert.Equal(t, []float64{0.05, 0.05, 0.05}, st)

	// Emission raises the noise; negative emission is clamped to zero.
	st = spectrum.SigmaTau(0.05, []float64{44.7, -10}, 2)
	assert.InDelta(t, 0.1, st[0], 1e-9)
	assert.InDelta(t, 0.05, st[1], 1e-9)
}

func TestWeights(t *testing.T) {
	w := spectrum.Weights([]float64{1, 2, 1})
	var sum float64
	for _, v := range w {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.InDelta(t, 4.0/6.0, w[1], 1e-12)

	// A fully dark map produces zero weights, not NaN.
	w = spectrum.Weights([]float64{0, 0})
	assert.Equal(t, []float64{0, 0}, w)
}
