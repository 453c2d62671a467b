package gaussian_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/gaussian"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func axis(n int, start, step float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = start + float64(i)*step
	}
	return x
}

func TestComponentEval(t *testing.T) {
	c := gaussian.Component{Amplitude: 0.8, Center: -40, FWHM: 10}

	assert.InDelta(t, 0.8, c.Eval(-40), 1e-12)
	// Half maximum at half the FWHM from the center.
	assert.InDelta(t, 0.4, c.Eval(-45), 1e-9)
	assert.InDelta(t, 0.4, c.Eval(-35), 1e-9)
	assert.Less(t, c.Eval(0), 1e-6)
}

func TestFitSingleComponent(t *testing.T) {
	truth := gaussian.Component{Amplitude: 0.7, Center: -35, FWHM: 8}
	x := axis(200, -120, 1)
	y := make([]float64, len(x))
	rng := rand.New(rand.NewSource(42))
	for i := range x {
		y[i] = truth.Eval(x[i]) + rng.NormFloat64()*0.01
	}

	res, err := gaussian.Fit(x, y, gaussian.Options{Noise: 0.02})
	require.NoError(t, err)
	require.Len(t, res.Components, 1)
	assert.True(t, res.Converged)

	got := res.Components[0]
	assert.InDelta(t, truth.Amplitude, got.Amplitude, 0.05)
	assert.InDelta(t, truth.Center, got.Center, 0.5)
	assert.InDelta(t, truth.FWHM, got.FWHM, 1.0)
	assert.Greater(t, got.FWHM, 0.0)
	assert.Less(t, res.Residual, 0.05)
}

func TestFitTwoComponents(t *testing.T) {
	truth := []gaussian.Component{
		{Amplitude: 0.6, Center: -60, FWHM: 6},
		{Amplitude: 0.3, Center: -20, FWHM: 12},
	}
	x := axis(300, -150, 1)
	y := make([]float64, len(x))
	rng := rand.New(rand.NewSource(7))
	for i := range x {
		y[i] = gaussian.Sum(truth, x[i]) + rng.NormFloat64()*0.005
	}

	res, err := gaussian.Fit(x, y, gaussian.Options{Noise: 0.02})
	require.NoError(t, err)
	require.Len(t, res.Components, 2)
	assert.True(t, res.Converged)

	for _, c := range res.Components {
		assert.Greater(t, c.Amplitude, 0.0)
		assert.Greater(t, c.FWHM, 0.0)
	}
}

func TestFitFeaturelessProfile(t *testing.T) {
	x := axis(100, -50, 1)
	y := make([]float64, len(x))
	for i := range y {
		y[i] = 0.001 * math.Sin(float64(i))
	}

	res, err := gaussian.Fit(x, y, gaussian.Options{})
	require.NoError(t, err)
	// Pure noise yields zero components and no error.
	assert.Empty(t, res.Components)
	assert.True(t, res.Converged)
}

func TestFitComponentCap(t *testing.T) {
	truth := []gaussian.Component{
		{Amplitude: 0.5, Center: -70, FWHM: 5},
		{Amplitude: 0.5, Center: -40, FWHM: 5},
		{Amplitude: 0.5, Center: -10, FWHM: 5},
	}
	x := axis(200, -100, 1)
	y := make([]float64, len(x))
	for i := range x {
		y[i] = gaussian.Sum(truth, x[i])
	}

	res, err := gaussian.Fit(x, y, gaussian.Options{
		MaxComponents: 2, Noise: 0.01,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Components), 2)
}

func TestFitBadInput(t *testing.T) {
	_, err := gaussian.Fit([]float64{1, 2}, []float64{1}, gaussian.Options{})
	assert.Error(t, err)

	_, err = gaussian.Fit([]float64{1, 2}, []float64{1, 2}, gaussian.Options{})
	assert.Error(t, err)
}

func TestEstimateNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	y := make([]float64, 2000)
	for i := range y {
		y[i] = rng.NormFloat64() * 0.05
	}
	got := gaussian.EstimateNoise(y)
	assert.InDelta(t, 0.05, got, 0.01)

	// A line feature on a small fraction of channels barely moves the
	// estimate.
	line := gaussian.Component{Amplitude: 1, Center: 1000, FWHM: 20}
	for i := range y {
		y[i] += line.Eval(float64(i))
	}
	withLine := gaussian.EstimateNoise(y)
	assert.InDelta(t, got, withLine, 0.02)
	assert.False(t, math.IsNaN(withLine))
}
