package coords_test

import (
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/coords"
	"github.com/stretchr/testify/assert"
)

func TestGalactic(t *testing.T) {
	tests := []struct {
		name  string
		ra    float64
		dec   float64
		wantL float64
		wantB float64
	}{
		// Galactic centre (Sgr A*).
		{"galactic centre", 266.41683, -29.00781, 359.9443, -0.0462},
		// North galactic pole.
		{"north galactic pole", 192.85948, 27.12825, 0, 90},
		// Vega.
		{"vega", 279.23473, 38.78369, 67.448, 19.237},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, b := coords.Galactic(tt.ra, tt.dec)
			if tt.wantB < 89.9 {
				assert.InDelta(t, tt.wantL, l, 0.05)
			}
			assert.InDelta(t, tt.wantB, b, 0.05)
		})
	}
}

func TestEquatorialRoundTrip(t *testing.T) {
	ra0, dec0 := 265.30, -28.75
	l, b := coords.Galactic(ra0, dec0)
	ra, dec := coords.Equatorial(l, b)
	assert.InDelta(t, ra0, ra, 1e-6)
	assert.InDelta(t, dec0, dec, 1e-6)
}

func TestSeparation(t *testing.T) {
	assert.InDelta(t, 0.0, coords.Separation(10, -1, 10, -1), 1e-12)
	assert.InDelta(t, 1.0, coords.Separation(10, 0, 11, 0), 1e-9)
	// Two arcminutes, the maser association limit.
	assert.InDelta(t, 2.0/60, coords.Separation(330.5, 0.1, 330.5, 0.1+2.0/60), 1e-9)
}
