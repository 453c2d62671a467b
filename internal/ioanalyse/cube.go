package ioanalyse

import (
	"fmt"
	"math"
	"os"

	"github.com/astrogo/fitsio"
)

// Cube is a spectral-line FITS cube with the linear world coordinate
// information the spectrum extraction needs. MIRIAD writes the cubes with
// axes (RA, Dec, velocity, Stokes); the Stokes axis is degenerate.
type Cube struct {
	NX, NY, NPlanes int

	// Velocities holds the LSR velocity of each plane in m/s.
	Velocities []float64

	// BeamMaj and BeamMin are the restoring beam axes in degrees.
	BeamMaj, BeamMin float64

	// Linear sky coordinate description, FITS 1-based.
	crval1, crpix1, cdelt1 float64
	crval2, crpix2, cdelt2 float64

	data []float64
}

// OpenCube reads a spectral cube written by the imaging stage.
func OpenCube(path string) (*Cube, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fits, err := fitsio.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer fits.Close()

	img, ok := fits.HDU(0).(fitsio.Image)
	if !ok {
		return nil, fmt.Errorf("%s: primary HDU is not an image", path)
	}

	hdr := img.Header()
	axes := hdr.Axes()
	if len(axes) < 3 {
		return nil, fmt.Errorf("%s: expected a cube, got %d axes",
			path, len(axes))
	}

	c := &Cube{NX: axes[0], NY: axes[1], NPlanes: axes[2]}

	n := c.NX * c.NY * c.NPlanes
	for _, extra := range axes[3:] {
		if extra != 1 {
			return nil, fmt.Errorf("%s: unexpected axis of length %d",
				path, extra)
		}
	}

	switch hdr.Bitpix() {
	case -64:
		c.data = make([]float64, n)
		if err := img.Read(&c.data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case -32:
		raw := make([]float32, n)
		if err := img.Read(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		c.data = make([]float64, n)
		for i, v := range raw {
			c.data[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported bitpix %d",
			path, hdr.Bitpix())
	}

	keys := map[string]*float64{
		"BMAJ": &c.BeamMaj, "BMIN": &c.BeamMin,
		"CRVAL1": &c.crval1, "CRPIX1": &c.crpix1, "CDELT1": &c.cdelt1,
		"CRVAL2": &c.crval2, "CRPIX2": &c.crpix2, "CDELT2": &c.cdelt2,
	}
	for key, dst := range keys {
		v, err := headerFloat(hdr, key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		*dst = v
	}

	crval3, err := headerFloat(hdr, "CRVAL3")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	crpix3, err := headerFloat(hdr, "CRPIX3")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cdelt3, err := headerFloat(hdr, "CDELT3")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.Velocities = make([]float64, c.NPlanes)
	for i := range c.Velocities {
		c.Velocities[i] = crval3 + (float64(i+1)-crpix3)*cdelt3
	}

	return c, nil
}

func headerFloat(hdr *fitsio.Header, key string) (float64, error) {
	card := hdr.Get(key)
	if card == nil {
		return 0, fmt.Errorf("header has no %s card", key)
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("header card %s has non-numeric value %v",
			key, card.Value)
	}
}

// BeamArea returns bmaj*bmin in radian^2.
func (c *Cube) BeamArea() float64 {
	return degToRad(c.BeamMaj) * degToRad(c.BeamMin)
}

// PixelSize returns the sky increments per pixel in degrees.
func (c *Cube) PixelSize() (dx, dy float64) {
	return c.cdelt1, c.cdelt2
}

// PixelAt translates an ICRS position to the nearest 0-based pixel. The
// transform is linear around the reference pixel, which is accurate over
// the half-degree fields the campaign images.
func (c *Cube) PixelAt(ra, dec float64) (x, y int) {
	cosDec := math.Cos(degToRad(c.crval2))
	px := c.crpix1 + (ra-c.crval1)*cosDec/c.cdelt1
	py := c.crpix2 + (dec-c.crval2)/c.cdelt2
	return int(math.Round(px)) - 1, int(math.Round(py)) - 1
}

// WorldAt translates a 0-based pixel to its ICRS position.
func (c *Cube) WorldAt(x, y int) (ra, dec float64) {
	cosDec := math.Cos(degToRad(c.crval2))
	ra = c.crval1 + (float64(x+1)-c.crpix1)*c.cdelt1/cosDec
	dec = c.crval2 + (float64(y+1)-c.crpix2)*c.cdelt2
	return ra, dec
}

// Flux returns the value at a 0-based (plane, x, y) position. Positions
// off the cube read as zero so box extraction near an edge stays simple.
func (c *Cube) Flux(plane, x, y int) float64 {
	if plane < 0 || plane >= c.NPlanes ||
		x < 0 || x >= c.NX || y < 0 || y >= c.NY {
		return 0
	}
	return c.data[(plane*c.NY+y)*c.NX+x]
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
