// Package coords converts equatorial J2000 positions to galactic
// coordinates and measures angular separations. The rotation constants
// are the IAU galactic pole and node in the J2000 frame, matching the
// positions the source finder reports.
package coords

import (
	"math"
)

const deg = math.Pi / 180

// J2000 galactic frame orientation.
const (
	poleRA  = 192.85948 * deg
	poleDec = 27.12825 * deg
	lonNode = 122.93192 * deg
)

// Galactic converts a J2000 RA/Dec pair in degrees to galactic longitude
// and latitude in degrees, longitude normalised to [0, 360).
func Galactic(raDeg, decDeg float64) (l, b float64) {
	ra := raDeg * deg
	dec := decDeg * deg

	sinB := math.Sin(poleDec)*math.Sin(dec) +
		math.Cos(poleDec)*math.Cos(dec)*math.Cos(ra-poleRA)
	bRad := math.Asin(sinB)

	y := math.Cos(dec) * math.Sin(ra-poleRA)
	x := math.Cos(poleDec)*math.Sin(dec) -
		math.Sin(poleDec)*math.Cos(dec)*math.Cos(ra-poleRA)
	lRad := lonNode - math.Atan2(y, x)

	l = math.Mod(lRad/deg, 360)
	if l < 0 {
		l += 360
	}
	return l, bRad / deg
}

// Equatorial converts galactic longitude and latitude in degrees back to
// J2000 RA/Dec in degrees, RA normalised to [0, 360).
func Equatorial(lDeg, bDeg float64) (ra, dec float64) {
	l := lDeg * deg
	b := bDeg * deg

	sinDec := math.Sin(poleDec)*math.Sin(b) +
		math.Cos(poleDec)*math.Cos(b)*math.Cos(lonNode-l)
	decRad := math.Asin(sinDec)

	y := math.Cos(b) * math.Sin(lonNode-l)
	x := math.Cos(poleDec)*math.Sin(b) -
		math.Sin(poleDec)*math.Cos(b)*math.Cos(lonNode-l)
	raRad := poleRA + math.Atan2(y, x)

	ra = math.Mod(raRad/deg, 360)
	if ra < 0 {
		ra += 360
	}
	return ra, decRad / deg
}

// Separation returns the angular distance in degrees between two
// positions given in degrees, using the haversine form which is stable
// at small separations.
func Separation(lon1, lat1, lon2, lat2 float64) float64 {
	dLon := (lon2 - lon1) * deg
	dLat := (lat2 - lat1) * deg

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat +
		math.Cos(lat1*deg)*math.Cos(lat2*deg)*sinLon*sinLon
	return 2 * math.Asin(math.Min(1, math.Sqrt(h))) / deg
}
