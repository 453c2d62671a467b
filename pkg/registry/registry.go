// Package registry defines the day registry records that drive every
// pipeline stage and the auxiliary lookup tables read alongside them.
package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Day is one observing session, the pipeline's primary batch unit. A day
// maps a numeric identifier to the date-based file patterns of its raw
// RPFITS recordings.
type Day struct {
	// ID is the day number used in directory names (day<ID>).
	ID string `csv:"day"`

	// Date is the observing date in YYYY-MM-DD form.
	Date string `csv:"date"`

	// Patterns holds the raw-file name patterns, pipe separated in the
	// registry file, e.g. "2012-01-01*|2012-01-02_00*".
	Patterns Patterns `csv:"patterns"`
}

// DirName returns the day's directory name, e.g. "day27".
func (d Day) DirName() string {
	return "day" + d.ID
}

// Validate reports whether the day record is well formed. A malformed day
// identifier in the registry is fatal for the whole run.
func (d Day) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("day identifier is empty")
	}
	if _, err := strconv.Atoi(d.ID); err != nil {
		return fmt.Errorf("day identifier %q is not a number", d.ID)
	}
	if len(d.Patterns) == 0 {
		return fmt.Errorf("day %s has no file patterns", d.ID)
	}
	return nil
}

// Patterns is a pipe-separated list of raw-file name patterns.
type Patterns []string

// String renders the patterns in their registry-file form.
func (p Patterns) String() string {
	return strings.Join(p, "|")
}

// MarshalCSV implements csvutil.Marshaler.
func (p Patterns) MarshalCSV() ([]byte, error) {
	return []byte(strings.Join(p, "|")), nil
}

// UnmarshalCSV implements csvutil.Unmarshaler.
func (p *Patterns) UnmarshalCSV(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" {
		*p = nil
		return nil
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	*p = parts
	return nil
}

// ContinuumRange is a longitude interval with the velocity range known to
// be free of HI gas, used to measure the continuum level of a spectrum.
// Velocities are in km/s relative to the LSR.
type ContinuumRange struct {
	MinLongitude int `csv:"min_long"`
	MaxLongitude int `csv:"max_long"`
	MinVelocity  int `csv:"min_con_vel"`
	MaxVelocity  int `csv:"max_con_vel"`
}

// Contains reports whether the range covers the given galactic longitude.
func (r ContinuumRange) Contains(longitude int) bool {
	return r.MinLongitude <= longitude && longitude <= r.MaxLongitude
}

// LookupContinuumRange finds the continuum velocity range for a galactic
// longitude. The bool result is false when no range covers the longitude.
func LookupContinuumRange(ranges []ContinuumRange, longitude int) (ContinuumRange, bool) {
	for _, r := range ranges {
		if r.Contains(longitude) {
			return r, true
		}
	}
	return ContinuumRange{}, false
}

// FieldStats is one row of a day's stats.csv, written by the processor and
// read back by the analyser to select fields worth searching.
type FieldStats struct {
	Field  string  `csv:"field"`
	StdDev float64 `csv:"stddev"`
	Max    float64 `csv:"max"`
	SN     float64 `csv:"sn"`
}
