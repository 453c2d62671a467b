// Package iogas turns the fitted Gaussian components into gas physical
// properties: optical depth, spin temperature where emission data
// exists, equivalent width and association with known methanol masers.
// The results form the gas catalogue and the equivalent-width
// longitude-velocity diagram.
package iogas

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/coords"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/votable"
)

const (
	// maserCatalogueFile is the 6 GHz Methanol Multibeam catalogue,
	// expected in the data directory.
	maserCatalogueFile = "methanol_multibeam_catalogue.vot"

	// maserMaxSeparation is the largest angular distance in degrees at
	// which a gas component is associated with a maser.
	maserMaxSeparation = 2.0 / 60

	// maserVelocityMargin widens the maser velocity range in km/s when
	// testing a component for association.
	maserVelocityMargin = 10.0

	// spinTempMaxAmplitude is the absorption amplitude above which the
	// spin temperature estimate diverges and is not reported.
	spinTempMaxAmplitude = 0.98
)

// Gas is one component's derived physical properties. Velocities and
// widths are in km/s, temperatures in K.
type Gas struct {
	Day       string
	Field     string
	Source    string
	Name      string
	Longitude float64
	Latitude  float64
	RA        float64
	Dec       float64

	Velocity   float64
	EmVelocity float64
	Amplitude  float64
	FWHM       float64

	Tau        float64
	EquivWidth float64

	// TOff and TSpin are only set when emission data covers the
	// component's velocity; HasTemp reports that.
	TOff    float64
	TSpin   float64
	HasTemp bool

	Rating    string
	NearMaser bool
}

// maser is one methanol maser site from the multibeam catalogue.
type maser struct {
	RA, Dec         float64
	VelLow, VelHigh float64
}

// Examiner implements the gas examination stage.
type Examiner struct {
	cfg *config.Config
}

// New creates an Examiner.
func New(cfg *config.Config) *Examiner {
	return &Examiner{cfg: cfg}
}

// Examine derives gas properties for every fitted component and writes
// magmo-gas.vot, the gas table of the catalogue database and the
// equivalent-width longitude-velocity diagram. Components whose fitted
// velocity falls outside their spectrum's coverage are rejected.
func (e *Examiner) Examine(ctx context.Context) (*magmo.ExamineResult, error) {
	dataDir := e.cfg.Data.DataDir

	comps, err := readComponents(filepath.Join(dataDir, "magmo-components.vot"))
	if err != nil {
		return nil, ReadError("magmo-components.vot", err)
	}
	spectra, err := readSpectra(filepath.Join(dataDir, "magmo-spectra.vot"))
	if err != nil {
		return nil, ReadError("magmo-spectra.vot", err)
	}

	masers, err := readMaserCatalogue(filepath.Join(dataDir, maserCatalogueFile))
	if err != nil {
		gn.Warn("No maser catalogue: %v", err)
	}
	slog.Info("Examining gas components",
		"components", len(comps), "masers", len(masers))

	res := &magmo.ExamineResult{Components: len(comps)}
	var all []Gas
	for _, c := range comps {
		if err := ctx.Err(); err != nil {
			return nil, ReadError("magmo-components.vot", err)
		}
		g, ok := e.examineComponent(c, spectra, masers)
		if !ok {
			continue
		}
		all = append(all, g)
	}
	res.Gas = len(all)

	if err := writeGasVOT(
		filepath.Join(dataDir, "magmo-gas.vot"), all); err != nil {
		return nil, CatalogueError("magmo-gas.vot", err)
	}
	if err := writeGasDB(
		filepath.Join(dataDir, "magmo-catalogue.db"), all); err != nil {
		return nil, CatalogueError("magmo-catalogue.db", err)
	}
	if err := plotEquivWidthLV(
		filepath.Join(dataDir, "magmo-equiv-width-lv.png"), all); err != nil {
		return nil, CatalogueError("magmo-equiv-width-lv.png", err)
	}

	gn.Info("Examined %s components, catalogued %s gas entries",
		humanize.Comma(int64(res.Components)),
		humanize.Comma(int64(res.Gas)))
	return res, nil
}

// examineComponent derives one component's gas properties. ok is false
// when the component is rejected.
func (e *Examiner) examineComponent(
	c component, spectra map[string]spectrumEntry, masers map[string]maser,
) (Gas, bool) {
	spec, ok := spectra[c.key()]
	if !ok {
		gn.Warn("No catalogued spectrum for component <em>%s</em>", c.key())
		return Gas{}, false
	}
	if c.MeanVelocity < spec.MinVelocity || c.MeanVelocity > spec.MaxVelocity {
		slog.Warn("Ignoring gas component outside of spectrum",
			"min", spec.MinVelocity, "max", spec.MaxVelocity,
			"component", c.MeanVelocity)
		return Gas{}, false
	}

	ra, dec := coords.Equatorial(c.Longitude, c.Latitude)
	od := 1 - c.Amplitude
	g := Gas{
		Day:       c.Day,
		Field:     c.Field,
		Source:    c.Source,
		Name:      c.Name,
		Longitude: c.Longitude,
		Latitude:  c.Latitude,
		RA:        ra,
		Dec:       dec,

		Velocity:  c.MeanVelocity,
		Amplitude: c.Amplitude,
		FWHM:      c.FWHM,

		Tau:        -math.Log(math.Max(od, 1e-16)),
		EquivWidth: math.Abs(c.Amplitude * c.FWHM),
		Rating:     spec.Rating,
	}

	emPath := filepath.Join(e.cfg.Data.DataDir, "day"+c.Day,
		c.Field+"_src"+c.Source+"_emission.votable.xml")
	tOff, emVel, ok := emissionTemp(emPath, c.MeanVelocity*1000)
	if ok {
		g.EmVelocity = emVel / 1000
		if tOff > 0 && c.Amplitude < spinTempMaxAmplitude {
			g.TOff = tOff
			g.TSpin = tOff / c.Amplitude
			g.HasTemp = true
			slog.Info("Spin temperature",
				"field", c.Field, "velocity", c.MeanVelocity,
				"t_spin", g.TSpin, "t_off", tOff, "amplitude", c.Amplitude)
		}
	}

	if m, ok := masers[fieldKey(c.Field)]; ok {
		g.NearMaser = nearMaser(g, m)
	} else if len(masers) > 0 {
		slog.Debug("No maser site for field", "field", c.Field)
	}
	return g, true
}

// nearMaser reports whether the gas sits at a known maser position with
// a compatible velocity.
func nearMaser(g Gas, m maser) bool {
	if coords.Separation(g.RA, g.Dec, m.RA, m.Dec) > maserMaxSeparation {
		return false
	}
	return g.Velocity >= m.VelLow-maserVelocityMargin &&
		g.Velocity <= m.VelHigh+maserVelocityMargin
}

// emissionTemp reads the emission profile next to a spectrum and returns
// the mean emission temperature at the first channel at or above the
// component velocity in m/s. ok is false when there is no usable
// emission data.
func emissionTemp(path string, compVel float64) (temp, velocity float64, ok bool) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return 0, 0, false
	}
	table, err := vot.FirstTable()
	if err != nil {
		return 0, 0, false
	}
	velocities, err := table.Floats("velocity")
	if err != nil {
		return 0, 0, false
	}
	means, err := table.Floats("em_mean")
	if err != nil {
		return 0, 0, false
	}

	for i, v := range velocities {
		if v >= compVel {
			return means[i], v, true
		}
	}
	return 0, 0, false
}

// fieldKey pads a field name to the canonical lll.lll±bb.bbb form so
// catalogues quoting short longitudes still match.
func fieldKey(name string) string {
	key := strings.TrimSpace(name)
	switch dot := strings.Index(key, "."); dot {
	case 1:
		return "00" + key
	case 2:
		return "0" + key
	}
	return key
}
