package iogas

import (
	"database/sql"

	"github.com/ktjameson/magmo-HI/pkg/votable"
	_ "modernc.org/sqlite"
)

// component is one row of magmo-components.vot.
type component struct {
	Day          string
	Field        string
	Source       string
	Name         string
	Longitude    float64
	Latitude     float64
	Amplitude    float64
	MeanVelocity float64
	FWHM         float64
}

func (c component) key() string {
	return c.Day + "|" + c.Field + "|" + c.Source
}

// spectrumEntry is the part of a catalogued spectrum the examination
// needs: its quality and velocity coverage in km/s.
type spectrumEntry struct {
	Rating      string
	MinVelocity float64
	MaxVelocity float64
}

func readComponents(path string) ([]component, error) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	days, err := table.Strings("day")
	if err != nil {
		return nil, err
	}
	fields, err := table.Strings("field")
	if err != nil {
		return nil, err
	}
	sources, err := table.Strings("source")
	if err != nil {
		return nil, err
	}
	names, err := table.Strings("name")
	if err != nil {
		return nil, err
	}
	longitudes, err := table.Floats("longitude")
	if err != nil {
		return nil, err
	}
	latitudes, err := table.Floats("latitude")
	if err != nil {
		return nil, err
	}
	amplitudes, err := table.Floats("amplitude")
	if err != nil {
		return nil, err
	}
	velocities, err := table.Floats("mean_velocity")
	if err != nil {
		return nil, err
	}
	widths, err := table.Floats("fwhm")
	if err != nil {
		return nil, err
	}

	comps := make([]component, len(days))
	for i := range comps {
		comps[i] = component{
			Day:          days[i],
			Field:        fields[i],
			Source:       sources[i],
			Name:         names[i],
			Longitude:    longitudes[i],
			Latitude:     latitudes[i],
			Amplitude:    amplitudes[i],
			MeanVelocity: velocities[i],
			FWHM:         widths[i],
		}
	}
	return comps, nil
}

func readSpectra(path string) (map[string]spectrumEntry, error) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	days, err := table.Strings("day")
	if err != nil {
		return nil, err
	}
	fields, err := table.Strings("field")
	if err != nil {
		return nil, err
	}
	sources, err := table.Strings("source")
	if err != nil {
		return nil, err
	}
	ratings, err := table.Strings("rating")
	if err != nil {
		return nil, err
	}
	minVels, err := table.Floats("min_velocity")
	if err != nil {
		return nil, err
	}
	maxVels, err := table.Floats("max_velocity")
	if err != nil {
		return nil, err
	}

	spectra := make(map[string]spectrumEntry, len(days))
	for i := range days {
		key := days[i] + "|" + fields[i] + "|" + sources[i]
		spectra[key] = spectrumEntry{
			Rating:      ratings[i],
			MinVelocity: minVels[i],
			MaxVelocity: maxVels[i],
		}
	}
	return spectra, nil
}

// readMaserCatalogue reads the methanol multibeam catalogue, keyed by
// the padded field name.
func readMaserCatalogue(path string) (map[string]maser, error) {
	vot, err := votable.ParseFile(path)
	if err != nil {
		return nil, err
	}
	table, err := vot.FirstTable()
	if err != nil {
		return nil, err
	}

	names, err := table.Strings("Name")
	if err != nil {
		return nil, err
	}
	ras, err := table.Floats("RAJ2000")
	if err != nil {
		return nil, err
	}
	decs, err := table.Floats("DEJ2000")
	if err != nil {
		return nil, err
	}
	velLows, err := table.Floats("VL")
	if err != nil {
		return nil, err
	}
	velHighs, err := table.Floats("VH")
	if err != nil {
		return nil, err
	}

	masers := make(map[string]maser, len(names))
	for i := range names {
		masers[fieldKey(names[i])] = maser{
			RA:      ras[i],
			Dec:     decs[i],
			VelLow:  velLows[i],
			VelHigh: velHighs[i],
		}
	}
	return masers, nil
}

// writeGasVOT writes the gas catalogue. Temperatures are left empty
// where no emission data covered the component.
func writeGasVOT(path string, all []Gas) error {
	table := votable.Table{
		Name: "magmo_gas",
		ID:   "gas",
		Fields: []votable.Field{
			{Name: "day", Datatype: "char", ArraySize: "*"},
			{Name: "field", Datatype: "char", ArraySize: "*"},
			{Name: "source", Datatype: "char", ArraySize: "*"},
			{Name: "name", Datatype: "char", ArraySize: "*"},
			{Name: "longitude", Datatype: "double", Unit: "deg"},
			{Name: "latitude", Datatype: "double", Unit: "deg"},
			{Name: "ra", Datatype: "double", Unit: "deg",
				UCD: "pos.eq.ra;meta.main"},
			{Name: "dec", Datatype: "double", Unit: "deg",
				UCD: "pos.eq.dec;meta.main"},
			{Name: "velocity", Datatype: "double", Unit: "km/s"},
			{Name: "em_velocity", Datatype: "double", Unit: "km/s"},
			{Name: "amplitude", Datatype: "double"},
			{Name: "fwhm", Datatype: "double", Unit: "km/s"},
			{Name: "tau", Datatype: "double"},
			{Name: "temp_off", Datatype: "double", Unit: "K"},
			{Name: "temp_spin", Datatype: "double", Unit: "K"},
			{Name: "equiv_width", Datatype: "double", Unit: "km/s"},
			{Name: "rating", Datatype: "char", ArraySize: "*"},
			{Name: "near_maser", Datatype: "boolean"},
		},
	}
	for _, g := range all {
		tOff, tSpin := "", ""
		if g.HasTemp {
			tOff = votable.FormatValue(g.TOff)
			tSpin = votable.FormatValue(g.TSpin)
		}
		table.AddRow(g.Day, g.Field, g.Source, g.Name,
			g.Longitude, g.Latitude, g.RA, g.Dec,
			g.Velocity, g.EmVelocity, g.Amplitude, g.FWHM,
			g.Tau, tOff, tSpin, g.EquivWidth,
			g.Rating, g.NearMaser)
	}
	return votable.New(table).WriteFile(path)
}

// writeGasDB replaces the gas table of the catalogue database. The rest
// of the database, written by the aggregate stage, is left untouched.
func writeGasDB(path string, all []Gas) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(`DROP TABLE IF EXISTS gas`); err != nil {
		return err
	}
	schema := `
CREATE TABLE gas (
	day TEXT NOT NULL,
	field TEXT NOT NULL,
	source TEXT NOT NULL,
	name TEXT NOT NULL,
	longitude REAL NOT NULL,
	latitude REAL NOT NULL,
	ra REAL NOT NULL,
	dec REAL NOT NULL,
	velocity REAL NOT NULL,
	em_velocity REAL NOT NULL,
	amplitude REAL NOT NULL,
	fwhm REAL NOT NULL,
	tau REAL NOT NULL,
	temp_off REAL,
	temp_spin REAL,
	equiv_width REAL NOT NULL,
	rating TEXT NOT NULL,
	near_maser INTEGER NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO gas
		(day, field, source, name, longitude, latitude, ra, dec,
		 velocity, em_velocity, amplitude, fwhm, tau,
		 temp_off, temp_spin, equiv_width, rating, near_maser)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range all {
		var tOff, tSpin any
		if g.HasTemp {
			tOff, tSpin = g.TOff, g.TSpin
		}
		if _, err := stmt.Exec(g.Day, g.Field, g.Source, g.Name,
			g.Longitude, g.Latitude, g.RA, g.Dec,
			g.Velocity, g.EmVelocity, g.Amplitude, g.FWHM, g.Tau,
			tOff, tSpin, g.EquivWidth, g.Rating, g.NearMaser); err != nil {
			return err
		}
	}
	return tx.Commit()
}
