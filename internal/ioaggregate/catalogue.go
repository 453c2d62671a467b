package ioaggregate

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/jszwec/csvutil"
	"github.com/ktjameson/magmo-HI/pkg/votable"
	_ "modernc.org/sqlite"
)

// writeSpectraVOT writes the spectra catalogue as a VOTable.
func writeSpectraVOT(path string, spectra []*Summary) error {
	table := votable.Table{
		Name: filepath.Base(path),
		ID:   "spectra",
		Fields: []votable.Field{
			{Name: "day", Datatype: "char", ArraySize: "*"},
			{Name: "field", Datatype: "char", ArraySize: "*"},
			{Name: "source", Datatype: "char", ArraySize: "*"},
			{Name: "name", Datatype: "char", ArraySize: "*"},
			{Name: "longitude", Datatype: "double", Unit: "deg"},
			{Name: "latitude", Datatype: "double", Unit: "deg"},
			{Name: "channels", Datatype: "int"},
			{Name: "min_velocity", Datatype: "double", Unit: "km/s"},
			{Name: "max_velocity", Datatype: "double", Unit: "km/s"},
			{Name: "min_opacity", Datatype: "double"},
			{Name: "max_opacity", Datatype: "double"},
			{Name: "mean_sigma_tau", Datatype: "double"},
			{Name: "rating", Datatype: "char", ArraySize: "*"},
			{Name: "run_id", Datatype: "char", ArraySize: "*"},
		},
	}
	for _, s := range spectra {
		table.AddRow(s.Day, s.Field, s.Source, s.Name,
			s.Longitude, s.Latitude, s.Channels,
			s.MinVelocity, s.MaxVelocity,
			s.MinOpacity, s.MaxOpacity, s.MeanSigmaTau,
			s.Rating, s.RunID)
	}
	return votable.New(table).WriteFile(path)
}

// writeSpectraCSV exports the catalogue for spreadsheet use.
func writeSpectraCSV(path string, spectra []*Summary) error {
	rows := make([]Summary, len(spectra))
	for i, s := range spectra {
		rows[i] = *s
	}
	data, err := csvutil.Marshal(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// writeCatalogueDB stores the spectra and their absorption regions in an
// embedded SQLite database for ad-hoc querying. The database is rebuilt
// on every aggregate run.
func writeCatalogueDB(path string, spectra []*Summary, regions []Region) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	schema := `
CREATE TABLE spectrum (
	day TEXT NOT NULL,
	field TEXT NOT NULL,
	source TEXT NOT NULL,
	name TEXT NOT NULL,
	longitude REAL NOT NULL,
	latitude REAL NOT NULL,
	channels INTEGER NOT NULL,
	min_velocity REAL NOT NULL,
	max_velocity REAL NOT NULL,
	min_opacity REAL NOT NULL,
	max_opacity REAL NOT NULL,
	mean_sigma_tau REAL NOT NULL,
	rating TEXT NOT NULL,
	run_id TEXT,
	PRIMARY KEY (day, field, source)
);
CREATE TABLE region (
	day TEXT NOT NULL,
	field TEXT NOT NULL,
	source TEXT NOT NULL,
	name TEXT NOT NULL,
	longitude REAL NOT NULL,
	min_velocity REAL NOT NULL,
	max_velocity REAL NOT NULL,
	peak_depth REAL NOT NULL,
	max_sigma REAL NOT NULL
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

	specStmt, err := tx.Prepare(`INSERT INTO spectrum
		(day, field, source, name, longitude, latitude, channels,
		 min_velocity, max_velocity, min_opacity, max_opacity,
		 mean_sigma_tau, rating, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer specStmt.Close()
	for _, s := range spectra {
		if _, err := specStmt.Exec(s.Day, s.Field, s.Source, s.Name,
			s.Longitude, s.Latitude, s.Channels,
			s.MinVelocity, s.MaxVelocity,
			s.MinOpacity, s.MaxOpacity, s.MeanSigmaTau,
			s.Rating, s.RunID); err != nil {
			return err
		}
	}

	regionStmt, err := tx.Prepare(`INSERT INTO region
		(day, field, source, name, longitude,
		 min_velocity, max_velocity, peak_depth, max_sigma)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer regionStmt.Close()
	for _, r := range regions {
		if _, err := regionStmt.Exec(r.Day, r.Field, r.Source, r.Name,
			r.Longitude, r.MinVelocity, r.MaxVelocity,
			r.PeakDepth, r.MaxSigma); err != nil {
			return err
		}
	}

	return tx.Commit()
}
