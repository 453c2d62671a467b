package ioclean

import (
	"database/sql"
	"os"

	_ "modernc.org/sqlite"
)

// catalogueTables are the per-day tables of the catalogue database, in
// the order the aggregate and examine stages create them.
var catalogueTables = []string{"spectrum", "region", "gas"}

// cleanCatalogueDB deletes a day's rows from every catalogue table and
// returns how many were removed. A missing database or table is not an
// error, the day may simply never have been aggregated.
func cleanCatalogueDB(path, dayID string) (int64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	var total int64
	for _, table := range catalogueTables {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master
			 WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return total, err
		}

		res, err := db.Exec(
			"DELETE FROM "+table+" WHERE day = ?", dayID)
		if err != nil {
			return total, err
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	return total, nil
}
