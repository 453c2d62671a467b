package ioclean

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Data.DataDir = t.TempDir()
	return cfg
}

func testDay() registry.Day {
	return registry.Day{
		ID: "45", Date: "2012-01-06",
		Patterns: registry.Patterns{"2012-01-06*"},
	}
}

// loadedDay lays out a day directory the way the load stage leaves it:
// one science and one calibrator dataset with archived state, plus a
// conversion intermediate.
func loadedDay(t *testing.T, dataDir string) string {
	t.Helper()
	dayDir := filepath.Join(dataDir, "day45")

	for _, ds := range []string{"282.255-2.253.1420", "1934-638.1420"} {
		dsDir := filepath.Join(dayDir, ds)
		backupDir := filepath.Join(dayDir, "backup", ds)
		require.NoError(t, os.MkdirAll(dsDir, 0755))
		require.NoError(t, os.MkdirAll(backupDir, 0755))
		for _, name := range []string{"flags", "header", "history"} {
			content := []byte(ds + " " + name + " pristine")
			require.NoError(t, os.WriteFile(
				filepath.Join(dsDir, name), content, 0644))
			require.NoError(t, os.WriteFile(
				filepath.Join(backupDir, name), content, 0644))
		}
	}

	uvDir := filepath.Join(dayDir, "day45_0.uv")
	require.NoError(t, os.MkdirAll(uvDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(uvDir, "header"), []byte("h"), 0644))
	return dayDir
}

// processedDay adds the process stage's products on top of a loaded day
// and mutates the dataset state the way calibration does.
func processedDay(t *testing.T, dayDir string) {
	t.Helper()
	for _, dir := range []string{"1420", "1757"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dayDir, dir), 0755))
		require.NoError(t, os.WriteFile(
			filepath.Join(dayDir, dir, "magmo-282.255-2.253_restor.fits"),
			[]byte("fits"), 0644))
	}
	require.NoError(t, os.WriteFile(
		filepath.Join(dayDir, "stats.csv"), []byte("field\n"), 0644))

	for _, ds := range []string{"282.255-2.253.1420", "1934-638.1420"} {
		require.NoError(t, os.WriteFile(
			filepath.Join(dayDir, ds, "flags"),
			[]byte("mutated by calibration"), 0644))
	}
}

// analysedDay adds analysis artifacts to a day directory.
func analysedDay(t *testing.T, dayDir string) {
	t.Helper()
	for _, name := range []string{
		"282.255-2.253_src1-0_opacity.votable.xml",
		"282.255-2.253_src1-0_emission.votable.xml",
		"282.255-2.253_src1-0_plot.png",
		"282.255-2.253_src1-0_emission.png",
		"282.255-2.253_src1-0_fit.png",
		"282.255-2.253_src_comp.vot",
		"282.255-2.253_src_isle.vot",
		"spectra.html",
	} {
		require.NoError(t, os.WriteFile(
			filepath.Join(dayDir, name), []byte("x"), 0644))
	}
}

// seedCatalogueDB creates a catalogue database with spectrum rows for
// two days.
func seedCatalogueDB(t *testing.T, dataDir string) string {
	t.Helper()
	path := filepath.Join(dataDir, "magmo-catalogue.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE spectrum (day TEXT, field TEXT);
CREATE TABLE region (day TEXT, field TEXT);`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO spectrum VALUES
		('45', '282.255-2.253'), ('84', '291.270-0.719');
		INSERT INTO region VALUES ('45', '282.255-2.253');`)
	require.NoError(t, err)
	return path
}

// treeSnapshot lists every path under root with its file contents.
func treeSnapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	snap := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			snap[rel] = "<dir>"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		snap[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return snap
}

func TestCleanVirginDay(t *testing.T) {
	cfg := testConfig(t)

	res, err := New(cfg).Clean(context.Background(), testDay(), magmo.CleanFull)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 0, res.Restored)

	// No file changes either.
	entries, err := os.ReadDir(cfg.Data.DataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCleanAnalysis(t *testing.T) {
	cfg := testConfig(t)
	dayDir := loadedDay(t, cfg.Data.DataDir)
	processedDay(t, dayDir)
	analysedDay(t, dayDir)
	dbPath := seedCatalogueDB(t, cfg.Data.DataDir)

	res, err := New(cfg).Clean(context.Background(), testDay(),
		magmo.CleanAnalysis)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Removed)
	assert.Equal(t, 0, res.Restored)

	// Analysis artifacts are gone.
	matches, err := filepath.Glob(filepath.Join(dayDir, "*_src*"))
	require.NoError(t, err)
	assert.Empty(t, matches)
	_, err = os.Stat(filepath.Join(dayDir, "spectra.html"))
	assert.True(t, os.IsNotExist(err))

	// Datasets, images and stats survive the analysis scope.
	for _, keep := range []string{
		"282.255-2.253.1420", "1420", "1757", "stats.csv",
	} {
		_, err := os.Stat(filepath.Join(dayDir, keep))
		assert.NoError(t, err, keep)
	}

	// Only the cleaned day's catalogue rows are removed.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()
	var days []string
	rows, err := db.Query("SELECT day FROM spectrum")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		days = append(days, d)
	}
	require.NoError(t, rows.Err())
	sort.Strings(days)
	assert.Equal(t, []string{"84"}, days)
}

func TestCleanFullRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	dayDir := loadedDay(t, cfg.Data.DataDir)
	before := treeSnapshot(t, dayDir)

	processedDay(t, dayDir)
	analysedDay(t, dayDir)

	res, err := New(cfg).Clean(context.Background(), testDay(), magmo.CleanFull)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Restored)
	assert.Greater(t, res.Removed, 0)

	// The day directory is back to its just-loaded state, archived
	// flags restored over the calibrated ones. The conversion
	// intermediate is deliberately gone, it is derivable from the raw
	// recordings.
	delete(before, "day45_0.uv")
	delete(before, filepath.Join("day45_0.uv", "header"))
	after := treeSnapshot(t, dayDir)
	assert.Equal(t, before, after)
}

func TestCleanFullWithoutBackups(t *testing.T) {
	cfg := testConfig(t)
	dayDir := filepath.Join(cfg.Data.DataDir, "day45")
	dsDir := filepath.Join(dayDir, "282.255-2.253.1420")
	require.NoError(t, os.MkdirAll(dsDir, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dsDir, "header"), []byte("h"), 0644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dsDir, "flags"), []byte("mutated"), 0644))

	res, err := New(cfg).Clean(context.Background(), testDay(), magmo.CleanFull)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Restored)

	// Without a backup the mutated state is left alone.
	data, err := os.ReadFile(filepath.Join(dsDir, "flags"))
	require.NoError(t, err)
	assert.Equal(t, "mutated", string(data))
}
