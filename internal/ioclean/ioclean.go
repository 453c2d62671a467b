// Package ioclean reverses the pipeline for a day. The analysis scope
// removes spectra, plots, source lists and the day's catalogue rows;
// the full scope also deletes image products and conversion
// intermediates and restores the archived flag, header and history
// state of every dataset. Cleaning a day with no prior output is a
// no-op.
package ioclean

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/ioload"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
)

// analysisPatterns are the per-day analysis artifacts, relative to the
// day directory.
var analysisPatterns = []string{
	"*_opacity.votable.xml",
	"*_emission.votable.xml",
	"*_plot.png",
	"*_emission.png",
	"*_fit.png",
	"*_src.vot",
	"*_src_comp.vot",
	"*_src_isle.vot",
	"spectra.html",
}

// backupFiles mirror the state the loader archives per dataset.
var backupFiles = []string{"flags", "header", "history"}

// Cleaner implements both cleaning scopes.
type Cleaner struct {
	cfg *config.Config
}

// New creates a Cleaner.
func New(cfg *config.Config) *Cleaner {
	return &Cleaner{cfg: cfg}
}

// Clean removes a day's derived products. With magmo.CleanFull the
// image products and conversion intermediates are deleted as well and
// every dataset's archived state is restored, leaving the day as the
// load stage produced it. Backups are validated before the first file
// is touched so a day is restored completely or not at all.
func (c *Cleaner) Clean(ctx context.Context, day registry.Day, scope magmo.CleanScope) (*magmo.CleanResult, error) {
	res := &magmo.CleanResult{}

	dayDir := filepath.Join(c.cfg.Data.DataDir, day.DirName())
	if _, err := os.Stat(dayDir); os.IsNotExist(err) {
		gn.Info("Day %s has no output, nothing to clean", day.ID)
		return res, nil
	}

	removed, err := c.cleanAnalysis(day, dayDir)
	if err != nil {
		return nil, err
	}
	res.Removed += removed

	if scope == magmo.CleanFull {
		removed, err := c.cleanProducts(dayDir)
		if err != nil {
			return nil, err
		}
		res.Removed += removed

		restored, err := restoreDatasets(dayDir)
		if err != nil {
			return nil, err
		}
		res.Restored = restored
	}

	if err := ctx.Err(); err != nil {
		return nil, RemoveError(day.ID, err)
	}

	gn.Info("Day %s: removed %d artifacts, restored %d datasets",
		day.ID, res.Removed, res.Restored)
	return res, nil
}

// cleanAnalysis removes the day's analysis artifacts and its rows in
// the catalogue database.
func (c *Cleaner) cleanAnalysis(day registry.Day, dayDir string) (int, error) {
	var removed int
	for _, pattern := range analysisPatterns {
		matches, err := filepath.Glob(filepath.Join(dayDir, pattern))
		if err != nil {
			return removed, RemoveError(day.ID, err)
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				return removed, RemoveError(day.ID, err)
			}
			removed++
		}
	}

	dbPath := filepath.Join(c.cfg.Data.DataDir, "magmo-catalogue.db")
	rows, err := cleanCatalogueDB(dbPath, day.ID)
	if err != nil {
		return removed, RemoveError(day.ID, err)
	}
	if rows > 0 {
		slog.Info("Removed catalogue rows", "day", day.ID, "rows", rows)
	}
	return removed, nil
}

// cleanProducts removes the process stage's outputs: image product
// directories, conversion intermediates and the field statistics.
func (c *Cleaner) cleanProducts(dayDir string) (int, error) {
	var removed int
	for _, dir := range []string{"1420", "1757"} {
		path := filepath.Join(dayDir, dir)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			return removed, RemoveError(path, err)
		}
		removed++
	}

	intermediates, err := filepath.Glob(filepath.Join(dayDir, "*.uv"))
	if err != nil {
		return removed, RemoveError(dayDir, err)
	}
	for _, uv := range intermediates {
		if err := os.RemoveAll(uv); err != nil {
			return removed, RemoveError(uv, err)
		}
		removed++
	}

	stats := filepath.Join(dayDir, "stats.csv")
	if _, err := os.Stat(stats); err == nil {
		if err := os.Remove(stats); err != nil {
			return removed, RemoveError(stats, err)
		}
		removed++
	}
	return removed, nil
}

// restoreDatasets copies the archived state files back over every
// dataset. All backups are checked before any file is written.
func restoreDatasets(dayDir string) (int, error) {
	datasets, err := ioload.Datasets(dayDir)
	if err != nil {
		return 0, RestoreError(dayDir, err)
	}

	type job struct{ src, dst string }
	var jobs []job
	restored := make(map[string]bool)
	for _, ds := range datasets {
		backupDir := filepath.Join(dayDir, "backup", ds)
		if _, err := os.Stat(backupDir); os.IsNotExist(err) {
			slog.Warn("Dataset has no backup", "dataset", ds)
			continue
		}
		for _, name := range backupFiles {
			src := filepath.Join(backupDir, name)
			if _, err := os.Stat(src); err != nil {
				continue
			}
			f, err := os.Open(src)
			if err != nil {
				return 0, RestoreError(ds, err)
			}
			f.Close()
			jobs = append(jobs, job{
				src: src,
				dst: filepath.Join(dayDir, ds, name),
			})
			restored[ds] = true
		}
	}

	for _, j := range jobs {
		if err := copyFile(j.src, j.dst); err != nil {
			return 0, RestoreError(j.dst, err)
		}
	}
	return len(restored), nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
