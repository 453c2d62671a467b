// Package ioload converts a day's raw RPFITS recordings into per-source
// MIRIAD visibility datasets (atlod + uvsplit) and archives the pristine
// flag, header and history state of each dataset before the processor
// mutates them.
package ioload

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/google/uuid"
	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
)

// backupFiles are the dataset state files the processor mutates in place.
// Restoring them returns a dataset to its just-loaded condition.
var backupFiles = []string{"flags", "header", "history"}

// Loader implements the raw-data loading stage.
type Loader struct {
	cfg    *config.Config
	runner iomiriad.Runner
}

// New creates a Loader driving the given tool runner.
func New(cfg *config.Config, runner iomiriad.Runner) *Loader {
	return &Loader{cfg: cfg, runner: runner}
}

// Load converts and splits one day. Missing raw files and recordings with
// zero sources are warnings so the remaining days keep going.
func (l *Loader) Load(ctx context.Context, day registry.Day) (*magmo.LoadResult, error) {
	if err := iomiriad.CheckTools("atlod", "uvsplit"); err != nil {
		return nil, err
	}

	res := &magmo.LoadResult{RunID: uuid.NewString()}
	slog.Info("Loading day", "day", day.ID, "run_id", res.RunID)

	raw, err := l.rawFiles(day)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		warn := "no raw files matched patterns " + day.Patterns.String()
		gn.Warn("Day %s: %s", day.ID, warn)
		res.Warnings = append(res.Warnings, warn)
		return res, nil
	}

	dayDir := filepath.Join(l.cfg.Data.DataDir, day.DirName())
	if err := os.MkdirAll(dayDir, 0755); err != nil {
		return nil, ConvertError(day.ID, err)
	}

	bar := pb.Full.Start(len(raw) + 1)
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	// One atlod pass per recording keeps a corrupt file from sinking the
	// whole day: a failed conversion is reported and the rest continue.
	var visFiles []string
	var convErr error
	for i, rawFile := range raw {
		vis := filepath.Join(dayDir, day.DirName()+"_"+strconv.Itoa(i)+".uv")
		_, err := l.runner.Run(ctx, "atlod",
			iomiriad.Keyval("in", rawFile),
			iomiriad.Keyval("out", vis),
			iomiriad.Keyval("options", "birdie,noif,xycorr,rfiflag"),
		)
		if err != nil {
			convErr = err
			warn := "cannot convert " + filepath.Base(rawFile) +
				": " + err.Error()
			gn.Warn("Day %s: %s", day.ID, warn)
			res.Warnings = append(res.Warnings, warn)
			bar.Increment()
			continue
		}
		if info, statErr := os.Stat(rawFile); statErr == nil {
			slog.Info("Converted raw recording",
				"file", filepath.Base(rawFile),
				"size", humanize.Bytes(uint64(info.Size())))
		}
		visFiles = append(visFiles, vis)
		bar.Increment()
	}
	if len(visFiles) == 0 {
		return nil, ConvertError(day.ID, convErr)
	}

	for _, vis := range visFiles {
		_, err := l.runner.Run(ctx, "uvsplit",
			iomiriad.Keyval("vis", vis))
		if err != nil {
			return nil, SplitError(day.ID, err)
		}
	}
	bar.Increment()

	datasets, err := Datasets(dayDir)
	if err != nil {
		return nil, SplitError(day.ID, err)
	}
	res.Datasets = datasets

	if len(datasets) == 0 {
		warn := "recordings contained no sources"
		gn.Warn("Day %s: %s", day.ID, warn)
		res.Warnings = append(res.Warnings, warn)
		return res, nil
	}

	for _, ds := range datasets {
		if err := backupDataset(dayDir, ds); err != nil {
			return nil, err
		}
	}

	gn.Info("Day %s: loaded %s source datasets",
		day.ID, humanize.Comma(int64(len(datasets))))
	return res, nil
}

// rawFiles resolves the day's raw recordings, preferring the archive list
// written by the find stage and falling back to pattern globs over the
// raw data directory.
func (l *Loader) rawFiles(day registry.Day) ([]string, error) {
	rawDir := l.cfg.Data.RawDir
	if !filepath.IsAbs(rawDir) {
		rawDir = filepath.Join(l.cfg.Data.DataDir, rawDir)
	}

	var files []string
	seen := make(map[string]bool)
	for _, pattern := range day.Patterns {
		matches, err := filepath.Glob(filepath.Join(rawDir, pattern))
		if err != nil {
			return nil, ConvertError(day.ID, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Datasets lists the per-source visibility datasets of a day directory.
// A MIRIAD dataset is a directory holding a header item; the backup and
// image-product directories and the .uv conversion intermediates do not
// qualify.
func Datasets(dayDir string) ([]string, error) {
	entries, err := os.ReadDir(dayDir)
	if err != nil {
		return nil, err
	}

	var datasets []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "backup" ||
			strings.HasSuffix(e.Name(), ".uv") {
			continue
		}
		if _, err := os.Stat(filepath.Join(dayDir, e.Name(), "header")); err != nil {
			continue
		}
		datasets = append(datasets, e.Name())
	}
	sort.Strings(datasets)
	return datasets, nil
}

// backupDataset archives the mutable state files of one dataset under
// backup/<dataset>/.
func backupDataset(dayDir, dataset string) error {
	backupDir := filepath.Join(dayDir, "backup", dataset)
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return BackupError(dataset, err)
	}

	for _, name := range backupFiles {
		src := filepath.Join(dayDir, dataset, name)
		if _, err := os.Stat(src); err != nil {
			// Freshly split datasets may not have a flags item yet.
			continue
		}
		if err := copyFile(src, filepath.Join(backupDir, name)); err != nil {
			return BackupError(dataset, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
