// Package iofs prepares the application's directories and seeds the
// user-editable configuration and registry files from embedded defaults.
package iofs

import (
	_ "embed"
	"os"

	"github.com/ktjameson/magmo-HI/pkg/config"
)

//go:embed config.yaml
var ConfigYAML string

//go:embed days.csv
var DaysCSV string

//go:embed magmo-continuum.csv
var ContinuumCSV string

func EnsureDirs(homeDir string) error {
	dirs := []string{
		config.ConfigDir(homeDir),
		config.CacheDir(homeDir),
		config.LogDir(homeDir),
	}
	for _, v := range dirs {
		if err := touchDir(v); err != nil {
			return err
		}
	}
	return nil
}

func touchDir(dir string) error {
	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return CreateDirError(dir, err)
	}

	return nil
}

func EnsureConfigFile(homeDir string) error {
	return ensureFile(config.ConfigFilePath(homeDir), ConfigYAML)
}

// EnsureRegistryFiles seeds the day registry and the continuum range
// table. Existing files are never overwritten, they are the campaign's
// editable metadata.
func EnsureRegistryFiles(homeDir string) error {
	if err := ensureFile(config.DaysFilePath(homeDir), DaysCSV); err != nil {
		return err
	}
	return ensureFile(config.ContinuumFilePath(homeDir), ContinuumCSV)
}

func ensureFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return CopyFileError(path, err)
	}

	return nil
}
