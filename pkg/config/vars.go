package config

import (
	"path/filepath"
)

var (
	// AppName is used in generating file system paths.
	AppName = "magmo"
)

// ConfigDir returns the directory path for configuration files.
// Returns ~/.config/magmo by default.
func ConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config", AppName)
}

// CacheDir returns the directory path for cache files.
// Returns ~/.cache/magmo by default.
func CacheDir(homeDir string) string {
	return filepath.Join(homeDir, ".cache", AppName)
}

// LogDir returns the directory path for log files.
// Returns ~/.local/share/magmo/logs by default.
func LogDir(homeDir string) string {
	return filepath.Join(homeDir, ".local", "share", AppName, "logs")
}

// ConfigFilePath returns the full path to the config.yaml file.
// Returns ~/.config/magmo/config.yaml by default.
func ConfigFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "config.yaml")
}

// DaysFilePath returns the full path to the day registry file.
// Returns ~/.config/magmo/days.csv by default.
func DaysFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "days.csv")
}

// ContinuumFilePath returns the full path to the continuum range table.
// Returns ~/.config/magmo/magmo-continuum.csv by default.
func ContinuumFilePath(homeDir string) string {
	return filepath.Join(ConfigDir(homeDir), "magmo-continuum.csv")
}
