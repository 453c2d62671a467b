// Package ioregistry reads and writes the delimited metadata tables that
// drive the pipeline: the day registry, the continuum velocity ranges and
// the per-day field statistics.
package ioregistry

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/ktjameson/magmo-HI/pkg/registry"
)

// Days loads the day registry. A malformed record is fatal: every stage
// keys its work on the day identifiers, so a broken registry must stop
// the run before any files are touched.
func Days(path string) ([]registry.Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadError(path, err)
	}

	var days []registry.Day
	if err := csvutil.Unmarshal(data, &days); err != nil {
		return nil, ReadError(path, err)
	}

	for _, d := range days {
		if err := d.Validate(); err != nil {
			return nil, DayError(path, err)
		}
	}
	return days, nil
}

// Day looks up one day by identifier.
func Day(path, id string) (registry.Day, error) {
	days, err := Days(path)
	if err != nil {
		return registry.Day{}, err
	}
	for _, d := range days {
		if d.ID == id {
			return d, nil
		}
	}
	return registry.Day{}, DayMissingError(path, id)
}

// ContinuumRanges loads the longitude-keyed continuum velocity windows.
func ContinuumRanges(path string) ([]registry.ContinuumRange, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ContinuumError(path, err)
	}

	var ranges []registry.ContinuumRange
	if err := csvutil.Unmarshal(data, &ranges); err != nil {
		return nil, ContinuumError(path, err)
	}
	return ranges, nil
}

// ReadStats loads a day's per-field statistics written by the processor.
func ReadStats(path string) ([]registry.FieldStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ReadError(path, err)
	}

	var stats []registry.FieldStats
	if err := csvutil.Unmarshal(data, &stats); err != nil {
		return nil, ReadError(path, err)
	}
	return stats, nil
}

// WriteStats stores a day's per-field statistics.
func WriteStats(path string, stats []registry.FieldStats) error {
	data, err := csvutil.Marshal(stats)
	if err != nil {
		return WriteError(path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return WriteError(path, err)
	}
	return nil
}
