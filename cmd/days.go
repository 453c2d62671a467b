package cmd

import (
	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/registry"
)

// resolveDays turns a day argument into registry records: either one
// day by its identifier or every registered day for "all".
func resolveDays(arg string) ([]registry.Day, error) {
	daysPath := config.DaysFilePath(cfg.HomeDir)

	if arg == "all" {
		return ioregistry.Days(daysPath)
	}

	day, err := ioregistry.Day(daysPath, arg)
	if err != nil {
		return nil, err
	}
	return []registry.Day{day}, nil
}

// forEachDay runs one stage over the resolved days. A failing day is
// reported and the rest keep going; the error of the last failing day
// is returned when every day failed.
func forEachDay(arg string, stage func(registry.Day) error) error {
	days, err := resolveDays(arg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var failed int
	var lastErr error
	for _, day := range days {
		if err := stage(day); err != nil {
			gn.PrintErrorMessage(err)
			failed++
			lastErr = err
		}
	}
	if failed == len(days) && failed > 0 {
		return lastErr
	}
	return nil
}
