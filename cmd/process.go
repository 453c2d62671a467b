package cmd

import (
	"context"

	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/internal/ioprocess"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/spf13/cobra"
)

// getProcessCmd returns the process command.
func getProcessCmd() *cobra.Command {
	processCmd := &cobra.Command{
		Use:   "process <day|all>",
		Short: "Calibrate and image a day's datasets",
		Long: `Process flags, calibrates and images a day's loaded datasets.

This command:
  1. Flags band edges and solves bandpass and gains on 1934-638
  2. Copies the solutions onto the secondary and the science fields
  3. Images each field: a 1757 MHz continuum image and a
     1420 MHz spectral-line cube, exported as FITS
  4. Writes the day's per-field signal-to-noise to stats.csv

A calibration or imaging failure for one source is reported and the
remaining sources continue.

Examples:
  magmo process 45
  magmo process all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(args[0])
		},
	}
	return processCmd
}

func runProcess(arg string) error {
	ctx := context.Background()
	processor := ioprocess.New(cfg, iomiriad.New(""))

	return forEachDay(arg, func(day registry.Day) error {
		_, err := processor.Process(ctx, day)
		return err
	})
}
