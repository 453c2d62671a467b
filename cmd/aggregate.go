package cmd

import (
	"context"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/ioaggregate"
	"github.com/spf13/cobra"
)

// getAggregateCmd returns the aggregate command.
func getAggregateCmd() *cobra.Command {
	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Build the campaign catalogues from all spectra",
		Long: `Aggregate reads every opacity spectrum across all days and builds
the campaign summary.

This command:
  1. Scans day*/ directories for spectrum files
  2. Rates each spectrum and finds its absorption regions
  3. Writes magmo-spectra.vot, a CSV export and the SQLite catalogue
  4. Draws the longitude-velocity diagram and the quality histograms

Spectra with broken or missing metadata are skipped with a warning.

Examples:
  magmo aggregate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregate()
		},
	}
	return aggregateCmd
}

func runAggregate() error {
	if _, err := ioaggregate.New(cfg).Aggregate(context.Background()); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return nil
}
