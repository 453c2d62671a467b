package cmd

import (
	"context"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/ioanalyse"
	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/internal/ioregistry"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/spf13/cobra"
)

// getAnalyseCmd returns the analyse command.
func getAnalyseCmd() *cobra.Command {
	var extractOnly bool

	analyseCmd := &cobra.Command{
		Use:   "analyse <day|all>",
		Short: "Extract opacity spectra from a day's images",
		Long: `Analyse finds background sources on a day's continuum images and
extracts an HI opacity spectrum for each of them.

This command:
  1. Selects fields whose cube signal-to-noise clears the threshold
  2. Runs bane and aegean on each continuum image
  3. Extracts a weighted integrated spectrum per accepted source
  4. Converts fluxes to opacity against the source's continuum level
  5. Writes per-source spectrum VOTables, plots and spectra.html

With --extract-only the previous source finding results are reused.

Examples:
  magmo analyse 45
  magmo analyse all --extract-only`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyse(args[0], extractOnly)
		},
	}

	analyseCmd.Flags().BoolVarP(&extractOnly, "extract-only", "x",
		false, "reuse previous source finding results")

	return analyseCmd
}

func runAnalyse(arg string, extractOnly bool) error {
	ctx := context.Background()
	cfg.Update([]config.Option{config.OptExtractOnly(extractOnly)})

	ranges, err := ioregistry.ContinuumRanges(
		config.ContinuumFilePath(cfg.HomeDir))
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	analyser := ioanalyse.New(cfg, iomiriad.New(""), ranges)

	return forEachDay(arg, func(day registry.Day) error {
		_, err := analyser.Analyse(ctx, day)
		return err
	})
}
