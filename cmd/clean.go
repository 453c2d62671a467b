package cmd

import (
	"context"

	"github.com/ktjameson/magmo-HI/internal/ioclean"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/spf13/cobra"
)

// getCleanCmd returns the clean command.
func getCleanCmd() *cobra.Command {
	var full bool

	cleanCmd := &cobra.Command{
		Use:   "clean <day|all>",
		Short: "Remove a day's derived products",
		Long: `Clean removes a day's analysis outputs: spectra, plots, source
lists and the day's rows in the catalogue database.

With --full the image products and conversion intermediates are
deleted as well and every dataset's archived flags, header and history
state is restored, leaving the day as load produced it.

Cleaning a day with no prior output is a no-op.

Examples:
  magmo clean 45
  magmo clean all --full`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(args[0], full)
		},
	}

	cleanCmd.Flags().BoolVarP(&full, "full", "f",
		false, "also remove images and restore archived dataset state")

	return cleanCmd
}

func runClean(arg string, full bool) error {
	ctx := context.Background()
	cleaner := ioclean.New(cfg)

	scope := magmo.CleanAnalysis
	if full {
		scope = magmo.CleanFull
	}

	return forEachDay(arg, func(day registry.Day) error {
		_, err := cleaner.Clean(ctx, day, scope)
		return err
	})
}
