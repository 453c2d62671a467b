package cmd

import (
	"context"

	"github.com/ktjameson/magmo-HI/internal/ioload"
	"github.com/ktjameson/magmo-HI/internal/iomiriad"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/spf13/cobra"
)

// getLoadCmd returns the load command.
func getLoadCmd() *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load <day|all>",
		Short: "Convert raw recordings into per-source datasets",
		Long: `Load expands a day's raw RPFITS recordings into per-source
visibility datasets.

This command:
  1. Converts each recording with atlod
  2. Splits the visibilities per source and band with uvsplit
  3. Archives each dataset's flags, header and history state

The archived state is what 'magmo clean --full' restores.

Examples:
  magmo load 45
  magmo load all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(args[0])
		},
	}
	return loadCmd
}

func runLoad(arg string) error {
	ctx := context.Background()
	loader := ioload.New(cfg, iomiriad.New(""))

	return forEachDay(arg, func(day registry.Day) error {
		_, err := loader.Load(ctx, day)
		return err
	})
}
