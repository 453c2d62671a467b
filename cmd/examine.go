package cmd

import (
	"context"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/iogas"
	"github.com/spf13/cobra"
)

// getExamineCmd returns the examine command.
func getExamineCmd() *cobra.Command {
	examineCmd := &cobra.Command{
		Use:   "examine",
		Short: "Derive gas properties from the fitted components",
		Long: `Examine turns the fitted Gaussian components into gas physical
properties.

This command:
  1. Reads magmo-components.vot and magmo-spectra.vot
  2. Derives optical depth, equivalent width and, where emission
     data exists, the off-source and spin temperatures
  3. Flags components coincident with known methanol masers
  4. Writes magmo-gas.vot, the gas table of the SQLite catalogue and
     the equivalent-width longitude-velocity diagram

Examples:
  magmo examine`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExamine()
		},
	}
	return examineCmd
}

func runExamine() error {
	if _, err := iogas.New(cfg).Examine(context.Background()); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return nil
}
