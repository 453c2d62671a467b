package cmd

import (
	"context"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/iodecompose"
	"github.com/spf13/cobra"
)

// getDecomposeCmd returns the decompose command.
func getDecomposeCmd() *cobra.Command {
	decomposeCmd := &cobra.Command{
		Use:   "decompose",
		Short: "Fit Gaussian components to every catalogued spectrum",
		Long: `Decompose fits each catalogued spectrum with a sum of Gaussian
velocity components.

This command:
  1. Reads the spectra catalogue written by aggregate
  2. Fits up to five components per spectrum by least squares
  3. Writes magmo-components.vot and a fit plot per spectrum

Non-convergence is reported per spectrum and never aborts the run.

Examples:
  magmo decompose`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose()
		},
	}
	return decomposeCmd
}

func runDecompose() error {
	if _, err := iodecompose.New(cfg).Decompose(context.Background()); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	return nil
}
