package cmd

import (
	"fmt"
	"os"

	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/spf13/cobra"
)

func versionFlag(cmd *cobra.Command) {
	hasVersionFlag, _ := cmd.Flags().GetBool("version")
	if hasVersionFlag {
		fmt.Printf("\nversion: %s\nbuild: %s\n\n", magmo.Version, magmo.Build)
		os.Exit(0)
	}
}
