package cmd

import (
	"fmt"

	"github.com/gnames/gn"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// getConfigCmd returns the config command.
func getConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Config prints the effective configuration as YAML, after defaults,
the config file, environment variables and flags are merged.

Examples:
  magmo config`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig()
		},
	}
	return configCmd
}

func runConfig() error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	fmt.Print(string(data))
	return nil
}
