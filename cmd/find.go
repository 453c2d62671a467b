package cmd

import (
	"context"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/iofind"
	"github.com/ktjameson/magmo-HI/pkg/registry"
	"github.com/spf13/cobra"
)

// getFindCmd returns the find command.
func getFindCmd() *cobra.Command {
	var download bool

	findCmd := &cobra.Command{
		Use:   "find <day|all>",
		Short: "Find a day's raw files in the ATOA archive",
		Long: `Find queries the ATOA archive for a day's observation files.

This command:
  1. Runs a TAP query for the day's RPFITS files
  2. Skips leading calibrator-only scans
  3. Writes the download URL list to filelist/day<d>.txt

With --download the listed files are fetched into the raw data
directory, which needs ATOA credentials in ATOA_USER and ATOA_PASSWORD
(environment or a .env file).

Examples:
  magmo find 45
  magmo find all
  magmo find 45 --download`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(args[0], download)
		},
	}

	findCmd.Flags().BoolVarP(&download, "download", "d",
		false, "download the found files from the archive")

	return findCmd
}

func runFind(arg string, download bool) error {
	ctx := context.Background()

	creds, err := iofind.LoadCredentials("")
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	finder := iofind.New(cfg, creds)

	return forEachDay(arg, func(day registry.Day) error {
		if err := finder.Find(ctx, day); err != nil {
			return err
		}
		if download {
			return finder.Download(ctx, day)
		}
		return nil
	})
}
