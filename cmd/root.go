// Package cmd wires the pipeline stages into the magmo CLI.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gnames/gn"
	"github.com/ktjameson/magmo-HI/internal/iofs"
	"github.com/ktjameson/magmo-HI/internal/iologger"
	"github.com/ktjameson/magmo-HI/pkg/config"
	"github.com/ktjameson/magmo-HI/pkg/magmo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Version: fmt.Sprintf("version: %s\nbuild:   %s", magmo.Version, magmo.Build),
	Use:     "magmo",
	Short:   "MAGMO HI absorption pipeline",
	Long: `magmo processes the MAGMO campaign's raw telescope recordings into
calibrated HI absorption spectra and derived catalogues.

The pipeline runs one stage at a time, one observing day at a time:

  find -> load -> process -> analyse -> aggregate -> decompose -> examine

clean reverses the analyse stage for a day; clean --full also removes
images and cubes and restores each dataset's archived state.`,
	PersistentPreRunE: bootstrap,
	RunE:              runRoot,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	homeDir, err = os.UserHomeDir()
	if err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults.
	// Will be reconfigured later with user's config settings.
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	if err = iofs.EnsureRegistryFiles(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	gn.Info(
		"Configuration and registry files are available at <em>%s</em>",
		config.ConfigDir(homeDir),
	)

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded.
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})

	// Reconfigure logging with user's settings and proper log file
	// location.
	if err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir))

	return nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	versionFlag(cmd)
	return cmd.Help()
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Remove the automatic "magmo version" prefix.
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V.
	rootCmd.Flags().BoolP("version", "V", false, "version for magmo")

	rootCmd.AddCommand(
		getFindCmd(),
		getLoadCmd(),
		getProcessCmd(),
		getAnalyseCmd(),
		getAggregateCmd(),
		getDecomposeCmd(),
		getExamineCmd(),
		getCleanCmd(),
		getConfigCmd(),
	)
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are
	// allowed. These match the fields included in config.ToOptions().
	v.SetEnvPrefix("MAGMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Archive configuration
	v.BindEnv("archive.tap_url", "MAGMO_TAP_URL")
	v.BindEnv("archive.login_url", "MAGMO_LOGIN_URL")
	v.BindEnv("archive.download_url", "MAGMO_DOWNLOAD_URL")
	v.BindEnv("archive.project_code", "MAGMO_PROJECT_CODE")

	// Data locations
	v.BindEnv("data.data_dir", "MAGMO_DATA_DIR")
	v.BindEnv("data.raw_dir", "MAGMO_RAW_DIR")
	v.BindEnv("data.emission_dir", "MAGMO_EMISSION_DIR")

	// Analysis thresholds
	v.BindEnv("analysis.min_field_sn", "MAGMO_MIN_FIELD_SN")
	v.BindEnv("analysis.min_source_sn", "MAGMO_MIN_SOURCE_SN")
	v.BindEnv("analysis.min_source_flux", "MAGMO_MIN_SOURCE_FLUX")
	v.BindEnv("analysis.edge_channels", "MAGMO_EDGE_CHANNELS")

	// Log configuration
	v.BindEnv("log.level", "MAGMO_LOG_LEVEL")
	v.BindEnv("log.format", "MAGMO_LOG_FORMAT")
	v.BindEnv("log.destination", "MAGMO_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "MAGMO_JOBS_NUMBER")

	v.AutomaticEnv()
}
