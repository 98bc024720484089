package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/conda-bootstrap/internal/config"
	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string

	// logLevel controls the verbosity of the console output.
	logLevel string

	// rootCmd represents the base command for bootstrapping conda on a
	// hosted notebook kernel.
	rootCmd = &cobra.Command{
		Use:   "conda-bootstrap",
		Short: "Install conda and friends on a hosted notebook kernel, easily",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}
		},
	}
)

// Execute runs the conda-bootstrap CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (defaults apply when omitted)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error, fatal)")
}

// loadConfig reads settings from the configured path, or returns validated
// defaults when no path was given.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		cfg := config.Default()
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	return config.Load(configPath)
}
