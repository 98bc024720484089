package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/resolver"
	"github.com/oshokin/conda-bootstrap/internal/service/check"
	"github.com/oshokin/conda-bootstrap/internal/service/common"
	"github.com/oshokin/conda-bootstrap/internal/service/rebind"
)

var (
	// checkPrefix overrides the prefix the environment was installed to.
	checkPrefix string

	// checkCmd verifies the bootstrapped environment after the restart.
	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Verify that the bootstrapped environment took effect",
		Long:  "Run basic checks to ensure the package manager is resolvable, the module search path carries the environment's site-packages and the dynamic linker searches the environment's lib directory. Run this after the kernel restart.",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ctx = logger.WithName(ctx, "conda-bootstrap")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if checkPrefix != "" {
				cfg.Prefix = checkPrefix
			}

			major, minor, err := common.InterpreterVersion(ctx, cfg.Interpreter, cfg.Timeout)
			if err != nil {
				return err
			}

			return check.Run(ctx, &check.Options{
				Prefix:          cfg.Prefix,
				CondaExecutable: cfg.CondaExecutable,
				PythonMajor:     major,
				PythonMinor:     minor,
				Resolver:        resolver.FromEnviron(os.Getenv("PYTHONPATH")),
				LibraryPath:     os.Getenv(rebind.LibraryPathKey),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	checkCmd.Flags().StringVar(&checkPrefix, "prefix", "",
		"location where the environment was installed")

	rootCmd.AddCommand(checkCmd)
}
