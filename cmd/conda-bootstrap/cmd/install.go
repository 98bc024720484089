package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/conda-bootstrap/internal/config"
	"github.com/oshokin/conda-bootstrap/internal/kernel"
	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/resolver"
	"github.com/oshokin/conda-bootstrap/internal/service/installer"
	"github.com/oshokin/conda-bootstrap/internal/service/rebind"
)

var (
	// installURL overrides the preset installer URL.
	installURL string

	// installPrefix overrides the target installation root.
	installPrefix string

	// installInterpreter overrides the host interpreter executable path.
	installInterpreter string

	// installStartupScript overrides the interpreter start-up script path.
	installStartupScript string

	// installEnv holds extra variables injected into future interpreter
	// invocations through the shim. No quote handling is done; raw values
	// end up on the shim's exec line as provided.
	installEnv map[string]string

	// skipRestart leaves the kernel running, for hosts that restart it
	// through other means.
	skipRestart bool

	// installCmd downloads an installer, runs it against the prefix and
	// rebinds the host environment. This restarts the kernel as a result.
	installCmd = &cobra.Command{
		Use:       "install [preset]",
		Short:     "Download a distribution installer, run it and rebind the host environment",
		Long:      "Download and run a constructor-like installer (Mambaforge by default), then patch the host so the new environment is resolved by the current kernel and every future one. The kernel is restarted at the end.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: installer.PresetNames(),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			ctx = logger.WithName(ctx, "conda-bootstrap")

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			applyInstallOverrides(cfg)

			url := installURL
			if url == "" {
				preset := installer.DefaultPreset
				if len(args) > 0 {
					preset = args[0]
				}

				if url, err = installer.PresetURL(preset); err != nil {
					return err
				}
			}

			if err = installer.Run(ctx, &installer.Options{
				URL:    url,
				Prefix: cfg.Prefix,
				Env:    cfg.Env,
			}); err != nil {
				return err
			}

			var controller kernel.Controller = kernel.NewProcessController(cfg.KernelProcessName)
			if skipRestart {
				controller = new(kernel.NopController)
			}

			updated, err := rebind.Run(ctx, &rebind.Options{
				Prefix:        cfg.Prefix,
				Interpreter:   cfg.Interpreter,
				StartupScript: cfg.StartupScript,
				Env:           cfg.Env,
				Resolver:      resolver.FromEnviron(os.Getenv("PYTHONPATH")),
				Kernel:        controller,
				Timeout:       cfg.Timeout,
			})
			if err != nil {
				return err
			}

			logger.InfoKV(ctx, "Environment rebound", "search_path", updated.Environ())

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	installCmd.Flags().StringVar(&installURL, "url", "",
		"installer URL (overrides the preset)")
	installCmd.Flags().StringVar(&installPrefix, "prefix", "",
		"target location for the installation")
	installCmd.Flags().StringVar(&installInterpreter, "interpreter", "",
		"host interpreter executable to replace with the shim")
	installCmd.Flags().StringVar(&installStartupScript, "startup-script", "",
		"interpreter start-up script to patch")
	installCmd.Flags().StringToStringVar(&installEnv, "env", nil,
		"environment variables to inject through the shim (key=value)")
	installCmd.Flags().BoolVar(&skipRestart, "skip-restart", false,
		"do not request a kernel restart at the end")

	rootCmd.AddCommand(installCmd)
}

// applyInstallOverrides lets command line flags win over file settings.
func applyInstallOverrides(cfg *config.Config) {
	if installPrefix != "" {
		cfg.Prefix = installPrefix
	}

	if installInterpreter != "" {
		cfg.Interpreter = installInterpreter
	}

	if installStartupScript != "" {
		cfg.StartupScript = installStartupScript
	}

	if len(installEnv) > 0 {
		if cfg.Env == nil {
			cfg.Env = make(map[string]string, len(installEnv))
		}

		for key, value := range installEnv {
			cfg.Env[key] = value
		}
	}
}
