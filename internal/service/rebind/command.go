package rebind

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/conda-bootstrap/internal/config"
	"github.com/oshokin/conda-bootstrap/internal/kernel"
	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/repository/condarc"
	"github.com/oshokin/conda-bootstrap/internal/repository/pins"
	"github.com/oshokin/conda-bootstrap/internal/resolver"
	"github.com/oshokin/conda-bootstrap/internal/service/common"
)

var (
	errResolverRequired = errors.New("resolver configuration is required")
	errKernelRequired   = errors.New("kernel controller is required")
	errPrefixMissing    = errors.New("prefix does not exist")
)

// Options are inputs accepted by the rebinder entry point.
type Options struct {
	// Prefix is the root of the freshly installed environment. It must
	// already exist.
	Prefix string
	// Interpreter is the host interpreter executable to replace with the shim.
	Interpreter string
	// StartupScript is the interpreter start-up configuration file patched
	// for future kernel starts.
	StartupScript string
	// Env contains caller environment overrides injected through the shim.
	// The dynamic-library search-path entry is always forced; other keys
	// pass through verbatim and unescaped.
	Env map[string]string
	// Resolver is the live module search path. It is updated in place and
	// returned so code running before the restart resolves into the new
	// environment.
	Resolver *resolver.Config
	// Kernel requests the host-controlled restart once rebinding is done.
	Kernel kernel.Controller
	// Timeout bounds the interpreter version probe.
	Timeout time.Duration
}

// Run rewires the host's resolution surfaces to the environment at
// opts.Prefix and requests a kernel restart. It returns the updated
// resolver configuration. Steps are attempted once, in order, and the
// first failure aborts the remainder; completed steps are not rolled back.
func Run(ctx context.Context, opts *Options) (*resolver.Config, error) {
	ctx = logger.WithName(ctx, "rebind")

	if opts.Resolver == nil {
		return nil, errResolverRequired
	}

	if opts.Kernel == nil {
		return nil, errKernelRequired
	}

	if _, err := os.Stat(opts.Prefix); err != nil {
		return nil, fmt.Errorf("%s: %w", opts.Prefix, errPrefixMissing)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	major, minor, err := common.InterpreterVersion(ctx, opts.Interpreter, timeout)
	if err != nil {
		return nil, fmt.Errorf("probe interpreter version: %w", err)
	}

	cudaVersion := acceleratorVersion(os.Getenv(acceleratorVersionEnv))

	logger.InfoKV(ctx, "Adjusting configuration",
		"python", fmt.Sprintf("%d.%d", major, minor), "cuda", cudaVersion)

	if err = writePins(ctx, opts.Prefix, major, minor, cudaVersion); err != nil {
		return nil, fmt.Errorf("write pin set: %w", err)
	}

	runControl := condarc.NewFileRepository(filepath.Join(opts.Prefix, runControlFilename))
	if err = runControl.Set(ctx, condarc.KeyAlwaysYes, true); err != nil {
		return nil, fmt.Errorf("write run-control file: %w", err)
	}

	sitePackages := resolver.SitePackages(opts.Prefix, major, minor)

	if err = ensureStartupSnippet(ctx, opts.StartupScript, sitePackages); err != nil {
		return nil, fmt.Errorf("patch startup script: %w", err)
	}

	if opts.Resolver.EnsureFront(sitePackages) {
		logger.InfoKV(ctx, "Inserted site-packages into the live search path",
			"path", sitePackages)
	}

	logger.Info(ctx, "Patching environment")

	env := mergeEnv(opts.Env, opts.Prefix)

	if err = preserveOriginal(ctx, opts.Interpreter); err != nil {
		return nil, fmt.Errorf("preserve interpreter: %w", err)
	}

	if err = installShim(ctx, opts.Interpreter, opts.Prefix, env); err != nil {
		return nil, fmt.Errorf("install shim: %w", err)
	}

	logger.Info(ctx, "Requesting kernel restart")

	if err = opts.Kernel.RequestRestart(ctx); err != nil {
		return nil, fmt.Errorf("request kernel restart: %w", err)
	}

	return opts.Resolver, nil
}

// writePins merges the interpreter and accelerator constraints into the pin
// set and rewrites it.
func writePins(ctx context.Context, prefix string, major, minor int, cudaVersion string) error {
	repo := pins.NewFileRepository(filepath.Join(prefix, pinFilename))

	existing, err := repo.Load(ctx)
	if err != nil && !errors.Is(err, pins.ErrNotFound) {
		return err
	}

	return repo.Save(ctx, pins.Merge(existing, pinLines(major, minor, cudaVersion)))
}
