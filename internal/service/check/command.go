package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/oshokin/conda-bootstrap/internal/config"
	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/resolver"
	"github.com/oshokin/conda-bootstrap/internal/service/rebind"
)

var (
	// ErrCondaNotFound indicates the package-manager executable is not on PATH.
	ErrCondaNotFound = errors.New("conda executable not found on PATH")
	// ErrSearchPathNotPatched indicates site-packages is missing from the
	// module search path.
	ErrSearchPathNotPatched = errors.New("module search path was not patched")
	// ErrLibraryPathNotPatched indicates the dynamic-library search path does
	// not include the environment's lib directory.
	ErrLibraryPathNotPatched = errors.New("dynamic-library search path was not patched")
)

// Options are inputs accepted by the verification entry point.
type Options struct {
	// Prefix is the location where the environment was installed. It should
	// match the one provided for the install.
	Prefix string
	// CondaExecutable is the package-manager executable name expected on PATH.
	CondaExecutable string
	// PythonMajor and PythonMinor are the interpreter version numbers the
	// site-packages directory is computed for.
	PythonMajor int
	PythonMinor int
	// Resolver is the module search path of the running kernel.
	Resolver *resolver.Config
	// LibraryPath is the current value of the dynamic-library search-path
	// variable.
	LibraryPath string
}

// Run verifies that the bootstrap took effect after the restart. Each
// condition is checked in order with a distinct error; the first failure
// aborts and no aggregation is performed.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "check")

	executable := opts.CondaExecutable
	if executable == "" {
		executable = config.DefaultCondaExecutable
	}

	if _, err := exec.LookPath(executable); err != nil {
		return fmt.Errorf("%s: %w", executable, ErrCondaNotFound)
	}

	sitePackages := resolver.SitePackages(opts.Prefix, opts.PythonMajor, opts.PythonMinor)
	if opts.Resolver == nil || !opts.Resolver.Contains(sitePackages) {
		return fmt.Errorf("%s: %w", sitePackages, ErrSearchPathNotPatched)
	}

	libDir := opts.Prefix + "/lib"
	if !strings.Contains(opts.LibraryPath, libDir) {
		return fmt.Errorf("%s value %q: %w",
			rebind.LibraryPathKey, opts.LibraryPath, ErrLibraryPathNotPatched)
	}

	logger.Info(ctx, "Everything looks OK")

	return nil
}
