package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/conda-bootstrap/internal/resolver"
)

// newOptions builds a passing verification setup: a resolvable conda
// executable in a temp dir placed on PATH, a resolver carrying the expected
// site-packages entry and a patched library path.
func newOptions(t *testing.T) *Options {
	t.Helper()

	binDir := t.TempDir()
	condaPath := filepath.Join(binDir, "conda")
	require.NoError(t, os.WriteFile(condaPath, []byte("#!/bin/bash\n"), 0o755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))

	prefix := "/opt/conda"
	sitePackages := resolver.SitePackages(prefix, 3, 10)

	return &Options{
		Prefix:          prefix,
		CondaExecutable: "conda",
		PythonMajor:     3,
		PythonMinor:     10,
		Resolver:        resolver.New(sitePackages, "/usr/lib/python3.10"),
		LibraryPath:     prefix + "/lib:/usr/lib/x86_64-linux-gnu",
	}
}

// TestRun_AllConditionsHold completes without error.
func TestRun_AllConditionsHold(t *testing.T) {
	opts := newOptions(t)
	require.NoError(t, Run(context.Background(), opts))
}

// TestRun_CondaMissing fails with the executable-specific error.
func TestRun_CondaMissing(t *testing.T) {
	opts := newOptions(t)
	opts.CondaExecutable = "definitely-not-conda"

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrCondaNotFound)
}

// TestRun_SearchPathNotPatched fails when site-packages is absent from the resolver.
func TestRun_SearchPathNotPatched(t *testing.T) {
	opts := newOptions(t)
	opts.Resolver = resolver.New("/usr/lib/python3.10")

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrSearchPathNotPatched)
	require.Contains(t, err.Error(), "site-packages")
}

// TestRun_LibraryPathNotPatched fails when the prefix lib dir is missing
// from the dynamic-library search path.
func TestRun_LibraryPathNotPatched(t *testing.T) {
	opts := newOptions(t)
	opts.LibraryPath = "/usr/lib/x86_64-linux-gnu"

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrLibraryPathNotPatched)
}

// TestRun_NilResolver is treated as an unpatched search path.
func TestRun_NilResolver(t *testing.T) {
	opts := newOptions(t)
	opts.Resolver = nil

	err := Run(context.Background(), opts)
	require.ErrorIs(t, err, ErrSearchPathNotPatched)
}
