package rebind

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/conda-bootstrap/internal/kernel"
	"github.com/oshokin/conda-bootstrap/internal/repository/condarc"
	"github.com/oshokin/conda-bootstrap/internal/repository/pins"
	"github.com/oshokin/conda-bootstrap/internal/resolver"
)

// fakeInterpreter is an executable that answers the version probe the way
// a real interpreter would.
const fakeInterpreter = `#!/bin/bash
echo "Python 3.10.12"
`

// writeExecutable drops an executable script at path.
func writeExecutable(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
}

// newOptions builds a full rebinder setup inside temp directories: an
// existing prefix with a fake environment interpreter (so the shim stays
// probe-able after the first run), a fake host interpreter and a startup
// script location.
func newOptions(t *testing.T) *Options {
	t.Helper()

	dir := t.TempDir()
	prefix := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(filepath.Join(prefix, "bin"), 0o755))
	writeExecutable(t, filepath.Join(prefix, "bin", "python"), fakeInterpreter)

	interpreter := filepath.Join(dir, "python3")
	writeExecutable(t, interpreter, fakeInterpreter)

	return &Options{
		Prefix:        prefix,
		Interpreter:   interpreter,
		StartupScript: filepath.Join(dir, "ipython_config.py"),
		Env:           map[string]string{"FOO": "bar"},
		Resolver:      resolver.New("/usr/lib/python3.10"),
		Kernel:        new(kernel.NopController),
	}
}

// TestRun_FullSequence drives the whole rebinding once and checks every
// surface it touches.
func TestRun_FullSequence(t *testing.T) {
	t.Setenv("CUDA_VERSION", "11.8.0")

	opts := newOptions(t)
	original, err := os.ReadFile(opts.Interpreter)
	require.NoError(t, err)

	updated, err := Run(context.Background(), opts)
	require.NoError(t, err)

	// Pin set holds exactly the three constraints.
	pinSet, err := pins.NewFileRepository(
		filepath.Join(opts.Prefix, "conda-meta", "pinned")).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{
		"python 3.10.*",
		"python_abi 3.10.* *cp310*",
		"cudatoolkit 11.8.*",
	}, pinSet)

	// Run-control file carries the always-confirm directive.
	doc, err := condarc.NewFileRepository(
		filepath.Join(opts.Prefix, ".condarc")).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, doc[condarc.KeyAlwaysYes])

	// Startup script inserts site-packages on future kernel starts.
	sitePackages := resolver.SitePackages(opts.Prefix, 3, 10)
	startup, err := os.ReadFile(opts.StartupScript)
	require.NoError(t, err)
	require.Contains(t, string(startup), sitePackages)
	require.Contains(t, string(startup), "sys.path.insert(0, sp)")

	// Live resolver got site-packages at the front, exactly once.
	require.Equal(t, sitePackages, updated.Paths()[0])
	require.Equal(t, 2, updated.Len())

	// The interpreter path now holds an executable shim with the merged
	// variables; the preserved original is byte-for-byte intact.
	shim, err := os.ReadFile(opts.Interpreter)
	require.NoError(t, err)
	require.Contains(t, string(shim), ShimMarker)
	require.Contains(t, string(shim), "FOO=bar")
	require.Contains(t, string(shim), `LD_LIBRARY_PATH="`+opts.Prefix+`/lib:`)
	require.Contains(t, string(shim), opts.Prefix+`/bin/python -x "$@"`)

	info, err := os.Stat(opts.Interpreter)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&0o111)

	preserved, err := os.ReadFile(opts.Interpreter + RealSuffix)
	require.NoError(t, err)
	require.Equal(t, original, preserved)

	// Exactly one restart request went out.
	require.Equal(t, 1, opts.Kernel.(*kernel.NopController).Requests)
}

// TestRun_SecondRunKeepsOriginal reruns the whole sequence against the same
// prefix and interpreter: the shim is rewritten, the preserved original
// survives and no config entry is duplicated.
func TestRun_SecondRunKeepsOriginal(t *testing.T) {
	t.Setenv("CUDA_VERSION", "11.8.0")

	opts := newOptions(t)
	original, err := os.ReadFile(opts.Interpreter)
	require.NoError(t, err)

	_, err = Run(context.Background(), opts)
	require.NoError(t, err)

	// Second run probes the shim, which forwards to the environment's own
	// interpreter.
	_, err = Run(context.Background(), opts)
	require.NoError(t, err)

	preserved, err := os.ReadFile(opts.Interpreter + RealSuffix)
	require.NoError(t, err)
	require.Equal(t, original, preserved)

	shim, err := os.ReadFile(opts.Interpreter)
	require.NoError(t, err)
	require.Contains(t, string(shim), ShimMarker)

	// Pins stayed deduplicated.
	pinSet, err := pins.NewFileRepository(
		filepath.Join(opts.Prefix, "conda-meta", "pinned")).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, pinSet, 3)

	// The startup snippet was appended only once.
	startup, err := os.ReadFile(opts.StartupScript)
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(string(startup), startupMarker))

	require.Equal(t, 2, opts.Kernel.(*kernel.NopController).Requests)
}

// TestRun_ResolverInsertionIsIdempotent does not duplicate an already
// present site-packages entry.
func TestRun_ResolverInsertionIsIdempotent(t *testing.T) {
	opts := newOptions(t)
	sitePackages := resolver.SitePackages(opts.Prefix, 3, 10)
	opts.Resolver = resolver.New(sitePackages, "/usr/lib/python3.10")

	updated, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 2, updated.Len())
	require.Equal(t, sitePackages, updated.Paths()[0])
}

// TestRun_MissingPrefix refuses to rebind when the prefix was never installed.
func TestRun_MissingPrefix(t *testing.T) {
	t.Parallel()

	opts := newOptions(t)
	opts.Prefix = filepath.Join(t.TempDir(), "never-installed")

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, errPrefixMissing)
}

// TestRun_MissingCollaborators rejects nil resolver and kernel controller.
func TestRun_MissingCollaborators(t *testing.T) {
	t.Parallel()

	opts := newOptions(t)
	opts.Resolver = nil

	_, err := Run(context.Background(), opts)
	require.ErrorIs(t, err, errResolverRequired)

	opts = newOptions(t)
	opts.Kernel = nil

	_, err = Run(context.Background(), opts)
	require.ErrorIs(t, err, errKernelRequired)
}

// TestRun_ProbeFailureAborts stops before touching any configuration when
// the interpreter cannot be probed.
func TestRun_ProbeFailureAborts(t *testing.T) {
	t.Parallel()

	opts := newOptions(t)
	writeExecutable(t, opts.Interpreter, "#!/bin/bash\nexit 2\n")

	_, err := Run(context.Background(), opts)
	require.Error(t, err)

	// No pin set was written.
	_, err = os.Stat(filepath.Join(opts.Prefix, "conda-meta", "pinned"))
	require.True(t, os.IsNotExist(err))
}
