package rebind

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/service/common"
)

var errChecksumMismatch = errors.New("preserved interpreter checksum mismatch")

const (
	// pinFilename is the pin set location relative to the prefix.
	pinFilename = "conda-meta/pinned"

	// runControlFilename is the run-control file location relative to the prefix.
	runControlFilename = ".condarc"

	// RealSuffix marks the preserved original interpreter next to the shim.
	RealSuffix = ".real"

	// LibraryPathKey is the dynamic-library search-path variable forced
	// into every shim invocation.
	LibraryPathKey = "LD_LIBRARY_PATH"

	// acceleratorVersionEnv carries the accelerator-library version on the host.
	acceleratorVersionEnv = "CUDA_VERSION"

	// ShimMarker identifies a shim written by this tool.
	ShimMarker = "# conda-bootstrap shim"

	// startupMarker fences the start-up snippet so it is appended once.
	startupMarker = "# conda-bootstrap: prepend the environment's site-packages"

	// shimFileMode is the mode applied to the installed shim.
	shimFileMode os.FileMode = 0o755
)

// acceleratorVersion truncates the accelerator-library version to
// major.minor, falling back to a wildcard when the variable is absent.
func acceleratorVersion(raw string) string {
	if raw == "" {
		return "*.*"
	}

	parts := strings.Split(raw, ".")
	if len(parts) > 2 {
		parts = parts[:2]
	}

	return strings.Join(parts, ".")
}

// pinLines renders the three version constraints recorded in the pin set.
func pinLines(major, minor int, cudaVersion string) []string {
	return []string{
		fmt.Sprintf("python %d.%d.*", major, minor),
		fmt.Sprintf("python_abi %d.%d.* *cp%d%d*", major, minor, major, minor),
		fmt.Sprintf("cudatoolkit %s.*", cudaVersion),
	}
}

// ensureStartupSnippet appends the start-up snippet that prepends the
// environment's site-packages on every future kernel start. The snippet is
// fenced by a marker and never appended twice.
func ensureStartupSnippet(ctx context.Context, path, sitePackages string) error {
	contents, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if strings.Contains(string(contents), startupMarker) {
		logger.DebugKV(ctx, "Startup snippet already present", "path", path)
		return nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	snippet := fmt.Sprintf(`
%s
c.InteractiveShellApp.exec_lines = [
    "import sys",
    "sp = '%s'",
    "if sp not in sys.path:",
    "    sys.path.insert(0, sp)",
]
`, startupMarker, sitePackages)

	if _, err = file.WriteString(snippet); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// mergeEnv combines the caller overrides with the mandatory dynamic-library
// search-path entry. The caller's value for that key, if any, is silently
// overwritten; every other key passes through verbatim.
func mergeEnv(overrides map[string]string, prefix string) map[string]string {
	env := make(map[string]string, len(overrides)+1)
	for key, value := range overrides {
		env[key] = value
	}

	env[LibraryPathKey] = fmt.Sprintf(`"%s/lib:$%s"`, prefix, LibraryPathKey)

	return env
}

// renderShim produces the replacement executable: a shell script that execs
// the new environment's interpreter with the merged variables injected,
// forwarding all arguments.
func renderShim(prefix string, env map[string]string) string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+env[key])
	}

	return fmt.Sprintf("#!/bin/bash\n%s\nexec env %s %s/bin/python -x \"$@\"\n",
		ShimMarker, strings.Join(pairs, " "), prefix)
}

// isShim reports whether the file at path was written by installShim.
func isShim(path string) (bool, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	return bytes.Contains(contents, []byte(ShimMarker)), nil
}

// preserveOriginal copies the interpreter executable to its .real sibling
// before any replacement and verifies the copy by checksum. When the
// executable is already a shim from a previous run, the preserved copy is
// left untouched so it always holds the true original.
func preserveOriginal(ctx context.Context, interpreter string) error {
	alreadyShim, err := isShim(interpreter)
	if err != nil {
		return err
	}

	if alreadyShim {
		logger.InfoKV(ctx, "Interpreter is already a shim, keeping preserved original",
			"path", interpreter+RealSuffix)

		return nil
	}

	info, err := os.Stat(interpreter)
	if err != nil {
		return err
	}

	contents, err := os.ReadFile(interpreter)
	if err != nil {
		return err
	}

	realPath := interpreter + RealSuffix
	if err = os.WriteFile(realPath, contents, info.Mode().Perm()); err != nil {
		return err
	}

	originalSum, err := common.FileChecksum(interpreter)
	if err != nil {
		return err
	}

	preservedSum, err := common.FileChecksum(realPath)
	if err != nil {
		return err
	}

	if !bytes.Equal(originalSum, preservedSum) {
		return fmt.Errorf("%s: %w", realPath, errChecksumMismatch)
	}

	logger.InfoKV(ctx, "Preserved original interpreter", "path", realPath)

	return nil
}

// installShim atomically replaces the interpreter executable with the shim,
// marking it executable in the same operation.
func installShim(ctx context.Context, interpreter, prefix string, env map[string]string) error {
	content := renderShim(prefix, env)

	options := goupdate.Options{
		TargetPath: interpreter,
		TargetMode: shimFileMode,
	}

	if err := goupdate.Apply(strings.NewReader(content), options); err != nil {
		return err
	}

	oldPath := interpreter + ".old"
	if _, err := os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	logger.InfoKV(ctx, "Installed interpreter shim", "path", interpreter)

	return nil
}
