package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Result is the outcome of a finished subprocess: its exit status and the
// combined output it produced. Callers must branch on Success or Err
// explicitly instead of assuming the command worked.
type Result struct {
	// Code is the process exit status.
	Code int
	// Output is the combined stdout and stderr of the process.
	Output []byte
}

// errNonZeroExit indicates the subprocess finished with a non-zero status.
var errNonZeroExit = errors.New("subprocess exited with non-zero status")

// Success reports whether the subprocess exited with status zero.
func (r *Result) Success() bool {
	return r.Code == 0
}

// Err returns nil for a successful exit and a descriptive error carrying the
// exit code and trimmed output otherwise.
func (r *Result) Err() error {
	if r.Success() {
		return nil
	}

	output := strings.TrimSpace(string(r.Output))
	if output == "" {
		return fmt.Errorf("code %d: %w", r.Code, errNonZeroExit)
	}

	return fmt.Errorf("code %d, output: %s: %w", r.Code, output, errNonZeroExit)
}

// Run executes a command and captures its combined output into a Result.
// Extra environment variables are appended to the current process
// environment in deterministic (sorted) order. A non-zero exit is reported
// through the Result, not the error; the error is reserved for failures to
// run the command at all.
func Run(ctx context.Context, env map[string]string, name string, args ...string) (*Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), environList(env)...)

	output, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &Result{Code: exitErr.ExitCode(), Output: output}, nil
		}

		return nil, fmt.Errorf("run %s: %w", name, err)
	}

	return &Result{Code: 0, Output: output}, nil
}

// environList renders the override map as KEY=VALUE pairs sorted by key.
func environList(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+env[key])
	}

	return pairs
}
