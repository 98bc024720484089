package common

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestParseInterpreterVersion parses the interpreter's version banner.
func TestParseInterpreterVersion(t *testing.T) {
	t.Parallel()

	major, minor, err := ParseInterpreterVersion("Python 3.10.12\n")
	require.NoError(t, err)
	require.Equal(t, 3, major)
	require.Equal(t, 10, minor)

	major, minor, err = ParseInterpreterVersion("Python 3.6.9")
	require.NoError(t, err)
	require.Equal(t, 3, major)
	require.Equal(t, 6, minor)

	_, _, err = ParseInterpreterVersion("bash: command not found")
	require.ErrorIs(t, err, errInvalidVersionOutput)

	_, _, err = ParseInterpreterVersion("Python three")
	require.ErrorIs(t, err, errInvalidVersionOutput)
}

// TestInterpreterVersion probes a fake interpreter executable.
func TestInterpreterVersion(t *testing.T) {
	t.Parallel()

	interpreter := filepath.Join(t.TempDir(), "python3")
	require.NoError(t, os.WriteFile(interpreter,
		[]byte("#!/bin/bash\necho \"Python 3.11.4\"\n"), 0o755))

	major, minor, err := InterpreterVersion(context.Background(), interpreter, 10*time.Second)
	require.NoError(t, err)
	require.Equal(t, 3, major)
	require.Equal(t, 11, minor)
}

// TestInterpreterVersion_ProbeFailure surfaces a non-zero probe exit.
func TestInterpreterVersion_ProbeFailure(t *testing.T) {
	t.Parallel()

	interpreter := filepath.Join(t.TempDir(), "python3")
	require.NoError(t, os.WriteFile(interpreter,
		[]byte("#!/bin/bash\nexit 2\n"), 0o755))

	_, _, err := InterpreterVersion(context.Background(), interpreter, 10*time.Second)
	require.Error(t, err)
}
