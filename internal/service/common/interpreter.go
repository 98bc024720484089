package common

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var errInvalidVersionOutput = errors.New("invalid interpreter version output")

// InterpreterVersion asks the interpreter executable for its version and
// parses the major/minor numbers from the output.
func InterpreterVersion(ctx context.Context, interpreter string, timeout time.Duration) (int, int, error) {
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := Run(probeCtx, nil, interpreter, "--version")
	if err != nil {
		return 0, 0, err
	}

	if err = result.Err(); err != nil {
		return 0, 0, err
	}

	return ParseInterpreterVersion(string(result.Output))
}

// ParseInterpreterVersion extracts major/minor numbers from output shaped
// like "Python 3.10.12".
func ParseInterpreterVersion(output string) (int, int, error) {
	output = strings.TrimSpace(output)

	rest, found := strings.CutPrefix(output, "Python ")
	if !found {
		return 0, 0, fmt.Errorf("%q: %w", output, errInvalidVersionOutput)
	}

	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%q: %w", output, errInvalidVersionOutput)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", output, errInvalidVersionOutput)
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%q: %w", output, errInvalidVersionOutput)
	}

	return major, minor, nil
}
