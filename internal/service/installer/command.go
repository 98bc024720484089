package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/oshokin/conda-bootstrap/internal/config"
	"github.com/oshokin/conda-bootstrap/internal/logger"
	"github.com/oshokin/conda-bootstrap/internal/service/common"
)

var (
	errEmptyURL      = errors.New("installer URL is empty")
	errBadHTTPStatus = errors.New("unexpected http status")
)

// artifactPattern names the transient downloaded installer file.
const artifactPattern = "conda-installer-*.sh"

// Options are inputs accepted by the installer entry point.
type Options struct {
	// URL points to a constructor-like installer, such as Miniconda or
	// Mambaforge.
	URL string
	// Prefix is the target location for the installation.
	Prefix string
	// Env contains extra environment variables for the installer process.
	Env map[string]string
}

// Run downloads the installer artifact, executes it non-interactively
// against the prefix and deletes the artifact regardless of the outcome.
// A non-zero installer exit aborts the sequence with an error carrying the
// exit code and captured output.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "installer")

	if opts.URL == "" {
		return errEmptyURL
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = config.DefaultPrefix
	}

	logger.InfoKV(ctx, "Downloading installer", "url", opts.URL)

	artifact, err := download(ctx, opts.URL)
	if err != nil {
		return fmt.Errorf("download installer: %w", err)
	}

	// The artifact is transient: consumed once, then deleted no matter how
	// the installer exits.
	defer func() {
		if removeErr := os.Remove(artifact); removeErr != nil {
			logger.WarnKV(ctx, "Could not remove installer artifact",
				"path", artifact, "error", removeErr)
		}
	}()

	logger.InfoKV(ctx, "Installing", "prefix", prefix)

	result, err := common.Run(ctx, opts.Env, "bash", artifact, "-bfp", prefix)
	if err != nil {
		return fmt.Errorf("run installer: %w", err)
	}

	if err = result.Err(); err != nil {
		return fmt.Errorf("installer failed: %w", err)
	}

	logger.InfoKV(ctx, "Installer finished", "prefix", prefix)

	return nil
}

// download streams the URL's content to a local temporary file and returns
// its path.
func download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s, %s: %w", url, response.Status, errBadHTTPStatus)
	}

	artifact, err := os.CreateTemp("", artifactPattern)
	if err != nil {
		return "", err
	}

	if _, err = io.Copy(artifact, response.Body); err != nil {
		_ = artifact.Close()
		_ = os.Remove(artifact.Name())

		return "", err
	}

	if err = artifact.Close(); err != nil {
		_ = os.Remove(artifact.Name())

		return "", err
	}

	return artifact.Name(), nil
}
