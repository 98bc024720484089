package pins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Repository defines persistence operations for the pin set.
type Repository interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, pins []string) error
}

// FileRepository persists the pin set to a plain-text file, one version
// constraint per line. Saving rewrites the whole file, so repeated merges
// never accumulate duplicate constraints.
type FileRepository struct {
	// path is the filesystem location of the pin file.
	path string
	// mu protects concurrent access to the pin file.
	mu sync.Mutex
}

// ErrNotFound is returned when the pin file does not exist yet.
var ErrNotFound = errors.New("pin set not found")

// filePermissions keeps the pin file readable by the package manager.
const filePermissions = 0o644

// NewFileRepository creates a repository that reads/writes pins at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the pin set from disk, dropping blank lines.
func (r *FileRepository) Load(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read pin file: %w", err)
	}

	lines := strings.Split(string(contents), "\n")
	pins := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		pins = append(pins, line)
	}

	return pins, nil
}

// Save rewrites the pin file with the provided constraints, creating the
// parent directory when needed.
func (r *FileRepository) Save(_ context.Context, pins []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("create pin directory: %w", err)
	}

	var builder strings.Builder
	for _, pin := range pins {
		builder.WriteString(pin)
		builder.WriteString("\n")
	}

	if err := os.WriteFile(r.path, []byte(builder.String()), filePermissions); err != nil {
		return fmt.Errorf("write pin file: %w", err)
	}

	return nil
}

// Merge unions updates into existing, preserving first-seen order.
func Merge(existing, updates []string) []string {
	merged := make([]string, 0, len(existing)+len(updates))
	seen := make(map[string]struct{}, len(existing)+len(updates))

	for _, pin := range existing {
		if _, found := seen[pin]; found {
			continue
		}

		seen[pin] = struct{}{}
		merged = append(merged, pin)
	}

	for _, pin := range updates {
		if _, found := seen[pin]; found {
			continue
		}

		seen[pin] = struct{}{}
		merged = append(merged, pin)
	}

	return merged
}
