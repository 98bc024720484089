package condarc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Repository defines persistence operations for the run-control document.
type Repository interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, doc map[string]any) error
	Set(ctx context.Context, key string, value any) error
}

// FileRepository persists the package manager's run-control file (.condarc)
// as a YAML mapping. Settings are applied by key overwrite and the whole
// document is rewritten, so repeated runs never duplicate directives.
type FileRepository struct {
	// path is the filesystem location of the run-control file.
	path string
	// mu protects concurrent access to the run-control file.
	mu sync.Mutex
}

// ErrNotFound is returned when the run-control file does not exist yet.
var ErrNotFound = errors.New("run-control file not found")

// KeyAlwaysYes makes the package manager proceed without confirmation prompts.
const KeyAlwaysYes = "always_yes"

// filePermissions keeps the run-control file readable by the package manager.
const filePermissions = 0o644

// NewFileRepository creates a repository that reads/writes YAML at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the run-control document from disk.
func (r *FileRepository) Load(_ context.Context) (map[string]any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Save rewrites the run-control document.
func (r *FileRepository) Save(_ context.Context, doc map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.save(doc)
}

// Set loads the document, overwrites a single key and rewrites the file.
// A missing file is treated as an empty document.
func (r *FileRepository) Set(_ context.Context, key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load()
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		doc = make(map[string]any, 1)
	}

	doc[key] = value

	return r.save(doc)
}

func (r *FileRepository) load() (map[string]any, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read run-control file: %w", err)
	}

	var doc map[string]any
	if err = yaml.Unmarshal(contents, &doc); err != nil {
		return nil, fmt.Errorf("decode run-control file: %w", err)
	}

	if doc == nil {
		doc = make(map[string]any)
	}

	return doc, nil
}

func (r *FileRepository) save(doc map[string]any) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode run-control document: %w", err)
	}

	if err = os.WriteFile(r.path, data, filePermissions); err != nil {
		return fmt.Errorf("write run-control file: %w", err)
	}

	return nil
}
