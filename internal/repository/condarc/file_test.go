package condarc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), ".condarc"))

	doc, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, doc)
}

// TestFileRepository_Set_CreatesAndOverwrites ensures Set works on a missing
// file and stays idempotent across repeated runs.
func TestFileRepository_Set_CreatesAndOverwrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".condarc")
	repo := NewFileRepository(path)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Set(context.Background(), KeyAlwaysYes, true))
	}

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]any{KeyAlwaysYes: true}, doc)

	// The file is valid YAML with a single directive.
	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(contents, &raw))
	require.Len(t, raw, 1)
}

// TestFileRepository_Set_PreservesOtherKeys ensures existing directives survive updates.
func TestFileRepository_Set_PreservesOtherKeys(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".condarc")
	require.NoError(t, os.WriteFile(path, []byte("channels:\n  - conda-forge\n"), 0o644))

	repo := NewFileRepository(path)
	require.NoError(t, repo.Set(context.Background(), KeyAlwaysYes, true))

	doc, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, true, doc[KeyAlwaysYes])
	require.Contains(t, doc, "channels")
}
