package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOf(t *testing.T) {
	assert.Equal(t, "001", VersionOf("migrations/001_init_schema.sql"))
	assert.Equal(t, "004", VersionOf("004_complaints.sql"))
}

func TestPendingFiles_SortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := PendingFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "001_a.sql"), filepath.Join(dir, "002_b.sql")}, files)
}

func TestPendingFiles_ShippedMigrations(t *testing.T) {
	files, err := PendingFiles(filepath.Join("..", "..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.Equal(t, "001", VersionOf(files[0]))
}
