package migrations

import (
	"path/filepath"
	"testing"

	"github.com/eventnest/server/internal/config"
	"github.com/stretchr/testify/require"
)

func TestUpDown_SQLite(t *testing.T) {
	db := config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "migrate.db")}

	_, _, ok, err := Version(db)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, Up(db))
	require.NoError(t, Up(db), "second run must be a no-op")

	version, dirty, ok, err := Version(db)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)

	require.NoError(t, Down(db, 1))

	_, _, ok, err = Version(db)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDown_RejectsNonPositiveSteps(t *testing.T) {
	db := config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(t.TempDir(), "migrate.db")}

	require.ErrorContains(t, Down(db, 0), "steps must be > 0")
}

func TestNewMigrator_UnsupportedScheme(t *testing.T) {
	_, err := newMigrator(config.DatabaseConfig{URL: "mysql://localhost/db"})
	require.ErrorContains(t, err, "unsupported scheme")
}

func TestEmbeddedFiles(t *testing.T) {
	for _, dir := range []string{"postgres", "sqlite"} {
		entries, err := files.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 2, dir)
	}
}
