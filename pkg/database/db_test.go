package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigFromEnv(t *testing.T) {
	t.Setenv("LIPIDLIBRARIAN_DB_PATH", "/tmp/x.db")
	assert.Equal(t, "/tmp/x.db", DefaultConfig().Path)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db))

	n, err := CountSpecies(db)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestOpenExistingRejectsMissingFile(t *testing.T) {
	_, err := OpenExisting(Config{Path: filepath.Join(t.TempDir(), "missing.db")})
	assert.Error(t, err)
}

func TestOpenCreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alex123.db")
	db, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(db))

	again, err := OpenExisting(Config{Path: path})
	require.NoError(t, err)
	again.Close()
}
