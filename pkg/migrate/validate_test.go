package migrate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tillpoint-backend/pkg/migrate"
)

func TestValidateDirAcceptsShippedMigrations(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestValidateDirRejectsBadFilename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad_name.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsMissingGooseHeaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_orphan.sql"), []byte("CREATE TABLE t (id int);"), 0o644))

	err := migrate.ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "+goose Up")
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Loyalty Points!")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.Contains(t, string(data), "add_loyalty_points")

	require.NoError(t, migrate.ValidateDir(dir))
}
