package postgres

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4/database/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/planner/internal/config"
)

func TestMigratorAppliesEmbeddedSchema(t *testing.T) {
	driver, err := stub.WithInstance(nil, &stub.Config{})
	require.NoError(t, err)

	m, source, err := newMigrator(&config.Config{}, driver)
	require.NoError(t, err)
	assert.Equal(t, "embedded", source)

	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
	assert.Contains(t, string(driver.(*stub.Stub).LastRunMigration), "CREATE TABLE")
}

func TestMigratorReadsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_seed.up.sql"), []byte("SELECT 1;"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_seed.down.sql"), []byte("SELECT 0;"), 0o600))

	cfg := &config.Config{}
	cfg.Migrations.Path = dir
	driver, err := stub.WithInstance(nil, &stub.Config{})
	require.NoError(t, err)

	m, source, err := newMigrator(cfg, driver)
	require.NoError(t, err)
	assert.Contains(t, source, "file://")

	require.NoError(t, m.Up())
	assert.Equal(t, "SELECT 1;", string(driver.(*stub.Stub).LastRunMigration))
}
