package database_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal/config"
	"reportlens/internal/database"
	"reportlens/internal/snapshots"
	"reportlens/internal/testsupport"
)

func TestMigrateDatabase(t *testing.T) {
	cfg := &config.Config{
		AppName:      "reportlens",
		Environment:  config.Test,
		DatabasePath: t.TempDir(),
	}
	cfg.DatabaseName = filepath.Join(cfg.DatabasePath, "archive.db")

	dm := database.NewDBManager(cfg, testsupport.GetLogger())
	require.NoError(t, dm.Init())
	require.NoError(t, dm.MigrateDatabase())

	db := dm.GetConnection()
	assert.True(t, db.Migrator().HasTable(&snapshots.Snapshot{}))
	assert.True(t, db.Migrator().HasIndex(&snapshots.Snapshot{}, "idx_snapshots_property_start"))

	// Migrations are idempotent.
	require.NoError(t, dm.MigrateDatabase())
}
