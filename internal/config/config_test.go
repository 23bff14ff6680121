package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportlens/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "reportlens", cfg.AppName)
	assert.Equal(t, config.Development, cfg.Environment)
	assert.Equal(t, config.LocaleItalian, cfg.Locale)
	assert.Equal(t, 10, cfg.TopPagesLimit)
	assert.Equal(t, 3, cfg.GeoLabelMaxLen)
	assert.Equal(t, filepath.Join("storage", "reportlens-development.db"), cfg.DatabaseName)
	assert.Equal(t, 10, cfg.GetMaxOpenConns())
	assert.Equal(t, 5, cfg.GetMaxIdleConns())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORTLENS_ENV", config.Test)
	t.Setenv("REPORTLENS_LOCALE", config.LocaleEnglish)
	t.Setenv("REPORTLENS_TOP_PAGES_LIMIT", "25")
	t.Setenv("REPORTLENS_WORKERS", "0")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsTest())
	assert.Equal(t, config.LocaleEnglish, cfg.Locale)
	assert.Equal(t, 25, cfg.TopPagesLimit)
	assert.Equal(t, 1, cfg.GetWorkers())
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("REPORTLENS_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reportlens.yaml"),
		[]byte("outputdir: out\nsnapshotretentiondays: 30\n"), 0o644))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputDirectory)
	assert.Equal(t, 30, cfg.SnapshotRetentionDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  string
		val  string
	}{
		{"environment", "REPORTLENS_ENV", "staging"},
		{"log level", "REPORTLENS_LOG_LEVEL", "verbose"},
		{"locale", "REPORTLENS_LOCALE", "fr"},
		{"top pages", "REPORTLENS_TOP_PAGES_LIMIT", "0"},
		{"retention", "REPORTLENS_SNAPSHOT_RETENTION_DAYS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(tt.env, tt.val)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestGetConfigIsCached(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPORTLENS_ENV", config.Test)
	config.Reset()
	t.Cleanup(config.Reset)

	first := config.GetConfig()
	t.Setenv("REPORTLENS_APP_NAME", "other")
	assert.Same(t, first, config.GetConfig())

	config.Reset()
	assert.Equal(t, "other", config.GetConfig().AppName)
}
