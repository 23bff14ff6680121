// Package config provides configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Export label locales
const (
	LocaleItalian = "it"
	LocaleEnglish = "en"
)

// ConfigFileName is looked up (as YAML) in the working directory and in
// $REPORTLENS_CONFIG_DIR.
const ConfigFileName = "reportlens"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	APIKey      string   `mapstructure:"apikey"` // empty leaves archive writes open

	// File paths
	DatabasePath    string `mapstructure:"storagepath"`
	DatabaseName    string `mapstructure:"-"` // Derived from other settings
	OutputDirectory string `mapstructure:"outputdir"`
	InboxDirectory  string `mapstructure:"inboxdir"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseMaxOpenConns int `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int `mapstructure:"dbmaxidleconns"`

	// Parsing and aggregation
	Locale         string `mapstructure:"locale"`
	TopPagesLimit  int    `mapstructure:"toppageslimit"`
	GeoLabelMaxLen int    `mapstructure:"geolabelmaxlen"`
	MaxUploadBytes int    `mapstructure:"maxuploadbytes"`
	Workers        int    `mapstructure:"workers"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	SnapshotRetentionDays int `mapstructure:"snapshotretentiondays"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		c, err := Load()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = c
	})
	return cfg
}

// Load reads defaults, the optional config file and the environment into a
// fresh Config. GetConfig caches its result; Load does not.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("appname", "reportlens")
	v.SetDefault("appport", "3000")
	v.SetDefault("environment", Development)
	v.SetDefault("loglevel", string(LogLevelInfo))
	v.SetDefault("apikey", "")
	v.SetDefault("storagepath", "storage")
	v.SetDefault("outputdir", "reports")
	v.SetDefault("inboxdir", "inbox")
	v.SetDefault("logsdir", "logs")
	v.SetDefault("logsmaxsizeinmb", 20)
	v.SetDefault("logsmaxbackups", 10)
	v.SetDefault("logsmaxageindays", 30)
	v.SetDefault("dbmaxopenconns", 0)
	v.SetDefault("dbmaxidleconns", 0)
	v.SetDefault("locale", LocaleItalian)
	v.SetDefault("toppageslimit", 10)
	v.SetDefault("geolabelmaxlen", 3)
	v.SetDefault("maxuploadbytes", 4*1024*1024)
	v.SetDefault("workers", 4)
	v.SetDefault("jobintervalseconds", 60)
	v.SetDefault("snapshotretentiondays", 0)

	v.BindEnv("appname", "REPORTLENS_APP_NAME")
	v.BindEnv("appport", "REPORTLENS_APP_PORT")
	v.BindEnv("environment", "REPORTLENS_ENV")
	v.BindEnv("loglevel", "REPORTLENS_LOG_LEVEL")
	v.BindEnv("apikey", "REPORTLENS_API_KEY")
	v.BindEnv("storagepath", "REPORTLENS_STORAGE_PATH")
	v.BindEnv("outputdir", "REPORTLENS_OUTPUT_DIR")
	v.BindEnv("inboxdir", "REPORTLENS_INBOX_DIR")
	v.BindEnv("logsdir", "REPORTLENS_LOGS_DIR")
	v.BindEnv("logsmaxsizeinmb", "REPORTLENS_LOGS_MAX_SIZE_IN_MB")
	v.BindEnv("logsmaxbackups", "REPORTLENS_LOGS_MAX_BACKUPS")
	v.BindEnv("logsmaxageindays", "REPORTLENS_LOGS_MAX_AGE_IN_DAYS")
	v.BindEnv("dbmaxopenconns", "REPORTLENS_DB_MAX_OPEN_CONNS")
	v.BindEnv("dbmaxidleconns", "REPORTLENS_DB_MAX_IDLE_CONNS")
	v.BindEnv("locale", "REPORTLENS_LOCALE")
	v.BindEnv("toppageslimit", "REPORTLENS_TOP_PAGES_LIMIT")
	v.BindEnv("geolabelmaxlen", "REPORTLENS_GEO_LABEL_MAX_LEN")
	v.BindEnv("maxuploadbytes", "REPORTLENS_MAX_UPLOAD_BYTES")
	v.BindEnv("workers", "REPORTLENS_WORKERS")
	v.BindEnv("jobintervalseconds", "REPORTLENS_JOB_INTERVAL_SECONDS")
	v.BindEnv("snapshotretentiondays", "REPORTLENS_SNAPSHOT_RETENTION_DAYS")

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir := os.Getenv("REPORTLENS_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Set derived values
	c.DatabaseName = c.GetDatabasePath()
	return c, nil
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	validLocales := map[string]bool{
		LocaleItalian: true,
		LocaleEnglish: true,
	}
	if !validLocales[c.Locale] {
		return fmt.Errorf("invalid locale: %s", c.Locale)
	}

	if c.TopPagesLimit <= 0 {
		return fmt.Errorf("toppageslimit must be positive, got %d", c.TopPagesLimit)
	}
	if c.GeoLabelMaxLen <= 0 {
		return fmt.Errorf("geolabelmaxlen must be positive, got %d", c.GeoLabelMaxLen)
	}
	if c.SnapshotRetentionDays < 0 {
		return fmt.Errorf("snapshotretentiondays cannot be negative, got %d", c.SnapshotRetentionDays)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// GetPort returns the HTTP server port.
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetWorkers returns the batch analysis concurrency, at least 1.
func (c *Config) GetWorkers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

// GetMaxOpenConns returns the appropriate MaxOpenConns value based on environment
// If explicitly set via env var, uses that value. Otherwise:
// - Test: 1
// - Development/Production: 10
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}

	if c.Environment == Test {
		return 1
	}

	return 10
}

// GetMaxIdleConns returns the appropriate MaxIdleConns value based on environment
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}

	if c.Environment == Test {
		return 1
	}

	return 5
}

// GetLogLevel returns the log level as a string.
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory.
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB.
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups.
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files.
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
