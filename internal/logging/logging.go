// Package logging builds the application's slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"reportlens/internal/config"
)

// Config controls where and how much the logger writes.
type Config struct {
	Level      string
	LogDir     string // empty disables the rotating file
	FileName   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Quiet      bool // drop console output
}

// FromAppConfig maps application configuration onto a logging Config. The
// rotating file is only enabled in production.
func FromAppConfig(cfg *config.Config) Config {
	lc := Config{
		Level:      cfg.GetLogLevel(),
		FileName:   cfg.AppName + ".log",
		MaxSizeMB:  cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
		MaxAgeDays: cfg.GetLogMaxAgeDays(),
		Quiet:      cfg.IsTest(),
	}
	if cfg.IsProduction() {
		lc.LogDir = cfg.GetLogDirectory()
	}
	return lc
}

// ParseLevel maps a config level name to a slog level; unknown names fall back
// to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns a logger writing human-readable text to an interactive
// stderr and JSON everywhere else.
func NewLogger(cfg Config) *slog.Logger {
	return newLogger(cfg, os.Stderr, term.IsTerminal(int(os.Stderr.Fd())))
}

func newLogger(cfg Config, console io.Writer, interactive bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, console)
	}
	if cfg.LogDir != "" {
		name := cfg.FileName
		if name == "" {
			name = "reportlens.log"
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, name),
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		})
	}

	switch {
	case len(writers) == 0:
		return slog.New(slog.DiscardHandler)
	case interactive && len(writers) == 1 && !cfg.Quiet:
		return slog.New(slog.NewTextHandler(console, opts))
	default:
		return slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	}
}
