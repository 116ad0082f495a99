package logger

import (
	"io"
	"log/slog"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default logging configuration constants
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes where devterm writes its own logs.
// When File is empty logs go to the console writer passed to New,
// colored if Color is set. Rotation parameters follow lumberjack semantics.
type Config struct {
	Level      string // debug, info, warn, error (default info)
	File       string // rotated log file; overrides the console
	MaxSizeMB  int    // megabytes before rotation (default 10)
	MaxBackups int    // number of backups to keep (default 3)
	MaxAgeDays int    // days to keep (default 7)
	Compress   bool   // Gzip rotated files
	Color      bool   // ANSI level colors on the console
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds the process logger. The returned closer releases the log
// file, if any, and is always non-nil.
func New(cfg Config, console io.Writer) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	if w := cfg.Writer(); w != nil {
		return slog.New(slog.NewTextHandler(w, opts)), w
	}
	if cfg.Color {
		return slog.New(NewColorTextHandler(console, opts, false)), nopCloser{}
	}
	return slog.New(slog.NewTextHandler(console, opts)), nopCloser{}
}

// Writer returns a rotating writer for File, or nil when File is empty.
func (c Config) Writer() io.WriteCloser {
	if strings.TrimSpace(c.File) == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   c.File,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// ParseLevel maps a level name to slog.Level; unknown names yield info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
