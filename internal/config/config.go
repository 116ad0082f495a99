package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/loykin/devterm/internal/command"
	"github.com/loykin/devterm/internal/env"
	"github.com/loykin/devterm/internal/history/sqlite"
	"github.com/loykin/devterm/internal/logger"
	"github.com/loykin/devterm/internal/ordered"
	"github.com/loykin/devterm/internal/tls"
)

// ErrInvalidConfig is the command package sentinel; configuration shape
// errors are reported with it too.
var ErrInvalidConfig = command.ErrInvalidConfig

// SearchNames are tried in the working directory when no path is given.
var SearchNames = []string{"devterm.yaml", ".devterm.yaml", "devterm.yml"}

// Batch policies accepted by the batch key.
const (
	BatchAbort    = "abort"
	BatchContinue = "continue"
)

// FileConfig is the ambient part of devterm.yaml, read through viper so every
// key can be overridden by a DEVTERM_ prefixed environment variable
// (log.level -> DEVTERM_LOG_LEVEL).
type FileConfig struct {
	Platform string        `mapstructure:"platform"`
	WorkDir  string        `mapstructure:"workdir"`
	Terminal string        `mapstructure:"terminal"`
	Batch    string        `mapstructure:"batch"`
	Lock     bool          `mapstructure:"lock"`
	Env      []string      `mapstructure:"env"`
	EnvFiles []string      `mapstructure:"env_files"`
	UseOSEnv bool          `mapstructure:"use_os_env"`
	Log      LogConfig     `mapstructure:"log"`
	History  HistoryConfig `mapstructure:"history"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Server   ServerConfig  `mapstructure:"server"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Color      bool   `mapstructure:"color"`
}

type HistoryConfig struct {
	DSN string `mapstructure:"dsn"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

type ServerConfig struct {
	Listen   string    `mapstructure:"listen"`
	BasePath string    `mapstructure:"base_path"`
	Token    string    `mapstructure:"token"`
	TLS      TLSConfig `mapstructure:"tls"`
}

type TLSConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	CertFile     string   `mapstructure:"cert_file"`
	KeyFile      string   `mapstructure:"key_file"`
	Dir          string   `mapstructure:"dir"`
	AutoGenerate bool     `mapstructure:"auto_generate"`
	MinVersion   string   `mapstructure:"min_version"`
	Hosts        []string `mapstructure:"hosts"`
}

// Fragment is one named dynamic_commands entry.
type Fragment struct {
	Name string
	Text string
}

// Config is the fully loaded configuration.
type Config struct {
	FileConfig

	// Path is the file that was read; empty when none was found.
	Path string
	// Commands are the static entries in file order.
	Commands *ordered.Map[command.Entry]
	// Fragments are the dynamic_commands entries in file order.
	Fragments []Fragment
}

// commandsFile holds the sections viper cannot decode faithfully: it
// lowercases keys and loses their order, and command names are
// case-sensitive and ordered.
type commandsFile struct {
	Commands        *yaml.Node `yaml:"commands"`
	DynamicCommands *yaml.Node `yaml:"dynamic_commands"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("platform", "")
	v.SetDefault("workdir", "")
	v.SetDefault("terminal", "gnome-terminal")
	v.SetDefault("batch", BatchAbort)
	v.SetDefault("lock", true)
	v.SetDefault("env", []string{})
	v.SetDefault("env_files", []string{})
	v.SetDefault("use_os_env", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
	v.SetDefault("log.color", true)
	v.SetDefault("history.dsn", "")
	v.SetDefault("metrics.listen", "")
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.base_path", "/api")
	v.SetDefault("server.token", "")
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("server.tls.dir", "")
	v.SetDefault("server.tls.auto_generate", false)
	v.SetDefault("server.tls.min_version", "")
	v.SetDefault("server.tls.hosts", []string{})
}

// Find returns the first SearchNames file present in dir, or "".
func Find(dir string) string {
	for _, n := range SearchNames {
		p := filepath.Join(dir, n)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads path (or the first file Find locates in the working directory
// when path is empty). A missing file is not an error: the result carries
// defaults and no commands.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DEVTERM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = Find(wd)
		}
	}
	cfg := &Config{Path: path, Commands: ordered.New[command.Entry]()}

	var raw []byte
	if path != "" {
		b, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, err
		}
		raw = b
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(&cfg.FileConfig); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		if err := decodeCommands(raw, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Batch)) {
	case "", BatchAbort:
		c.Batch = BatchAbort
	case BatchContinue:
		c.Batch = BatchContinue
	default:
		return fmt.Errorf("%w: batch must be %q or %q, got %q", ErrInvalidConfig, BatchAbort, BatchContinue, c.Batch)
	}
	return nil
}

func decodeCommands(raw []byte, cfg *Config) error {
	var cf commandsFile
	if err := yaml.Unmarshal(raw, &cf); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cmds, err := command.DecodeMap(cf.Commands)
	if err != nil {
		return err
	}
	cfg.Commands = cmds

	frags, err := decodeFragments(cf.DynamicCommands)
	if err != nil {
		return err
	}
	cfg.Fragments = frags
	return nil
}

func decodeFragments(n *yaml.Node) ([]Fragment, error) {
	if n == nil || (n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null") {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: dynamic_commands must be a mapping at line %d", ErrInvalidConfig, n.Line)
	}
	out := make([]Fragment, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if val.Kind != yaml.ScalarNode || val.ShortTag() == "!!null" {
			return nil, fmt.Errorf("%w: dynamic command %q must be a string at line %d", ErrInvalidConfig, key.Value, val.Line)
		}
		out = append(out, Fragment{Name: key.Value, Text: val.Value})
	}
	return out, nil
}

// Logger converts the log section for the logger package.
func (c *Config) Logger() logger.Config {
	return logger.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
		Color:      c.Log.Color,
	}
}

// TLS converts server.tls for the tls package. Relative paths are taken
// from the work directory.
func (c *Config) TLS() (tls.Options, error) {
	t := c.Server.TLS
	o := tls.Options{
		Enabled:      t.Enabled,
		CertFile:     t.CertFile,
		KeyFile:      t.KeyFile,
		Dir:          t.Dir,
		AutoGenerate: t.AutoGenerate,
		MinVersion:   t.MinVersion,
		Hosts:        t.Hosts,
	}
	if !o.Enabled {
		return o, nil
	}
	wd, err := c.ResolveWorkDir()
	if err != nil {
		return o, err
	}
	for _, p := range []*string{&o.CertFile, &o.KeyFile, &o.Dir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(wd, *p)
		}
	}
	return o, nil
}

// HistoryDSN returns history.dsn with a relative SQLite path taken from the
// work directory. Other DSNs are returned as written.
func (c *Config) HistoryDSN() (string, error) {
	dsn := strings.TrimSpace(c.History.DSN)
	if dsn == "" || (strings.Contains(dsn, "://") && !strings.HasPrefix(strings.ToLower(dsn), "sqlite://")) {
		return dsn, nil
	}
	rest := dsn
	if strings.HasPrefix(strings.ToLower(rest), "sqlite://") {
		rest = rest[len("sqlite://"):]
	}
	p := sqlite.FilePath(rest)
	if p == "" || filepath.IsAbs(p) {
		return dsn, nil
	}
	wd, err := c.ResolveWorkDir()
	if err != nil {
		return "", err
	}
	return "sqlite://" + filepath.Join(wd, p) + strings.TrimPrefix(rest, p), nil
}

// ResolveWorkDir returns WorkDir made absolute. Relative values are taken
// from the config file's directory, or the process working directory when
// no file was read.
func (c *Config) ResolveWorkDir() (string, error) {
	wd := c.WorkDir
	if wd != "" && filepath.IsAbs(wd) {
		return filepath.Clean(wd), nil
	}
	base := ""
	if c.Path != "" {
		abs, err := filepath.Abs(filepath.Dir(c.Path))
		if err != nil {
			return "", err
		}
		base = abs
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		base = cwd
	}
	return filepath.Join(base, wd), nil
}

// Environ merges the environment handed to launched terminals.
// Precedence: OS env (when use_os_env) provides the base; then env_files in
// order; then the env list overrides last. It returns nil, meaning inherit,
// when nothing beyond the OS environment is configured.
func (c *Config) Environ() ([]string, error) {
	if len(c.Env) == 0 && len(c.EnvFiles) == 0 && c.UseOSEnv {
		return nil, nil
	}
	e := env.New()
	if c.UseOSEnv {
		e.FromOS()
	}
	for _, p := range c.EnvFiles {
		if err := e.Load(p); err != nil {
			return nil, err
		}
	}
	for _, kv := range c.Env {
		if err := e.SetPair(kv); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return e.List(), nil
}
