// Package config loads the mailcanvas YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"mailcanvas/internal/docstore"
)

const (
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is relative to the user's home directory.
	DefaultConfigDir = ".config/mailcanvas"
	// DefaultDataDir is relative to the user's home directory.
	DefaultDataDir = ".local/share/mailcanvas"

	databaseFileName = "mailcanvas.db"
)

type Config struct {
	DataDir  string          `yaml:"data_dir"`
	Database string          `yaml:"database,omitempty"` // local SQLite file; defaults to <data_dir>/mailcanvas.db
	Logging  LoggingConfig   `yaml:"logging"`
	Editor   EditorConfig    `yaml:"editor"`
	Autosave AutosaveConfig  `yaml:"autosave"`
	Import   ImportConfig    `yaml:"import"`
	DocStore docstore.Config `yaml:"docstore"` // empty driver keeps templates in the local database
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	// File receives log output instead of stderr. stdout is never used since
	// the MCP transport owns it.
	File string `yaml:"file,omitempty"`
}

type EditorConfig struct {
	// HistoryLimit caps undo entries per session; 0 keeps everything.
	HistoryLimit int `yaml:"history_limit" validate:"min=0"`
}

type AutosaveConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule" validate:"required_if=Enabled true"`
}

type ImportConfig struct {
	// Dir is watched for template JSON files. Relative paths resolve
	// against the data directory.
	Dir      string `yaml:"dir"`
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		DataDir: defaultPath(DefaultDataDir),
		Logging: LoggingConfig{Level: "info"},
		Editor:  EditorConfig{HistoryLimit: 500},
		Autosave: AutosaveConfig{
			Enabled:  true,
			Schedule: "@every 30s",
		},
		Import: ImportConfig{
			Dir:      "inbox",
			Debounce: "300ms",
		},
	}
}

func defaultPath(rel string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return rel
	}
	return filepath.Join(home, rel)
}

// DefaultConfigPath returns ~/.config/mailcanvas/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(defaultPath(DefaultConfigDir), ConfigFileName)
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("MAILCANVAS_DATA_DIR"); dir != "" {
		c.DataDir = dir
	}
	if path := os.Getenv("MAILCANVAS_DB"); path != "" {
		c.Database = path
	}
	if level := os.Getenv("MAILCANVAS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if uri := os.Getenv("MAILCANVAS_DOCSTORE_URI"); uri != "" {
		c.DocStore.Host = uri
	}
	if pw := os.Getenv("MAILCANVAS_DOCSTORE_PASSWORD"); pw != "" {
		c.DocStore.Password = pw
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and that durations parse.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Import.Debounce != "" {
		if _, err := time.ParseDuration(c.Import.Debounce); err != nil {
			return fmt.Errorf("invalid import.debounce: %w", err)
		}
	}
	switch c.DocStore.Driver {
	case "", docstore.DriverSQLite, docstore.DriverMySQL, docstore.DriverPostgres, docstore.DriverMongoDB:
	default:
		return fmt.Errorf("invalid docstore.driver: %s", c.DocStore.Driver)
	}
	return nil
}

// DatabasePath returns the local SQLite file.
func (c *Config) DatabasePath() string {
	if c.Database != "" {
		return c.Database
	}
	return filepath.Join(c.DataDir, databaseFileName)
}

// ImportDir returns the watched import directory, or "" when disabled.
func (c *Config) ImportDir() string {
	if c.Import.Dir == "" || filepath.IsAbs(c.Import.Dir) {
		return c.Import.Dir
	}
	return filepath.Join(c.DataDir, c.Import.Dir)
}

// ImportDebounce returns the watcher debounce, falling back to 300ms.
func (c *Config) ImportDebounce() time.Duration {
	d, err := time.ParseDuration(c.Import.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// UsesDocStore reports whether templates live in an external store.
func (c *Config) UsesDocStore() bool {
	return c.DocStore.Driver != ""
}
