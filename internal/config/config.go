// ABOUTME: Configuration for the notes service: store backend, transports, logging.
// ABOUTME: Loads YAML from the XDG config dir, then applies NOTES_* environment overrides.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StoreBadger   = "badger"
	StoreCharm    = "charm"
	StorePostgres = "postgres"
)

type Config struct {
	// Store selects the backend: sqlite (default), badger, charm or postgres.
	Store string `yaml:"store"`

	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Badger   BadgerConfig   `yaml:"badger"`
	Postgres PostgresConfig `yaml:"postgres"`
	Charm    CharmConfig    `yaml:"charm"`
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type BadgerConfig struct {
	Dir string `yaml:"dir"`
}

type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

type CharmConfig struct {
	// Host is the charm server (default: charm.2389.dev)
	Host     string `yaml:"host"`
	DBName   string `yaml:"db_name"`
	AutoSync bool   `yaml:"auto_sync"`
	// StaleThreshold makes reads sync first when the last sync is older.
	StaleThreshold time.Duration `yaml:"stale_threshold"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
	File   string `yaml:"file"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Store:  StoreSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(DataDir(), "notes.db")},
		Badger: BadgerConfig{Dir: filepath.Join(DataDir(), "badger")},
		Charm: CharmConfig{
			Host:     "charm.2389.dev",
			DBName:   "notes",
			AutoSync: true,
		},
		HTTP: HTTPConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "notes")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the directory local stores keep their files in.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "notes")
}

// Load reads path (ConfigPath when empty) over the defaults, applies
// environment overrides and validates. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // Config path is chosen by the user
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML to path (ConfigPath when empty).
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"NOTES_STORE":        &c.Store,
		"NOTES_DB_PATH":      &c.SQLite.Path,
		"NOTES_BADGER_DIR":   &c.Badger.Dir,
		"NOTES_POSTGRES_DSN": &c.Postgres.DSN,
		"NOTES_CHARM_HOST":   &c.Charm.Host,
		"NOTES_CHARM_DB":     &c.Charm.DBName,
		"NOTES_HTTP_ADDR":    &c.HTTP.Addr,
		"NOTES_LOG_LEVEL":    &c.Log.Level,
		"NOTES_LOG_FORMAT":   &c.Log.Format,
		"NOTES_LOG_FILE":     &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("NOTES_CHARM_AUTO_SYNC"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("NOTES_CHARM_AUTO_SYNC: %w", err)
		}
		c.Charm.AutoSync = b
	}
	return nil
}

// Validate checks the fields the selected backend needs.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.SQLite.Path == "" {
			return errors.New("sqlite.path is required")
		}
	case StoreBadger:
		if c.Badger.Dir == "" {
			return errors.New("badger.dir is required")
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
	case StoreCharm:
		if c.Charm.DBName == "" {
			return errors.New("charm.db_name is required")
		}
	default:
		return fmt.Errorf("unknown store %q (want sqlite, badger, charm or postgres)", c.Store)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q (want json or console)", c.Log.Format)
	}
	return nil
}
