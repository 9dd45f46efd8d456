// ABOUTME: Tests for configuration loading and validation.
// ABOUTME: Verifies defaults, YAML parsing, environment overrides, and XDG paths.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	if ConfigDir() != filepath.Dir(path) {
		t.Errorf("ConfigDir() = %s, want %s", ConfigDir(), filepath.Dir(path))
	}
}

func TestDataDirFollowsXDG(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	assert.Equal(t, filepath.Join(tmp, "notes"), DataDir())
	assert.Equal(t, filepath.Join(tmp, "notes", "notes.db"), DefaultConfig().SQLite.Path)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
store: badger
badger:
  dir: /tmp/notes-badger
charm:
  stale_threshold: 5m
http:
  addr: ":9000"
  read_timeout: 3s
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreBadger, cfg.Store)
	assert.Equal(t, "/tmp/notes-badger", cfg.Badger.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Charm.StaleThreshold)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout, "unset keys keep defaults")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: sqlite\n"), 0600))

	t.Setenv("NOTES_STORE", "postgres")
	t.Setenv("NOTES_POSTGRES_DSN", "postgres://localhost/notes")
	t.Setenv("NOTES_CHARM_AUTO_SYNC", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "postgres://localhost/notes", cfg.Postgres.DSN)
	assert.False(t, cfg.Charm.AutoSync)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown store", func(c *Config) { c.Store = "mysql" }, false},
		{"postgres without dsn", func(c *Config) { c.Store = StorePostgres }, false},
		{"sqlite without path", func(c *Config) { c.SQLite.Path = "" }, false},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Store = StoreCharm
	cfg.Charm.Host = "charm.example.com"

	require.NoError(t, Save(cfg, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreCharm, loaded.Store)
	assert.Equal(t, "charm.example.com", loaded.Charm.Host)
}

func TestBadEnvBool(t *testing.T) {
	t.Setenv("NOTES_CHARM_AUTO_SYNC", "perhaps")
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
