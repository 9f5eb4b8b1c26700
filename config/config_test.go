package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFrom_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file::memory:?_foreign_keys=on"
redis:
  addr: "127.0.0.1:6379"
graph:
  allow_self_follow: false
`)
	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file::memory:?_foreign_keys=on", cfg.Database.DSN)
	assert.True(t, cfg.Redis.Enabled())
	assert.False(t, cfg.Graph.AllowSelfFollow)

	// defaults
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 128, cfg.Graph.AvatarSize)
	assert.Equal(t, 10*time.Minute, cfg.Redis.FollowTTL)
	assert.Equal(t, 1024, cfg.LastSeen.QueueSize)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("MICROBLOG_SERVER_PORT", "9100")
	t.Setenv("MICROBLOG_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }},
		{"bad avatar size", func(c *Config) { c.Graph.AvatarSize = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{
				Database: DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"},
				Graph:    GraphConfig{AvatarSize: 80},
			}
			require.NoError(t, cfg.Validate())
			tc.mut(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
