package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "chatflow.yaml", "store:\n  driver: sqlite\n  dsn: bots.db\nhttp:\n  addr: \":9090\"\n"},
		{"json", "chatflow.json", `{"store": {"driver": "sqlite", "dsn": "bots.db"}, "http": {"addr": ":9090"}}`},
		{"toml", "chatflow.toml", "[store]\ndriver = \"sqlite\"\ndsn = \"bots.db\"\n\n[http]\naddr = \":9090\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, "sqlite", cfg.Store.Driver)
			assert.Equal(t, "bots.db", cfg.Store.DSN)
			assert.Equal(t, ":9090", cfg.HTTP.Addr)
			// Untouched fields keep their defaults.
			assert.Equal(t, "info", cfg.Log.Level)
			assert.Equal(t, 10, cfg.HTTP.SaveBurst)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_BrokenFile(t *testing.T) {
	_, err := Load(writeFile(t, "bad.toml", "[store\n"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CHATFLOW_STORE":      "redis",
		"CHATFLOW_REDIS_ADDR": "localhost:6379",
		"CHATFLOW_REDIS_DB":   "2",
		"CHATFLOW_LOCK":       "true",
		"CHATFLOW_LOG_LEVEL":  "debug",
		"CHATFLOW_SAVE_RATE":  "0.5",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "localhost:6379", cfg.Store.RedisAddr)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.True(t, cfg.Store.Lock)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 0.5, cfg.HTTP.SaveRate)
}

func TestApplyEnv_InvalidNumber(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, func(k string) (string, bool) {
		if k == "CHATFLOW_REDIS_DB" {
			return "two", true
		}
		return "", false
	})
	assert.Error(t, err)
}
