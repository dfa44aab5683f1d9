package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hificopy/formflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeFile(t, "formflow.yaml", `
log:
  level: debug
http:
  addr: ":9090"
storage:
  driver: redis
  redis:
    addr: "redis:6379"
    progress_ttl: 24h
    lock: true
autosave:
  backoff: 250ms
answers:
  free_email_domains: [gmail.com, proton.me]
disqualify_message: "Not a fit"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset keys keep defaults")
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, config.DriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "formflow:", cfg.Storage.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, cfg.Storage.Redis.ProgressTTL)
	assert.True(t, cfg.Storage.Redis.Lock)
	assert.Equal(t, 250*time.Millisecond, cfg.AutoSave.Backoff)
	assert.Equal(t, 3, cfg.AutoSave.MaxAttempts)
	assert.Equal(t, []string{"gmail.com", "proton.me"}, cfg.Answers.FreeEmailDomains)
	assert.Equal(t, "Not a fit", cfg.DisqualifyMessage)
}

func TestLoad_Env(t *testing.T) {
	path := writeFile(t, "cfg.json", `{"http": {"addr": ":7070"}}`)
	t.Setenv(config.EnvConfigPath, path)

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"Unknown key", "htp:\n  addr: x\n"},
		{"Unknown driver", "storage:\n  driver: sqlite\n"},
		{"Bad level", "log:\n  level: loud\n"},
		{"Bad attempts", "autosave:\n  max_attempts: 0\n"},
		{"Bad duration", "http:\n  shutdown_timeout: soon\n"},
		{"Malformed", "log: [\n"},
		{"Short encryption key", "storage:\n  encryption_key: c2hvcnQ=\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "formflow.yaml", tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("Missing explicit file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	level, err := config.ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad_EncryptionKeys(t *testing.T) {
	key := "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=" // 32 bytes
	cfg, err := config.Load(writeFile(t, "formflow.yaml", "storage:\n  encryption_key: "+key+"\n  fallback_keys: ["+key+"]\n"))
	require.NoError(t, err)
	assert.Equal(t, key, cfg.Storage.EncryptionKey)
	assert.Len(t, cfg.Storage.FallbackKeys, 1)

	_, err = config.Load(writeFile(t, "formflow.yaml", "storage:\n  encryption_key: "+key+"\n  fallback_keys: [nope]\n"))
	assert.Error(t, err)
}
