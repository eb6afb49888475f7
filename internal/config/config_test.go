package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Session.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.NotEmpty(t, cfg.Generator.APIURL)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
log_level: debug
session:
  driver: redis
  idle_ttl: 1h
  redis:
    addr: "redis:6380"
generator:
  model: openai/gpt-4o-mini
  fallback_models:
    - deepseek/deepseek-chat
    - meta-llama/llama-3-8b-instruct
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "redis:6380", cfg.Session.Redis.Addr)
	assert.Equal(t, "openai/gpt-4o-mini", cfg.Generator.Model)
	assert.Len(t, cfg.Generator.FallbackModels, 2)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("OPENROUTER_MODEL", "anthropic/claude-3-haiku")
	t.Setenv("OPENROUTER_FALLBACK_MODELS", "a/b, c/d ,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "anthropic/claude-3-haiku", cfg.Generator.Model)
	assert.Equal(t, []string{"a/b", "c/d"}, cfg.Generator.FallbackModels)
}

func TestValidateRejectsBadDriver(t *testing.T) {
	cfg := Default()
	cfg.Session.Driver = "etcd"
	assert.Error(t, cfg.Validate())
}
