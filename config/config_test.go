package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greynewell/intentbench/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intentbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 4, cfg.Jobs)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Zero(t, cfg.ModelIndex)
	assert.Equal(t, "text", cfg.Format)

	err := cfg.Validate()
	require.Error(t, err, "url has no default")
	assert.Contains(t, err.Error(), "url is required")
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
url: http://localhost:8080
jobs: 16
retry_interval: 250ms
rate: 12.5
format: json
`)
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.URL)
	assert.Equal(t, 16, cfg.Jobs)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval)
	assert.InDelta(t, 12.5, cfg.Rate, 1e-12)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, 10*time.Second, cfg.Timeout, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeFile(t, "url: http://x\nthreads: 3\n")
	_, err := Load(path, "")
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.Code(err))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	assert.Equal(t, errors.CodeNotFound, errors.Code(err))
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""), "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "url: http://file\njobs: 2\n")
	t.Setenv("INTENTS_URL", "http://env")
	t.Setenv("INTENTS_MODEL_INDEX", "3")
	t.Setenv("INTENTS_RETRY_INTERVAL", "1s")
	t.Setenv("INTENTS_NO_PROGRESS", "true")

	cfg, err := Load(path, EnvPrefix)
	require.NoError(t, err)
	assert.Equal(t, "http://env", cfg.URL)
	assert.Equal(t, 3, cfg.ModelIndex)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, time.Second, cfg.RetryInterval)
	assert.True(t, cfg.NoProgress)
}

func TestEnvBadValue(t *testing.T) {
	t.Setenv("INTENTS_JOBS", "many")
	_, err := Load("", EnvPrefix)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidation, errors.Code(err))
	assert.Contains(t, err.Error(), "INTENTS_JOBS")
}

func TestApplyEnvFieldNameFallback(t *testing.T) {
	var v struct {
		Name  string
		Skip  string `env:"-"`
		Count int
	}
	env := map[string]string{"APP_NAME": "x", "APP_SKIP": "y", "APP_COUNT": "7"}
	lookup := func(k string) (string, bool) { s, ok := env[k]; return s, ok }

	require.NoError(t, ApplyEnv("app", &v, lookup))
	assert.Equal(t, "x", v.Name)
	assert.Empty(t, v.Skip)
	assert.Equal(t, 7, v.Count)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"jobs zero", func(c *Config) { c.Jobs = 0 }, "jobs must be at least 1"},
		{"negative model", func(c *Config) { c.ModelIndex = -1 }, "model_index must be at least 0"},
		{"relative url", func(c *Config) { c.URL = "localhost" }, "url must be an absolute URL"},
		{"bad format", func(c *Config) { c.Format = "xml" }, "format must be one of: text json yaml"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "log_level must be one of"},
		{"zero retry", func(c *Config) { c.RetryInterval = 0 }, "retry_interval must be positive"},
		{"negative rate", func(c *Config) { c.Rate = -1 }, "rate must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.URL = "http://localhost:8080"
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, errors.CodeValidation, errors.Code(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
