package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEnvMaxAttempts = "PROBE_RETRY_MAXATTEMPTS"
	testEnvTargetURL   = "PROBE_TARGET_URL"
	defaultTargetURL   = "http://localhost:8080"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, defaultTargetURL, cfg.Target.URL)
	assert.Equal(t, 5*time.Second, cfg.Target.Timeout)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxDelay)
	assert.False(t, cfg.Retry.Strict)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "stdout", cfg.Observability.Endpoint)
	assert.InDelta(t, 1.0, cfg.Observability.SampleRate, 0)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target:
  url: http://127.0.0.1:9090/health
retry:
  maxattempts: 6
  basedelay: 100ms
observability:
  headers:
    x-api-key: secret
`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:9090/health", cfg.Target.URL)
	assert.Equal(t, 6, cfg.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 2*time.Second, cfg.Retry.MaxDelay)
	assert.Equal(t, map[string]string{"x-api-key": "secret"}, cfg.Observability.Headers)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry:\n  maxattempts: 6\n"), 0o600))

	t.Setenv(testEnvMaxAttempts, "2")
	t.Setenv(testEnvTargetURL, "http://10.0.0.1:8080")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, "http://10.0.0.1:8080", cfg.Target.URL)
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retry: [unterminated"), 0o600))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load")
}

func TestLoadFromBytes(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("log:\n  level: debug\n  pretty: true\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
}

func TestLoadFromBytesInvalid(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		contains string
	}{
		{name: "zero attempts", yaml: "retry:\n  maxattempts: 0\n", contains: "retry.maxattempts"},
		{name: "relative url", yaml: "target:\n  url: localhost\n", contains: "target.url must be an absolute URL"},
		{name: "max below base", yaml: "retry:\n  basedelay: 3s\n", contains: "retry.maxdelay"},
		{name: "bad level", yaml: "log:\n  level: loud\n", contains: "must be one of: trace, debug, info, warn, error"},
		{name: "bad protocol", yaml: "observability:\n  protocol: udp\n", contains: "observability.protocol"},
		{name: "missing service", yaml: "observability:\n  enabled: true\n  service: \"\"\n", contains: "config_missing: observability.service"},
		{name: "sample rate", yaml: "observability:\n  samplerate: 2\n", contains: "observability.samplerate must be at most 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)

			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestValidateNil(t *testing.T) {
	err := Validate(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config_missing")
}

func TestConfigErrorFormatting(t *testing.T) {
	err := NewMissingFieldError("target.url")
	assert.Equal(t, "config_missing: target.url required set PROBE_TARGET_URL env var or add target.url to config.yaml", err.Error())

	inv := NewInvalidFieldError("log.level", "unsupported value 'x'", []string{"info", "debug"})
	assert.Equal(t, "config_invalid: log.level unsupported value 'x' must be one of: info, debug", inv.Error())

	assert.Equal(t, "PROBE_RETRY_MAXATTEMPTS", EnvVarFor("retry.maxattempts"))
}
