package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfigFromEnvRequiresCredentials(t *testing.T) {
	isolateEnv(t)

	_, err := ClientConfigFromEnv()
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestClientConfigFromEnvToken(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvToken, "abc")

	cfg, err := ClientConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Token)
	assert.Equal(t, "screeps.com", cfg.Host)
	assert.True(t, cfg.Secure)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.False(t, cfg.HasCredentials())
}

func TestClientConfigFromEnvEmailOnlyCountsAsCredential(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvEmail, "a@b.c")

	cfg, err := ClientConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", cfg.Email)
	assert.Empty(t, cfg.Password)
	assert.False(t, cfg.HasCredentials())
}

func TestClientConfigFromEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvEmail, "a@b.c")
	t.Setenv(EnvPassword, "secret")
	t.Setenv(EnvHost, "localhost:21025")
	t.Setenv(EnvSecure, "false")
	t.Setenv(EnvTimeout, "10")

	cfg, err := ClientConfigFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.HasCredentials())
	assert.Equal(t, "http://localhost:21025/api", cfg.BaseURL())
	assert.Equal(t, 10*time.Second, cfg.Timeout)
}

func TestClientConfigFromEnvInvalidValues(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvToken, "abc")
	t.Setenv(EnvSecure, "maybe")

	_, err := ClientConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvSecure)

	t.Setenv(EnvSecure, "true")
	t.Setenv(EnvTimeout, "soon")
	_, err = ClientConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvTimeout)
}

func TestClientConfigFromDotEnv(t *testing.T) {
	isolateEnv(t)

	dir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SCREEPS_TOKEN=from-dotenv\nSCREEPS_TIMEOUT=20s\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv(EnvToken)
		_ = os.Unsetenv(EnvTimeout)
	})

	cfg, err := ClientConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Token)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvHost, "already.set")

	path := filepath.Join(t.TempDir(), "custom.env")
	require.NoError(t, os.WriteFile(path, []byte("SCREEPS_HOST=from-file\n"), 0o600))

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "already.set", os.Getenv(EnvHost))
}

func TestParseTimeout(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"15":    15 * time.Second,
		" 3 ":   3 * time.Second,
		"250ms": 250 * time.Millisecond,
		"1m30s": 90 * time.Second,
	} {
		got, err := ParseTimeout(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "0", "-5", "-1s", "abc"} {
		_, err := ParseTimeout(raw)
		assert.Error(t, err, raw)
	}
}
