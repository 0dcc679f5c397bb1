package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/thoughtboard/internal/flagx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{flagx.ConfigEnvVar, EnvServerURL, EnvToken} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8000", c.ServerURL)
	assert.Equal(t, 10*time.Second, c.Timeout)
	assert.Empty(t, c.Token)
}

func TestLoad_Precedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "client.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://file:1","timeout":"3s"}`), 0o600))

	cfg, err := Load([]string{"list", "-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://file:1", cfg.ServerURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)

	t.Setenv(EnvServerURL, "http://env:2")
	t.Setenv(EnvToken, "env-token")
	cfg, err = Load([]string{"-c", path})
	require.NoError(t, err)
	assert.Equal(t, "http://env:2", cfg.ServerURL)
	assert.Equal(t, "env-token", cfg.Token)

	cfg, err = Load([]string{"post", "-c", path, "-a", "http://flag:3", "-token", "flag-token", "-timeout", "1s", "hello"})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:3", cfg.ServerURL)
	assert.Equal(t, "flag-token", cfg.Token)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
	assert.ErrorContains(t, err, "read config file")

	_, err = Load([]string{"-timeout", "soon"})
	assert.Error(t, err)
}
