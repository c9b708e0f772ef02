package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Server.BaseURL)
	assert.Equal(t, "JSESSIONID", cfg.Auth.CookieName)
	assert.Equal(t, 60, cfg.Server.TimeoutSeconds)
	assert.NotEmpty(t, cfg.State.Dir, "state dir default must be filled in")
	assert.NotEmpty(t, cfg.State.SessionDir, "session dir default must be filled in")
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repomind.toml")
	content := `
[server]
base_url = "https://repomind.example.com"
timeout_seconds = 15

[auth]
cookie_name = "SESSION"
session_token = "abc123"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://repomind.example.com", cfg.Server.BaseURL)
	assert.Equal(t, 15, cfg.Server.TimeoutSeconds)
	assert.Equal(t, "SESSION", cfg.Auth.CookieName)
	assert.Equal(t, "abc123", cfg.Auth.SessionToken)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("REPOMIND_SERVER_BASE_URL", "https://env.example.com")
	t.Setenv("REPOMIND_AUTH_SESSION_TOKEN", "from-env")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "from-env", cfg.Auth.SessionToken)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repomind.toml")

	require.NoError(t, InitConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))

	// Refuses to clobber an existing file
	require.Error(t, InitConfig(path))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Server.BaseURL = "http://localhost:8080"
		cfg.Server.TimeoutSeconds = 60
		cfg.Auth.CookieName = "JSESSIONID"
		return cfg
	}

	require.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.Server.BaseURL = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Server.BaseURL = "not a url"
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Auth.CookieName = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Server.TimeoutSeconds = 0
	assert.Error(t, Validate(cfg))
}
