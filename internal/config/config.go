package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		BaseURL        string `koanf:"base_url"`
		TimeoutSeconds int    `koanf:"timeout_seconds"`
	} `koanf:"server"`

	Auth struct {
		CookieName   string `koanf:"cookie_name"`
		SessionToken string `koanf:"session_token"`
	} `koanf:"auth"`

	State struct {
		Dir        string `koanf:"dir"`
		SessionDir string `koanf:"session_dir"`
	} `koanf:"state"`

	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

// LoadConfig loads the configuration from a file
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	// Set up default configuration
	k.Load(confmap.Provider(map[string]interface{}{
		"server.base_url":        "http://localhost:8080",
		"server.timeout_seconds": 60,
		"auth.cookie_name":       "JSESSIONID",
		"log.level":              "info",
	}, "."), nil)

	// Load from TOML file if it exists
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		// Try to load from default locations
		defaultPaths := []string{"./repomind.toml", "$HOME/.repomind.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	// Load from environment variables with prefix REPOMIND_
	k.Load(env.Provider("REPOMIND_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "REPOMIND_")), "_", ".", 1)
	}), nil)

	// Unmarshal into Config struct
	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	applyStateDefaults(&config)

	return &config, nil
}

// applyStateDefaults fills in the state directories when the config
// file leaves them empty. The durable directory holds the selected
// repository; the session directory is volatile and scopes the
// conversation id to the current login session.
func applyStateDefaults(cfg *Config) {
	if cfg.State.Dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.State.Dir = filepath.Join(home, ".repomind")
	}
	if cfg.State.SessionDir == "" {
		cfg.State.SessionDir = filepath.Join(os.TempDir(),
			fmt.Sprintf("repomind-session-%d", os.Getuid()))
	}
}

// InitConfig initializes a new configuration file
func InitConfig(configPath string) error {
	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	// Create sample configuration
	sampleConfig := `# RepoMind Configuration

[server]
base_url = "http://localhost:8080"
timeout_seconds = 60

[auth]
cookie_name = "JSESSIONID"
session_token = "your-session-token"

[log]
level = "info"
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration
func Validate(config *Config) error {
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server base_url is required")
	}

	u, err := url.Parse(config.Server.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server base_url %q is not a valid URL", config.Server.BaseURL)
	}

	if config.Auth.CookieName == "" {
		return fmt.Errorf("auth cookie_name is required")
	}

	if config.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server timeout_seconds must be positive")
	}

	return nil
}
