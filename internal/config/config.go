package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Changelog ChangelogConfig `toml:"changelog"`
	Users     UsersConfig     `toml:"users"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               int `toml:"port"`
	RateLimitPerMinute int `toml:"rate_limit_per_minute"`
}

// ChangelogConfig holds changelog feed settings.
type ChangelogConfig struct {
	URL            string `toml:"url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// UsersConfig selects where the user entity lives. In "local" mode Herald
// keeps a single user in its own SQLite database; in "remote" mode it
// reads and writes the user through an external admin API.
type UsersConfig struct {
	Mode    string `toml:"mode"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

const defaultConfigContent = `[server]
port = 8080
rate_limit_per_minute = 120

[changelog]
url = "https://ghost.org/changelog.json"
timeout_seconds = 10

[users]
mode = "local"      # "local" or "remote"
base_url = ""       # remote mode: user API base URL
api_key = ""        # remote mode: user API key (or HERALD_API_KEY env var)
`

// Load reads and parses the TOML config from the given path. If the file
// does not exist, it creates a default config file at that path.
// Environment variables override values from the file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "port = 0" is an error rather than silently
	// being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// ChangelogTimeout returns the changelog fetch timeout as a duration.
func (c *Config) ChangelogTimeout() time.Duration {
	return time.Duration(c.Changelog.TimeoutSeconds) * time.Second
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("changelog", "timeout_seconds") {
		if cfg.Changelog.TimeoutSeconds < 1 {
			return fmt.Errorf("invalid changelog.timeout_seconds %d: must be >= 1", cfg.Changelog.TimeoutSeconds)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 120
	}
	if cfg.Changelog.URL == "" {
		cfg.Changelog.URL = "https://ghost.org/changelog.json"
	}
	if cfg.Changelog.TimeoutSeconds == 0 {
		cfg.Changelog.TimeoutSeconds = 10
	}
	if cfg.Users.Mode == "" {
		cfg.Users.Mode = "local"
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take priority over config file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HERALD_CHANGELOG_URL"); v != "" {
		cfg.Changelog.URL = v
	}
	if v := os.Getenv("HERALD_USER_API_URL"); v != "" {
		cfg.Users.BaseURL = v
	}
	if v := os.Getenv("HERALD_API_KEY"); v != "" {
		cfg.Users.APIKey = v
	}
}

// validate checks that configuration values are within acceptable ranges.
func validate(cfg *Config) error {
	switch cfg.Users.Mode {
	case "local":
		// valid
	case "remote":
		if cfg.Users.BaseURL == "" {
			return fmt.Errorf("users.base_url is required when users.mode is \"remote\"")
		}
	default:
		return fmt.Errorf("invalid users.mode %q: must be \"local\" or \"remote\"", cfg.Users.Mode)
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Changelog.URL == "" {
		return fmt.Errorf("changelog.url must not be empty")
	}

	if cfg.Changelog.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid changelog.timeout_seconds %d: must be >= 1", cfg.Changelog.TimeoutSeconds)
	}

	if cfg.Users.Mode == "remote" && cfg.Users.APIKey == "" {
		slog.Warn("users.api_key is empty: set it in the config file or via HERALD_API_KEY environment variable")
	}

	return nil
}
