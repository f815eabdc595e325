package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestConfig writes a TOML config file to a temp directory and returns
// its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
[server]
port = 9090
rate_limit_per_minute = 60

[changelog]
url = "https://example.com/changelog.json"
timeout_seconds = 5

[users]
mode = "remote"
base_url = "https://admin.example.com/api"
api_key = "k-123"
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute != 60 {
		t.Errorf("Server.RateLimitPerMinute = %d, want 60", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Changelog.URL != "https://example.com/changelog.json" {
		t.Errorf("Changelog.URL = %q", cfg.Changelog.URL)
	}
	if cfg.ChangelogTimeout() != 5*time.Second {
		t.Errorf("ChangelogTimeout() = %v, want 5s", cfg.ChangelogTimeout())
	}
	if cfg.Users.Mode != "remote" || cfg.Users.BaseURL != "https://admin.example.com/api" || cfg.Users.APIKey != "k-123" {
		t.Errorf("Users = %+v", cfg.Users)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTestConfig(t, ""))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute != 120 {
		t.Errorf("Server.RateLimitPerMinute = %d, want default 120", cfg.Server.RateLimitPerMinute)
	}
	if cfg.Changelog.URL != "https://ghost.org/changelog.json" {
		t.Errorf("Changelog.URL = %q, want default", cfg.Changelog.URL)
	}
	if cfg.Changelog.TimeoutSeconds != 10 {
		t.Errorf("Changelog.TimeoutSeconds = %d, want default 10", cfg.Changelog.TimeoutSeconds)
	}
	if cfg.Users.Mode != "local" {
		t.Errorf("Users.Mode = %q, want default %q", cfg.Users.Mode, "local")
	}
}

func TestLoad_CreatesDefaultFileWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not created at %q: %v", path, err)
	}
	if cfg.Users.Mode != "local" {
		t.Errorf("Users.Mode = %q, want %q", cfg.Users.Mode, "local")
	}
}

func TestLoad_ExplicitZeroPortIsError(t *testing.T) {
	content := `
[server]
port = 0
`
	if _, err := Load(writeTestConfig(t, content)); err == nil {
		t.Fatal("expected an error for explicit port = 0")
	}
}

func TestLoad_InvalidUsersMode(t *testing.T) {
	content := `
[users]
mode = "cloud"
`
	if _, err := Load(writeTestConfig(t, content)); err == nil {
		t.Fatal("expected an error for an unknown users.mode")
	}
}

func TestLoad_RemoteModeRequiresBaseURL(t *testing.T) {
	content := `
[users]
mode = "remote"
`
	if _, err := Load(writeTestConfig(t, content)); err == nil {
		t.Fatal("expected an error for remote mode without base_url")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HERALD_CHANGELOG_URL", "https://env.example.com/changelog.json")
	t.Setenv("HERALD_API_KEY", "env-key")
	t.Setenv("HERALD_USER_API_URL", "https://env.example.com/api")

	content := `
[changelog]
url = "https://file.example.com/changelog.json"

[users]
mode = "remote"
base_url = "https://file.example.com/api"
api_key = "file-key"
`
	cfg, err := Load(writeTestConfig(t, content))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Changelog.URL != "https://env.example.com/changelog.json" {
		t.Errorf("Changelog.URL = %q, want env override", cfg.Changelog.URL)
	}
	if cfg.Users.APIKey != "env-key" {
		t.Errorf("Users.APIKey = %q, want env override", cfg.Users.APIKey)
	}
	if cfg.Users.BaseURL != "https://env.example.com/api" {
		t.Errorf("Users.BaseURL = %q, want env override", cfg.Users.BaseURL)
	}
}
