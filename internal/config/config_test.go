// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateEnv points HOME at a temp dir and removes UNIRAG_* variables for
// the duration of the test.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)

	for _, kv := range os.Environ() {
		name, value, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(name, "UNIRAG_") {
			continue
		}
		os.Unsetenv(name)
		t.Cleanup(func() { os.Setenv(name, value) })
	}
	return home
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.API.Timeout != 60*time.Second {
		t.Errorf("API.Timeout = %v, want 60s", cfg.API.Timeout)
	}
	if cfg.Chat.RevealInterval != 50*time.Millisecond {
		t.Errorf("Chat.RevealInterval = %v, want 50ms", cfg.Chat.RevealInterval)
	}
	if cfg.Admin.UpdatedBy != "admin01" {
		t.Errorf("Admin.UpdatedBy = %q, want admin01", cfg.Admin.UpdatedBy)
	}
	if cfg.Admin.RefreshInterval != 10*time.Second {
		t.Errorf("Admin.RefreshInterval = %v, want 10s", cfg.Admin.RefreshInterval)
	}
}

// TestConfig_LoadMatchesDefault tests that env-default tags agree with Default().
func TestConfig_LoadMatchesDefault(t *testing.T) {
	home := isolateEnv(t)

	cfg, err := LoadFromPath(filepath.Join(home, "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("LoadFromPath() without file = %+v, want %+v", *cfg, *Default())
	}
}

// TestConfig_LoadFromFile tests reading values from a TOML file.
func TestConfig_LoadFromFile(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.toml")
	content := `
[api]
base_url = "https://assistant.example.ac.th/"
timeout = "15s"

[storage]
backend = "SQLite"
dir = "/var/lib/unirag"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.API.BaseURL != "https://assistant.example.ac.th" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 15*time.Second {
		t.Errorf("API.Timeout = %v, want 15s", cfg.API.Timeout)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if dir, _ := cfg.StateDir(); dir != "/var/lib/unirag" {
		t.Errorf("StateDir() = %q", dir)
	}
	// Keys absent from the file come from env-default tags.
	if cfg.Chat.UserID != "web" {
		t.Errorf("Chat.UserID = %q, want web", cfg.Chat.UserID)
	}
}

// TestConfig_EnvOverridesFile tests that UNIRAG_* variables win over the file.
func TestConfig_EnvOverridesFile(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "config.toml")
	if err := os.WriteFile(path, []byte("[chat]\nuser_id = \"from-file\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("UNIRAG_USER_ID", "from-env")
	t.Setenv("UNIRAG_API_BASE", "http://10.0.0.5:9000")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Chat.UserID != "from-env" {
		t.Errorf("Chat.UserID = %q, want from-env", cfg.Chat.UserID)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
}

// TestConfig_LoadRejectsInvalid tests that validation failures surface from Load.
func TestConfig_LoadRejectsInvalid(t *testing.T) {
	home := isolateEnv(t)
	t.Setenv("UNIRAG_STORAGE", "redis")

	_, err := LoadFromPath(filepath.Join(home, "missing.toml"))
	if err == nil {
		t.Fatal("LoadFromPath() should reject an unknown storage backend")
	}
	if !strings.Contains(err.Error(), "storage.backend") {
		t.Errorf("error %q should name storage.backend", err)
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "https base url", mutate: func(c *Config) { c.API.BaseURL = "https://rag.mfu.ac.th" }},
		{name: "ftp base url", mutate: func(c *Config) { c.API.BaseURL = "ftp://x" }, field: "api.base_url", wantErr: true},
		{name: "empty base url", mutate: func(c *Config) { c.API.BaseURL = "" }, field: "api.base_url", wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, field: "api.timeout", wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.API.MaxRetries = -1 }, field: "api.max_retries", wantErr: true},
		{name: "blank user id", mutate: func(c *Config) { c.Chat.UserID = "  " }, field: "chat.user_id", wantErr: true},
		{name: "fast refresh", mutate: func(c *Config) { c.Admin.RefreshInterval = time.Millisecond }, field: "admin.refresh_interval", wantErr: true},
		{name: "zero feedback limit", mutate: func(c *Config) { c.Admin.FeedbackLimit = 0 }, field: "admin.feedback_limit", wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }, field: "storage.backend", wantErr: true},
		{name: "warning level", mutate: func(c *Config) { c.Log.Level = "warning" }},
		{name: "unknown level", mutate: func(c *Config) { c.Log.Level = "trace" }, field: "log.level", wantErr: true},
		{name: "unknown theme", mutate: func(c *Config) { c.UI.Theme = "neon" }, field: "ui.theme", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("Validate() error type = %T, want ValidateErrors", err)
			}
			if verrs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", verrs[0].Field, tt.field)
			}
		})
	}
}

// TestConfig_ValidateCollectsAll tests that every violation is reported.
func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = ""
	cfg.Storage.Backend = "nope"

	err := cfg.Validate()
	verrs, ok := err.(ValidateErrors)
	if !ok || len(verrs) != 2 {
		t.Fatalf("Validate() = %v, want two errors", err)
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want messages joined with '; '", err.Error())
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("api.base_url")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "http://localhost:8000" {
		t.Errorf("Get('api.base_url') = %v", val)
	}

	if err := cfg.Set("admin.refresh_interval", "30s"); err != nil {
		t.Fatalf("Set() duration error = %v", err)
	}
	if cfg.Admin.RefreshInterval != 30*time.Second {
		t.Errorf("RefreshInterval = %v, want 30s", cfg.Admin.RefreshInterval)
	}

	if err := cfg.Set("admin.feedback_limit", "25"); err != nil {
		t.Fatalf("Set() int error = %v", err)
	}
	if cfg.Admin.FeedbackLimit != 25 {
		t.Errorf("FeedbackLimit = %d, want 25", cfg.Admin.FeedbackLimit)
	}

	if err := cfg.Set("ui.no-markdown", "yes"); err != nil {
		t.Fatalf("Set() bool error = %v", err)
	}
	if !cfg.UI.NoMarkdown {
		t.Error("NoMarkdown should be true")
	}

	if err := cfg.Set("admin.feedback_limit", "many"); err == nil {
		t.Error("Set() with a non-integer should fail")
	}
	if _, err := cfg.Get("invalid.key"); err == nil {
		t.Error("Get() with invalid key should return error")
	}
	if _, err := cfg.Get("api"); err == nil {
		t.Error("Get() on a section should return error")
	}
}

// TestConfig_GetAllKeys tests that every listed key is gettable.
func TestConfig_GetAllKeys(t *testing.T) {
	cfg := Default()
	keys := GetAllKeys()
	if len(keys) == 0 {
		t.Fatal("GetAllKeys() returned nothing")
	}
	for _, key := range keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	clone := original.Clone()
	clone.Chat.UserID = "cloned"

	if original.Chat.UserID != "web" {
		t.Error("Clone should create an independent copy")
	}
}

// TestConfig_SaveTOMLRoundTrip tests that a saved file loads back unchanged.
func TestConfig_SaveTOMLRoundTrip(t *testing.T) {
	home := isolateEnv(t)
	path := filepath.Join(home, "nested", "config.toml")

	cfg := Default()
	cfg.Storage.Backend = "sqlite"
	cfg.Admin.RefreshInterval = 45 * time.Second
	cfg.UI.NoMarkdown = true

	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 && os.PathSeparator == '/' {
		t.Errorf("permissions = %o, want 600", perm)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "# unirag configuration file") {
		t.Error("saved file should start with the header comment")
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip = %+v, want %+v", *loaded, *cfg)
	}
}

// TestConfig_PathHelpers tests path resolution under HOME.
func TestConfig_PathHelpers(t *testing.T) {
	home := isolateEnv(t)

	path, err := ConfigPathTOML()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".unirag", "config.toml"); path != want {
		t.Errorf("ConfigPathTOML() = %q, want %q", path, want)
	}

	cfg := Default()
	if dir, _ := cfg.StateDir(); dir != filepath.Join(home, ".unirag", "state") {
		t.Errorf("StateDir() = %q", dir)
	}
	if file, _ := cfg.LogFile(); file != filepath.Join(home, ".unirag", "unirag.log") {
		t.Errorf("LogFile() = %q", file)
	}
}
