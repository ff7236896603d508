package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected default model, got %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("expected max tokens 4096, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Server.Address() != "localhost:8080" {
		t.Errorf("expected localhost:8080, got %q", cfg.Server.Address())
	}
	if cfg.Assistant.EnforceStatusGuard {
		t.Error("expected status guard to be off by default")
	}
	if !cfg.Assistant.SerializeProjectMutations {
		t.Error("expected project mutations to be serialized by default")
	}
	if cfg.Assistant.HistoryLimit != 50 {
		t.Errorf("expected history limit 50, got %d", cfg.Assistant.HistoryLimit)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if !strings.HasSuffix(cfg.Database.Path, filepath.Join("foundry", "foundry.db")) {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
anthropic:
  api_key: test-key
  model: claude-3-5-haiku-20241022
  requests_per_second: 2.5
database:
  path: /tmp/foundry-test.db
server:
  port: 9090
  shutdown_timeout: 3s
assistant:
  enforce_status_guard: true
  history_limit: 10
log:
  level: debug
  format: json
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}

	if cfg.Anthropic.APIKey != "test-key" {
		t.Errorf("expected api_key 'test-key', got %q", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.Model != "claude-3-5-haiku-20241022" {
		t.Errorf("unexpected model %q", cfg.Anthropic.Model)
	}
	if cfg.Anthropic.MaxTokens != 4096 {
		t.Errorf("max tokens should keep its default, got %d", cfg.Anthropic.MaxTokens)
	}
	if cfg.Anthropic.RequestsPerSecond != 2.5 {
		t.Errorf("expected 2.5 rps, got %v", cfg.Anthropic.RequestsPerSecond)
	}
	if cfg.Database.Path != "/tmp/foundry-test.db" {
		t.Errorf("unexpected database path %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9090 || cfg.Server.Host != "localhost" {
		t.Errorf("unexpected server %+v", cfg.Server)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("expected 3s shutdown timeout, got %v", cfg.Server.ShutdownTimeout)
	}
	if !cfg.Assistant.EnforceStatusGuard {
		t.Error("expected status guard to be enabled")
	}
	if !cfg.Assistant.SerializeProjectMutations {
		t.Error("serialize_project_mutations should keep its default")
	}
	if cfg.Assistant.HistoryLimit != 10 {
		t.Errorf("expected history limit 10, got %d", cfg.Assistant.HistoryLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log config %+v", cfg.Log)
	}
}

func TestLoadFromPath_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("server:\n  port: 9090\n"), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("FOUNDRY_SERVER_PORT", "7070")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	cfg, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected env port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Anthropic.APIKey != "sk-ant-from-env" {
		t.Errorf("expected env api key, got %q", cfg.Anthropic.APIKey)
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative history", "assistant:\n  history_limit: -1\n"},
		{"zero max tokens", "anthropic:\n  max_tokens: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config file: %v", err)
			}
			if _, err := LoadFromPath(configPath); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ProjectOverridesUser(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	userDir := filepath.Join(xdg, "foundry")
	if err := os.MkdirAll(userDir, 0700); err != nil {
		t.Fatal(err)
	}
	userConfig := "server:\n  port: 9000\nlog:\n  level: warn\n"
	if err := os.WriteFile(filepath.Join(userDir, "config.yaml"), []byte(userConfig), 0600); err != nil {
		t.Fatal(err)
	}

	projectDir := t.TempDir()
	nested := filepath.Join(projectDir, "sub", "dir")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	projectConfig := "server:\n  port: 9100\n"
	if err := os.WriteFile(filepath.Join(projectDir, ProjectConfigName), []byte(projectConfig), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("expected project port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected user log level warn, got %q", cfg.Log.Level)
	}
	if got := ActivePath(); filepath.Base(got) != ProjectConfigName {
		t.Errorf("ActivePath() = %q, want project config", got)
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Server.Port = 8181
	cfg.Assistant.EnforceStatusGuard = true
	if err := SaveToPath(cfg, configPath); err != nil {
		t.Fatalf("SaveToPath failed: %v", err)
	}

	loaded, err := LoadFromPath(configPath)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Server.Port != 8181 || !loaded.Assistant.EnforceStatusGuard {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "expanded-value")

	result := expandEnv("${TEST_VAR}")
	if result != "expanded-value" {
		t.Errorf("expected 'expanded-value', got %q", result)
	}

	result = expandEnv("prefix-${TEST_VAR}-suffix")
	if result != "prefix-expanded-value-suffix" {
		t.Errorf("expected 'prefix-expanded-value-suffix', got %q", result)
	}
}

func TestGetUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir := getUserConfigDir()
	expected := "/custom/config/foundry"
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("log:\n  level: info\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	err := Watch(ctx, configPath, func(cfg *Config, err error) {
		if err == nil {
			changes <- cfg
		}
	})
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	if err := os.WriteFile(configPath, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		if cfg.Log.Level != "debug" {
			t.Errorf("expected reloaded level debug, got %q", cfg.Log.Level)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "config.yaml"), func(*Config, error) {})
	if err == nil {
		t.Error("expected error watching a missing directory")
	}
}
