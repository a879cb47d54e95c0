package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "webpilot.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.Browser.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.Browser.ViewportWidth != 1280 || cfg.Browser.ViewportHeight != 800 {
		t.Errorf("viewport = %dx%d, want 1280x800", cfg.Browser.ViewportWidth, cfg.Browser.ViewportHeight)
	}
	if cfg.Browser.NavigateTimeout != 30*time.Second {
		t.Errorf("NavigateTimeout = %v, want 30s", cfg.Browser.NavigateTimeout)
	}
	if cfg.Oracle.Provider != providerGemini {
		t.Errorf("Provider = %v, want gemini", cfg.Oracle.Provider)
	}
	if cfg.Oracle.Timeout != 60*time.Second {
		t.Errorf("Oracle.Timeout = %v, want 60s", cfg.Oracle.Timeout)
	}
	if cfg.Journal.Enabled {
		t.Error("journal should be disabled by default")
	}
	if cfg.Journal.Database != "webpilot" {
		t.Errorf("Journal.Database = %v, want webpilot", cfg.Journal.Database)
	}
	if got := cfg.GeminiConfig().Model; got != "gemini-2.5-flash" {
		t.Errorf("Gemini model = %v, want gemini-2.5-flash", got)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
browser:
  headless: false
  viewport_width: 1024
  action_timeout: 2s
oracle:
  provider: OpenAI
  model: gpt-4o-mini
  base_url: https://example.openai.azure.com/openai/v1
  api_key_header: api-key
  temperature: 0
log:
  level: debug
  json: true
journal:
  enabled: true
  uri: mongodb://db:27017
capture:
  save_dir: /tmp/snaps
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Browser.Headless {
		t.Error("Headless should be false")
	}
	drv := cfg.DriverConfig()
	if drv.ViewportWidth != 1024 || drv.ActionTimeout != 2*time.Second {
		t.Errorf("DriverConfig() = %+v", drv)
	}
	if drv.WindowHeight != 960 {
		t.Errorf("WindowHeight = %d, want default 960", drv.WindowHeight)
	}

	if cfg.Oracle.Provider != providerOpenAI {
		t.Errorf("Provider = %v, want openai", cfg.Oracle.Provider)
	}
	hc := cfg.HTTPConfig()
	if hc.Model != "gpt-4o-mini" || hc.APIKeyHeader != "api-key" || hc.BaseURL != "https://example.openai.azure.com/openai/v1" {
		t.Errorf("HTTPConfig() = %+v", hc)
	}
	if hc.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0", hc.Temperature)
	}

	lc := cfg.LoggingConfig()
	if lc.Level != slog.LevelDebug || !lc.JSON {
		t.Errorf("LoggingConfig() = %+v", lc)
	}

	if !cfg.Journal.Enabled || cfg.MongoDBConfig().URI != "mongodb://db:27017" {
		t.Errorf("Journal = %+v", cfg.Journal)
	}
	if cfg.Capture.SaveDir != "/tmp/snaps" {
		t.Errorf("SaveDir = %v, want /tmp/snaps", cfg.Capture.SaveDir)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "oracle:\n  model: from-file\n")
	t.Setenv("WEBPILOT_ORACLE_API_KEY", "secret")
	t.Setenv("WEBPILOT_ORACLE_MODEL", "from-env")
	t.Setenv("WEBPILOT_BROWSER_HEADLESS", "false")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Oracle.APIKey != "secret" {
		t.Errorf("APIKey = %q, want secret", cfg.Oracle.APIKey)
	}
	if cfg.Oracle.Model != "from-env" {
		t.Errorf("Model = %q, want from-env", cfg.Oracle.Model)
	}
	if cfg.Browser.Headless {
		t.Error("Headless should be overridden to false")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown provider", "oracle:\n  provider: llama\n", "unknown oracle provider"},
		{"bad level", "log:\n  level: loud\n", "unknown log level"},
		{"temperature", "oracle:\n  temperature: 3.5\n", "out of range"},
		{"malformed yaml", "oracle: [\n", "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
