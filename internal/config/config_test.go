package config

import (
	"os"
	"testing"
)

const sampleConfig = `
llm:
  base_url: https://api.example.com/v1
  api_key: dummy
  model: gpt-4o
  system_prompt: Be terse.
server:
  host: 127.0.0.1
  port: "9090"
  rate_rps: 2
  rate_burst: 5
history:
  path: /tmp/sessions.db
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmp, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		t.Fatalf("write: %v", err)
	}
	tmp.Close()
	return tmp.Name()
}

// TestLoad verifies that Load unmarshals a full configuration file.
func TestLoad(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, sampleConfig))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.BaseURL != "https://api.example.com/v1" {
		t.Fatalf("unexpected base_url: %s", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Fatalf("unexpected model: %s", cfg.LLM.Model)
	}
	if cfg.LLM.SystemPrompt != "Be terse." {
		t.Fatalf("unexpected system_prompt: %s", cfg.LLM.SystemPrompt)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != "9090" {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RateRPS != 2 || cfg.Server.RateBurst != 5 {
		t.Fatalf("unexpected rate limit config: %+v", cfg.Server)
	}
	if cfg.History.Path != "/tmp/sessions.db" {
		t.Fatalf("unexpected history path: %s", cfg.History.Path)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %s", cfg.Log.Level)
	}
}

// TestLoad_Defaults verifies defaults for omitted keys.
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "llm:\n  api_key: dummy\n"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.BaseURL != "https://api.openai.com/v1" {
		t.Fatalf("unexpected default base_url: %s", cfg.LLM.BaseURL)
	}
	if cfg.LLM.Model != "deepseek-chat" {
		t.Fatalf("unexpected default model: %s", cfg.LLM.Model)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("unexpected default port: %s", cfg.Server.Port)
	}
	if cfg.History.Path != "nexus.db" {
		t.Fatalf("unexpected default history path: %s", cfg.History.Path)
	}
}

// TestLoad_APIKeyFromEnv verifies that OPENAI_API_KEY overrides the file.
func TestLoad_APIKeyFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", writeConfig(t, "llm:\n  model: gpt-4o\n"))
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Fatalf("expected api key from env, got %q", cfg.LLM.APIKey)
	}
}

// TestLoad_MissingFile verifies that a missing config file is an error.
func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/nonexistent/config.yaml")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
