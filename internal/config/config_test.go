package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
database_path: /tmp/jobs.db
scan:
  interval: 2h
  concurrency: 5
cache:
  backend: sqlite
rate_limit:
  base_delay: 3s
  max_concurrent: 4
retry:
  max_retries: 2
  base_delay: 500ms
sites:
  - domain: acme.example
    name: Acme
    career_urls:
      - https://acme.example/careers
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "/tmp/jobs.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Scan.Interval != 2*time.Hour || cfg.Scan.Concurrency != 5 {
		t.Errorf("Scan = %+v", cfg.Scan)
	}
	if cfg.RateLimit.BaseDelay != 3*time.Second || cfg.RateLimit.MaxConcurrent != 4 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Retry.MaxRetries != 2 || cfg.Retry.BaseDelay != 500*time.Millisecond {
		t.Errorf("Retry = %+v", cfg.Retry)
	}
	if len(cfg.Sites) != 1 || cfg.Sites[0].Domain != "acme.example" || len(cfg.Sites[0].CareerURLs) != 1 {
		t.Errorf("Sites = %+v", cfg.Sites)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
sites:
  - domain: acme.example
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabasePath != "jobs.db" {
		t.Errorf("DatabasePath = %q, want jobs.db", cfg.DatabasePath)
	}
	if cfg.Scan.Interval != 6*time.Hour {
		t.Errorf("Scan.Interval = %v, want 6h", cfg.Scan.Interval)
	}
	if cfg.Scan.Concurrency != 3 {
		t.Errorf("Scan.Concurrency = %d, want 3", cfg.Scan.Concurrency)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("Cache.Backend = %q, want sqlite", cfg.Cache.Backend)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q, want log", cfg.Notification.Type)
	}
	if cfg.AI.BaseURL != defaultOpenAIBaseURL {
		t.Errorf("AI.BaseURL = %q", cfg.AI.BaseURL)
	}
	if cfg.AI.Timeout != 60*time.Second {
		t.Errorf("AI.Timeout = %v, want 60s", cfg.AI.Timeout)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "sk-test-123")
	cfg, err := Load(writeConfig(t, `
ai:
  enabled: true
  model: gpt-4o-mini
  api_key: ${TEST_OPENAI_KEY}
sites:
  - domain: acme.example
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AI.APIKey != "sk-test-123" {
		t.Errorf("APIKey = %q, want expanded env value", cfg.AI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "scan: [broken"))
	if err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "ai enabled without key",
			content: `
ai:
  enabled: true
  model: gpt-4o-mini
sites:
  - domain: acme.example
`,
			wantErr: "ai.api_key",
		},
		{
			name: "ai enabled without model",
			content: `
ai:
  enabled: true
  api_key: sk-x
sites:
  - domain: acme.example
`,
			wantErr: "ai.model",
		},
		{
			name: "redis backend without url",
			content: `
cache:
  backend: redis
sites:
  - domain: acme.example
`,
			wantErr: "cache.redis_url",
		},
		{
			name: "unknown cache backend",
			content: `
cache:
  backend: memcached
sites:
  - domain: acme.example
`,
			wantErr: "cache.backend",
		},
		{
			name: "slack without webhook",
			content: `
notification:
  type: slack
sites:
  - domain: acme.example
`,
			wantErr: "webhook_url",
		},
		{
			name: "non-slack webhook host",
			content: `
notification:
  type: slack
  webhook_url: https://evil.example/hook
sites:
  - domain: acme.example
`,
			wantErr: "hooks.slack.com",
		},
		{
			name: "duplicate domain",
			content: `
sites:
  - domain: acme.example
  - domain: acme.example
`,
			wantErr: "duplicate site domain",
		},
		{
			name: "relative career url",
			content: `
sites:
  - domain: acme.example
    career_urls:
      - /careers
`,
			wantErr: "must be absolute",
		},
		{
			name: "interval too short",
			content: `
scan:
  interval: 5s
sites:
  - domain: acme.example
`,
			wantErr: "scan.interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load: expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
