package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the job searcher.
type Config struct {
	DatabasePath string
	Scan         ScanConfig
	Cache        CacheConfig
	AI           AIConfig
	RateLimit    RateLimitConfig
	Retry        RetryConfig
	Notification NotificationConfig
	Sites        []SiteConfig
}

// ScanConfig controls the periodic scan loop.
type ScanConfig struct {
	Interval    time.Duration // gap between full sweeps
	Concurrency int           // sites scanned in parallel
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend  string // "sqlite", "redis", or "off"
	RedisURL string // required when backend is "redis"
}

// AIConfig controls the model fallback extractor and enrichment.
type AIConfig struct {
	Enabled bool
	BaseURL string        // defaults to https://api.openai.com/v1
	Model   string        // model identifier, e.g. "gpt-4o-mini"
	APIKey  string        // expanded from env var by Load
	Timeout time.Duration // per-request timeout
}

// RateLimitConfig controls the per-domain limiter.
type RateLimitConfig struct {
	BaseDelay     time.Duration // minimum gap between requests to the same domain
	MaxConcurrent int           // in-flight requests per domain
}

// RetryConfig controls transient-failure retries on page fetches.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// SiteConfig seeds a tracked company domain and its career page URLs.
type SiteConfig struct {
	Domain     string   `yaml:"domain"`
	Name       string   `yaml:"name"`
	CareerURLs []string `yaml:"career_urls"`
}

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	DatabasePath string             `yaml:"database_path"`
	Scan         rawScanConfig      `yaml:"scan"`
	Cache        CacheConfig        `yaml:"cache"`
	AI           rawAIConfig        `yaml:"ai"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Retry        rawRetryConfig     `yaml:"retry"`
	Notification NotificationConfig `yaml:"notification"`
	Sites        []SiteConfig       `yaml:"sites"`
}

type rawScanConfig struct {
	Interval    string `yaml:"interval"`
	Concurrency int    `yaml:"concurrency"`
}

type rawAIConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type rawRateLimitConfig struct {
	BaseDelay     string `yaml:"base_delay"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

type rawRetryConfig struct {
	MaxRetries int    `yaml:"max_retries"`
	BaseDelay  string `yaml:"base_delay"`
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	interval := 6 * time.Hour // default: 6 hours between sweeps
	if raw.Scan.Interval != "" {
		interval, err = time.ParseDuration(raw.Scan.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse scan.interval %q: %w", raw.Scan.Interval, err)
		}
	}

	concurrency := raw.Scan.Concurrency
	if concurrency == 0 {
		concurrency = 3
	}

	rateDelay := 2 * time.Second
	if raw.RateLimit.BaseDelay != "" {
		rateDelay, err = time.ParseDuration(raw.RateLimit.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.base_delay %q: %w", raw.RateLimit.BaseDelay, err)
		}
	}
	maxConcurrent := raw.RateLimit.MaxConcurrent
	if maxConcurrent == 0 {
		maxConcurrent = 2
	}

	maxRetries := raw.Retry.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	retryDelay := 1 * time.Second
	if raw.Retry.BaseDelay != "" {
		retryDelay, err = time.ParseDuration(raw.Retry.BaseDelay)
		if err != nil {
			return nil, fmt.Errorf("parse retry.base_delay %q: %w", raw.Retry.BaseDelay, err)
		}
	}

	aiTimeout := 60 * time.Second // default
	if raw.AI.Timeout != "" {
		aiTimeout, err = time.ParseDuration(raw.AI.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse ai.timeout %q: %w", raw.AI.Timeout, err)
		}
	}

	aiBaseURL := raw.AI.BaseURL
	if aiBaseURL == "" {
		aiBaseURL = defaultOpenAIBaseURL
	}

	dbPath := raw.DatabasePath
	if dbPath == "" {
		dbPath = "jobs.db"
	}

	backend := raw.Cache.Backend
	if backend == "" {
		backend = "sqlite"
	}

	notifType := raw.Notification.Type
	if notifType == "" {
		notifType = "log"
	}

	cfg := &Config{
		DatabasePath: dbPath,
		Scan: ScanConfig{
			Interval:    interval,
			Concurrency: concurrency,
		},
		Cache: CacheConfig{
			Backend:  backend,
			RedisURL: raw.Cache.RedisURL,
		},
		AI: AIConfig{
			Enabled: raw.AI.Enabled,
			BaseURL: aiBaseURL,
			Model:   raw.AI.Model,
			APIKey:  raw.AI.APIKey,
			Timeout: aiTimeout,
		},
		RateLimit: RateLimitConfig{
			BaseDelay:     rateDelay,
			MaxConcurrent: maxConcurrent,
		},
		Retry: RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  retryDelay,
		},
		Notification: NotificationConfig{
			Type:       notifType,
			WebhookURL: raw.Notification.WebhookURL,
		},
		Sites: raw.Sites,
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Scan.Interval < time.Minute {
		return fmt.Errorf("scan.interval must be at least 1m, got %v", cfg.Scan.Interval)
	}
	if cfg.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be positive, got %d", cfg.Scan.Concurrency)
	}

	switch cfg.Cache.Backend {
	case "sqlite", "off":
	case "redis":
		if cfg.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("cache.backend must be \"sqlite\", \"redis\", or \"off\", got %q", cfg.Cache.Backend)
	}

	switch cfg.Notification.Type {
	case "log":
	case "slack":
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}

	if cfg.AI.Enabled {
		if cfg.AI.APIKey == "" {
			return fmt.Errorf("ai.api_key is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	seen := make(map[string]bool)
	for i, s := range cfg.Sites {
		if s.Domain == "" {
			return fmt.Errorf("sites[%d].domain is required", i)
		}
		if seen[s.Domain] {
			return fmt.Errorf("duplicate site domain %q", s.Domain)
		}
		seen[s.Domain] = true
		for _, u := range s.CareerURLs {
			if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
				return fmt.Errorf("sites[%d] career url %q must be absolute", i, u)
			}
		}
	}

	return nil
}
