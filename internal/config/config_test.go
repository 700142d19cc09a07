package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var keys = []string{
	"POORBOX_CONFIG", "LISTEN_ADDR", "BASE_PATH", "PUBLIC_URL", "ENDPOINT_TTL", "MAX_POTENTIAL",
	"RATE_LIMIT", "RATE_WINDOW", "RATE_KEY_HEADER", "TRUST_XFF", "ADD_RATELIMIT_HEADERS",
	"STORE_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_PREFIX",
	"RANDOM_SERVICE", "GENERATOR_TIMEOUT", "GENERATOR_RPS", "GENERATOR_BURST",
	"CONCURRENCY_MAX", "CONCURRENCY_TIMEOUT", "STATS_BACKEND", "STATS_PREFIX", "STATS_BUCKET_TTL",
	"LOG_LEVEL",
}

// cleanEnv zera todas as variáveis lidas por Load (vazio = default).
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("RANDOM_SERVICE", "http://random:8020")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenAddr != ":8010" || cfg.BasePath != "/poorbox/api" {
		t.Fatalf("unexpected listen/base: %q %q", cfg.ListenAddr, cfg.BasePath)
	}
	if cfg.EndpointTTL() != 120*time.Second {
		t.Fatalf("expected 120s ttl, got %s", cfg.EndpointTTL())
	}
	if cfg.MaxPotential != 10000 || cfg.RateLimit != 10 || cfg.RateWindow != 10*time.Second {
		t.Fatalf("unexpected limits: %+v", cfg)
	}
	if cfg.StoreBackend != BackendMemory || cfg.StatsBackend != BackendMemory || cfg.UsesRedis() {
		t.Fatalf("expected memory backends, got %q %q", cfg.StoreBackend, cfg.StatsBackend)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("RANDOM_SERVICE", "http://random:8020")
	t.Setenv("BASE_PATH", "api/")
	t.Setenv("ENDPOINT_TTL", "30")
	t.Setenv("MAX_POTENTIAL", "500")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("RATE_WINDOW", "1m")
	t.Setenv("TRUST_XFF", "true")
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BasePath != "/api" {
		t.Fatalf("expected normalized base path, got %q", cfg.BasePath)
	}
	if cfg.EndpointTTLSeconds != 30 || cfg.MaxPotential != 500 || cfg.RateLimit != 3 || cfg.RateWindow != time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if !cfg.TrustXFF || cfg.StoreBackend != BackendRedis || cfg.Redis.DB != 2 || !cfg.UsesRedis() {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "poorbox.yaml")
	content := `
random_service: http://from-file:8020
endpoint_ttl: 60
rate_window: 5s
redis:
  addr: redis:6379
  prefix: custom:endpoint
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("POORBOX_CONFIG", path)
	t.Setenv("ENDPOINT_TTL", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GeneratorURL != "http://from-file:8020" {
		t.Fatalf("expected generator from file, got %q", cfg.GeneratorURL)
	}
	if cfg.EndpointTTLSeconds != 90 {
		t.Fatalf("expected env to win over file, got %d", cfg.EndpointTTLSeconds)
	}
	if cfg.RateWindow != 5*time.Second || cfg.Redis.Addr != "redis:6379" || cfg.Redis.Prefix != "custom:endpoint" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.RateLimit != 10 {
		t.Fatalf("expected default for keys absent from file, got %d", cfg.RateLimit)
	}
}

func TestLoad_FileUnknownKey(t *testing.T) {
	cleanEnv(t)
	path := filepath.Join(t.TempDir(), "poorbox.yaml")
	if err := os.WriteFile(path, []byte("endpoint_tll: 60\n"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("POORBOX_CONFIG", path)
	t.Setenv("RANDOM_SERVICE", "http://random:8020")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "endpoint_tll") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoad_FileMissing(t *testing.T) {
	cleanEnv(t)
	t.Setenv("POORBOX_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	valid := Defaults()
	valid.GeneratorURL = "http://random:8020"

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ttl", func(c *Config) { c.EndpointTTLSeconds = 0 }, "ENDPOINT_TTL"},
		{"potential", func(c *Config) { c.MaxPotential = -1 }, "MAX_POTENTIAL"},
		{"limit", func(c *Config) { c.RateLimit = 0 }, "RATE_LIMIT"},
		{"window", func(c *Config) { c.RateWindow = 0 }, "RATE_WINDOW"},
		{"backend", func(c *Config) { c.StoreBackend = "etcd" }, "STORE_BACKEND"},
		{"redis addr", func(c *Config) { c.StoreBackend = BackendRedis }, "REDIS_ADDR"},
		{"stats redis addr", func(c *Config) { c.StatsBackend = BackendRedis }, "REDIS_ADDR"},
		{"stats backend", func(c *Config) { c.StatsBackend = "kafka" }, "STATS_BACKEND"},
		{"generator", func(c *Config) { c.GeneratorURL = " " }, "RANDOM_SERVICE"},
		{"generator timeout", func(c *Config) { c.GeneratorTimeout = 0 }, "GENERATOR_TIMEOUT"},
		{"concurrency", func(c *Config) { c.ConcurrencyMax = -1 }, "CONCURRENCY_MAX"},
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected defaults + generator to be valid, got %v", err)
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"/":             "",
		"poorbox/api":   "/poorbox/api",
		"/poorbox/api/": "/poorbox/api",
		" /x ":          "/x",
	}
	for in, want := range cases {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q): expected %q, got %q", in, want, got)
		}
	}
}
