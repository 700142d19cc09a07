// Package config lê a configuração do processo: variáveis de ambiente com
// defaults, opcionalmente sobre um arquivo YAML apontado por POORBOX_CONFIG.
// O ambiente sempre vence o arquivo.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	BasePath   string `yaml:"base_path"`
	// PublicURL, se definido, é a base das URLs devolvidas ao cliente.
	PublicURL string `yaml:"public_url"`

	EndpointTTLSeconds int   `yaml:"endpoint_ttl"`
	MaxPotential       int64 `yaml:"max_potential"`

	RateLimit           int           `yaml:"rate_limit"`
	RateWindow          time.Duration `yaml:"rate_window"`
	RateKeyHeader       string        `yaml:"rate_key_header"`
	TrustXFF            bool          `yaml:"trust_xff"`
	AddRateLimitHeaders bool          `yaml:"add_ratelimit_headers"`

	StoreBackend string `yaml:"store_backend"`
	Redis        Redis  `yaml:"redis"`

	GeneratorURL     string        `yaml:"random_service"`
	GeneratorTimeout time.Duration `yaml:"generator_timeout"`
	GeneratorRPS     float64       `yaml:"generator_rps"`
	GeneratorBurst   int           `yaml:"generator_burst"`

	ConcurrencyMax     int           `yaml:"concurrency_max"`
	ConcurrencyTimeout time.Duration `yaml:"concurrency_timeout"`

	StatsBackend   string        `yaml:"stats_backend"`
	StatsPrefix    string        `yaml:"stats_prefix"`
	StatsBucketTTL time.Duration `yaml:"stats_bucket_ttl"`

	LogLevel string `yaml:"log_level"`
}

func Defaults() Config {
	return Config{
		ListenAddr:         ":8010",
		BasePath:           "/poorbox/api",
		EndpointTTLSeconds: 120,
		MaxPotential:       10000,
		RateLimit:          10,
		RateWindow:         10 * time.Second,
		StoreBackend:       BackendMemory,
		Redis:              Redis{Prefix: "poorbox:endpoint"},
		GeneratorTimeout:   5 * time.Second,
		GeneratorRPS:       50,
		GeneratorBurst:     100,
		ConcurrencyMax:     100,
		StatsBackend:       BackendMemory,
		StatsPrefix:        "poorbox:usage",
		StatsBucketTTL:     24 * time.Hour,
		LogLevel:           "INFO",
	}
}

func (c Config) EndpointTTL() time.Duration {
	return time.Duration(c.EndpointTTLSeconds) * time.Second
}

func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("POORBOX_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	cfg.BasePath = normalizeBasePath(cfg.BasePath)
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.StatsBackend = strings.ToLower(strings.TrimSpace(cfg.StatsBackend))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.ListenAddr = getenvDefault("LISTEN_ADDR", cfg.ListenAddr)
	cfg.BasePath = getenvDefault("BASE_PATH", cfg.BasePath)
	cfg.PublicURL = getenvDefault("PUBLIC_URL", cfg.PublicURL)
	cfg.EndpointTTLSeconds = getenvIntDefault("ENDPOINT_TTL", cfg.EndpointTTLSeconds)
	cfg.MaxPotential = int64(getenvIntDefault("MAX_POTENTIAL", int(cfg.MaxPotential)))

	cfg.RateLimit = getenvIntDefault("RATE_LIMIT", cfg.RateLimit)
	cfg.RateWindow = getenvDurationDefault("RATE_WINDOW", cfg.RateWindow)
	cfg.RateKeyHeader = getenvDefault("RATE_KEY_HEADER", cfg.RateKeyHeader)
	cfg.TrustXFF = getenvBoolDefault("TRUST_XFF", cfg.TrustXFF)
	cfg.AddRateLimitHeaders = getenvBoolDefault("ADD_RATELIMIT_HEADERS", cfg.AddRateLimitHeaders)

	cfg.StoreBackend = getenvDefault("STORE_BACKEND", cfg.StoreBackend)
	cfg.Redis.Addr = getenvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getenvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvIntDefault("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Prefix = getenvDefault("REDIS_PREFIX", cfg.Redis.Prefix)

	cfg.GeneratorURL = getenvDefault("RANDOM_SERVICE", cfg.GeneratorURL)
	cfg.GeneratorTimeout = getenvDurationDefault("GENERATOR_TIMEOUT", cfg.GeneratorTimeout)
	cfg.GeneratorRPS = getenvFloatDefault("GENERATOR_RPS", cfg.GeneratorRPS)
	cfg.GeneratorBurst = getenvIntDefault("GENERATOR_BURST", cfg.GeneratorBurst)

	cfg.ConcurrencyMax = getenvIntDefault("CONCURRENCY_MAX", cfg.ConcurrencyMax)
	cfg.ConcurrencyTimeout = getenvDurationDefault("CONCURRENCY_TIMEOUT", cfg.ConcurrencyTimeout)

	cfg.StatsBackend = getenvDefault("STATS_BACKEND", cfg.StatsBackend)
	cfg.StatsPrefix = getenvDefault("STATS_PREFIX", cfg.StatsPrefix)
	cfg.StatsBucketTTL = getenvDurationDefault("STATS_BUCKET_TTL", cfg.StatsBucketTTL)

	cfg.LogLevel = getenvDefault("LOG_LEVEL", cfg.LogLevel)
}

func (c Config) Validate() error {
	if c.EndpointTTLSeconds <= 0 {
		return errors.New("ENDPOINT_TTL must be > 0")
	}
	if c.MaxPotential < 0 {
		return errors.New("MAX_POTENTIAL must be >= 0")
	}
	if c.RateLimit <= 0 {
		return errors.New("RATE_LIMIT must be > 0")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be > 0")
	}
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("REDIS_ADDR is required when STORE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.StoreBackend)
	}
	switch c.StatsBackend {
	case BackendMemory, BackendNone:
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("REDIS_ADDR is required when STATS_BACKEND=redis")
		}
	default:
		return fmt.Errorf("STATS_BACKEND must be %q, %q or %q, got %q", BackendMemory, BackendRedis, BackendNone, c.StatsBackend)
	}
	if strings.TrimSpace(c.GeneratorURL) == "" {
		return errors.New("RANDOM_SERVICE is required")
	}
	if c.GeneratorTimeout <= 0 {
		return errors.New("GENERATOR_TIMEOUT must be > 0")
	}
	if c.ConcurrencyMax < 0 {
		return errors.New("CONCURRENCY_MAX must be >= 0")
	}
	return nil
}

// UsesRedis informa se algum backend precisa da conexão Redis.
func (c Config) UsesRedis() bool {
	return c.StoreBackend == BackendRedis || c.StatsBackend == BackendRedis
}

// normalizeBasePath garante "/" inicial e nenhuma "/" final; "/" vira "".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return ""
	}
	return "/" + p
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
