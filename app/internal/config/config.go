package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port   string `yaml:"port"`
	DBPath string `yaml:"db_path"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Indicator cache; RedisURL empty means in-process memory cache
	CacheTTL time.Duration `yaml:"cache_ttl"`
	RedisURL string        `yaml:"redis_url"`

	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	ReportTitle        string `yaml:"report_title"`
	MetricsEnabled     bool   `yaml:"metrics_enabled"`
	ActivityKeep       int    `yaml:"activity_keep"`

	// TrustedProxies are the CIDRs or IPs whose X-Forwarded-For is believed
	TrustedProxies []string `yaml:"trusted_proxies"`

	// ConfigFile is the YAML file the values were read from, if any
	ConfigFile string `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Port:               "4555",
		DBPath:             "./maintenance.db",
		LogLevel:           "info",
		LogFormat:          "text",
		CacheTTL:           30 * time.Second,
		RateLimitPerMinute: 120,
		ReportTitle:        "Maintenance Report",
		MetricsEnabled:     true,
		ActivityKeep:       10000,
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables. Environment values win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := getenv("CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads the YAML file at path on top of the defaults, without
// consulting the environment. Used when the file changes at runtime.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = path
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getenv("PORT", cfg.Port)
	cfg.DBPath = getenv("DB_PATH", cfg.DBPath)
	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(getenv("LOG_FORMAT", cfg.LogFormat))
	cfg.CacheTTL = envDurSecs("CACHE_TTL_SECONDS", int(cfg.CacheTTL/time.Second))
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.RateLimitPerMinute = envInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMinute)
	cfg.ReportTitle = getenv("REPORT_TITLE", cfg.ReportTitle)
	cfg.MetricsEnabled = envBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.ActivityKeep = envInt("ACTIVITY_KEEP", cfg.ActivityKeep)
	if v := getenv("TRUSTED_PROXIES", ""); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validate(cfg *Config) error {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("port %q is not a valid TCP port", cfg.Port)
	}
	if cfg.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format %q unknown: want text|json", cfg.LogFormat)
	}
	if cfg.CacheTTL <= 0 {
		return errors.New("cache_ttl must be positive")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate_limit_per_minute must be positive, got %d", cfg.RateLimitPerMinute)
	}
	if cfg.ActivityKeep < 0 {
		return errors.New("activity_keep must not be negative")
	}
	return nil
}

// Helper functions
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(k string, def bool) bool {
	v := strings.ToLower(getenv(k, ""))
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "yes"
}

func envDurSecs(k string, def int) time.Duration {
	return time.Duration(envInt(k, def)) * time.Second
}
