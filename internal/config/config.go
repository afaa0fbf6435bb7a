// Package config loads service configuration from an optional YAML file
// with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/simpleecom/services/internal/logging"
)

// Duration wraps time.Duration so YAML values like "30m" parse naturally.
type Duration time.Duration

// UnmarshalYAML accepts either a Go duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value")
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the configuration shared by all services. Loaded once at
// startup and treated as read-only afterwards.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8081".
	ListenAddr string `yaml:"listen_addr"`

	// DatabaseURL is the postgres connection string.
	DatabaseURL string `yaml:"database_url"`

	// RedisAddr enables the redis cache when non-empty.
	RedisAddr string `yaml:"redis_addr"`

	// JWTSecret is the deployment-wide symmetric signing key. Required.
	JWTSecret string `yaml:"jwt_secret"`

	// JWTTTL is the lifetime of issued session tokens.
	JWTTTL Duration `yaml:"jwt_ttl"`

	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `yaml:"cors_origins"`

	// Seed enables sample-data bootstrapping on startup.
	Seed bool `yaml:"seed"`

	Log logging.Config `yaml:"log"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() Config {
	return Config{
		ListenAddr:  ":8080",
		JWTTTL:      Duration(time.Hour),
		CORSOrigins: []string{"*"},
		Log:         logging.Config{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (path taken from CONFIG_FILE when set) and environment variables, in
// that order of precedence.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required (set JWT_SECRET)")
	}
	if c.JWTTTL < 0 {
		return fmt.Errorf("jwt ttl must not be negative")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("database url is required (set DATABASE_URL)")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWTTTL = Duration(d)
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("SEED"); v != "" {
		cfg.Seed = v == "true" || v == "1"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
