// Package config resolves the console's runtime settings. Environment
// variables are the primary source; an optional YAML file (CONSOLE_CONFIG)
// supplies defaults that env vars override.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port            string        `yaml:"port"`
	DatabaseURL     string        `yaml:"database_url"`
	AdminToken      string        `yaml:"admin_token"`
	ReviewerSubject string        `yaml:"reviewer_subject"`
	SeedDir         string        `yaml:"seed_dir"`
	DraftTTL        time.Duration `yaml:"-"`
	DraftTTLMinutes int           `yaml:"draft_ttl_minutes"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	LogLevel        string        `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Port:            "8086",
		ReviewerSubject: "console-admin",
		DraftTTLMinutes: 60,
		MaxBodyBytes:    1 << 20,
		LogLevel:        "info",
	}
}

// Load reads CONSOLE_CONFIG (when set) and then the environment.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("CONSOLE_CONFIG")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg.Port, "SERVICE_PORT")
	applyEnv(&cfg.DatabaseURL, "DATABASE_URL")
	applyEnv(&cfg.AdminToken, "CONSOLE_ADMIN_TOKEN")
	applyEnv(&cfg.ReviewerSubject, "CONSOLE_REVIEWER_SUBJECT")
	applyEnv(&cfg.SeedDir, "CONSOLE_SEED_DIR")
	applyEnv(&cfg.LogLevel, "CONSOLE_LOG_LEVEL")
	cfg.DraftTTLMinutes = envIntDefault("CONSOLE_DRAFT_TTL_MINUTES", cfg.DraftTTLMinutes)
	if v := envIntDefault("CONSOLE_MAX_BODY_BYTES", 0); v > 0 {
		cfg.MaxBodyBytes = int64(v)
	}

	if cfg.DraftTTLMinutes <= 0 {
		cfg.DraftTTLMinutes = 60
	}
	cfg.DraftTTL = time.Duration(cfg.DraftTTLMinutes) * time.Minute
	return cfg, nil
}

func applyEnv(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func envIntDefault(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
