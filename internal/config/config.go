// Package config provides application configuration loaded from an
// optional YAML file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	HTTP      HTTPConfig      `yaml:"http"`
	Session   SessionConfig   `yaml:"session"`
	Database  DatabaseConfig  `yaml:"database"`
	Generator GeneratorConfig `yaml:"generator"`
}

// HTTPConfig configures the health/metrics/stats server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SessionConfig selects and tunes the session store driver.
type SessionConfig struct {
	// Driver is "memory" or "redis".
	Driver string `yaml:"driver"`

	// IdleTTL bounds memory: sessions idle longer than this are evicted.
	IdleTTL time.Duration `yaml:"idle_ttl"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the redis session driver.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// DatabaseConfig configures the sqlite record store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GeneratorConfig configures the generation facade.
type GeneratorConfig struct {
	APIKey         string        `yaml:"api_key"`
	APIURL         string        `yaml:"api_url"`
	Model          string        `yaml:"model"`
	FallbackModels []string      `yaml:"fallback_models"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTP:     HTTPConfig{Addr: ":8080"},
		Session: SessionConfig{
			Driver:  "memory",
			IdleTTL: 24 * time.Hour,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "smmbot:session:"},
		},
		Database: DatabaseConfig{Path: "./data/smmbot.db"},
		Generator: GeneratorConfig{
			APIURL:      "https://openrouter.ai/api/v1/chat/completions",
			Model:       "deepseek/deepseek-chat",
			Temperature: 0.7,
			MaxTokens:   1000,
			Timeout:     60 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any), then environment variables. A .env file in the working directory is
// honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.HTTP.Addr = getEnv("HTTP_ADDR", c.HTTP.Addr)
	c.Session.Driver = getEnv("SESSION_DRIVER", c.Session.Driver)
	c.Session.Redis.Addr = getEnv("REDIS_ADDR", c.Session.Redis.Addr)
	c.Session.Redis.Password = getEnv("REDIS_PASSWORD", c.Session.Redis.Password)
	c.Session.Redis.DB = getEnvInt("REDIS_DB", c.Session.Redis.DB)
	c.Database.Path = getEnv("DB_PATH", c.Database.Path)
	c.Generator.APIKey = getEnv("OPENROUTER_API_KEY", c.Generator.APIKey)
	c.Generator.APIURL = getEnv("OPENROUTER_API_URL", c.Generator.APIURL)
	c.Generator.Model = getEnv("OPENROUTER_MODEL", c.Generator.Model)

	if v, ok := os.LookupEnv("OPENROUTER_FALLBACK_MODELS"); ok {
		var models []string
		for _, m := range strings.Split(v, ",") {
			if m = strings.TrimSpace(m); m != "" {
				models = append(models, m)
			}
		}
		c.Generator.FallbackModels = models
	}
}

// Validate checks that required fields are set and bounds are sane.
func (c *Config) Validate() error {
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("session.driver must be \"memory\" or \"redis\", got %q", c.Session.Driver)
	}
	if c.Session.IdleTTL <= 0 {
		return fmt.Errorf("session.idle_ttl must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if c.Generator.APIURL == "" {
		return fmt.Errorf("generator.api_url cannot be empty")
	}
	if c.Generator.Timeout <= 0 {
		return fmt.Errorf("generator.timeout must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}
