// Package config provides configuration loading, validation, and management
// for the FortuneCast service. It reads config.yaml, applies defaults,
// overlays FORTUNECAST_* environment variables, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config defines the application configuration parameters for all components
// of the FortuneCast service: logging, HTTP server, AI provider, history
// storage, and scheduled maintenance.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Server      ServerConfig      `mapstructure:"server"`
	AI          AIConfig          `mapstructure:"ai"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port" validate:"required,min=1,max=65535"`
}

// AIConfig controls the LLM provider used to generate recommendations.
type AIConfig struct {
	Provider     string        `mapstructure:"provider"      validate:"oneof=gemini openai"`
	Token        string        `mapstructure:"token"         validate:"required"`
	BaseURL      string        `mapstructure:"base_url"      validate:"omitempty,url"`
	Model        string        `mapstructure:"model"         validate:"required"`
	Temperature  float32       `mapstructure:"temperature"   validate:"min=0,max=2"`
	Timeout      time.Duration `mapstructure:"timeout"       validate:"min=1s,max=10m"`
	MaxRetries   int           `mapstructure:"max_retries"   validate:"min=0,max=10"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"   validate:"min=0"`
	HistoryLimit int           `mapstructure:"history_limit" validate:"min=0,max=500"`
}

// DatabaseConfig selects and configures the session history backend.
type DatabaseConfig struct {
	Backend   string `mapstructure:"backend"    validate:"oneof=sqlite redis"`
	Path      string `mapstructure:"path"`
	RedisAddr string `mapstructure:"redis_addr"`
}

// MaintenanceConfig controls the scheduled database maintenance job.
type MaintenanceConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"omitempty,min=1m"`
}

// Load reads configuration from the given YAML file path, applies defaults
// and FORTUNECAST_* environment variables, and validates the result. A
// missing config file is not an error; a local .env file, if present, is
// loaded into the environment first.
func Load(path string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("FORTUNECAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", true)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.token", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.temperature", 1.0)
	v.SetDefault("ai.timeout", 2*time.Minute)
	v.SetDefault("ai.max_retries", 2)
	v.SetDefault("ai.retry_delay", 5*time.Second)
	v.SetDefault("ai.history_limit", 50)

	v.SetDefault("database.backend", "sqlite")
	v.SetDefault("database.path", "sqlite_recommend.db")
	v.SetDefault("database.redis_addr", "localhost:6379")

	v.SetDefault("maintenance.enabled", true)
	v.SetDefault("maintenance.interval", 24*time.Hour)
}
