// Package config loads taskdeck settings from an optional YAML file,
// TASKDECK_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	DefaultPath       = ".taskdeck/config.yaml"
	DefaultBaseURL    = "http://localhost:8123"
	DefaultCreatePath = "/api/task/create"
	DefaultLogFile    = ".taskdeck/taskdeck.log"
	EnvPrefix         = "TASKDECK"
)

type Server struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type API struct {
	CreatePath string `mapstructure:"create_path" validate:"oneof=/api/task/create /api/tasks"`
}

type Poll struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

type Batches struct {
	WindowDays int `mapstructure:"window_days" validate:"min=1"`
}

type UI struct {
	Locale string `mapstructure:"locale" validate:"omitempty,oneof=en zh"`
}

type Logger struct {
	Level      string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	Output     string `mapstructure:"output" validate:"oneof=stderr stdout file"`
	OutputFile string `mapstructure:"output_file"`
}

type Breaker struct {
	MaxFailures uint32        `mapstructure:"max_failures" validate:"min=1"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
}

type Config struct {
	Server  Server  `mapstructure:"server"`
	API     API     `mapstructure:"api"`
	Poll    Poll    `mapstructure:"poll"`
	Batches Batches `mapstructure:"batches"`
	UI      UI      `mapstructure:"ui"`
	Logger  Logger  `mapstructure:"logger"`
	Breaker Breaker `mapstructure:"breaker"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.base_url", DefaultBaseURL)
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("api.create_path", DefaultCreatePath)
	v.SetDefault("poll.interval", 30*time.Second)
	v.SetDefault("batches.window_days", 30)
	v.SetDefault("ui.locale", "en")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.output_file", DefaultLogFile)
	v.SetDefault("breaker.max_failures", 5)
	v.SetDefault("breaker.open_timeout", 10*time.Second)
}

// New returns a viper instance with defaults and env binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (if it exists) into v and decodes the result.
// A missing file at the default path is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	return Decode(v)
}

// Decode unmarshals and validates the current state of v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
