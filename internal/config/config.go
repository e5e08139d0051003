// Package config loads AuraMatch settings from defaults, an optional YAML file
// and AURA_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Audio    AudioConfig    `koanf:"audio"`
	Matcher  MatcherConfig  `koanf:"matcher"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	MaxUploadMB     int64         `koanf:"max_upload_mb" validate:"min=1"`
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AudioConfig struct {
	TempDir    string `koanf:"temp_dir" validate:"required"`
	SampleRate int    `koanf:"sample_rate" validate:"min=8000,max=192000"`
	PeakPoints int    `koanf:"peak_points" validate:"min=10,max=100000"`
}

type MatcherConfig struct {
	StepSize    int `koanf:"step_size" validate:"min=1"`
	ResultLimit int `koanf:"result_limit" validate:"min=1,max=1000"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=console json"`
}

var validate = validator.New()

// Validate checks field constraints declared in the struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
