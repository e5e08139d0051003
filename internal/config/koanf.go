package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/aurastream/auramatch/pkg/auramatch"
	"github.com/aurastream/auramatch/pkg/auramatch/audio"
	"github.com/aurastream/auramatch/pkg/auramatch/peaks"
	"github.com/aurastream/auramatch/pkg/auramatch/similarity"
	"github.com/aurastream/auramatch/pkg/auramatch/storage"
)

// DefaultConfigPaths are searched in order when AURA_CONFIG is unset.
var DefaultConfigPaths = []string{
	"auramatch.yaml",
	"auramatch.yml",
	"/etc/auramatch/config.yaml",
}

const ConfigPathEnvVar = "AURA_CONFIG"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
			MaxUploadMB:     100,
		},
		Database: DatabaseConfig{
			Path: storage.DefaultDBFile,
		},
		Audio: AudioConfig{
			TempDir:    auramatch.DefaultTempDir,
			SampleRate: audio.DefaultSampleRate,
			PeakPoints: peaks.DefaultPoints,
		},
		Matcher: MatcherConfig{
			StepSize:    similarity.DefaultStepSize,
			ResultLimit: auramatch.DefaultResultLimit,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Default returns the built-in configuration without reading files or env.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration with precedence ENV > file > defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// AURA_SERVER_PORT -> server.port, AURA_DB_PATH -> database.path
	if err := k.Load(env.Provider("AURA_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"host":              "server.host",
	"port":              "server.port",
	"read_timeout":      "server.read_timeout",
	"write_timeout":     "server.write_timeout",
	"cors_origins":      "server.cors_origins",
	"rate_limit_reqs":   "server.rate_limit_reqs",
	"rate_limit_window": "server.rate_limit_window",
	"max_upload_mb":     "server.max_upload_mb",
	"db_path":           "database.path",
	"temp_dir":          "audio.temp_dir",
	"sample_rate":       "audio.sample_rate",
	"peak_points":       "audio.peak_points",
	"step_size":         "matcher.step_size",
	"result_limit":      "matcher.result_limit",
	"log_level":         "logging.level",
	"log_format":        "logging.format",
}

// envTransformFunc maps AURA_* variables to config paths. Unknown keys are
// dropped so stray variables cannot pollute the config.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "AURA_"))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
