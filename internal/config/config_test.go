package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aurastream/auramatch/pkg/auramatch"
	"github.com/aurastream/auramatch/pkg/auramatch/audio"
	"github.com/aurastream/auramatch/pkg/auramatch/peaks"
	"github.com/aurastream/auramatch/pkg/auramatch/similarity"
	"github.com/aurastream/auramatch/pkg/auramatch/storage"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(ConfigPathEnvVar, "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Matcher.StepSize != 5 {
		t.Errorf("Expected step size 5, got %d", cfg.Matcher.StepSize)
	}
	if cfg.Matcher.ResultLimit != 10 {
		t.Errorf("Expected result limit 10, got %d", cfg.Matcher.ResultLimit)
	}
	if cfg.Audio.PeakPoints != 1000 {
		t.Errorf("Expected 1000 peak points, got %d", cfg.Audio.PeakPoints)
	}
	if cfg.Server.RateLimitWindow != time.Minute {
		t.Errorf("Expected 1m rate limit window, got %v", cfg.Server.RateLimitWindow)
	}
}

func TestDefaultsMatchLibrary(t *testing.T) {
	cfg := Default()

	if cfg.Database.Path != storage.DefaultDBFile {
		t.Errorf("database path %q, library default %q", cfg.Database.Path, storage.DefaultDBFile)
	}
	if cfg.Audio.TempDir != auramatch.DefaultTempDir {
		t.Errorf("temp dir %q, library default %q", cfg.Audio.TempDir, auramatch.DefaultTempDir)
	}
	if cfg.Audio.SampleRate != audio.DefaultSampleRate {
		t.Errorf("sample rate %d, library default %d", cfg.Audio.SampleRate, audio.DefaultSampleRate)
	}
	if cfg.Audio.PeakPoints != peaks.DefaultPoints {
		t.Errorf("peak points %d, library default %d", cfg.Audio.PeakPoints, peaks.DefaultPoints)
	}
	if cfg.Matcher.StepSize != similarity.DefaultStepSize {
		t.Errorf("step size %d, library default %d", cfg.Matcher.StepSize, similarity.DefaultStepSize)
	}
	if cfg.Matcher.ResultLimit != auramatch.DefaultResultLimit {
		t.Errorf("result limit %d, library default %d", cfg.Matcher.ResultLimit, auramatch.DefaultResultLimit)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	yaml := []byte("server:\n  port: 9000\nmatcher:\n  step_size: 2\nlogging:\n  level: debug\n")
	if err := os.WriteFile(path, yaml, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("AURA_PORT", "9100")
	t.Setenv("AURA_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AURA_RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("Expected env to override file port, got %d", cfg.Server.Port)
	}
	if cfg.Matcher.StepSize != 2 {
		t.Errorf("Expected step size from file, got %d", cfg.Matcher.StepSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected debug level from file, got %q", cfg.Logging.Level)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "https://b.example" {
		t.Errorf("Expected two CORS origins, got %v", cfg.Server.CORSOrigins)
	}
	if cfg.Server.RateLimitWindow != 30*time.Second {
		t.Errorf("Expected 30s window, got %v", cfg.Server.RateLimitWindow)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"zero step", "AURA_STEP_SIZE", "0"},
		{"bad log level", "AURA_LOG_LEVEL", "loud"},
		{"port out of range", "AURA_PORT", "70000"},
		{"low sample rate", "AURA_SAMPLE_RATE", "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.val)

			if _, err := Load(); err == nil {
				t.Errorf("Expected validation error for %s=%s", tt.key, tt.val)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	if got := envTransformFunc("AURA_DB_PATH"); got != "database.path" {
		t.Errorf("Expected database.path, got %q", got)
	}
	if got := envTransformFunc("AURA_UNKNOWN"); got != "" {
		t.Errorf("Expected unknown keys to be dropped, got %q", got)
	}
}

func TestServerAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8081}
	if s.Addr() != "127.0.0.1:8081" {
		t.Errorf("Unexpected addr %q", s.Addr())
	}
}
