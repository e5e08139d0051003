package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aurastream/auramatch/internal/config"
	"github.com/aurastream/auramatch/pkg/auramatch"
	"github.com/aurastream/auramatch/pkg/logger"
)

func main() {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)

	// Flags override file and environment settings.
	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "Path to SQLite database")
	tempDir := flag.String("temp", cfg.Audio.TempDir, "Temporary directory")
	sampleRate := flag.Int("rate", cfg.Audio.SampleRate, "Audio sample rate")
	origins := flag.String("origins", strings.Join(cfg.Server.CORSOrigins, ","), "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Database.Path = *dbPath
	cfg.Audio.TempDir = *tempDir
	cfg.Audio.SampleRate = *sampleRate
	cfg.Server.CORSOrigins = splitOrigins(*origins)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	service, err := auramatch.NewService(
		auramatch.WithDBPath(cfg.Database.Path),
		auramatch.WithTempDir(cfg.Audio.TempDir),
		auramatch.WithSampleRate(cfg.Audio.SampleRate),
		auramatch.WithPeakPoints(cfg.Audio.PeakPoints),
		auramatch.WithStepSize(cfg.Matcher.StepSize),
		auramatch.WithResultLimit(cfg.Matcher.ResultLimit),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server failed: %v", err)
		}
	case <-ctx.Done():
		log.Infof("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Errorf("Graceful shutdown failed: %v", err)
		}
	}
}

func splitOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return []string{"*"}
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
