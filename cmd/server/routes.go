package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aurastream/auramatch/internal/metrics"
)

// Handler builds the chi router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         3600,
	}))
	r.Use(s.rateLimit())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/api/health/metrics", s.handleMetrics)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/tracks", func(r chi.Router) {
		r.Get("/", s.handleListTracks)
		r.Post("/", s.handleAddTrackFile)
		r.Post("/import", s.handleImportTrack)
		r.Get("/{id}", s.handleGetTrack)
		r.Delete("/{id}", s.handleDeleteTrack)
	})

	r.Post("/api/similarity", s.handleFindSimilar)
	r.Post("/api/similarity/sections", s.handleFindSimilarSections)
	r.Get("/api/tuning", s.handleTuning)

	return r
}

func (s *Server) rateLimit() func(http.Handler) http.Handler {
	if s.config.Server.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return httprate.Limit(
		s.config.Server.RateLimitReqs,
		s.config.Server.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			s.respondError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// requestLogger logs each request and records it under its route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.RecordAPIRequest(r.Method, route, strconv.Itoa(status), elapsed)
		s.log.Debugf("%s %s -> %d (%s) req=%s", r.Method, r.URL.Path, status, elapsed, chimiddleware.GetReqID(r.Context()))
	})
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.log.Infof("AuraMatch server starting on %s", s.httpServer.Addr)
	s.log.Infof("   Database: %s", s.config.Database.Path)
	s.log.Infof("   Peak points: %d, step size: %d", s.config.Audio.PeakPoints, s.config.Matcher.StepSize)
	s.log.Infof("   CORS Origins: %v", s.config.Server.CORSOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   GET    /health                     - Health check")
	s.log.Infof("   GET    /api/health/metrics         - Catalog metrics")
	s.log.Infof("   GET    /metrics                    - Prometheus metrics")
	s.log.Infof("   GET    /api/tracks                 - List all tracks")
	s.log.Infof("   POST   /api/tracks                 - Add track from audio file")
	s.log.Infof("   POST   /api/tracks/import          - Import precomputed peaks")
	s.log.Infof("   GET    /api/tracks/{id}            - Get track by ID")
	s.log.Infof("   DELETE /api/tracks/{id}            - Delete track by ID")
	s.log.Infof("   POST   /api/similarity             - Find sections similar to a track slice")
	s.log.Infof("   POST   /api/similarity/sections    - Match a raw peak series")
	s.log.Infof("   GET    /api/tuning                 - Tuning for an hour of day")

	return s.httpServer.ListenAndServe()
}
