package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/aurastream/auramatch/internal/config"
	"github.com/aurastream/auramatch/pkg/auramatch"
	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
	"github.com/aurastream/auramatch/pkg/logger"
	"github.com/aurastream/auramatch/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service    auramatch.Service
	config     *config.Config
	log        auramatch.Logger
	validate   *validator.Validate
	httpServer *http.Server
	now        func() time.Time
}

// NewServer creates a new server instance
func NewServer(service auramatch.Service, cfg *config.Config) *Server {
	s := &Server{
		service:  service,
		config:   cfg,
		log:      logger.GetLogger(),
		validate: validator.New(),
		now:      time.Now,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return s
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// respondServiceError maps service errors onto HTTP status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, auramatch.ErrTrackNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, auramatch.ErrNoPeakData):
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, auramatch.ErrInvalidTrack):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, fmt.Sprintf("%s timed out", op))
	default:
		s.log.Errorf("%s failed: %v", op, err)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed", op))
	}
}

// decodeAndValidate reads a JSON body into dst and checks its validate tags.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.log.Debugf("Failed to decode request: %v", err)
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "AuraMatch API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"prometheus":    "GET /metrics",
			"tracks":        "GET /api/tracks",
			"addTrackFile":  "POST /api/tracks",
			"importTrack":   "POST /api/tracks/import",
			"getTrack":      "GET /api/tracks/{id}",
			"deleteTrack":   "DELETE /api/tracks/{id}",
			"findSimilar":   "POST /api/similarity",
			"matchSections": "POST /api/similarity/sections",
			"tuning":        "GET /api/tuning?hour={0-23}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	count, err := s.service.TrackCount()
	if err != nil {
		s.log.Errorf("Failed to get track count: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve metrics")
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.Database.Path,
		TrackCount:   count,
		PeakPoints:   s.config.Audio.PeakPoints,
		StepSize:     s.config.Matcher.StepSize,
		SampleRate:   s.config.Audio.SampleRate,
	})
}

// handleListTracks handles GET /api/tracks
func (s *Server) handleListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.service.ListTracks()
	if err != nil {
		s.log.Errorf("Failed to list tracks: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve tracks")
		return
	}

	dtos := make([]TrackDTO, len(tracks))
	for i, t := range tracks {
		dtos[i] = toTrackDTO(t, false)
	}

	s.respondJSON(w, http.StatusOK, ListTracksResponse{
		Tracks: dtos,
		Count:  len(dtos),
	})
}

// handleGetTrack handles GET /api/tracks/{id}
func (s *Server) handleGetTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "id")

	track, err := s.service.GetTrack(trackID)
	if err != nil {
		s.respondServiceError(w, "Get track", err)
		return
	}

	s.respondJSON(w, http.StatusOK, toTrackDTO(*track, true))
}

// handleDeleteTrack handles DELETE /api/tracks/{id}
func (s *Server) handleDeleteTrack(w http.ResponseWriter, r *http.Request) {
	trackID := chi.URLParam(r, "id")

	if err := s.service.DeleteTrack(trackID); err != nil {
		s.respondServiceError(w, "Delete track", err)
		return
	}

	s.respondJSON(w, http.StatusOK, DeleteTrackResponse{
		Message: "Track deleted successfully",
		ID:      trackID,
	})
}

// handleAddTrackFile handles POST /api/tracks (multipart file upload)
func (s *Server) handleAddTrackFile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	maxBytes := s.config.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		s.log.Warnf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	artist := strings.TrimSpace(r.FormValue("artist"))

	file, header, err := r.FormFile("audio")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	if err := utils.MakeDir(s.config.Audio.TempDir); err != nil {
		s.log.Errorf("Failed to create temp dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}

	// Keep the extension so WAV uploads skip transcoding.
	tempFile := filepath.Join(s.config.Audio.TempDir, fmt.Sprintf("upload_%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename)))
	out, err := os.Create(tempFile)
	if err != nil {
		s.log.Errorf("Failed to create temp file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer os.Remove(tempFile)

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		s.log.Errorf("Failed to save file: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to save uploaded file")
		return
	}
	out.Close()

	trackID, err := s.service.AddTrack(ctx, tempFile, title, artist)
	if err != nil {
		s.respondServiceError(w, "Add track", err)
		return
	}

	track, err := s.service.GetTrack(trackID)
	if err != nil {
		s.respondServiceError(w, "Add track", err)
		return
	}

	s.respondJSON(w, http.StatusCreated, AddTrackResponse{
		Message: "Track added successfully",
		ID:      track.ID,
		Title:   track.Title,
		Artist:  track.Artist,
	})
}

// handleImportTrack handles POST /api/tracks/import
func (s *Server) handleImportTrack(w http.ResponseWriter, r *http.Request) {
	var req ImportTrackRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	durationMs := req.DurationMs
	if durationMs <= 0 {
		durationMs = utils.ParseDurationMs(req.Duration)
	}

	trackID, err := s.service.ImportTrack(req.Title, req.Artist, durationMs, req.Peaks)
	if err != nil {
		s.respondServiceError(w, "Import track", err)
		return
	}

	track, err := s.service.GetTrack(trackID)
	if err != nil {
		s.respondServiceError(w, "Import track", err)
		return
	}

	s.respondJSON(w, http.StatusCreated, AddTrackResponse{
		Message: "Track imported successfully",
		ID:      track.ID,
		Title:   track.Title,
		Artist:  track.Artist,
	})
}

// handleFindSimilar handles POST /api/similarity
func (s *Server) handleFindSimilar(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req SimilarityRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	results, err := s.service.FindSimilar(ctx, auramatch.SimilarityQuery{
		TrackID:  req.TrackID,
		StartMs:  req.StartMs,
		EndMs:    req.EndMs,
		StepSize: req.StepSize,
		Limit:    req.Limit,
	})
	if err != nil {
		s.respondServiceError(w, "Similarity search", err)
		return
	}

	matches := toMatchDTOs(results)
	s.respondJSON(w, http.StatusOK, SimilarityResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// handleFindSimilarSections handles POST /api/similarity/sections
func (s *Server) handleFindSimilarSections(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	var req SectionsRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	results, err := s.service.FindSimilarSections(ctx, req.Reference, req.StartIndex, req.EndIndex, req.StepSize)
	if err != nil {
		s.respondServiceError(w, "Section search", err)
		return
	}

	matches := toMatchDTOs(results)
	s.respondJSON(w, http.StatusOK, SimilarityResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// handleTuning handles GET /api/tuning
func (s *Server) handleTuning(w http.ResponseWriter, r *http.Request) {
	hour := s.now().Hour()
	if raw := r.URL.Query().Get("hour"); raw != "" {
		h, err := strconv.Atoi(raw)
		if err != nil || h < 0 || h > 23 {
			s.respondError(w, http.StatusBadRequest, "hour must be an integer between 0 and 23")
			return
		}
		hour = h
	}

	t := tuning.FrequencyForHour(hour)
	s.respondJSON(w, http.StatusOK, TuningResponse{
		Hour:       hour,
		Tuning:     string(t),
		PitchRatio: tuning.PitchRatio(t),
	})
}
