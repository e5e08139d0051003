package main

import (
	"time"

	"github.com/aurastream/auramatch/pkg/models"
)

// MaxJSONBodyBytes bounds JSON request bodies. Peak series are capped at
// 100k points by validation, roughly 1MB of JSON.
const MaxJSONBodyBytes = 4 << 20

// SimilarityRequest is the request body for POST /api/similarity
type SimilarityRequest struct {
	TrackID  string  `json:"track_id" validate:"required,max=64"`
	StartMs  float64 `json:"start_ms" validate:"gte=0"`
	EndMs    float64 `json:"end_ms" validate:"gte=0"`
	StepSize int     `json:"step_size,omitempty" validate:"gte=0,lte=1000"`
	Limit    int     `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// SectionsRequest is the request body for POST /api/similarity/sections
type SectionsRequest struct {
	Reference  []float64 `json:"reference" validate:"required,min=1,max=100000,dive,gte=0"`
	StartIndex int       `json:"start_index"`
	EndIndex   int       `json:"end_index"`
	StepSize   int       `json:"step_size,omitempty" validate:"gte=0,lte=1000"`
}

// ImportTrackRequest is the request body for POST /api/tracks/import.
// Duration accepts "m:ss", seconds or milliseconds; DurationMs wins when set.
type ImportTrackRequest struct {
	Title      string    `json:"title" validate:"required,max=500"`
	Artist     string    `json:"artist" validate:"max=500"`
	Duration   string    `json:"duration,omitempty"`
	DurationMs int       `json:"duration_ms,omitempty" validate:"gte=0"`
	Peaks      []float64 `json:"peaks" validate:"required,min=1,max=100000,dive,gte=0"`
}

// SimilarityResponse is the response for both similarity endpoints
type SimilarityResponse struct {
	Matches []MatchDTO `json:"matches"`
	Count   int        `json:"count"`
}

// MatchDTO represents a single similar section
type MatchDTO struct {
	TrackID         string  `json:"track_id"`
	Title           string  `json:"title"`
	Artist          string  `json:"artist"`
	Score           float64 `json:"score"`
	MatchStartIndex int     `json:"match_start_index"`
	MatchEndIndex   int     `json:"match_end_index"`
	MatchStartMs    float64 `json:"match_start_ms"`
	MatchEndMs      float64 `json:"match_end_ms"`
}

func toMatchDTOs(results []models.SimilarityResult) []MatchDTO {
	dtos := make([]MatchDTO, len(results))
	for i, r := range results {
		dtos[i] = MatchDTO{
			TrackID:         r.TrackID,
			Title:           r.Title,
			Artist:          r.Artist,
			Score:           r.Score,
			MatchStartIndex: r.MatchStartIndex,
			MatchEndIndex:   r.MatchEndIndex,
			MatchStartMs:    r.MatchStartMs,
			MatchEndMs:      r.MatchEndMs,
		}
	}
	return dtos
}

// AddTrackResponse is the response for successful track addition
type AddTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
}

// TrackDTO represents a track in API responses
type TrackDTO struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Artist     string    `json:"artist"`
	DurationMs int       `json:"duration_ms"`
	Points     int       `json:"points,omitempty"`
	Peaks      []float64 `json:"peaks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTrackDTO(t models.Track, withPeaks bool) TrackDTO {
	dto := TrackDTO{
		ID:         t.ID,
		Title:      t.Title,
		Artist:     t.Artist,
		DurationMs: t.DurationMs,
		Points:     len(t.PeakData),
		CreatedAt:  t.CreatedAt,
	}
	if withPeaks {
		dto.Peaks = t.PeakData
	}
	return dto
}

// ListTracksResponse is the response for GET /api/tracks
type ListTracksResponse struct {
	Tracks []TrackDTO `json:"tracks"`
	Count  int        `json:"count"`
}

// DeleteTrackResponse is the response for DELETE /api/tracks/{id}
type DeleteTrackResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// TuningResponse is the response for GET /api/tuning
type TuningResponse struct {
	Hour       int     `json:"hour"`
	Tuning     string  `json:"tuning"`
	PitchRatio float64 `json:"pitch_ratio"`
}

// MetricsResponse provides server health and catalog metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	TrackCount   int64  `json:"track_count"`
	PeakPoints   int    `json:"peak_points"`
	StepSize     int    `json:"step_size"`
	SampleRate   int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
