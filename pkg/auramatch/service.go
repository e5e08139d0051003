// Package auramatch ties the peak extractor, the track catalog and the
// similarity matcher together behind a single Service.
package auramatch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/aurastream/auramatch/internal/metrics"
	"github.com/aurastream/auramatch/pkg/auramatch/audio"
	"github.com/aurastream/auramatch/pkg/auramatch/peaks"
	"github.com/aurastream/auramatch/pkg/auramatch/similarity"
	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
	"github.com/aurastream/auramatch/pkg/logger"
	"github.com/aurastream/auramatch/pkg/models"
	"github.com/aurastream/auramatch/pkg/utils"
)

// auraService is the default implementation of the Service interface.
type auraService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.normalize()

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &auraService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

// AddTrack analyzes an audio file and registers its peak series in the catalog.
func (s *auraService) AddTrack(ctx context.Context, audioPath, title, artist string) (id string, err error) {
	defer func() { metrics.RecordIngest("audio", err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	title, artist = s.resolveTags(ctx, audioPath, title, artist)
	s.log.Infof("Processing track: %s by %s", title, artist)

	// 1. Convert to mono WAV unless the input already is one
	wavPath := audioPath
	if !audio.IsWAV(audioPath) {
		wavPath, err = audio.ConvertToMonoWAV(ctx, audioPath, s.config.TempDir, audio.TranscodeConfig{
			SampleRate: s.config.SampleRate,
		})
		if err != nil {
			return "", fmt.Errorf("audio conversion failed: %w", err)
		}
		defer func() {
			if rmErr := utils.RemoveIfExists(wavPath); rmErr != nil {
				s.log.Warnf("Failed to remove %s: %v", wavPath, rmErr)
			}
		}()
	}

	// 2. Decode samples
	samples, sampleRate, err := peaks.ReadWavAsFloat64(wavPath)
	if err != nil {
		return "", fmt.Errorf("failed to read WAV file: %w", err)
	}
	if len(samples) == 0 {
		return "", fmt.Errorf("%w: %s has no audio samples", ErrInvalidTrack, audioPath)
	}

	// 3. Reduce to the peak envelope
	series := peaks.ExtractPeakSeries(samples, s.config.PeakPoints)
	durationMs := peaks.DurationMs(samples, sampleRate)
	s.log.Debugf("Extracted %d peak points over %d ms", len(series), durationMs)

	// 4. Register in the catalog
	id, err = s.storage.RegisterTrack(title, artist, durationMs, series)
	if err != nil {
		return "", fmt.Errorf("failed to register track: %w", err)
	}

	s.log.Infof("Successfully added track ID=%s", id)
	return id, nil
}

// resolveTags fills a missing title or artist from the file's tags, then from
// the file name.
func (s *auraService) resolveTags(ctx context.Context, audioPath, title, artist string) (string, string) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	if title != "" && artist != "" {
		return title, artist
	}

	if meta, err := audio.ReadMetadataFFmpeg(ctx, audioPath); err != nil {
		s.log.Debugf("No tags for %s: %v", audioPath, err)
	} else {
		if title == "" {
			title = meta.Title
		}
		if artist == "" {
			artist = meta.Artist
		}
	}

	if title == "" {
		base := filepath.Base(audioPath)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if artist == "" {
		artist = "Unknown Artist"
	}
	return title, artist
}

// ImportTrack registers a precomputed peak series.
func (s *auraService) ImportTrack(title, artist string, durationMs int, peakData []float64) (id string, err error) {
	defer func() { metrics.RecordIngest("import", err) }()

	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	switch {
	case title == "":
		return "", fmt.Errorf("%w: title is required", ErrInvalidTrack)
	case len(peakData) == 0:
		return "", fmt.Errorf("%w: %s has no peak data", ErrInvalidTrack, title)
	case durationMs <= 0:
		return "", fmt.Errorf("%w: %s has non-positive duration %d", ErrInvalidTrack, title, durationMs)
	}
	for i, v := range peakData {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return "", fmt.Errorf("%w: %s has invalid peak %v at %d", ErrInvalidTrack, title, v, i)
		}
	}
	if artist == "" {
		artist = "Unknown Artist"
	}

	id, err = s.storage.RegisterTrack(title, artist, durationMs, peakData)
	if err != nil {
		return "", fmt.Errorf("failed to register track: %w", err)
	}
	s.log.Infof("Imported %s by %s (%d points) as %s", title, artist, len(peakData), id)
	return id, nil
}

// FindSimilar locates sections of other catalog tracks that resemble the
// [StartMs, EndMs) slice of the reference track.
func (s *auraService) FindSimilar(ctx context.Context, q SimilarityQuery) ([]models.SimilarityResult, error) {
	started := time.Now()
	candidates := 0
	outcome := "error"
	var results []models.SimilarityResult
	defer func() {
		metrics.RecordSimilarity(outcome, time.Since(started), candidates, len(results))
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref, err := s.storage.GetTrackByID(q.TrackID)
	if err != nil {
		if errors.Is(err, ErrTrackNotFound) {
			outcome = "not_found"
		}
		return nil, fmt.Errorf("loading reference track %s: %w", q.TrackID, err)
	}
	if !ref.HasPeaks() {
		outcome = "no_peaks"
		return nil, fmt.Errorf("%w: %s", ErrNoPeakData, ref.ID)
	}

	start, end := sliceIndices(q.StartMs, q.EndMs, float64(ref.DurationMs), len(ref.PeakData))
	s.log.Debugf("Reference %s slice %.0f-%.0f ms maps to points %d-%d", ref.ID, q.StartMs, q.EndMs, start, end)

	tracks, err := s.storage.ListTracksWithPeaks()
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	targets := make([]models.TrackData, 0, len(tracks))
	byID := make(map[string]*models.Track, len(tracks))
	for i := range tracks {
		if tracks[i].ID == ref.ID {
			continue
		}
		targets = append(targets, tracks[i].ToTrackData())
		byID[tracks[i].ID] = &tracks[i]
	}
	candidates = len(targets)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	step := q.StepSize
	if step <= 0 {
		step = s.config.StepSize
	}
	matches := similarity.FindSimilarSections(ref.PeakData, start, end, targets, step)

	limit := q.Limit
	if limit <= 0 {
		limit = s.config.ResultLimit
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}

	results = enrich(matches, byID)
	outcome = "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	s.log.Infof("Found %d similar sections for %s across %d candidates", len(results), ref.ID, candidates)
	return results, nil
}

// FindSimilarSections runs the matcher with a caller-supplied reference series
// against every analyzed catalog track.
func (s *auraService) FindSimilarSections(ctx context.Context, reference []float64, startIndex, endIndex, stepSize int) ([]models.SimilarityResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracks, err := s.storage.ListTracksWithPeaks()
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}
	targets := make([]models.TrackData, len(tracks))
	byID := make(map[string]*models.Track, len(tracks))
	for i := range tracks {
		targets[i] = tracks[i].ToTrackData()
		byID[tracks[i].ID] = &tracks[i]
	}

	if stepSize <= 0 {
		stepSize = s.config.StepSize
	}
	matches := similarity.FindSimilarSections(reference, startIndex, endIndex, targets, stepSize)
	return enrich(matches, byID), nil
}

// sliceIndices converts a time range to peak indices. Both ends are clamped
// to [0, n] before the integer conversion; an empty or inverted range is left
// for the matcher to reject.
func sliceIndices(startMs, endMs, durationMs float64, n int) (int, int) {
	if durationMs <= 0 {
		durationMs = utils.DefaultDurationMs
	}
	return pointIndex(startMs/durationMs, n), pointIndex(endMs/durationMs, n)
}

// pointIndex maps a fraction of the track to a point index in [0, n].
// NaN maps to 0.
func pointIndex(fraction float64, n int) int {
	pos := math.Floor(fraction * float64(n))
	switch {
	case !(pos > 0):
		return 0
	case pos >= float64(n):
		return n
	}
	return int(pos)
}

func enrich(matches []models.SimilarityMatch, byID map[string]*models.Track) []models.SimilarityResult {
	results := make([]models.SimilarityResult, 0, len(matches))
	for _, m := range matches {
		r := models.SimilarityResult{SimilarityMatch: m}
		if t, ok := byID[m.TrackID]; ok {
			r.Title = t.Title
			r.Artist = t.Artist
		}
		results = append(results, r)
	}
	return results
}

// GetTrack retrieves a catalog track with its peak series.
func (s *auraService) GetTrack(trackID string) (*models.Track, error) {
	return s.storage.GetTrackByID(trackID)
}

// ListTracks returns all tracks without peak data.
func (s *auraService) ListTracks() ([]models.Track, error) {
	return s.storage.ListTracks()
}

func (s *auraService) TrackCount() (int64, error) {
	return s.storage.TrackCount()
}

// DeleteTrack removes a track from the catalog.
func (s *auraService) DeleteTrack(trackID string) error {
	if err := s.storage.DeleteTrackByID(trackID); err != nil {
		return err
	}
	s.log.Infof("Deleted track %s", trackID)
	return nil
}

// RenderTunings writes one pitch-shifted stream of audioPath per tuning into
// outputDir, all of them when none are given. Renditions already written are
// kept when a later one fails.
func (s *auraService) RenderTunings(ctx context.Context, audioPath, outputDir string, tunings ...tuning.Tuning) (map[tuning.Tuning]string, error) {
	if len(tunings) == 0 {
		tunings = tuning.All
	}
	for _, t := range tunings {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown tuning %q", t)
		}
	}

	rendered := make(map[tuning.Tuning]string, len(tunings))
	for _, t := range tunings {
		if err := ctx.Err(); err != nil {
			return rendered, err
		}

		s.log.Infof("Rendering %s version (ratio %.4f) of %s", t, tuning.PitchRatio(t), filepath.Base(audioPath))
		out, err := audio.RenderTuning(ctx, audioPath, outputDir, t)
		if err != nil {
			return rendered, fmt.Errorf("rendering %s: %w", t, err)
		}
		rendered[t] = out
	}
	return rendered, nil
}

// Close releases all resources held by the service.
func (s *auraService) Close() error {
	return s.storage.Close()
}
