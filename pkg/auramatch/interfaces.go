package auramatch

import (
	"context"

	"github.com/aurastream/auramatch/pkg/auramatch/tuning"
	"github.com/aurastream/auramatch/pkg/models"
)

type Service interface {
	AddTrack(ctx context.Context, audioPath, title, artist string) (string, error)
	ImportTrack(title, artist string, durationMs int, peaks []float64) (string, error)
	FindSimilar(ctx context.Context, q SimilarityQuery) ([]models.SimilarityResult, error)
	FindSimilarSections(ctx context.Context, reference []float64, startIndex, endIndex, stepSize int) ([]models.SimilarityResult, error)
	GetTrack(trackID string) (*models.Track, error)
	ListTracks() ([]models.Track, error)
	TrackCount() (int64, error)
	DeleteTrack(trackID string) error
	RenderTunings(ctx context.Context, audioPath, outputDir string, tunings ...tuning.Tuning) (map[tuning.Tuning]string, error)
	Close() error
}

type Storage interface {
	RegisterTrack(title, artist string, durationMs int, peaks []float64) (string, error)
	UpdatePeakData(trackID string, peaks []float64, durationMs int) error
	GetTrackByID(trackID string) (*models.Track, error)
	ListTracks() ([]models.Track, error)
	ListTracksWithPeaks() ([]models.Track, error)
	TrackCount() (int64, error)
	DeleteTrackByID(trackID string) error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
