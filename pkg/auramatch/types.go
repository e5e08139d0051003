package auramatch

import (
	"errors"

	"github.com/aurastream/auramatch/pkg/auramatch/storage"
)

var (
	// ErrTrackNotFound is returned when a track ID is not in the catalog.
	ErrTrackNotFound = storage.ErrTrackNotFound
	// ErrNoPeakData is returned when the reference track has not been analyzed.
	ErrNoPeakData = errors.New("track has no peak data")
	// ErrInvalidTrack is returned for uploads or imports that cannot be matched against.
	ErrInvalidTrack = errors.New("invalid track")
)

// SimilarityQuery selects a slice of a catalog track by time.
type SimilarityQuery struct {
	TrackID  string  // Reference track
	StartMs  float64 // Slice start on the reference timeline
	EndMs    float64 // Slice end on the reference timeline
	StepSize int     // Window stride in peak points, 0 for the service default
	Limit    int     // Maximum matches returned, 0 for the service default
}
