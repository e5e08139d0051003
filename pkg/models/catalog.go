package models

import "time"

// Track is a catalog entry with its waveform envelope.
type Track struct {
	ID         string    // Database ID (UUID)
	Title      string    // Track title
	Artist     string    // Artist name
	DurationMs int       // Duration in milliseconds
	PeakData   []float64 // Fixed-length peak series, empty when not analyzed yet
	CreatedAt  time.Time
}

// HasPeaks reports whether the track can take part in similarity matching.
func (t *Track) HasPeaks() bool {
	return t != nil && len(t.PeakData) > 0
}

// ToTrackData converts a catalog entry to the matcher's input shape.
func (t *Track) ToTrackData() TrackData {
	return TrackData{
		ID:         t.ID,
		Name:       t.Title,
		PeakData:   t.PeakData,
		DurationMs: float64(t.DurationMs),
	}
}
