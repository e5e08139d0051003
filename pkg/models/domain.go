package models

// TrackData is a candidate track handed to the similarity matcher.
type TrackData struct {
	ID         string
	Name       string
	PeakData   []float64
	DurationMs float64
}

// SimilarityMatch is the best-aligned window found inside one candidate track.
type SimilarityMatch struct {
	TrackID         string  // Candidate track ID
	Score           float64 // 0.0 - 1.0, 1.0 is an identical shape
	MatchStartIndex int     // First peak index of the window
	MatchEndIndex   int     // Exclusive end index of the window
	MatchStartMs    float64 // Window start on the candidate's own timeline
	MatchEndMs      float64 // Window end on the candidate's own timeline
}

// SimilarityResult is a SimilarityMatch enriched with catalog metadata.
type SimilarityResult struct {
	SimilarityMatch
	Title  string
	Artist string
}
