// Package similarity finds sections of catalog tracks whose waveform envelope
// has the same shape as a slice of a reference track.
package similarity

import (
	"math"
	"sort"

	"github.com/aurastream/auramatch/pkg/models"
)

// DefaultStepSize is the stride used when sliding the comparison window.
// Peak series are coarse summaries, so skipping positions costs little accuracy.
const DefaultStepSize = 5

// FindSimilarSections compares referenceData[refStartIndex:refEndIndex] against
// every window of the same length in each target track and returns the best
// window per track, sorted by descending score.
//
// An invalid reference window yields an empty result. Targets shorter than the
// window are skipped. A non-positive stepSize falls back to DefaultStepSize.
func FindSimilarSections(
	referenceData []float64,
	refStartIndex, refEndIndex int,
	targetTracks []models.TrackData,
	stepSize int,
) []models.SimilarityMatch {
	if refStartIndex < 0 || refStartIndex >= refEndIndex || refEndIndex > len(referenceData) {
		return []models.SimilarityMatch{}
	}
	if stepSize <= 0 {
		stepSize = DefaultStepSize
	}

	reference := NormalizeLocalSlice(referenceData[refStartIndex:refEndIndex])
	windowLength := len(reference)

	results := make([]models.SimilarityMatch, 0, len(targetTracks))
	for _, target := range targetTracks {
		if len(target.PeakData) < windowLength {
			continue
		}

		start, score := bestWindow(reference, target.PeakData, stepSize)

		msPerPoint := target.DurationMs / float64(len(target.PeakData))
		results = append(results, models.SimilarityMatch{
			TrackID:         target.ID,
			Score:           score,
			MatchStartIndex: start,
			MatchEndIndex:   start + windowLength,
			MatchStartMs:    float64(start) * msPerPoint,
			MatchEndMs:      float64(start+windowLength) * msPerPoint,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// bestWindow slides a window of len(reference) across peaks and returns the
// start index and score of the best one. Ties keep the earliest window.
func bestWindow(reference, peaks []float64, stepSize int) (int, float64) {
	windowLength := len(reference)
	bestScore := math.Inf(-1)
	bestIndex := 0

	for i := 0; i+windowLength <= len(peaks); i += stepSize {
		window := NormalizeLocalSlice(peaks[i : i+windowLength])
		score := Score(MeanSquaredError(reference, window))
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	return bestIndex, bestScore
}
