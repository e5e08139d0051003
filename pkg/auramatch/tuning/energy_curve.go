// Package tuning picks the playback tuning for a venue from the time of day.
package tuning

import "time"

// Tuning identifies one of the pitch-shifted renditions stored for every track.
type Tuning string

const (
	Standard   Tuning = "440hz" // daytime focus
	Relaxation Tuning = "432hz" // evening and night
	Awakening  Tuning = "528hz" // early morning
)

// All lists the renditions produced for each track, reference pitch first.
var All = []Tuning{Standard, Relaxation, Awakening}

// FrequencyForHour maps a local hour to a tuning:
// 06-10 Awakening, 10-18 Standard, otherwise Relaxation.
func FrequencyForHour(hour int) Tuning {
	hour = ((hour % 24) + 24) % 24

	switch {
	case hour >= 6 && hour < 10:
		return Awakening
	case hour >= 10 && hour < 18:
		return Standard
	default:
		return Relaxation
	}
}

// CurrentTuning returns the tuning for now in its own location.
func CurrentTuning(now time.Time) Tuning {
	return FrequencyForHour(now.Hour())
}

// PitchRatio is the resampling ratio from the 440Hz master to t.
func PitchRatio(t Tuning) float64 {
	switch t {
	case Relaxation:
		return 432.0 / 440.0
	case Awakening:
		return 528.0 / 440.0
	default:
		return 1.0
	}
}

// Valid reports whether t is a known tuning.
func (t Tuning) Valid() bool {
	for _, known := range All {
		if t == known {
			return true
		}
	}
	return false
}
