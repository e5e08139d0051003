// Package peaks reduces decoded audio to the fixed-length amplitude envelope
// used by the similarity matcher and by waveform displays.
package peaks

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultPoints is the number of envelope points stored per track.
const DefaultPoints = 1000

// ExtractPeakSeries splits samples into points hop-sized chunks, keeps the max
// absolute amplitude of each, normalizes by the loudest chunk and pads or
// truncates to exactly points values.
func ExtractPeakSeries(samples []float64, points int) []float64 {
	if len(samples) == 0 || points <= 0 {
		return nil
	}

	hop := len(samples) / points
	if hop < 1 {
		hop = 1
	}

	series := make([]float64, 0, points+1)
	for i := 0; i < len(samples); i += hop {
		end := i + hop
		if end > len(samples) {
			end = len(samples)
		}
		peak := 0.0
		for _, s := range samples[i:end] {
			if a := math.Abs(s); a > peak {
				peak = a
			}
		}
		series = append(series, peak)
	}

	if loudest := floats.Max(series); loudest > 0 {
		floats.Scale(1/loudest, series)
	}
	for i, v := range series {
		series[i] = math.Round(v*1000) / 1000
	}

	if len(series) > points {
		series = series[:points]
	}
	for len(series) < points {
		series = append(series, 0)
	}
	return series
}
