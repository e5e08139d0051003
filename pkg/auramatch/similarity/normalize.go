package similarity

import "gonum.org/v1/gonum/floats"

// NormalizeLocalSlice rescales slice to [0, 1] using its own min and max, so
// that comparisons are about the shape of the envelope and not its loudness.
// A flat slice maps to all zeros. The input is never modified.
func NormalizeLocalSlice(slice []float64) []float64 {
	if len(slice) == 0 {
		return []float64{}
	}

	lo := floats.Min(slice)
	hi := floats.Max(slice)

	out := make([]float64, len(slice))
	if hi == lo {
		return out
	}

	span := hi - lo
	for i, v := range slice {
		out[i] = (v - lo) / span
	}
	return out
}
