package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// MeanSquaredError returns the average squared difference of a and b.
// Pairs of different length, or empty pairs, are infinitely far apart.
func MeanSquaredError(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	d := floats.Distance(a, b, 2)
	return d * d / float64(len(a))
}

// Score turns an MSE between two normalized slices into a similarity in [0, 1].
func Score(mse float64) float64 {
	return math.Max(0, 1-mse)
}
