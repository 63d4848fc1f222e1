package fusion

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Confidences are reported with the same precision the platform uses.
const confidenceDecimals = 5

// rearrange re-projects a compact prediction from the origin class order
// onto the destination order. Destination classes absent from the origin
// vocabulary get 0.0 mass.
func rearrange(origin, destination []string, prediction []float64) []float64 {
	out := make([]float64, len(destination))
	for i, class := range destination {
		for j, name := range origin {
			if name == class && j < len(prediction) {
				out[i] = prediction[j]
				break
			}
		}
	}
	return out
}

// combineDistribution sums the weighted member votes and normalizes the
// result into a probability distribution.
func combineDistribution(votes [][]float64, classCount int) []float64 {
	combined := make([]float64, classCount)
	for _, vote := range votes {
		floats.Add(combined, vote)
	}
	if total := floats.Sum(combined); total > 0 {
		floats.Scale(1/total, combined)
	}
	return combined
}

// combineConfidences averages the per-class member confidences. The mean is
// unweighted even when member weights differ; the platform combines
// confidences this way deliberately, in contrast to the weighted
// probability vote.
func combineConfidences(votes [][]float64, classCount int) []float64 {
	combined := make([]float64, classCount)
	for _, vote := range votes {
		floats.Add(combined, vote)
	}
	count := float64(len(votes))
	for i := range combined {
		combined[i] = roundTo(combined[i]/count, confidenceDecimals)
	}
	return combined
}

func roundTo(value float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(value*shift) / shift
}
