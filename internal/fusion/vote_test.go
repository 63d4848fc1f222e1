package fusion

import (
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestRearrange(t *testing.T) {
	origin := []string{"B", "A"}
	destination := []string{"A", "B", "C"}
	got := rearrange(origin, destination, []float64{0.6, 0.4})
	if want := []float64{0.4, 0.6, 0}; !almostEqual(got, want) {
		t.Errorf("rearrange = %v, want %v", got, want)
	}
}

func TestRearrangeShortPrediction(t *testing.T) {
	// A prediction shorter than its declared vocabulary must not panic.
	got := rearrange([]string{"A", "B"}, []string{"A", "B"}, []float64{1})
	if want := []float64{1, 0}; !almostEqual(got, want) {
		t.Errorf("rearrange = %v, want %v", got, want)
	}
}

func TestCombineDistribution(t *testing.T) {
	votes := [][]float64{
		{0.8, 0.2, 0},
		{1.2, 1.8, 0},
	}
	got := combineDistribution(votes, 3)
	if want := []float64{0.5, 0.5, 0}; !almostEqual(got, want) {
		t.Errorf("combineDistribution = %v, want %v", got, want)
	}
}

func TestCombineDistributionZeroMass(t *testing.T) {
	got := combineDistribution([][]float64{{0, 0}, {0, 0}}, 2)
	if want := []float64{0, 0}; !reflect.DeepEqual(got, want) {
		t.Errorf("combineDistribution = %v, want unnormalized %v", got, want)
	}
}

func TestCombineConfidencesUnweightedMean(t *testing.T) {
	votes := [][]float64{
		{0.9, 0.1},
		{0.5, 0.3},
	}
	got := combineConfidences(votes, 2)
	if want := []float64{0.7, 0.2}; !almostEqual(got, want) {
		t.Errorf("combineConfidences = %v, want %v", got, want)
	}
}

func TestCombineConfidencesRounding(t *testing.T) {
	votes := [][]float64{
		{1.0 / 3},
		{1.0 / 3},
		{1.0 / 3},
	}
	got := combineConfidences(votes, 1)
	if want := 0.33333; got[0] != want {
		t.Errorf("confidence = %v, want rounded %v", got[0], want)
	}
}

func TestRoundTo(t *testing.T) {
	if got := roundTo(0.123456789, 5); got != 0.12346 {
		t.Errorf("roundTo = %v", got)
	}
	if got := roundTo(2.5, 0); got != 3 {
		t.Errorf("roundTo(2.5, 0) = %v", got)
	}
}
