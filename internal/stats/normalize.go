package stats

import "math"

// Band is the ordinal classification of a standardized score. The five bands
// partition 0..100 with no gap and no overlap.
type Band string

const (
	BandExcellence  Band = "excellence"
	BandTresSolide  Band = "tres_solide"
	BandStable      Band = "stable"
	BandFragile     Band = "fragile"
	BandPrioritaire Band = "prioritaire"
)

// Normalize projects a raw score onto the standardized 0-100 scale: the
// cohort mean maps to 50 and one standard deviation is worth 15 points.
// A zero-spread cohort (std=0) always yields 50, as does a non-finite raw
// score; callers never observe NaN or Infinity.
func Normalize(raw, mean, std float64) float64 {
	if std == 0 {
		return 50
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 50
	}
	z := (raw - mean) / std
	ssn := 50 + 15*z
	if ssn < 0 {
		ssn = 0
	}
	if ssn > 100 {
		ssn = 100
	}
	return math.Round(ssn*10) / 10
}

// Classify maps a standardized score to its band.
func Classify(ssn float64) Band {
	switch {
	case ssn >= 85:
		return BandExcellence
	case ssn >= 70:
		return BandTresSolide
	case ssn >= 55:
		return BandStable
	case ssn >= 40:
		return BandFragile
	default:
		return BandPrioritaire
	}
}

var bandLabels = map[Band]string{
	BandExcellence:  "Excellence",
	BandTresSolide:  "Très solide",
	BandStable:      "Stable",
	BandFragile:     "Fragile",
	BandPrioritaire: "Prioritaire",
}

// Label returns the fixed French display label for a standardized score.
func Label(ssn float64) string {
	return bandLabels[Classify(ssn)]
}

// Percentile ranks score within distribution using a strictly-less-than
// count, so a score tied with existing members never inflates its own rank.
// An empty distribution yields the neutral 50.
func Percentile(score float64, distribution []float64) int {
	if len(distribution) == 0 {
		return 50
	}
	below := 0
	for _, v := range distribution {
		if v < score {
			below++
		}
	}
	return int(math.Round(100 * float64(below) / float64(len(distribution))))
}
