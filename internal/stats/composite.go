package stats

import (
	"math"
	"sort"
)

// Subject is the closed set of subjects the composite index knows about.
// Unrecognized codes are still accepted but fall back to equal weighting.
type Subject string

const (
	SubjectMaths Subject = "MATHS"
	SubjectNSI   Subject = "NSI"
)

// defaultWeights is the registry weight table. It sums to 1.0 across the
// full known subject set.
var defaultWeights = map[Subject]float64{
	SubjectMaths: 0.60,
	SubjectNSI:   0.40,
}

// KnownSubject reports whether s is part of the closed subject enumeration.
func KnownSubject(s Subject) bool {
	_, ok := defaultWeights[s]
	return ok
}

// CompositeComponent is one subject's contribution to the composite index.
type CompositeComponent struct {
	Subject Subject `json:"subject"`
	SSN     float64 `json:"ssn"`
	Weight  float64 `json:"weight"`
}

// CompositeIndex is the weighted blend of several per-subject standardized
// scores into a single 0-100 figure.
type CompositeIndex struct {
	Value        float64              `json:"value"`
	SubjectCount int                  `json:"subject_count"`
	Weights      map[Subject]float64  `json:"weights"`
	Components   []CompositeComponent `json:"components"`
}

// ComputeComposite blends per-subject standardized scores into one index.
//
// NaN entries are dropped before any arithmetic. If nothing remains the
// result is nil. A single surviving subject is forced to weight 1.0.
// Otherwise the weight table (weights if provided, else the registry
// default, else an equal share for unrecognized codes) is restricted to the
// present subjects and renormalized to sum to 1, so removing an absent
// subject never distorts the relative balance among the remaining ones.
// Iteration is in sorted subject order, making the result deterministic.
func ComputeComposite(ssnBySubject map[Subject]float64, weights map[Subject]float64) *CompositeIndex {
	present := make([]Subject, 0, len(ssnBySubject))
	for s, v := range ssnBySubject {
		if math.IsNaN(v) {
			continue
		}
		present = append(present, s)
	}
	if len(present) == 0 {
		return nil
	}
	sort.Slice(present, func(i, j int) bool { return present[i] < present[j] })

	restricted := make(map[Subject]float64, len(present))
	if len(present) == 1 {
		restricted[present[0]] = 1.0
	} else {
		equalShare := 1.0 / float64(len(present))
		sum := 0.0
		for _, s := range present {
			w, ok := 0.0, false
			if weights != nil {
				w, ok = weights[s]
			}
			if !ok {
				w, ok = defaultWeights[s]
			}
			if !ok || w <= 0 {
				w = equalShare
			}
			restricted[s] = w
			sum += w
		}
		for _, s := range present {
			restricted[s] /= sum
		}
	}

	value := 0.0
	components := make([]CompositeComponent, 0, len(present))
	for _, s := range present {
		w := restricted[s]
		ssn := ssnBySubject[s]
		value += w * ssn
		components = append(components, CompositeComponent{Subject: s, SSN: ssn, Weight: w})
	}

	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	value = math.Round(value*10) / 10

	return &CompositeIndex{
		Value:        value,
		SubjectCount: len(present),
		Weights:      restricted,
		Components:   components,
	}
}
