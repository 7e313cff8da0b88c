package stats

import (
	"sync"
	"time"

	mstats "github.com/montanaflynn/stats"
)

// LowSampleThreshold is the cohort size under which statistics are flagged
// as unreliable for normalization purposes.
const LowSampleThreshold = 30

// Defaults used when a cohort is empty or has zero spread. They keep
// normalization defined: an unknown cohort degrades to "average".
const (
	DefaultMean = 50.0
	DefaultStd  = 15.0
)

// CohortKey identifies a cached cohort: a subject plus an optional
// assessment version. An empty version means "all versions".
type CohortKey struct {
	Subject string
	Version string
}

// CohortStats is a snapshot of the score distribution for one cohort.
type CohortStats struct {
	Subject    string    `json:"subject"`
	Version    string    `json:"version,omitempty"`
	Mean       float64   `json:"mean"`
	Std        float64   `json:"std"`
	N          int       `json:"n"`
	LowSample  bool      `json:"low_sample"`
	ComputedAt time.Time `json:"computed_at"`
}

// StatsDelta holds the drift between two snapshots of the same cohort.
type StatsDelta struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	N    int     `json:"n"`
}

// StatsAudit pairs a fresh snapshot with the one it replaced, if any.
type StatsAudit struct {
	Stats    CohortStats  `json:"stats"`
	Previous *CohortStats `json:"previous,omitempty"`
	Delta    *StatsDelta  `json:"delta,omitempty"`
}

// CohortCache holds the latest snapshot per cohort. Multiple submission
// flows may recompute concurrently; last writer wins, which is acceptable
// because cached stats are a rolling approximation, never a source of truth.
type CohortCache struct {
	mu        sync.RWMutex
	snapshots map[CohortKey]CohortStats
}

func NewCohortCache() *CohortCache {
	return &CohortCache{snapshots: map[CohortKey]CohortStats{}}
}

// Compute derives population statistics from the supplied raw scores and
// caches the snapshot under (subject, version). The caller is responsible
// for filtering the population to completed, non-null scores.
func (c *CohortCache) Compute(subject, version string, scores []float64) CohortStats {
	s := summarize(subject, version, scores)
	c.mu.Lock()
	c.snapshots[CohortKey{Subject: subject, Version: version}] = s
	c.mu.Unlock()
	return s
}

// ComputeWithAudit recomputes like Compute but also reports the prior
// snapshot and the mean/std/n drift, for distribution monitoring. Delta is
// only present when a previous snapshot existed for the same key.
func (c *CohortCache) ComputeWithAudit(subject, version string, scores []float64) StatsAudit {
	s := summarize(subject, version, scores)
	key := CohortKey{Subject: subject, Version: version}

	c.mu.Lock()
	defer c.mu.Unlock()
	audit := StatsAudit{Stats: s}
	if prev, ok := c.snapshots[key]; ok {
		p := prev
		audit.Previous = &p
		audit.Delta = &StatsDelta{
			Mean: s.Mean - p.Mean,
			Std:  s.Std - p.Std,
			N:    s.N - p.N,
		}
	}
	c.snapshots[key] = s
	return audit
}

// Get returns the cached snapshot for (subject, version), if any.
func (c *CohortCache) Get(subject, version string) (CohortStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snapshots[CohortKey{Subject: subject, Version: version}]
	return s, ok
}

func summarize(subject, version string, scores []float64) CohortStats {
	now := time.Now().UTC()
	if len(scores) == 0 {
		return CohortStats{
			Subject:    subject,
			Version:    version,
			Mean:       DefaultMean,
			Std:        DefaultStd,
			N:          0,
			LowSample:  true,
			ComputedAt: now,
		}
	}

	mean, _ := mstats.Mean(scores)
	// Population deviation: the cohort is the whole reference population,
	// not a sample from one.
	std, _ := mstats.StandardDeviationPopulation(scores)
	if std == 0 {
		std = DefaultStd
	}

	return CohortStats{
		Subject:    subject,
		Version:    version,
		Mean:       mean,
		Std:        std,
		N:          len(scores),
		LowSample:  len(scores) < LowSampleThreshold,
		ComputedAt: now,
	}
}
