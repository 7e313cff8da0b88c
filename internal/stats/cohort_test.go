package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCohortCompute_SmallCohort(t *testing.T) {
	c := NewCohortCache()
	s := c.Compute("MATHS", "", []float64{50, 60, 70, 80, 90})

	assert.Equal(t, 70.0, s.Mean)
	assert.InDelta(t, 14.142, s.Std, 0.01)
	assert.Equal(t, 5, s.N)
	assert.True(t, s.LowSample)
	assert.False(t, s.ComputedAt.IsZero())
}

func TestCohortCompute_EmptyCohortSentinel(t *testing.T) {
	c := NewCohortCache()
	s := c.Compute("NSI", "v1", nil)

	assert.Equal(t, DefaultMean, s.Mean)
	assert.Equal(t, DefaultStd, s.Std)
	assert.Equal(t, 0, s.N)
	assert.True(t, s.LowSample)
}

func TestCohortCompute_IdenticalScoresGetDefaultStd(t *testing.T) {
	c := NewCohortCache()
	s := c.Compute("MATHS", "", []float64{75, 75, 75, 75})

	assert.Equal(t, 75.0, s.Mean)
	assert.Equal(t, DefaultStd, s.Std, "zero spread must not collapse normalization")
	assert.Equal(t, 4, s.N)
}

func TestCohortCompute_LargeCohortNotLowSample(t *testing.T) {
	scores := make([]float64, LowSampleThreshold)
	for i := range scores {
		scores[i] = float64(40 + i)
	}
	c := NewCohortCache()
	s := c.Compute("MATHS", "", scores)

	assert.Equal(t, LowSampleThreshold, s.N)
	assert.False(t, s.LowSample)

	s = c.Compute("MATHS", "", scores[:LowSampleThreshold-1])
	assert.True(t, s.LowSample)
}

func TestCohortCache_GetBySubjectAndVersion(t *testing.T) {
	c := NewCohortCache()

	_, ok := c.Get("MATHS", "")
	assert.False(t, ok)

	c.Compute("MATHS", "", []float64{60, 70})
	c.Compute("MATHS", "v2", []float64{80, 90})

	all, ok := c.Get("MATHS", "")
	require.True(t, ok)
	assert.Equal(t, 65.0, all.Mean)

	v2, ok := c.Get("MATHS", "v2")
	require.True(t, ok)
	assert.Equal(t, 85.0, v2.Mean)

	_, ok = c.Get("NSI", "")
	assert.False(t, ok)
}

func TestComputeWithAudit_FirstRunHasNoDelta(t *testing.T) {
	c := NewCohortCache()
	audit := c.ComputeWithAudit("MATHS", "", []float64{50, 70})

	assert.Nil(t, audit.Previous)
	assert.Nil(t, audit.Delta)
	assert.Equal(t, 60.0, audit.Stats.Mean)
}

func TestComputeWithAudit_ReportsDrift(t *testing.T) {
	c := NewCohortCache()
	c.Compute("MATHS", "", []float64{50, 60, 70, 80, 90})

	audit := c.ComputeWithAudit("MATHS", "", []float64{55, 65, 75, 85, 95, 75})

	require.NotNil(t, audit.Previous)
	require.NotNil(t, audit.Delta)
	assert.Equal(t, 70.0, audit.Previous.Mean)
	assert.InDelta(t, 5.0, audit.Delta.Mean, 0.001)
	assert.Equal(t, 1, audit.Delta.N)

	// The fresh snapshot replaced the old one in the cache.
	cur, ok := c.Get("MATHS", "")
	require.True(t, ok)
	assert.Equal(t, audit.Stats.Mean, cur.Mean)
}
