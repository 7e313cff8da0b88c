package assessment

import (
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// Assessment statuses. Only completed assessments feed cohort statistics.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// Assessment is one diagnostic reservation for a student: the submitted
// answers plus everything derived from them. ScoringResult and SSN are
// written exactly once.
type Assessment struct {
	ID        string        `json:"id"`
	StudentID string        `json:"student_id"`
	Subject   stats.Subject `json:"subject"`
	Version   string        `json:"version,omitempty"`
	Status    string        `json:"status"`

	Answers []scoring.AnswerSubmission `json:"answers,omitempty"`
	Result  *scoring.Result            `json:"scoring_result,omitempty"`

	GlobalScore *float64   `json:"global_score,omitempty"`
	SSN         *float64   `json:"ssn,omitempty"`
	Band        stats.Band `json:"band,omitempty"`
	Percentile  *int       `json:"percentile,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// RawScoreSample is one population data point, as read from storage.
type RawScoreSample struct {
	Value     float64       `json:"value"`
	Subject   stats.Subject `json:"subject"`
	Version   string        `json:"version,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// SSNView is the standardized-score read model served to callers.
type SSNView struct {
	AssessmentID string     `json:"assessment_id"`
	SSN          float64    `json:"ssn"`
	Band         stats.Band `json:"band"`
	Label        string     `json:"label"`
	Percentile   int        `json:"percentile"`

	RawComposite float64           `json:"raw_composite"`
	Components   SSNComponents     `json:"components"`
	Cohort       stats.CohortStats `json:"cohort"`
}

// SSNComponents is the pre-normalization composite breakdown.
type SSNComponents struct {
	Disciplinary float64 `json:"disciplinary"`
	Methodology  float64 `json:"methodology"`
	Rigor        float64 `json:"rigor"`
}
