package assessment

import (
	"context"
	"errors"
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// ErrAlreadyScored is returned when a scoring result already exists for an
// assessment. Scoring is compute-once: the conflict is surfaced upstream,
// never resolved by recomputing.
var ErrAlreadyScored = errors.New("assessment already scored")

// ErrNotFound is returned for unknown assessment or student identifiers.
var ErrNotFound = errors.New("assessment not found")

// Store is the persistence boundary of the engine. Implementations must
// make SaveResult conditional so that under concurrent duplicate
// submissions at most one write succeeds.
type Store interface {
	PutAssessment(ctx context.Context, a Assessment) error
	GetAssessment(ctx context.Context, id string) (Assessment, error)

	// SaveResult stores the scoring result, answers, global score and
	// completion status exactly once; ErrAlreadyScored on a second attempt.
	SaveResult(ctx context.Context, id string, answers []scoring.AnswerSubmission, res scoring.Result) error

	// SaveSSN writes the normalized score onto an assessment.
	SaveSSN(ctx context.Context, id string, ssn float64, band stats.Band, percentile int) error

	// CompletedScores returns the global scores of completed assessments
	// for a cohort. An empty version matches every version.
	CompletedScores(ctx context.Context, subject stats.Subject, version string) ([]float64, error)

	// ListCompleted returns completed assessments for a cohort, for batch
	// recomputation.
	ListCompleted(ctx context.Context, subject stats.Subject, version string) ([]Assessment, error)

	// SubjectSSNs returns the latest SSN per subject for a student.
	SubjectSSNs(ctx context.Context, studentID string) (map[stats.Subject]float64, error)

	// SaveComposite writes the composite index back for a student.
	SaveComposite(ctx context.Context, studentID string, idx stats.CompositeIndex) error

	// AppendProgression records an SSN point in the student's history.
	AppendProgression(ctx context.Context, studentID string, ssn float64, at time.Time) error
}
