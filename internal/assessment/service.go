package assessment

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/audit"
	"github.com/nexus-reussite/scoring-engine/internal/catalog"
	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// ErrNotScored is returned when a derived value is requested before the
// assessment has been scored.
var ErrNotScored = errors.New("assessment not scored yet")

// Composite weights applied to the scoring result before cohort
// normalization: disciplinary mastery dominates, methodology and rigor
// temper it.
const (
	weightDisciplinary = 0.6
	weightMethodology  = 0.2
	weightRigor        = 0.2
)

// EventSink receives audit events. Appending is best-effort: a failed
// append never fails the operation that produced it.
type EventSink interface {
	Append(ctx context.Context, typ, key string, payload any) error
}

// Service orchestrates the pure engine against storage: it reads raw data,
// invokes scoring/normalization in sequence and persists each result
// exactly once.
type Service struct {
	store   Store
	catalog *catalog.Catalog
	cohorts *stats.CohortCache
	events  EventSink
	opts    scoring.Options
}

func NewService(store Store, cat *catalog.Catalog, cohorts *stats.CohortCache, events EventSink, opts scoring.Options) *Service {
	return &Service{store: store, catalog: cat, cohorts: cohorts, events: events, opts: opts}
}

// SubmitAndScore scores a submission and persists the result. Scoring is
// compute-once: a second attempt for the same assessment returns
// ErrAlreadyScored regardless of payload. The standardized score is
// computed in the same flow so the caller immediately sees band and
// percentile.
func (s *Service) SubmitAndScore(ctx context.Context, id string, answers []scoring.AnswerSubmission) (Assessment, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	if a.Result != nil {
		return Assessment{}, ErrAlreadyScored
	}

	res := scoring.Score(answers, s.catalog, s.opts)
	// The store re-checks under its own write lock / conditional UPDATE, so
	// two concurrent submissions cannot both land.
	if err := s.store.SaveResult(ctx, id, answers, res); err != nil {
		return Assessment{}, err
	}
	s.emit(ctx, audit.TypeAssessmentScored, id, map[string]any{
		"global_score": res.GlobalScore,
		"confidence":   res.ConfidenceIndex,
		"precision":    res.PrecisionIndex,
	})

	if _, err := s.ComputeSSN(ctx, id); err != nil {
		// Normalization failure must not lose the scoring result.
		log.Printf("assessment %s: ssn computation failed: %v", id, err)
	}
	return s.store.GetAssessment(ctx, id)
}

// ComputeSSN derives the standardized score for a scored assessment:
// composite raw score, cohort normalization, band classification and
// percentile rank within the cohort's completed scores.
func (s *Service) ComputeSSN(ctx context.Context, id string) (SSNView, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return SSNView{}, err
	}
	if a.Result == nil {
		return SSNView{}, ErrNotScored
	}

	scores, err := s.store.CompletedScores(ctx, a.Subject, a.Version)
	if err != nil {
		return SSNView{}, err
	}
	cohort := s.cohorts.Compute(string(a.Subject), a.Version, scores)

	view := s.normalizeAgainst(a, cohort, scores)
	if err := s.store.SaveSSN(ctx, id, view.SSN, view.Band, view.Percentile); err != nil {
		return SSNView{}, err
	}
	if a.StudentID != "" {
		if err := s.store.AppendProgression(ctx, a.StudentID, view.SSN, time.Now().UTC()); err != nil {
			log.Printf("assessment %s: progression append failed: %v", id, err)
		}
	}
	s.emit(ctx, audit.TypeSSNComputed, id, view)
	return view, nil
}

// SSN returns the stored standardized score, recomputing the view against
// the cached cohort snapshot.
func (s *Service) SSN(ctx context.Context, id string) (SSNView, error) {
	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return SSNView{}, err
	}
	if a.Result == nil || a.SSN == nil {
		return SSNView{}, ErrNotScored
	}

	cohort, ok := s.cohorts.Get(string(a.Subject), a.Version)
	if !ok {
		scores, err := s.store.CompletedScores(ctx, a.Subject, a.Version)
		if err != nil {
			return SSNView{}, err
		}
		cohort = s.cohorts.Compute(string(a.Subject), a.Version, scores)
	}

	comps := ssnComponents(a.Result)
	return SSNView{
		AssessmentID: a.ID,
		SSN:          *a.SSN,
		Band:         stats.Classify(*a.SSN),
		Label:        stats.Label(*a.SSN),
		Percentile:   valueOr(a.Percentile, 50),
		RawComposite: rawComposite(comps),
		Components:   comps,
		Cohort:       cohort,
	}, nil
}

// RecomputeCohort refreshes a cohort snapshot with drift audit, then
// re-normalizes every completed assessment in the cohort against the new
// distribution. Returns the audit and the number of assessments updated.
func (s *Service) RecomputeCohort(ctx context.Context, subject stats.Subject, version string) (stats.StatsAudit, int, error) {
	scores, err := s.store.CompletedScores(ctx, subject, version)
	if err != nil {
		return stats.StatsAudit{}, 0, err
	}
	auditRes := s.cohorts.ComputeWithAudit(string(subject), version, scores)

	list, err := s.store.ListCompleted(ctx, subject, version)
	if err != nil {
		return auditRes, 0, err
	}
	updated := 0
	for _, a := range list {
		if a.Result == nil {
			continue
		}
		view := s.normalizeAgainst(a, auditRes.Stats, scores)
		if err := s.store.SaveSSN(ctx, a.ID, view.SSN, view.Band, view.Percentile); err != nil {
			return auditRes, updated, err
		}
		updated++
	}
	s.emit(ctx, audit.TypeCohortRecomputed, string(subject), auditRes)
	return auditRes, updated, nil
}

// CohortStats returns the cached snapshot for a cohort, computing it from
// storage on a cold cache.
func (s *Service) CohortStats(ctx context.Context, subject stats.Subject, version string) (stats.CohortStats, error) {
	if snap, ok := s.cohorts.Get(string(subject), version); ok {
		return snap, nil
	}
	scores, err := s.store.CompletedScores(ctx, subject, version)
	if err != nil {
		return stats.CohortStats{}, err
	}
	return s.cohorts.Compute(string(subject), version, scores), nil
}

// ComputeComposite blends the student's per-subject standardized scores
// into the composite index and writes it back. Returns nil (and no error)
// when the student has no usable standardized score.
func (s *Service) ComputeComposite(ctx context.Context, studentID string) (*stats.CompositeIndex, error) {
	ssns, err := s.store.SubjectSSNs(ctx, studentID)
	if err != nil {
		return nil, err
	}
	idx := stats.ComputeComposite(ssns, nil)
	if idx == nil {
		return nil, nil
	}
	if err := s.store.SaveComposite(ctx, studentID, *idx); err != nil {
		return nil, err
	}
	s.emit(ctx, audit.TypeCompositeWritten, studentID, idx)
	return idx, nil
}

// normalizeAgainst builds the SSN view of an assessment against a given
// cohort snapshot. Percentile ranks the raw composite within the cohort's
// completed global scores.
func (s *Service) normalizeAgainst(a Assessment, cohort stats.CohortStats, distribution []float64) SSNView {
	comps := ssnComponents(a.Result)
	raw := rawComposite(comps)
	ssn := stats.Normalize(raw, cohort.Mean, cohort.Std)
	return SSNView{
		AssessmentID: a.ID,
		SSN:          ssn,
		Band:         stats.Classify(ssn),
		Label:        stats.Label(ssn),
		Percentile:   stats.Percentile(raw, distribution),
		RawComposite: raw,
		Components:   comps,
		Cohort:       cohort,
	}
}

// ssnComponents extracts the three composite components from a scoring
// result. Methodology prefers a dedicated methodology category score and
// falls back to the confidence index; rigor is the precision index.
func ssnComponents(res *scoring.Result) SSNComponents {
	methodology := res.ConfidenceIndex
	for _, cs := range res.CategoryScores {
		lower := strings.ToLower(cs.Category)
		if strings.Contains(lower, "méthodolog") || strings.Contains(lower, "methodolog") {
			methodology = cs.Precision
			break
		}
	}
	return SSNComponents{
		Disciplinary: res.GlobalScore,
		Methodology:  methodology,
		Rigor:        res.PrecisionIndex,
	}
}

func rawComposite(c SSNComponents) float64 {
	raw := weightDisciplinary*c.Disciplinary + weightMethodology*c.Methodology + weightRigor*c.Rigor
	return math.Round(raw*10) / 10
}

func (s *Service) emit(ctx context.Context, typ, key string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Append(ctx, typ, key, payload); err != nil {
		log.Printf("event %s/%s: append failed: %v", typ, key, err)
	}
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
