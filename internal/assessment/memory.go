package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// MemoryStore is an in-memory Store for tests and offline development.
type MemoryStore struct {
	mu          sync.Mutex
	assessments map[string]Assessment
	composites  map[string]stats.CompositeIndex
	progression map[string][]RawScoreSample
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments: map[string]Assessment{},
		composites:  map[string]stats.CompositeIndex{},
		progression: map[string][]RawScoreSample{},
	}
}

func (m *MemoryStore) PutAssessment(_ context.Context, a Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.assessments[a.ID] = a
	return nil
}

func (m *MemoryStore) GetAssessment(_ context.Context, id string) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) SaveResult(_ context.Context, id string, answers []scoring.AnswerSubmission, res scoring.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return ErrNotFound
	}
	if a.Result != nil {
		return ErrAlreadyScored
	}
	now := time.Now().UTC()
	r := res
	a.Answers = answers
	a.Result = &r
	a.GlobalScore = &r.GlobalScore
	a.Status = StatusCompleted
	a.SubmittedAt = &now
	m.assessments[id] = a
	return nil
}

func (m *MemoryStore) SaveSSN(_ context.Context, id string, ssn float64, band stats.Band, percentile int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return ErrNotFound
	}
	a.SSN = &ssn
	a.Band = band
	a.Percentile = &percentile
	m.assessments[id] = a
	return nil
}

func (m *MemoryStore) CompletedScores(_ context.Context, subject stats.Subject, version string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []float64
	for _, a := range m.assessments {
		if a.Status == StatusCompleted && a.Subject == subject && (version == "" || a.Version == version) && a.GlobalScore != nil {
			out = append(out, *a.GlobalScore)
		}
	}
	return out, nil
}

func (m *MemoryStore) ListCompleted(_ context.Context, subject stats.Subject, version string) ([]Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Assessment
	for _, a := range m.assessments {
		if a.Status == StatusCompleted && a.Subject == subject && (version == "" || a.Version == version) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *MemoryStore) SubjectSSNs(_ context.Context, studentID string) (map[stats.Subject]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[stats.Subject]Assessment{}
	for _, a := range m.assessments {
		if a.StudentID != studentID || a.SSN == nil {
			continue
		}
		prev, ok := latest[a.Subject]
		if !ok || (a.SubmittedAt != nil && prev.SubmittedAt != nil && a.SubmittedAt.After(*prev.SubmittedAt)) {
			latest[a.Subject] = a
		}
	}
	out := make(map[stats.Subject]float64, len(latest))
	for s, a := range latest {
		out[s] = *a.SSN
	}
	return out, nil
}

func (m *MemoryStore) SaveComposite(_ context.Context, studentID string, idx stats.CompositeIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.composites[studentID] = idx
	return nil
}

func (m *MemoryStore) AppendProgression(_ context.Context, studentID string, ssn float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progression[studentID] = append(m.progression[studentID], RawScoreSample{Value: ssn, Timestamp: at})
	return nil
}

// Composite returns the stored composite for a student, for tests.
func (m *MemoryStore) Composite(studentID string) (stats.CompositeIndex, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, ok := m.composites[studentID]
	return idx, ok
}
