package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexus-reussite/scoring-engine/internal/assessment"
	"github.com/nexus-reussite/scoring-engine/internal/catalog"
	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

func testRouter(t *testing.T) (chi.Router, *assessment.MemoryStore) {
	t.Helper()
	cat, err := catalog.New([]catalog.Question{
		{ID: "q1", Subject: stats.SubjectMaths, Category: "Algèbre", Competence: catalog.CompetenceRestituer, Weight: 1, CorrectOptionID: "a"},
		{ID: "q2", Subject: stats.SubjectMaths, Category: "Algèbre", Competence: catalog.CompetenceAppliquer, Weight: 2, CorrectOptionID: "b"},
	})
	require.NoError(t, err)

	store := assessment.NewMemoryStore()
	svc := assessment.NewService(store, cat, stats.NewCohortCache(), nil, scoring.DefaultOptions())

	r := chi.NewRouter()
	r.Route("/assessments", func(ar chi.Router) {
		ar.Post("/", CreateAssessmentHandler(store))
		ar.Post("/{assessmentID}/submit", SubmitHandler(svc))
		ar.Get("/{assessmentID}/result", ResultHandler(store))
		ar.Get("/{assessmentID}/ssn", SSNHandler(svc))
	})
	r.Get("/students/{studentID}/composite", CompositeHandler(svc))
	r.Get("/admin/cohorts/{subject}", CohortStatsHandler(svc))
	r.Post("/admin/cohorts/{subject}/recompute", RecomputeCohortHandler(svc))
	return r, store
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func seedPending(t *testing.T, store *assessment.MemoryStore, id string) {
	t.Helper()
	require.NoError(t, store.PutAssessment(context.Background(), assessment.Assessment{
		ID:      id,
		Subject: stats.SubjectMaths,
		Status:  assessment.StatusPending,
	}))
}

func submitBody() map[string]any {
	return map[string]any{
		"answers": []map[string]any{
			{"question_id": "q1", "selected_option_id": "a"},
			{"question_id": "q2", "is_nsp": true},
		},
	}
}

func TestSubmitHandler_OnceThenConflict(t *testing.T) {
	r, store := testRouter(t)
	seedPending(t, store, "a1")

	rec := doJSON(t, r, http.MethodPost, "/assessments/a1/submit", submitBody())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a assessment.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, assessment.StatusCompleted, a.Status)
	require.NotNil(t, a.Result)

	rec = doJSON(t, r, http.MethodPost, "/assessments/a1/submit", submitBody())
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitHandler_UnknownAssessment(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(t, r, http.MethodPost, "/assessments/ghost/submit", submitBody())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitHandler_BadJSON(t *testing.T) {
	r, store := testRouter(t)
	seedPending(t, store, "a1")

	req := httptest.NewRequest(http.MethodPost, "/assessments/a1/submit", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResultHandler_NotScoredYet(t *testing.T) {
	r, store := testRouter(t)
	seedPending(t, store, "a1")

	rec := doJSON(t, r, http.MethodGet, "/assessments/a1/result", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultAndSSNHandlers_AfterSubmit(t *testing.T) {
	r, store := testRouter(t)
	seedPending(t, store, "a1")

	rec := doJSON(t, r, http.MethodPost, "/assessments/a1/submit", submitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/assessments/a1/result", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res scoring.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.TotalQuestions)

	rec = doJSON(t, r, http.MethodGet, "/assessments/a1/ssn", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view assessment.SSNView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "a1", view.AssessmentID)
	assert.GreaterOrEqual(t, view.SSN, 0.0)
	assert.LessOrEqual(t, view.SSN, 100.0)
}

func TestCreateAssessmentHandler(t *testing.T) {
	r, store := testRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/assessments", map[string]any{
		"id": "a9", "student_id": "s1", "subject": "MATHS",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	a, err := store.GetAssessment(context.Background(), "a9")
	require.NoError(t, err)
	assert.Equal(t, assessment.StatusPending, a.Status)

	rec = doJSON(t, r, http.MethodPost, "/assessments", map[string]any{"id": "a10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "subject is required")
}

func TestCompositeHandler_NoScores(t *testing.T) {
	r, _ := testRouter(t)
	rec := doJSON(t, r, http.MethodGet, "/students/nobody/composite", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCohortHandlers(t *testing.T) {
	r, store := testRouter(t)
	seedPending(t, store, "a1")
	rec := doJSON(t, r, http.MethodPost, "/assessments/a1/submit", submitBody())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/admin/cohorts/MATHS", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap stats.CohortStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.N)

	rec = doJSON(t, r, http.MethodPost, "/admin/cohorts/MATHS/recompute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Audit   stats.StatsAudit `json:"audit"`
		Updated int              `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 1, out.Updated)
	assert.Equal(t, 1, out.Audit.Stats.N)
}
