package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexus-reussite/scoring-engine/internal/assessment"
	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

// SubmitHandler scores a submission once. A repeat submission for the same
// assessment is a 409, never a recomputation.
func SubmitHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		var req struct {
			Answers []scoring.AnswerSubmission `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a, err := svc.SubmitAndScore(r.Context(), id, req.Answers)
		switch {
		case errors.Is(err, assessment.ErrAlreadyScored):
			http.Error(w, "already scored", http.StatusConflict)
			return
		case errors.Is(err, assessment.ErrNotFound):
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(a)
	}
}

func ResultHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		a, err := store.GetAssessment(r.Context(), id)
		if errors.Is(err, assessment.ErrNotFound) {
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if a.Result == nil {
			http.Error(w, "not scored yet", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(a.Result)
	}
}

func SSNHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "assessmentID")
		view, err := svc.SSN(r.Context(), id)
		switch {
		case errors.Is(err, assessment.ErrNotFound):
			http.Error(w, "assessment not found", http.StatusNotFound)
			return
		case errors.Is(err, assessment.ErrNotScored):
			http.Error(w, "not scored yet", http.StatusNotFound)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(view)
	}
}

func CompositeHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID := chi.URLParam(r, "studentID")
		idx, err := svc.ComputeComposite(r.Context(), studentID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if idx == nil {
			http.Error(w, "no standardized scores for student", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(idx)
	}
}

// CreateAssessmentHandler registers a pending reservation.
func CreateAssessmentHandler(store assessment.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var a assessment.Assessment
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if a.ID == "" || a.Subject == "" {
			http.Error(w, "id and subject required", http.StatusBadRequest)
			return
		}
		a.Status = assessment.StatusPending
		if err := store.PutAssessment(r.Context(), a); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(a)
	}
}

// CohortStatsHandler returns the current snapshot for a cohort.
func CohortStatsHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := stats.Subject(chi.URLParam(r, "subject"))
		version := r.URL.Query().Get("version")
		snap, err := svc.CohortStats(r.Context(), subject, version)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(snap)
	}
}

// RecomputeCohortHandler refreshes cohort stats with a drift audit and
// batch re-normalizes the cohort's assessments.
func RecomputeCohortHandler(svc *assessment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subject := stats.Subject(chi.URLParam(r, "subject"))
		version := r.URL.Query().Get("version")
		auditRes, updated, err := svc.RecomputeCohort(r.Context(), subject, version)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"audit":   auditRes,
			"updated": updated,
		})
	}
}
