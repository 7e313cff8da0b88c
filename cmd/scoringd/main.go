package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/nexus-reussite/scoring-engine/internal/api/http"
	"github.com/nexus-reussite/scoring-engine/internal/assessment"
	"github.com/nexus-reussite/scoring-engine/internal/audit"
	"github.com/nexus-reussite/scoring-engine/internal/auth"
	"github.com/nexus-reussite/scoring-engine/internal/catalog"
	"github.com/nexus-reussite/scoring-engine/internal/config"
	"github.com/nexus-reussite/scoring-engine/internal/db"
	"github.com/nexus-reussite/scoring-engine/internal/scoring"
	"github.com/nexus-reussite/scoring-engine/internal/stats"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Question catalog (static content collaborator) ---
	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}
	log.Printf("catalog loaded: %d questions, %d categories", cat.Len(), len(cat.Categories()))

	// --- Engine wiring ---
	store := assessment.NewSQLStore(dbh)
	events := audit.NewEventRepo(dbh)
	cohorts := stats.NewCohortCache()
	opts := scoring.Options{
		StrengthPrecision:  cfg.StrengthPrecision,
		StrengthConfidence: cfg.StrengthConfidence,
	}
	svc := assessment.NewService(store, cat, cohorts, events, opts)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.AdminUser, cfg.AdminPassHash)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Route("/assessments", func(ar chi.Router) {
			ar.Post("/", api.CreateAssessmentHandler(store))
			ar.Post("/{assessmentID}/submit", api.SubmitHandler(svc))
			ar.Get("/{assessmentID}/result", api.ResultHandler(store))
			ar.Get("/{assessmentID}/ssn", api.SSNHandler(svc))
		})
		pr.Get("/students/{studentID}/composite", api.CompositeHandler(svc))

		pr.Route("/admin", func(adm chi.Router) {
			adm.Use(auth.RequireRole("admin"))
			adm.Get("/cohorts/{subject}", api.CohortStatsHandler(svc))
			adm.Post("/cohorts/{subject}/recompute", api.RecomputeCohortHandler(svc))
		})
	})

	log.Printf("scoringd listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
