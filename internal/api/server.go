// Package api implements the HTTP layer for the senior-safety backend.
// Handlers are methods on *Server. Each handler file is responsible for one
// resource group and only imports the dependencies it actually uses.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/engine"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
	"github.com/mcg-iot/seniorsafe-backend/internal/store"
)

// AnalysisEngine is the narrow interface the handlers use to run analyses.
// The concrete implementation is *engine.Engine; tests inject stubs.
type AnalysisEngine interface {
	AnalyzeHousehold(ctx context.Context, householdID int) (ai.Analysis, error)
	GenerateReportingDocument(ctx context.Context, householdID int, prior ai.Analysis) (ai.ReportingDocument, error)
	Summary(ctx context.Context, householdID int) (risk.Comparison, risk.Tier, error)
	EvaluateAll(ctx context.Context) (engine.BatchSummary, error)
}

// ReportStore is the slice of the store the report handlers need.
type ReportStore interface {
	FileManualReport(ctx context.Context, managerID, householdID int, statusCode int16, description string) (store.Report, error)
	ListRiskEntries(ctx context.Context, p ListRiskEntriesParams) ([]store.RiskEntry, error)
}

// ListRiskEntriesParams aliases the store type so handler files and stubs do
// not each restate it.
type ListRiskEntriesParams = store.ListRiskEntriesParams

// Config holds values read from environment variables at startup.
type Config struct {
	// Env is "production", "staging", or "development".
	Env string
}

// Server holds all shared dependencies. Each handler file attaches methods to
// this type and uses only the fields it needs.
type Server struct {
	engine  AnalysisEngine
	reports ReportStore
	cfg     Config
	logger  *slog.Logger
}

// NewServer constructs the Server and wires the chi router. The returned
// http.Handler is ready to pass to http.ListenAndServe.
func NewServer(eng AnalysisEngine, reports ReportStore, cfg Config, logger *slog.Logger) http.Handler {
	s := &Server{
		engine:  eng,
		reports: reports,
		cfg:     cfg,
		logger:  logger,
	}
	return s.routes()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	// ── Global middleware ─────────────────────────────────────────────────────
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggerMiddleware)
	r.Use(middleware.Recoverer)
	// Analysis requests wait on the model, so the request timeout sits above
	// the gateway timeout.
	r.Use(middleware.Timeout(90 * time.Second))

	// ── Health & metrics ──────────────────────────────────────────────────────
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	// ── API v1 ────────────────────────────────────────────────────────────────
	r.Route("/api", func(r chi.Router) {

		r.Route("/households/{householdID}", func(r chi.Router) {
			r.Post("/analysis", s.handleAnalyzeHousehold)
			r.Post("/reporting-document", s.handleReportingDocument)
			r.Get("/summary", s.handleHouseholdSummary)
		})

		r.Get("/risk-entries", s.handleListRiskEntries)
		r.Post("/reports", s.handleFileManualReport)
		r.Post("/evaluate", s.handleEvaluateAll)
	})

	return r
}
