package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// householdID extracts and validates the {householdID} URL parameter.
func householdID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "householdID"))
	if err != nil || id <= 0 {
		respondErr(w, http.StatusBadRequest, "invalid household id")
		return 0, false
	}
	return id, true
}

// handleAnalyzeHousehold runs the on-demand risk analysis for one household.
//
//	POST /api/households/{householdID}/analysis
func (s *Server) handleAnalyzeHousehold(w http.ResponseWriter, r *http.Request) {
	id, ok := householdID(w, r)
	if !ok {
		return
	}

	analysis, err := s.engine.AnalyzeHousehold(r.Context(), id)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, analysis)
}

// handleReportingDocument generates the formal escalation document. The body
// may carry a prior analysis to build on; with an empty body a fresh analysis
// is run first.
//
//	POST /api/households/{householdID}/reporting-document
func (s *Server) handleReportingDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := householdID(w, r)
	if !ok {
		return
	}

	var prior ai.Analysis
	if r.ContentLength > 0 {
		if !decode(w, r, &prior) {
			return
		}
	} else {
		var err error
		prior, err = s.engine.AnalyzeHousehold(r.Context(), id)
		if err != nil {
			s.respondInternalErr(w, r, err)
			return
		}
	}

	doc, err := s.engine.GenerateReportingDocument(r.Context(), id, prior)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, doc)
}

// ─── SUMMARY ─────────────────────────────────────────────────────────────────

type daySummary struct {
	Hours          int `json:"hours"`
	LightHours     int `json:"light_hours"`
	OccupancyHours int `json:"occupancy_hours"`
	NoiseHours     int `json:"noise_hours"`
}

type summaryResponse struct {
	HouseholdID         int        `json:"household_id"`
	InsufficientData    bool       `json:"insufficient_data"`
	CommonActivityRatio float64    `json:"common_activity_ratio"`
	ComparableHours     int        `json:"comparable_hours"`
	CommonHours         int        `json:"common_hours"`
	RiskLevel           string     `json:"risk_level,omitempty"`
	Yesterday           daySummary `json:"yesterday"`
	Today               daySummary `json:"today"`
}

func toDaySummary(d risk.DayStats) daySummary {
	return daySummary{
		Hours:          d.Hours,
		LightHours:     d.LightHours,
		OccupancyHours: d.OccupancyHours,
		NoiseHours:     d.NoiseHours,
	}
}

// handleHouseholdSummary returns the raw day-over-day aggregates without
// touching the model: the dashboard numbers behind the verdict.
//
//	GET /api/households/{householdID}/summary
func (s *Server) handleHouseholdSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := householdID(w, r)
	if !ok {
		return
	}

	comparison, tier, err := s.engine.Summary(r.Context(), id)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	respond(w, http.StatusOK, summaryResponse{
		HouseholdID:         id,
		InsufficientData:    comparison.InsufficientData,
		CommonActivityRatio: comparison.Ratio,
		ComparableHours:     comparison.ComparableHours,
		CommonHours:         comparison.CommonHours,
		RiskLevel:           string(tier),
		Yesterday:           toDaySummary(comparison.Yesterday),
		Today:               toDaySummary(comparison.Today),
	})
}
