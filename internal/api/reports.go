package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/store"
)

// ─── RISK-ENTRY LISTING ──────────────────────────────────────────────────────

type riskEntryResponse struct {
	ReportID      int       `json:"report_id"`
	HouseholdID   int       `json:"household_id"`
	ManagerID     int       `json:"manager_id"`
	ManagerName   string    `json:"manager_name"`
	HouseholdName string    `json:"household_name"`
	Address       string    `json:"address"`
	ContactNumber string    `json:"contact_number"`
	StatusCode    int16     `json:"status_code"`
	AgencyName    string    `json:"agency_name"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Live values, recomputed per request rather than read from storage.
	CommonActivityRatio float64 `json:"common_activity_ratio"`
	RiskLevel           string  `json:"risk_level"`
}

// handleListRiskEntries returns the paged report listing, each row annotated
// with the household's current ratio and tier.
//
//	GET /api/risk-entries?page=0&size=20&search=&sort=latest
func (s *Server) handleListRiskEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	entries, err := s.reports.ListRiskEntries(r.Context(), ListRiskEntriesParams{
		Page:   page,
		Size:   size,
		Search: q.Get("search"),
		Sort:   q.Get("sort"),
	})
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	out := make([]riskEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp := riskEntryResponse{
			ReportID:      e.ReportID,
			HouseholdID:   e.HouseholdID,
			ManagerID:     e.ManagerID,
			ManagerName:   e.ManagerName,
			HouseholdName: e.HouseholdName,
			Address:       e.Address,
			ContactNumber: e.ContactNumber,
			StatusCode:    e.StatusCode,
			AgencyName:    e.AgencyName,
			Description:   e.Description,
			CreatedAt:     e.CreatedAt,
			UpdatedAt:     e.UpdatedAt,
		}

		// A broken household must not break the listing: annotation failures
		// leave the live fields at their zero values.
		comparison, tier, err := s.engine.Summary(r.Context(), e.HouseholdID)
		if err == nil && !comparison.InsufficientData {
			resp.CommonActivityRatio = comparison.Ratio
			resp.RiskLevel = string(tier)
		}

		out = append(out, resp)
	}

	respond(w, http.StatusOK, map[string]any{"entries": out})
}

// ─── MANUAL FILING ───────────────────────────────────────────────────────────

type fileReportRequest struct {
	ManagerID   int    `json:"manager_id"`
	HouseholdID int    `json:"household_id"`
	StatusCode  *int16 `json:"status_code"`
	Description string `json:"description"`
}

type fileReportResponse struct {
	ReportID    int       `json:"report_id"`
	ManagerID   int       `json:"manager_id"`
	HouseholdID int       `json:"household_id"`
	StatusCode  int16     `json:"status_code"`
	AgencyName  string    `json:"agency_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// handleFileManualReport records a report submitted by a human manager.
//
//	POST /api/reports
func (s *Server) handleFileManualReport(w http.ResponseWriter, r *http.Request) {
	var req fileReportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ManagerID <= 0 || req.HouseholdID <= 0 {
		respondErr(w, http.StatusBadRequest, "manager_id and household_id are required")
		return
	}
	if req.Description == "" {
		respondErr(w, http.StatusBadRequest, "description is required")
		return
	}

	status := store.StatusOpen
	if req.StatusCode != nil {
		status = *req.StatusCode
	}

	report, err := s.reports.FileManualReport(r.Context(), req.ManagerID, req.HouseholdID, status, req.Description)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}

	respond(w, http.StatusCreated, fileReportResponse{
		ReportID:    report.ReportID,
		ManagerID:   report.ManagerID,
		HouseholdID: report.HouseholdID,
		StatusCode:  report.StatusCode,
		AgencyName:  report.AgencyName,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	})
}

// ─── BATCH EVALUATION ────────────────────────────────────────────────────────

// handleEvaluateAll sweeps every known household and returns the at-risk
// count. No model calls are made.
//
//	POST /api/evaluate
func (s *Server) handleEvaluateAll(w http.ResponseWriter, r *http.Request) {
	summary, err := s.engine.EvaluateAll(r.Context())
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, summary)
}
