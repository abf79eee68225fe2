package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/engine"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
	"github.com/mcg-iot/seniorsafe-backend/internal/store"
)

// ─── STUBS ───────────────────────────────────────────────────────────────────

type stubEngine struct {
	analysis    ai.Analysis
	analysisErr error
	doc         ai.ReportingDocument
	docPrior    ai.Analysis
	comparison  risk.Comparison
	tier        risk.Tier
	summaryErr  error
	batch       engine.BatchSummary
	batchErr    error

	analyzeCalls int
}

func (e *stubEngine) AnalyzeHousehold(_ context.Context, _ int) (ai.Analysis, error) {
	e.analyzeCalls++
	return e.analysis, e.analysisErr
}

func (e *stubEngine) GenerateReportingDocument(_ context.Context, _ int, prior ai.Analysis) (ai.ReportingDocument, error) {
	e.docPrior = prior
	return e.doc, nil
}

func (e *stubEngine) Summary(_ context.Context, _ int) (risk.Comparison, risk.Tier, error) {
	return e.comparison, e.tier, e.summaryErr
}

func (e *stubEngine) EvaluateAll(_ context.Context) (engine.BatchSummary, error) {
	return e.batch, e.batchErr
}

type stubReports struct {
	report     store.Report
	reportErr  error
	entries    []store.RiskEntry
	lastParams ListRiskEntriesParams

	filedManagerID   int
	filedHouseholdID int
	filedStatus      int16
	filedDescription string
}

func (r *stubReports) FileManualReport(_ context.Context, managerID, householdID int, statusCode int16, description string) (store.Report, error) {
	r.filedManagerID = managerID
	r.filedHouseholdID = householdID
	r.filedStatus = statusCode
	r.filedDescription = description
	return r.report, r.reportErr
}

func (r *stubReports) ListRiskEntries(_ context.Context, p ListRiskEntriesParams) ([]store.RiskEntry, error) {
	r.lastParams = p
	return r.entries, nil
}

func newTestServer(eng AnalysisEngine, reports ReportStore) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(eng, reports, Config{Env: "development"}, logger)
}

// ─── ANALYSIS ────────────────────────────────────────────────────────────────

func TestAnalyzeHouseholdHandler(t *testing.T) {
	eng := &stubEngine{analysis: ai.SafeAnalysis(7, 85)}
	srv := newTestServer(eng, &stubReports{})

	req := httptest.NewRequest(http.MethodPost, "/api/households/7/analysis", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}

	var got ai.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RiskLevel != string(risk.TierNormal) {
		t.Errorf("risk_level = %q, want normal", got.RiskLevel)
	}
	if got.HouseholdID != 7 {
		t.Errorf("household_id = %d, want 7", got.HouseholdID)
	}
}

func TestAnalyzeHouseholdHandlerBadID(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubReports{})

	for _, id := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/households/"+id+"/analysis", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("id %q: status = %d, want 400", id, rec.Code)
		}
	}
}

func TestAnalyzeHouseholdHandlerEngineError(t *testing.T) {
	eng := &stubEngine{analysisErr: errors.New("db down")}
	srv := newTestServer(eng, &stubReports{})

	req := httptest.NewRequest(http.MethodPost, "/api/households/7/analysis", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "db down") {
		t.Error("response leaked internal error detail")
	}
}

// ─── REPORTING DOCUMENT ──────────────────────────────────────────────────────

func TestReportingDocumentHandlerWithBody(t *testing.T) {
	eng := &stubEngine{doc: ai.ReportingDocument{ReportTitle: "t"}}
	srv := newTestServer(eng, &stubReports{})

	prior := ai.ErrorAnalysis(5)
	body, _ := json.Marshal(prior)
	req := httptest.NewRequest(http.MethodPost, "/api/households/5/reporting-document", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if eng.analyzeCalls != 0 {
		t.Errorf("analysis run %d times despite prior in body, want 0", eng.analyzeCalls)
	}
	if eng.docPrior.RiskLevel != prior.RiskLevel {
		t.Errorf("prior passed to engine = %q, want %q", eng.docPrior.RiskLevel, prior.RiskLevel)
	}
}

func TestReportingDocumentHandlerEmptyBodyRunsAnalysis(t *testing.T) {
	eng := &stubEngine{
		analysis: ai.ErrorAnalysis(5),
		doc:      ai.ReportingDocument{ReportTitle: "t"},
	}
	srv := newTestServer(eng, &stubReports{})

	req := httptest.NewRequest(http.MethodPost, "/api/households/5/reporting-document", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body)
	}
	if eng.analyzeCalls != 1 {
		t.Errorf("analysis run %d times for empty body, want 1", eng.analyzeCalls)
	}
}

// ─── SUMMARY ─────────────────────────────────────────────────────────────────

func TestHouseholdSummaryHandler(t *testing.T) {
	eng := &stubEngine{
		comparison: risk.Comparison{
			Ratio:           62.5,
			ComparableHours: 24,
			CommonHours:     15,
			Yesterday:       risk.DayStats{Hours: 24, LightHours: 20},
			Today:           risk.DayStats{Hours: 24, LightHours: 15},
		},
		tier: risk.TierNormal,
	}
	srv := newTestServer(eng, &stubReports{})

	req := httptest.NewRequest(http.MethodGet, "/api/households/3/summary", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got summaryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.CommonActivityRatio != 62.5 || got.RiskLevel != "normal" {
		t.Errorf("got ratio %v tier %q, want 62.5 / normal", got.CommonActivityRatio, got.RiskLevel)
	}
	if got.Yesterday.LightHours != 20 || got.Today.LightHours != 15 {
		t.Errorf("day summaries = %+v / %+v", got.Yesterday, got.Today)
	}
}

// ─── RISK ENTRIES ────────────────────────────────────────────────────────────

func TestListRiskEntriesHandler(t *testing.T) {
	reports := &stubReports{
		entries: []store.RiskEntry{
			{ReportID: 1, HouseholdID: 4, ManagerName: "Kim", CreatedAt: time.Now()},
		},
	}
	eng := &stubEngine{
		comparison: risk.Comparison{Ratio: 30, ComparableHours: 10, CommonHours: 3},
		tier:       risk.TierCritical,
	}
	srv := newTestServer(eng, reports)

	req := httptest.NewRequest(http.MethodGet, "/api/risk-entries?page=2&size=10&search=kim&sort=latest", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if reports.lastParams.Page != 2 || reports.lastParams.Size != 10 ||
		reports.lastParams.Search != "kim" || reports.lastParams.Sort != "latest" {
		t.Errorf("params = %+v", reports.lastParams)
	}

	var got struct {
		Entries []riskEntryResponse `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(got.Entries))
	}
	if got.Entries[0].RiskLevel != "critical" || got.Entries[0].CommonActivityRatio != 30 {
		t.Errorf("annotation = %q / %v, want critical / 30", got.Entries[0].RiskLevel, got.Entries[0].CommonActivityRatio)
	}
}

func TestListRiskEntriesHandlerBrokenAnnotation(t *testing.T) {
	reports := &stubReports{
		entries: []store.RiskEntry{{ReportID: 1, HouseholdID: 4}},
	}
	eng := &stubEngine{summaryErr: errors.New("sensor store down")}
	srv := newTestServer(eng, reports)

	req := httptest.NewRequest(http.MethodGet, "/api/risk-entries", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when annotation fails", rec.Code)
	}

	var got struct {
		Entries []riskEntryResponse `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Entries[0].RiskLevel != "" {
		t.Errorf("risk_level = %q, want empty for failed annotation", got.Entries[0].RiskLevel)
	}
}

// ─── MANUAL FILING ───────────────────────────────────────────────────────────

func TestFileManualReportHandler(t *testing.T) {
	reports := &stubReports{
		report: store.Report{ReportID: 12, ManagerID: 2, HouseholdID: 9, AgencyName: "community care center"},
	}
	srv := newTestServer(&stubEngine{}, reports)

	body := `{"manager_id": 2, "household_id": 9, "description": "visited, no answer at the door"}`
	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body)
	}
	if reports.filedManagerID != 2 || reports.filedHouseholdID != 9 {
		t.Errorf("filed manager %d household %d, want 2 / 9", reports.filedManagerID, reports.filedHouseholdID)
	}
	if reports.filedStatus != store.StatusOpen {
		t.Errorf("filed status = %d, want default open", reports.filedStatus)
	}
	if reports.filedDescription != "visited, no answer at the door" {
		t.Errorf("filed description = %q", reports.filedDescription)
	}
}

func TestFileManualReportHandlerValidation(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubReports{})

	cases := []string{
		`{"household_id": 9, "description": "x"}`,
		`{"manager_id": 2, "description": "x"}`,
		`{"manager_id": 2, "household_id": 9}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

// ─── EVALUATE ────────────────────────────────────────────────────────────────

func TestEvaluateAllHandler(t *testing.T) {
	eng := &stubEngine{batch: engine.BatchSummary{TotalHouseholds: 12, AtRiskHouseholds: 3}}
	srv := newTestServer(eng, &stubReports{})

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got engine.BatchSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalHouseholds != 12 || got.AtRiskHouseholds != 3 {
		t.Errorf("summary = %+v", got)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubEngine{}, &stubReports{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
