package ai

import (
	"fmt"

	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// Field vocabularies and fixed defaults used by the deterministic response
// variants. The risk_level values match risk.Tier strings; urgency values
// match the vocabulary the prompt asks the model to pick from.
const (
	UrgencyImmediate  = "immediate"
	UrgencyUrgent     = "urgent"
	UrgencyRoutine    = "routine"
	UrgencyMonitoring = "monitoring"

	AgencyFire    = "119 fire department"
	AgencyPolice  = "112 police"
	AgencyWelfare = "local welfare center"
	AgencyAdmin   = "system administrator"

	// riskLevelUndetermined is used when no comparison could be made at all.
	riskLevelUndetermined = "undetermined"
)

// maxFallbackPreview bounds how much raw model text the fallback record
// carries in its recommendation field.
const maxFallbackPreview = 120

// Analysis is the structured record for one household risk analysis. The
// model is prompted to reply with exactly these snake_case fields;
// CommonActivityRatio and HouseholdID are filled in by the engine, never by
// the model.
type Analysis struct {
	RiskLevel         string `json:"risk_level"`
	Situation         string `json:"situation"`
	Location          string `json:"location"`
	ComparisonDetails string `json:"comparison_details"`
	Recommendation    string `json:"recommendation"`
	ReportingAgency   string `json:"reporting_agency"`
	ContactNumber     string `json:"contact_number"`
	UrgencyLevel      string `json:"urgency_level"`

	CommonActivityRatio float64 `json:"common_activity_ratio"`
	HouseholdID         int     `json:"household_id"`
}

// ReportingDocument is the formal escalation artifact produced by the second
// model pass.
type ReportingDocument struct {
	ReportTitle       string `json:"report_title"`
	Summary           string `json:"summary"`
	DetailedSituation string `json:"detailed_situation"`
	RiskAssessment    string `json:"risk_assessment"`
	ImmediateActions  string `json:"immediate_actions"`
	FollowUpPlan      string `json:"follow_up_plan"`
	ContactInfo       string `json:"contact_info"`
	ReportingAgency   string `json:"reporting_agency"`
	UrgencyLevel      string `json:"urgency_level"`
}

// ─── DETERMINISTIC VARIANTS ──────────────────────────────────────────────────
// These are the non-AI paths: a Normal tier never reaches the model, an
// unanswerable window short-circuits, and a failed invocation degrades to a
// fixed error record.

// SafeAnalysis is returned for a Normal tier. By contract this path never
// invokes the model.
func SafeAnalysis(householdID int, ratio float64) Analysis {
	return Analysis{
		RiskLevel:           string(risk.TierNormal),
		Situation:           fmt.Sprintf("Common activity ratio of %.1f%% against yesterday — routine preserved.", ratio),
		Location:            "whole residence",
		ComparisonDetails:   fmt.Sprintf("Common activity ratio %.1f%% is within the normal range.", ratio),
		Recommendation:      "No action required. Continue routine monitoring.",
		ReportingAgency:     AgencyWelfare,
		ContactNumber:       AgencyWelfare,
		UrgencyLevel:        UrgencyMonitoring,
		CommonActivityRatio: ratio,
		HouseholdID:         householdID,
	}
}

// InsufficientDataAnalysis is returned when either comparison day is missing
// or no hours are comparable. Not a risk verdict.
func InsufficientDataAnalysis(householdID int) Analysis {
	return Analysis{
		RiskLevel:         riskLevelUndetermined,
		Situation:         "Not enough sensor data to compare yesterday and today.",
		Location:          "system",
		ComparisonDetails: "Comparison not possible: one or both days have no usable samples.",
		Recommendation:    "Check sensor connectivity and retry once data has accumulated.",
		ReportingAgency:   AgencyAdmin,
		ContactNumber:     AgencyAdmin,
		UrgencyLevel:      UrgencyRoutine,
		HouseholdID:       householdID,
	}
}

// ErrorAnalysis is returned when the gateway call itself failed.
func ErrorAnalysis(householdID int) Analysis {
	return Analysis{
		RiskLevel:       riskLevelUndetermined,
		Situation:       "The AI analysis service could not be reached.",
		Recommendation:  "Contact the system administrator.",
		ReportingAgency: AgencyAdmin,
		ContactNumber:   AgencyAdmin,
		UrgencyLevel:    UrgencyRoutine,
		HouseholdID:     householdID,
	}
}

// fallbackAnalysis is the fixed record used when the model replied but the
// reply could not be decoded. High severity on purpose: the tiers that reach
// the model are already Suspicious or Critical, and an unparseable reply must
// not read as reassurance.
func fallbackAnalysis(raw string) Analysis {
	return Analysis{
		RiskLevel:       string(risk.TierCritical),
		Situation:       "Sensor data analysis detected an anomaly, but the detailed AI assessment could not be decoded.",
		Recommendation:  previewOrDefault(raw),
		ReportingAgency: AgencyFire,
		ContactNumber:   "119",
		UrgencyLevel:    UrgencyUrgent,
	}
}

// ErrorReportingDocument is returned when the gateway call for the second
// pass failed outright.
func ErrorReportingDocument() ReportingDocument {
	return ReportingDocument{
		ReportTitle:      "Solitary-elderly household safety report",
		Summary:          "The AI report generation service could not be reached.",
		ImmediateActions: "Contact the system administrator and file the report manually.",
		ContactInfo:      AgencyAdmin,
		ReportingAgency:  AgencyAdmin,
		UrgencyLevel:     UrgencyRoutine,
	}
}

// fallbackReportingDocument mirrors fallbackAnalysis for the second pass.
func fallbackReportingDocument(raw string) ReportingDocument {
	return ReportingDocument{
		ReportTitle:       "Solitary-elderly household safety report",
		Summary:           "Automated report generation failed to produce a structured document; manual review required.",
		DetailedSituation: previewOrDefault(raw),
		RiskAssessment:    "Assessment unavailable — treat as high severity pending human review.",
		ImmediateActions:  "Have the assigned manager review the household data and contact the resident.",
		FollowUpPlan:      "Regenerate the report once the analysis service is healthy.",
		ContactInfo:       "119",
		ReportingAgency:   AgencyFire,
		UrgencyLevel:      UrgencyUrgent,
	}
}

// previewOrDefault returns a bounded prefix of the raw model text, or a
// contact-administrator default when the text is empty.
func previewOrDefault(raw string) string {
	if raw == "" {
		return "Contact the system administrator."
	}
	if len(raw) > maxFallbackPreview {
		return raw[:maxFallbackPreview] + "..."
	}
	return raw
}
