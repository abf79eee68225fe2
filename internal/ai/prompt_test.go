package ai_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/ai"
	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

func sampleComparison() risk.Comparison {
	var y, td risk.DayStats
	for h := 0; h < 24; h++ {
		y.ByHour[h] = risk.HourActivity{Sampled: true, Light: true, Occupancy: h%2 == 0}
		td.ByHour[h] = risk.HourActivity{Sampled: true, Light: h < 8}
	}
	y.Hours, y.LightHours, y.OccupancyHours = 24, 24, 12
	td.Hours, td.LightHours = 24, 8
	return risk.Comparison{
		Ratio:           33.3,
		ComparableHours: 24,
		CommonHours:     8,
		Yesterday:       y,
		Today:           td,
	}
}

func TestBuildAnalysisPrompt_CarriesComputedFacts(t *testing.T) {
	p := ai.BuildAnalysisPrompt(77, sampleComparison(), risk.TierCritical)

	for _, want := range []string{
		"Household ID: 77",
		"33.3%",
		"critical",
		"light usage: 24 hours",
		"occupancy detected: 12 hours",
		"07:00:",
		"18:00:",
		`"risk_level"`,
		`"comparison_details"`,
		`"urgency_level"`,
		`\n`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("analysis prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPrompt_EnumeratesAllRequestedFields(t *testing.T) {
	p := ai.BuildAnalysisPrompt(1, sampleComparison(), risk.TierSuspicious)
	for _, field := range []string{
		"risk_level", "situation", "location", "comparison_details",
		"recommendation", "reporting_agency", "contact_number", "urgency_level",
	} {
		if !strings.Contains(p, `"`+field+`"`) {
			t.Errorf("missing field %q in closing instruction", field)
		}
	}
}

func TestBuildReportingPrompt_CarriesPriorAnalysis(t *testing.T) {
	prior := ai.Analysis{
		RiskLevel:           "critical",
		Situation:           "no kitchen activity since 06:00",
		Location:            "kitchen",
		ComparisonDetails:   "14h vs 2h active",
		CommonActivityRatio: 28.6,
	}
	now := time.Date(2025, 8, 29, 14, 30, 0, 0, time.UTC)
	p := ai.BuildReportingPrompt(77, now, prior)

	for _, want := range []string{
		"Household ID: 77",
		"2025-08-29 14:30:00",
		"28.6%",
		"no kitchen activity since 06:00",
		"kitchen",
		`"report_title"`,
		`"summary"`,
		`"detailed_situation"`,
		`"risk_assessment"`,
		`"immediate_actions"`,
		`"follow_up_plan"`,
		`"contact_info"`,
		`"reporting_agency"`,
		`"urgency_level"`,
	} {
		if !strings.Contains(p, want) {
			t.Errorf("reporting prompt missing %q", want)
		}
	}
}

func TestBuildAnalysisPrompt_SkipsUnsampledKeyHours(t *testing.T) {
	// Only hour 12 is sampled on both days; other key hours must be omitted
	// rather than rendered with fabricated values.
	var y, td risk.DayStats
	y.ByHour[12] = risk.HourActivity{Sampled: true, Light: true}
	td.ByHour[12] = risk.HourActivity{Sampled: true, Light: true}
	y.Hours, td.Hours = 1, 1
	c := risk.Comparison{Ratio: 100, ComparableHours: 1, CommonHours: 1, Yesterday: y, Today: td}

	p := ai.BuildAnalysisPrompt(5, c, risk.TierNormal)
	if !strings.Contains(p, "12:00:") {
		t.Error("sampled key hour missing")
	}
	if strings.Contains(p, "07:00:") || strings.Contains(p, "19:00:") {
		t.Error("unsampled key hours must be skipped")
	}
}
