package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// importantHours are the hour-of-day buckets spelled out one by one in the
// analysis prompt: morning, midday, and evening bands. The rest of the day is
// summarised in aggregate to keep the prompt compact.
var importantHours = [...]int{7, 8, 12, 13, 18, 19}

// BuildAnalysisPrompt renders the first-pass prompt: the computed comparison
// plus a fixed closing instruction demanding an exact JSON field set.
func BuildAnalysisPrompt(householdID int, c risk.Comparison, tier risk.Tier) string {
	var sb strings.Builder

	sb.WriteString("Analyse the IoT sensor data of a solitary elderly household and assess the risk situation.\n\n")

	sb.WriteString("### Overview:\n")
	fmt.Fprintf(&sb, "- Household ID: %d\n", householdID)
	fmt.Fprintf(&sb, "- Common activity ratio (today vs yesterday): %.1f%%\n", c.Ratio)
	fmt.Fprintf(&sb, "- Computed risk tier: %s\n", tier)
	sb.WriteString("- Tier thresholds: above 60% normal, 40-60% suspicious, 40% or below critical\n\n")

	sb.WriteString("### Sensor channels:\n")
	sb.WriteString("1. light: room lighting usage (any of master room, living room, kitchen, toilet)\n")
	sb.WriteString("2. occupancy: motion detected in the residence\n")
	sb.WriteString("3. noise: everyday living noise detected\n\n")

	sb.WriteString("### Yesterday activity summary:\n")
	writeDaySummary(&sb, c.Yesterday)
	sb.WriteString("### Today activity summary:\n")
	writeDaySummary(&sb, c.Today)

	sb.WriteString("### Key hours, yesterday vs today:\n")
	writeHourlyComparison(&sb, c)

	sb.WriteString("Considering all of the above, respond ONLY with a single JSON object — no markdown fences, no preamble — with exactly these fields:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"risk_level\": \"normal | suspicious | critical\",\n")
	sb.WriteString("  \"situation\": \"detailed assessment of the current situation, including pattern changes and concerns\",\n")
	sb.WriteString("  \"location\": \"where the risk was mainly detected (master room/living room/kitchen/toilet/whole residence)\",\n")
	sb.WriteString("  \"comparison_details\": \"concrete day-over-day changes with numbers\",\n")
	sb.WriteString("  \"recommendation\": \"concrete response instructions\",\n")
	sb.WriteString("  \"reporting_agency\": \"119 fire department | 112 police | local welfare center\",\n")
	sb.WriteString("  \"contact_number\": \"phone number to call\",\n")
	sb.WriteString("  \"urgency_level\": \"immediate | urgent | routine | monitoring\"\n")
	sb.WriteString("}\n")
	sb.WriteString("Encode any newline inside a string value as the two-character sequence \\n.\n")

	return sb.String()
}

// BuildReportingPrompt renders the second-pass prompt that turns a prior
// analysis into a formal reporting document.
func BuildReportingPrompt(householdID int, now time.Time, prior Analysis) string {
	var sb strings.Builder

	sb.WriteString("Write a formal incident report about a risk situation in a solitary elderly household, suitable for submission to an external agency.\n\n")

	sb.WriteString("### Basic information:\n")
	fmt.Fprintf(&sb, "- Household ID: %d\n", householdID)
	fmt.Fprintf(&sb, "- Reported at: %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- Risk tier: %s\n", prior.RiskLevel)
	fmt.Fprintf(&sb, "- Activity pattern match: %.1f%%\n\n", prior.CommonActivityRatio)

	sb.WriteString("### Initial analysis:\n")
	fmt.Fprintf(&sb, "- Situation: %s\n", prior.Situation)
	fmt.Fprintf(&sb, "- Location: %s\n", prior.Location)
	fmt.Fprintf(&sb, "- Comparison: %s\n\n", prior.ComparisonDetails)

	sb.WriteString("Respond ONLY with a single JSON object — no markdown fences, no preamble — with exactly these fields:\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"report_title\": \"title of the report\",\n")
	sb.WriteString("  \"summary\": \"one-line situation summary\",\n")
	sb.WriteString("  \"detailed_situation\": \"detailed chronology with concrete numbers\",\n")
	sb.WriteString("  \"risk_assessment\": \"risk evaluation and its grounds\",\n")
	sb.WriteString("  \"immediate_actions\": \"actions needed right now\",\n")
	sb.WriteString("  \"follow_up_plan\": \"follow-up response plan\",\n")
	sb.WriteString("  \"contact_info\": \"responsible contact and agency details\",\n")
	sb.WriteString("  \"reporting_agency\": \"target agency\",\n")
	sb.WriteString("  \"urgency_level\": \"immediate | urgent | routine | monitoring\"\n")
	sb.WriteString("}\n")
	sb.WriteString("Encode any newline inside a string value as the two-character sequence \\n.\n")

	return sb.String()
}

func writeDaySummary(sb *strings.Builder, d risk.DayStats) {
	if d.Hours == 0 {
		sb.WriteString("no data\n\n")
		return
	}
	fmt.Fprintf(sb, "%d sampled hours:\n", d.Hours)
	fmt.Fprintf(sb, "- light usage: %d hours\n", d.LightHours)
	fmt.Fprintf(sb, "- occupancy detected: %d hours\n", d.OccupancyHours)
	fmt.Fprintf(sb, "- noise detected: %d hours\n\n", d.NoiseHours)
}

func writeHourlyComparison(sb *strings.Builder, c risk.Comparison) {
	for _, h := range importantHours {
		y, t := c.Yesterday.ByHour[h], c.Today.ByHour[h]
		if !y.Sampled || !t.Sampled {
			continue
		}
		fmt.Fprintf(sb, "%02d:00:\n", h)
		fmt.Fprintf(sb, "  yesterday: light=%s, occupancy=%s, noise=%s\n",
			onOff(y.Light), detected(y.Occupancy), detected(y.Noise))
		fmt.Fprintf(sb, "  today:     light=%s, occupancy=%s, noise=%s\n",
			onOff(t.Light), detected(t.Occupancy), detected(t.Noise))
	}
	sb.WriteString("\n")
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func detected(b bool) string {
	if b {
		return "detected"
	}
	return "none"
}
