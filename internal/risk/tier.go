package risk

// Tier thresholds. Strictly above normalThreshold is Normal; at or below
// criticalThreshold is Critical; the half-open band between them is
// Suspicious. A ratio of exactly 60 is Suspicious and exactly 40 is Critical.
const (
	normalThreshold   = 60.0
	criticalThreshold = 40.0
)

// Tier is the three-bucket risk classification. String values double as the
// risk_level vocabulary in prompts and API responses.
type Tier string

const (
	TierNormal     Tier = "normal"     // routine activity preserved — no action
	TierSuspicious Tier = "suspicious" // noticeable drop — human review
	TierCritical   Tier = "critical"   // severe drop — escalate
)

// Classify maps a common-activity ratio to its tier. Pure function of the
// ratio only; callers must handle the insufficient-data case before calling.
func Classify(ratio float64) Tier {
	switch {
	case ratio > normalThreshold:
		return TierNormal
	case ratio <= criticalThreshold:
		return TierCritical
	default:
		return TierSuspicious
	}
}

// AtRisk reports whether a tier warrants inclusion in the at-risk count of a
// batch sweep.
func (t Tier) AtRisk() bool {
	return t == TierSuspicious || t == TierCritical
}
