// Package risk implements the day-over-day activity comparison for a single
// household: hour-of-day bucketing of sensor samples, the common-activity
// ratio, and the three-tier risk classification. It is intentionally
// dependency-free: it imports nothing from internal/ and can be tested
// without a database or a model endpoint.
package risk

import "time"

// Sample is one hourly sensor row for a household. Each channel carries an
// independent activity flag for that hour. Light is the OR of the per-room
// LEDs, folded at ingestion; rows read from the legacy LED-only store have
// Occupancy and Noise permanently false.
type Sample struct {
	HouseholdID int
	RecordedAt  time.Time
	Light       bool
	Occupancy   bool
	Noise       bool
}

// Window pairs yesterday's and today's sample sequences for one household.
// It is assembled on demand per request and never persisted.
type Window struct {
	HouseholdID int
	Yesterday   []Sample
	Today       []Sample
}

// HourActivity is the per-channel activity of one hour-of-day bucket,
// OR-folded across all samples that landed in that bucket. Sampled reports
// whether the bucket received any sample at all — an unsampled hour is not
// comparable regardless of channel state.
type HourActivity struct {
	Sampled   bool
	Light     bool
	Occupancy bool
	Noise     bool
}

// DayStats summarises one day's samples after bucketing.
type DayStats struct {
	// Hours is the number of hour buckets that received at least one sample.
	Hours int

	// Per-channel counts of active hours. Used verbatim in the analysis prompt.
	LightHours     int
	OccupancyHours int
	NoiseHours     int

	// ByHour is indexed by hour-of-day (0–23). In relative-offset alignment
	// the index is the bucket's position in the day's populated-hour order
	// instead; hour-of-day callers (the prompt builder) should only use it
	// when the comparison was hour-of-day aligned.
	ByHour [24]HourActivity
}

// Comparison is the output of the ratio calculation.
type Comparison struct {
	// Ratio is the common-activity ratio in [0,100]. Zero when
	// InsufficientData is set.
	Ratio float64

	// ComparableHours counts hour buckets sampled on both days.
	// CommonHours counts comparable hours where at least one channel was
	// active on both days.
	ComparableHours int
	CommonHours     int

	// InsufficientData is set when either day has no samples at all, or when
	// no hour bucket is sampled on both days. It replaces the tier: an
	// insufficient window is not Critical, it is unanswerable.
	InsufficientData bool

	Yesterday DayStats
	Today     DayStats
}
