package risk

import (
	"fmt"
	"sort"
)

// Alignment selects how yesterday's hour buckets are matched against
// today's. The sensor fleet is inconsistent about clock discipline, so this
// is a configuration choice rather than a constant.
type Alignment string

const (
	// AlignHourOfDay matches buckets by wall-clock hour-of-day (canonical:
	// 08:00 yesterday against 08:00 today). Handles partial days cleanly.
	AlignHourOfDay Alignment = "hour_of_day"

	// AlignRelativeOffset matches the i-th populated hour of yesterday
	// against the i-th populated hour of today, regardless of wall clock.
	AlignRelativeOffset Alignment = "relative_offset"
)

// ParseAlignment validates a configuration string. The empty string maps to
// the default, AlignHourOfDay.
func ParseAlignment(s string) (Alignment, error) {
	switch Alignment(s) {
	case "":
		return AlignHourOfDay, nil
	case AlignHourOfDay, AlignRelativeOffset:
		return Alignment(s), nil
	default:
		return "", fmt.Errorf("risk: unknown alignment %q", s)
	}
}

// Compare computes the common-activity ratio for a window.
//
// Each day's samples are folded into hour buckets: a channel is active for a
// bucket if it was active in any sample that landed there. A bucket is
// comparable when both days sampled it; a comparable bucket counts as common
// activity when at least one channel is active on both days — channels are
// never cross-matched (light against light, occupancy against occupancy,
// noise against noise).
//
// Ratio = common / comparable × 100. An empty day or zero comparable hours
// yields Ratio 0 with InsufficientData set. Partial days are fine: the ratio
// is over whatever hours are comparable, not forced to 24.
func Compare(w Window, align Alignment) Comparison {
	if len(w.Yesterday) == 0 || len(w.Today) == 0 {
		return Comparison{
			InsufficientData: true,
			Yesterday:        bucketDay(w.Yesterday, align),
			Today:            bucketDay(w.Today, align),
		}
	}

	yd := bucketDay(w.Yesterday, align)
	td := bucketDay(w.Today, align)

	comparable, common := 0, 0
	for h := 0; h < 24; h++ {
		y, t := yd.ByHour[h], td.ByHour[h]
		if !y.Sampled || !t.Sampled {
			continue
		}
		comparable++
		if (y.Light && t.Light) || (y.Occupancy && t.Occupancy) || (y.Noise && t.Noise) {
			common++
		}
	}

	c := Comparison{
		ComparableHours: comparable,
		CommonHours:     common,
		Yesterday:       yd,
		Today:           td,
	}
	if comparable == 0 {
		c.InsufficientData = true
		return c
	}
	c.Ratio = float64(common) / float64(comparable) * 100
	return c
}

// bucketDay folds samples into 24 hour buckets. In hour-of-day alignment the
// bucket index is RecordedAt's hour; in relative-offset alignment the
// populated hours are re-indexed 0..n-1 in chronological order.
func bucketDay(samples []Sample, align Alignment) DayStats {
	var d DayStats

	byHour := make(map[int]*HourActivity, 24)
	for _, s := range samples {
		h := s.RecordedAt.Hour()
		a, ok := byHour[h]
		if !ok {
			a = &HourActivity{Sampled: true}
			byHour[h] = a
		}
		a.Light = a.Light || s.Light
		a.Occupancy = a.Occupancy || s.Occupancy
		a.Noise = a.Noise || s.Noise
	}

	hours := make([]int, 0, len(byHour))
	for h := range byHour {
		hours = append(hours, h)
	}
	sort.Ints(hours)

	for i, h := range hours {
		idx := h
		if align == AlignRelativeOffset {
			idx = i
		}
		d.ByHour[idx] = *byHour[h]
		d.Hours++
		if byHour[h].Light {
			d.LightHours++
		}
		if byHour[h].Occupancy {
			d.OccupancyHours++
		}
		if byHour[h].Noise {
			d.NoiseHours++
		}
	}
	return d
}
