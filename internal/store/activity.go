package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/mcg-iot/seniorsafe-backend/internal/risk"
)

// ActivitySource reads hourly sensor rows for the comparison windows. Two
// backing stores exist:
//
//   - system (prototype fleet): sensor_reading with all three channels —
//     light_on (per-room LEDs OR-folded at ingestion), occupied, noisy.
//   - legacy (utility MCS): led_reading with light only; occupancy and noise
//     read as false.
//
// When both hold data for a household the multi-channel system store takes
// precedence. Activity data is keyed by a household_id column on one
// time-series table per store — there are no per-household tables and no
// table-existence probes.
type ActivitySource struct {
	system *sql.DB
	legacy *sql.DB // may be nil when no legacy store is configured
	logger *slog.Logger
}

// NewActivitySource wires the two pools. legacy may be nil.
func NewActivitySource(system, legacy *sql.DB, logger *slog.Logger) *ActivitySource {
	return &ActivitySource{system: system, legacy: legacy, logger: logger}
}

// Window assembles the yesterday/today comparison window for a household,
// relative to now's calendar day.
func (a *ActivitySource) Window(ctx context.Context, householdID int, now time.Time) (risk.Window, error) {
	w := risk.Window{HouseholdID: householdID}

	yesterday, err := a.readDay(ctx, a.system, querySystemDay, householdID, now.AddDate(0, 0, -1))
	if err != nil {
		return risk.Window{}, fmt.Errorf("store: read yesterday: %w", err)
	}
	today, err := a.readDay(ctx, a.system, querySystemDay, householdID, now)
	if err != nil {
		return risk.Window{}, fmt.Errorf("store: read today: %w", err)
	}

	// System store wins whenever it has anything for this household; only a
	// household entirely absent from it falls back to the legacy LED store.
	if len(yesterday) == 0 && len(today) == 0 && a.legacy != nil {
		yesterday, err = a.readDay(ctx, a.legacy, queryLegacyDay, householdID, now.AddDate(0, 0, -1))
		if err != nil {
			return risk.Window{}, fmt.Errorf("store: read legacy yesterday: %w", err)
		}
		today, err = a.readDay(ctx, a.legacy, queryLegacyDay, householdID, now)
		if err != nil {
			return risk.Window{}, fmt.Errorf("store: read legacy today: %w", err)
		}
	}

	w.Yesterday, w.Today = yesterday, today
	return w, nil
}

const querySystemDay = `
	SELECT recorded_at, light_on, occupied, noisy
	FROM sensor_reading
	WHERE household_id = $1 AND recorded_at >= $2 AND recorded_at < $3
	ORDER BY recorded_at`

// Legacy rows carry only the folded LED flag; the other channels are
// selected as constants so both queries scan identically.
const queryLegacyDay = `
	SELECT recorded_at, light_on, FALSE, FALSE
	FROM led_reading
	WHERE household_id = $1 AND recorded_at >= $2 AND recorded_at < $3
	ORDER BY recorded_at`

func (a *ActivitySource) readDay(ctx context.Context, db *sql.DB, query string, householdID int, day time.Time) ([]risk.Sample, error) {
	start, end := dayBounds(day)

	rows, err := db.QueryContext(ctx, query, householdID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []risk.Sample
	for rows.Next() {
		s := risk.Sample{HouseholdID: householdID}
		if err := rows.Scan(&s.RecordedAt, &s.Light, &s.Occupancy, &s.Noise); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListHouseholdIDs enumerates every household id known to either store,
// de-duplicated, ascending. Ids are stored as text in the legacy schema;
// non-numeric values are logged and skipped rather than aborting the sweep.
func (a *ActivitySource) ListHouseholdIDs(ctx context.Context) ([]int, error) {
	seen := make(map[int]struct{})

	collect := func(db *sql.DB, query string) error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var raw string
			if err := rows.Scan(&raw); err != nil {
				return err
			}
			id, err := strconv.Atoi(raw)
			if err != nil {
				a.logger.Warn("store: skipping malformed household id", "id", raw)
				continue
			}
			seen[id] = struct{}{}
		}
		return rows.Err()
	}

	if err := collect(a.system, `SELECT DISTINCT household_id::text FROM sensor_reading`); err != nil {
		return nil, fmt.Errorf("store: list system households: %w", err)
	}
	if a.legacy != nil {
		if err := collect(a.legacy, `SELECT DISTINCT household_id::text FROM led_reading`); err != nil {
			return nil, fmt.Errorf("store: list legacy households: %w", err)
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
