package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Report status codes, mirroring the status_code column.
const (
	StatusOpen       int16 = 0
	StatusInProgress int16 = 1
	StatusClosed     int16 = 2
)

// Report is one row of the report table. At most one exists per
// (household, calendar day); details accumulate on report_detail instead.
type Report struct {
	ReportID    int
	ManagerID   int
	HouseholdID int
	StatusCode  int16
	AgencyName  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RiskEntry is one row of the risk-entry listing: the report joined with its
// manager, household, and latest detail line. Ratio and tier are computed by
// the caller per request — they are never stored.
type RiskEntry struct {
	ReportID      int
	HouseholdID   int
	ManagerID     int
	ManagerName   string
	HouseholdName string
	Address       string
	ContactNumber string
	StatusCode    int16
	AgencyName    string
	Description   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ListRiskEntriesParams controls pagination, search, and ordering of the
// risk-entry listing.
type ListRiskEntriesParams struct {
	Page   int    // zero-based
	Size   int
	Search string // matches manager name, household name, or address
	Sort   string // "latest" = newest first; anything else = oldest first
}

// ─── REPORT FILING ───────────────────────────────────────────────────────────

// FileManualReport records a report submitted by a human manager. Upsert
// semantics per (household, calendar day): if a report row already exists for
// today it is touched (same report id, refreshed updated_at) and the new
// description is appended as a detail row; otherwise a fresh report row is
// created first. Exactly one detail row is appended either way.
func (s *Store) FileManualReport(ctx context.Context, managerID, householdID int, statusCode int16, description string) (Report, error) {
	return s.upsertDailyReport(ctx, upsertReportParams{
		ManagerID:   managerID,
		HouseholdID: householdID,
		StatusCode:  statusCode,
		AgencyName:  "community care center",
		Description: "[manual] " + description,
	})
}

// FileAIReport records an AI-confirmed filing: same upsert semantics, but the
// report additionally moves to in-progress and adopts the AI-suggested
// agency.
func (s *Store) FileAIReport(ctx context.Context, managerID, householdID int, agencyName, description string) (Report, error) {
	return s.upsertDailyReport(ctx, upsertReportParams{
		ManagerID:     managerID,
		HouseholdID:   householdID,
		StatusCode:    StatusInProgress,
		AgencyName:    agencyName,
		Description:   "[ai] " + description,
		UpdateOnTouch: true,
	})
}

type upsertReportParams struct {
	ManagerID   int
	HouseholdID int
	StatusCode  int16
	AgencyName  string
	Description string

	// UpdateOnTouch also rewrites status and agency when an existing row is
	// touched (AI filings update them; manual filings only refresh the
	// timestamp, matching the original behaviour).
	UpdateOnTouch bool
}

// upsertDailyReport runs the whole read-then-write inside one serializable
// transaction so a half-written report/detail pair can never survive, and two
// concurrent submissions for the same household+day collapse into one row.
func (s *Store) upsertDailyReport(ctx context.Context, p upsertReportParams) (Report, error) {
	var report Report
	now := time.Now()
	dayStart, dayEnd := dayBounds(now)

	err := s.withTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT report_id, manager_id, household_id, status_code, agency_name, created_at, updated_at
			FROM report
			WHERE household_id = $1 AND created_at >= $2 AND created_at < $3
			FOR UPDATE`,
			p.HouseholdID, dayStart, dayEnd,
		)

		err := row.Scan(&report.ReportID, &report.ManagerID, &report.HouseholdID,
			&report.StatusCode, &report.AgencyName, &report.CreatedAt, &report.UpdatedAt)

		switch {
		case err == nil:
			// Existing report for today: touch it, never create a second one.
			if p.UpdateOnTouch {
				report.StatusCode = p.StatusCode
				report.AgencyName = p.AgencyName
			}
			report.UpdatedAt = now
			if _, err := tx.ExecContext(ctx, `
				UPDATE report SET status_code = $2, agency_name = $3, updated_at = $4
				WHERE report_id = $1`,
				report.ReportID, report.StatusCode, report.AgencyName, report.UpdatedAt,
			); err != nil {
				return fmt.Errorf("update report: %w", err)
			}

		case err == sql.ErrNoRows:
			report = Report{
				ManagerID:   p.ManagerID,
				HouseholdID: p.HouseholdID,
				StatusCode:  p.StatusCode,
				AgencyName:  p.AgencyName,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.QueryRowContext(ctx, `
				INSERT INTO report (manager_id, household_id, status_code, agency_name, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $5)
				RETURNING report_id`,
				p.ManagerID, p.HouseholdID, p.StatusCode, p.AgencyName, now,
			).Scan(&report.ReportID); err != nil {
				return fmt.Errorf("insert report: %w", err)
			}

		default:
			return fmt.Errorf("find existing report: %w", err)
		}

		// Always exactly one new, immutable detail row.
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO report_detail (report_id, description, created_at)
			VALUES ($1, $2, $3)`,
			report.ReportID, p.Description, now,
		); err != nil {
			return fmt.Errorf("insert report detail: %w", err)
		}
		return nil
	})

	if err != nil {
		return Report{}, fmt.Errorf("store: upsert daily report: %w", err)
	}
	return report, nil
}

// ─── LISTING ─────────────────────────────────────────────────────────────────

// ListRiskEntries returns the paged report listing joined with manager,
// household, and detail rows.
func (s *Store) ListRiskEntries(ctx context.Context, p ListRiskEntriesParams) ([]RiskEntry, error) {
	if p.Size <= 0 {
		p.Size = 20
	}
	if p.Page < 0 {
		p.Page = 0
	}

	order := "ASC"
	if p.Sort == "latest" {
		order = "DESC"
	}

	query := `
		SELECT r.report_id, r.household_id, r.manager_id,
		       COALESCE(m.name, ''), COALESCE(h.name, ''), COALESCE(h.address, ''),
		       COALESCE(h.contact_number, ''),
		       r.status_code, r.agency_name, COALESCE(rd.description, ''),
		       r.created_at, r.updated_at
		FROM report r
		LEFT JOIN manager m ON r.manager_id = m.manager_id
		LEFT JOIN household h ON r.household_id = h.household_id
		LEFT JOIN LATERAL (
			SELECT description FROM report_detail
			WHERE report_id = r.report_id
			ORDER BY created_at DESC LIMIT 1
		) rd ON TRUE
		WHERE ($1 = '' OR m.name ILIKE '%' || $1 || '%'
		                OR h.name ILIKE '%' || $1 || '%'
		                OR h.address ILIKE '%' || $1 || '%')
		ORDER BY r.created_at ` + order + `
		LIMIT $2 OFFSET $3`

	rows, err := s.db.QueryContext(ctx, query, p.Search, p.Size, p.Page*p.Size)
	if err != nil {
		return nil, fmt.Errorf("store: list risk entries: %w", err)
	}
	defer rows.Close()

	var out []RiskEntry
	for rows.Next() {
		var e RiskEntry
		if err := rows.Scan(&e.ReportID, &e.HouseholdID, &e.ManagerID,
			&e.ManagerName, &e.HouseholdName, &e.Address, &e.ContactNumber,
			&e.StatusCode, &e.AgencyName, &e.Description,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan risk entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
