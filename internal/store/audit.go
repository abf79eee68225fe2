package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Request types recorded on audit entries, one per engine operation that
// invokes the model.
const (
	RequestTypeAnalysis  = "household_analysis"
	RequestTypeReportDoc = "reporting_document"
)

// AuditEntry is one append-only row of ai_invocation_log: a complete record
// of a single model invocation attempt, successful or not. Entries are never
// updated or deleted.
type AuditEntry struct {
	ID           uuid.UUID
	HouseholdID  int
	RequestType  string
	Prompt       string // empty on failure paths where no prompt was sent
	RawResponse  string // empty when the gateway failed
	ElapsedMS    int64
	Success      bool
	ErrorMessage string
	CreatedAt    time.Time
}

// AppendAuditEntry inserts one audit row. Prompt and response are stored as
// JSONB envelopes ({"prompt": …} / {"response": …}) so they stay queryable
// next to the rest of the log; empty strings become SQL NULL.
//
// Callers treat failures here as best-effort: the engine logs and discards
// the error, never letting it alter the analysis result.
func (s *Store) AppendAuditEntry(ctx context.Context, e AuditEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	prompt, err := jsonEnvelope("prompt", e.Prompt)
	if err != nil {
		return fmt.Errorf("store: marshal audit prompt: %w", err)
	}
	response, err := jsonEnvelope("response", e.RawResponse)
	if err != nil {
		return fmt.Errorf("store: marshal audit response: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ai_invocation_log
			(id, household_id, request_type, request_data, ai_response,
			 processing_time_ms, success, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.HouseholdID, e.RequestType, prompt, response,
		e.ElapsedMS, e.Success,
		sql.NullString{String: e.ErrorMessage, Valid: e.ErrorMessage != ""},
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: append audit entry: %w", err)
	}
	return nil
}

// jsonEnvelope wraps a non-empty value as {"key": value} JSONB; empty values
// map to NULL.
func jsonEnvelope(key, value string) (pqtype.NullRawMessage, error) {
	if value == "" {
		return pqtype.NullRawMessage{}, nil
	}
	raw, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return pqtype.NullRawMessage{}, err
	}
	return pqtype.NullRawMessage{RawMessage: raw, Valid: true}, nil
}
