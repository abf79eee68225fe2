// Package store is the Postgres layer: the two sensor activity sources, the
// report upsert-per-day writes, and the append-only AI invocation audit log.
//
// Reports and the audit log live in the system database. Sensor readings can
// come from either the system database (multi-channel prototype fleet) or the
// legacy utility database (LED-only); see ActivitySource.
//
// Dependency rule: store imports risk only. It never imports engine, ai, or
// api.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store wraps the system database connection pool. The operation files
// (reports.go, audit.go) attach methods to this type.
type Store struct {
	db *sql.DB
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified (e.g. via PingContext) before calling New.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// txFunc receives a transaction and returns an error. A non-nil error causes
// withTx to roll back automatically.
type txFunc func(ctx context.Context, tx *sql.Tx) error

// withTx begins a transaction, passes it to fn, and commits on success or
// rolls back on any error (including panics).
//
// Serializable isolation is used because the report upsert is a
// read-then-write on (household, day): two concurrent submissions for the
// same household must collapse into one report row, not race into two.
func (s *Store) withTx(ctx context.Context, fn txFunc) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	// Roll back on panic so the connection is never left in a broken state.
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}

// dayBounds returns the half-open [start, end) range of t's calendar day in
// t's location.
func dayBounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
