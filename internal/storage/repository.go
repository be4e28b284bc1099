// Package storage keeps a SQLite history of budget totals, one row per
// distinct spreadsheet fingerprint.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"orcamento/internal/core"
)

// DefaultHistoryLimit caps ListSnapshots when the caller passes zero.
const DefaultHistoryLimit = 30

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordSnapshot stores e unless its fingerprint is already recorded.
func (r *SQLiteRepository) RecordSnapshot(ctx context.Context, e core.HistoryEntry) (bool, error) {
	recordedAt := e.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	inserted, err := r.queries.InsertSnapshot(ctx, InsertSnapshotParams{
		Fingerprint: string(e.Fingerprint),
		Source:      e.Source,
		RowCount:    int64(e.RowCount),
		Allocation:  e.Totals.Allocation.String(),
		Declared:    e.Totals.Declared.String(),
		Committed:   e.Totals.Committed.String(),
		RecordedAt:  recordedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return false, fmt.Errorf("insert snapshot: %w", err)
	}
	if inserted {
		slog.InfoContext(ctx, "Budget snapshot recorded",
			"fingerprint", e.Fingerprint,
			"rows", e.RowCount,
			"committed", e.Totals.Committed.String())
	}
	return inserted, nil
}

// ListSnapshots returns the newest snapshots first.
func (r *SQLiteRepository) ListSnapshots(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := r.queries.ListSnapshots(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]core.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		e, err := toEntry(row)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", row.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func toEntry(row BudgetSnapshot) (core.HistoryEntry, error) {
	allocation, err := decimal.NewFromString(row.Allocation)
	if err != nil {
		return core.HistoryEntry{}, fmt.Errorf("allocation: %w", err)
	}
	declared, err := decimal.NewFromString(row.Declared)
	if err != nil {
		return core.HistoryEntry{}, fmt.Errorf("declared: %w", err)
	}
	committed, err := decimal.NewFromString(row.Committed)
	if err != nil {
		return core.HistoryEntry{}, fmt.Errorf("committed: %w", err)
	}
	recordedAt, err := time.Parse(time.RFC3339Nano, row.RecordedAt)
	if err != nil {
		return core.HistoryEntry{}, fmt.Errorf("recorded_at: %w", err)
	}
	return core.HistoryEntry{
		ID:          row.ID,
		Fingerprint: core.Fingerprint(row.Fingerprint),
		Source:      row.Source,
		RowCount:    int(row.RowCount),
		Totals: core.Totals{
			Allocation: allocation,
			Declared:   declared,
			Committed:  committed,
		},
		RecordedAt: recordedAt,
	}, nil
}
