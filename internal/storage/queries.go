package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// BudgetSnapshot mirrors a budget_snapshots row.
type BudgetSnapshot struct {
	ID          int64
	Fingerprint string
	Source      string
	RowCount    int64
	Allocation  string
	Declared    string
	Committed   string
	RecordedAt  string
}

const insertSnapshot = `
INSERT INTO budget_snapshots (fingerprint, source, row_count, allocation, declared, committed, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (fingerprint) DO NOTHING
`

type InsertSnapshotParams struct {
	Fingerprint string
	Source      string
	RowCount    int64
	Allocation  string
	Declared    string
	Committed   string
	RecordedAt  string
}

// InsertSnapshot reports whether a new row was written.
func (q *Queries) InsertSnapshot(ctx context.Context, arg InsertSnapshotParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertSnapshot,
		arg.Fingerprint,
		arg.Source,
		arg.RowCount,
		arg.Allocation,
		arg.Declared,
		arg.Committed,
		arg.RecordedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const listSnapshots = `
SELECT id, fingerprint, source, row_count, allocation, declared, committed, recorded_at
FROM budget_snapshots
ORDER BY recorded_at DESC, id DESC
LIMIT ?
`

func (q *Queries) ListSnapshots(ctx context.Context, limit int64) ([]BudgetSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BudgetSnapshot
	for rows.Next() {
		var i BudgetSnapshot
		if err := rows.Scan(
			&i.ID,
			&i.Fingerprint,
			&i.Source,
			&i.RowCount,
			&i.Allocation,
			&i.Declared,
			&i.Committed,
			&i.RecordedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
