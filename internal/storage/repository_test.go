package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func entry(fp string, committed string, at time.Time) core.HistoryEntry {
	return core.HistoryEntry{
		Fingerprint: core.Fingerprint(fp),
		Source:      "/dados/orcamento.xlsx",
		RowCount:    3,
		Totals: core.Totals{
			Allocation: decimal.RequireFromString("3500000"),
			Declared:   decimal.RequireFromString("2700000"),
			Committed:  decimal.RequireFromString(committed),
		},
		RecordedAt: at,
	}
}

func TestRecordSnapshotIsIdempotentPerFingerprint(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

	inserted, err := repo.RecordSnapshot(ctx, entry("aaa", "2800000", at))
	if err != nil || !inserted {
		t.Fatalf("first insert: inserted=%v err=%v", inserted, err)
	}
	inserted, err = repo.RecordSnapshot(ctx, entry("aaa", "1", at.Add(time.Minute)))
	if err != nil || inserted {
		t.Fatalf("duplicate insert: inserted=%v err=%v", inserted, err)
	}

	list, err := repo.ListSnapshots(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Totals.Committed.String() != "2800000" {
		t.Fatalf("unexpected history: %+v", list)
	}
}

func TestListSnapshotsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)

	for i, fp := range []string{"f1", "f2", "f3"} {
		if _, err := repo.RecordSnapshot(ctx, entry(fp, "100.25", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("insert %s: %v", fp, err)
		}
	}

	list, err := repo.ListSnapshots(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Fingerprint != "f3" || list[1].Fingerprint != "f2" {
		t.Fatalf("unexpected order: %+v", list)
	}
	got := list[0]
	if !got.RecordedAt.Equal(base.Add(2*time.Hour)) || got.RowCount != 3 || got.Source != "/dados/orcamento.xlsx" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if !got.Totals.Committed.Equal(decimal.RequireFromString("100.25")) {
		t.Fatalf("committed: %s", got.Totals.Committed)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.RecordSnapshot(context.Background(), entry("keep", "1", time.Time{})); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	list, err := repo.ListSnapshots(context.Background(), 10)
	if err != nil || len(list) != 1 || list[0].RecordedAt.IsZero() {
		t.Fatalf("after reopen: %+v err=%v", list, err)
	}
}
