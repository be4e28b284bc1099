package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
	"orcamento/internal/sheets/memory"
)

// countingSource wraps a memory store and counts loads.
type countingSource struct {
	*memory.Store
	loads   atomic.Int32
	loadErr error
	fpErr   error
	delay   time.Duration
}

func (c *countingSource) Load(ctx context.Context, opts sheets.LoadOptions) (core.Dataset, error) {
	c.loads.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.loadErr != nil {
		return core.Dataset{}, c.loadErr
	}
	return c.Store.Load(ctx, opts)
}

func (c *countingSource) Fingerprint(ctx context.Context) (core.Fingerprint, error) {
	if c.fpErr != nil {
		return "", c.fpErr
	}
	return c.Store.Fingerprint(ctx)
}

func budgetMatrix() [][]string {
	return [][]string{
		{"Ação", "LOA", "Declarado", "Empenhado"},
		{"A1", "1000000", "800000", "600000"},
		{"A2", "2000000", "1500000", "1900000"},
		{"A3", "500000", "400000", "300000"},
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Load.HeaderOffset = 0
	opts.TopN = 2
	return opts
}

type recorder struct {
	mu      sync.Mutex
	entries []core.HistoryEntry
	err     error
}

func (r *recorder) RecordSnapshot(_ context.Context, e core.HistoryEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return true, r.err
}

func (r *recorder) ListSnapshots(_ context.Context, limit int) ([]core.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.HistoryEntry(nil), r.entries...), nil
}

func (r *recorder) PublishRefresh(ctx context.Context, e core.HistoryEntry) error {
	_, err := r.RecordSnapshot(ctx, e)
	return err
}

func TestSummaryAggregates(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	svc := NewDashboardService(src, testOptions())

	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Allocation.String() != "3500000" || sum.Declared.String() != "2700000" || sum.Committed.String() != "2800000" {
		t.Fatalf("totals: %s %s %s", sum.Allocation, sum.Declared, sum.Committed)
	}
	if len(sum.Top) != 2 || sum.Top[0].Label != "A2" || sum.Top[1].Label != "A1" {
		t.Fatalf("top: %+v", sum.Top)
	}
	if sum.Top[0].Display != "1.90 mi" || sum.Top[0].BarWidth != 100 || sum.Top[1].BarWidth != 31 {
		t.Fatalf("bars: %+v", sum.Top)
	}
	if sum.RowCount != 3 || sum.Preview.Len() != 3 || sum.Fingerprint == "" || sum.Source != "memory" {
		t.Fatalf("summary metadata: %+v", sum)
	}
}

func TestSummaryReloadsOnlyOnChange(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	svc := NewDashboardService(src, testOptions())
	ctx := context.Background()

	first, _ := svc.Summary(ctx)
	second, _ := svc.Summary(ctx)
	if src.loads.Load() != 1 {
		t.Fatalf("unchanged source loaded %d times", src.loads.Load())
	}
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("fingerprint moved without a change")
	}

	m := budgetMatrix()
	m[1][3] = "2500000"
	src.Set(m)
	third, err := svc.Summary(ctx)
	if err != nil {
		t.Fatalf("summary after change: %v", err)
	}
	if src.loads.Load() != 2 || third.Committed.String() != "4700000" || third.Top[0].Label != "A1" {
		t.Fatalf("change not picked up: loads=%d committed=%s", src.loads.Load(), third.Committed)
	}
}

func TestSummaryErrorsAreNotMasked(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	svc := NewDashboardService(src, testOptions())
	ctx := context.Background()
	if _, err := svc.Summary(ctx); err != nil {
		t.Fatal(err)
	}

	src.fpErr = core.ErrFileNotFound
	if _, err := svc.Summary(ctx); !errors.Is(err, core.ErrFileNotFound) {
		t.Fatalf("want ErrFileNotFound, got %v", err)
	}

	src.fpErr = nil
	src.Set(append(budgetMatrix(), []string{"A4", "1", "1", "1"}))
	src.loadErr = core.ErrRead
	if _, err := svc.Summary(ctx); !errors.Is(err, core.ErrRead) {
		t.Fatalf("want ErrRead, got %v", err)
	}

	src.loadErr = nil
	sum, err := svc.Summary(ctx)
	if err != nil || sum.RowCount != 4 {
		t.Fatalf("retry after failure: rows=%d err=%v", sum.RowCount, err)
	}
}

func TestConcurrentSummariesShareOneLoad(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix()), delay: 50 * time.Millisecond}
	svc := NewDashboardService(src, testOptions())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Summary(context.Background()); err != nil {
				t.Errorf("summary: %v", err)
			}
		}()
	}
	wg.Wait()
	if n := src.loads.Load(); n != 1 {
		t.Fatalf("expected a single shared load, got %d", n)
	}
}

func TestForceReload(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	svc := NewDashboardService(src, testOptions())
	ctx := context.Background()

	svc.Summary(ctx)
	if _, err := svc.ForceReload(ctx); err != nil {
		t.Fatalf("force reload: %v", err)
	}
	if src.loads.Load() != 2 {
		t.Fatalf("force reload should load again, loads=%d", src.loads.Load())
	}
}

func TestHistoryAndEventsOnChange(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	hist := &recorder{}
	events := &recorder{err: errors.New("broker down")}
	svc := NewDashboardService(src, testOptions(), WithHistory(hist), WithEvents(events))
	ctx := context.Background()

	if !svc.HistoryEnabled() {
		t.Fatal("history should be enabled")
	}
	svc.Summary(ctx)
	svc.Summary(ctx)
	src.Set(append(budgetMatrix(), []string{"A4", "10", "10", "10"}))
	if _, err := svc.Summary(ctx); err != nil {
		t.Fatalf("publisher failure must not fail the summary: %v", err)
	}

	list, _ := svc.History(ctx, 10)
	if len(list) != 2 || len(events.entries) != 2 {
		t.Fatalf("history=%d events=%d", len(list), len(events.entries))
	}
	if list[1].Totals.Committed.String() != "2800010" || list[1].RowCount != 4 {
		t.Fatalf("second entry: %+v", list[1])
	}
}

func TestRevertedSourceIsAnnouncedAgain(t *testing.T) {
	src := &countingSource{Store: memory.New(budgetMatrix())}
	events := &recorder{}
	svc := NewDashboardService(src, testOptions(), WithEvents(events))
	ctx := context.Background()

	first, err := svc.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	src.Set(append(budgetMatrix(), []string{"A4", "10", "10", "10"}))
	if _, err := svc.Summary(ctx); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	src.Set(budgetMatrix())
	reverted, err := svc.Summary(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if reverted.Fingerprint != first.Fingerprint {
		t.Fatalf("revert should restore the first fingerprint")
	}
	if n := src.loads.Load(); n != 3 {
		t.Fatalf("loads = %d, want 3", n)
	}
	if len(events.entries) != 3 {
		t.Fatalf("events = %d, want one per change", len(events.entries))
	}
	if !reverted.LoadedAt.After(first.LoadedAt) {
		t.Fatalf("reverted summary kept the old load time %v", reverted.LoadedAt)
	}

	again, _ := svc.Summary(ctx)
	if !again.LoadedAt.Equal(reverted.LoadedAt) || len(events.entries) != 3 {
		t.Fatalf("unchanged poll after revert should hit the cache")
	}
}

func TestHistoryDisabled(t *testing.T) {
	svc := NewDashboardService(memory.New(budgetMatrix()), testOptions())
	list, err := svc.History(context.Background(), 5)
	if err != nil || list != nil || svc.HistoryEnabled() {
		t.Fatalf("disabled history: %v %v", list, err)
	}
}

func TestSummaryWithoutRankingColumns(t *testing.T) {
	src := memory.New([][]string{
		{"Programa", "LOA"},
		{"P1", "10"},
	})
	svc := NewDashboardService(src, testOptions())
	sum, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Top) != 0 || !sum.Committed.IsZero() || sum.Allocation.String() != "10" {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}
