package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"orcamento/internal/cache"
	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/sheets"
)

// HistoryRecorder persists one entry per distinct fingerprint.
type HistoryRecorder interface {
	RecordSnapshot(ctx context.Context, e core.HistoryEntry) (bool, error)
	ListSnapshots(ctx context.Context, limit int) ([]core.HistoryEntry, error)
}

// EventPublisher announces refreshed totals.
type EventPublisher interface {
	PublishRefresh(ctx context.Context, e core.HistoryEntry) error
}

// Options tune how the source is read and summarized.
type Options struct {
	Load        sheets.LoadOptions
	Patterns    core.RolePatterns
	TopN        int
	PreviewRows int
	CacheTTL    time.Duration
	CacheSize   int
}

// DefaultOptions mirrors the dashboard defaults: header two rows down, top
// five actions, ten preview rows, summaries kept for a minute.
func DefaultOptions() Options {
	return Options{
		Load:        sheets.LoadOptions{HeaderOffset: 2},
		Patterns:    core.DefaultRolePatterns(),
		TopN:        5,
		PreviewRows: 10,
		CacheTTL:    time.Minute,
		CacheSize:   8,
	}
}

type Option func(*DashboardService)

func WithHistory(h HistoryRecorder) Option {
	return func(s *DashboardService) { s.history = h }
}

func WithEvents(p EventPublisher) Option {
	return func(s *DashboardService) { s.events = p }
}

// WithCache replaces the summary cache, e.g. to share it with a cache.Manager.
func WithCache(c cache.Cache[Summary]) Option {
	return func(s *DashboardService) { s.summaries = c }
}

// DashboardService owns the loaded snapshot of one source. Concurrent
// Summary calls share a single reload.
type DashboardService struct {
	src       sheets.Source
	opts      Options
	history   HistoryRecorder
	events    EventPublisher
	summaries cache.Cache[Summary]
	group     singleflight.Group

	mu   sync.Mutex
	snap Snapshot
}

const summaryKey = "summary"

func NewDashboardService(src sheets.Source, opts Options, options ...Option) *DashboardService {
	if opts.Patterns == nil {
		opts.Patterns = core.DefaultRolePatterns()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 8
	}
	s := &DashboardService{src: src, opts: opts}
	for _, o := range options {
		o(s)
	}
	if s.summaries == nil {
		s.summaries = cache.NewLRUCache[Summary](opts.CacheSize, opts.CacheTTL)
	}
	return s
}

// Summary reloads the source if it changed and returns its summary.
// Loader errors are returned as is; no earlier summary is served instead.
func (s *DashboardService) Summary(ctx context.Context) (Summary, error) {
	v, err, _ := s.group.Do(summaryKey, func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// ForceReload drops the held snapshot and cached summaries, then loads again.
func (s *DashboardService) ForceReload(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	s.snap = Snapshot{}
	s.mu.Unlock()
	s.summaries.Clear()
	s.group.Forget(summaryKey)
	return s.Summary(ctx)
}

// Fingerprint reports the source's current digest without loading it.
func (s *DashboardService) Fingerprint(ctx context.Context) (core.Fingerprint, error) {
	return s.src.Fingerprint(ctx)
}

// Source describes the configured source.
func (s *DashboardService) Source() string {
	return s.src.Describe()
}

// HistoryEnabled reports whether snapshots are being recorded.
func (s *DashboardService) HistoryEnabled() bool {
	return s.history != nil
}

// History lists recorded snapshots, newest first. It is empty when no
// recorder is configured.
func (s *DashboardService) History(ctx context.Context, limit int) ([]core.HistoryEntry, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.ListSnapshots(ctx, limit)
}

func (s *DashboardService) refresh(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	prev := s.snap
	s.mu.Unlock()

	next, changed, err := Reload(ctx, s.src, prev, s.opts.Load, s.opts.Patterns)
	if err != nil {
		slog.ErrorContext(ctx, "Budget reload failed", "source", s.src.Describe(), "error", err)
		return Summary{}, err
	}

	if changed {
		s.mu.Lock()
		s.snap = next
		s.mu.Unlock()
		applog.NewStructuredLogger(applog.FromContext(ctx)).
			LogBudgetLoaded(ctx, s.src.Describe(), string(next.Fingerprint), next.Dataset.Len())
	}

	// A changed fingerprint can match an older cached summary when the
	// source is reverted; that still counts as a new load.
	key := string(next.Fingerprint)
	if !changed {
		if sum, ok := s.summaries.Get(key); ok {
			return sum, nil
		}
	}
	sum := BuildSummary(next, s.src.Describe(), s.opts.TopN, s.opts.PreviewRows)
	s.summaries.Set(key, sum)

	if changed {
		s.announce(ctx, sum)
	}
	return sum, nil
}

// announce records and publishes a new summary. Failures are logged only;
// the dashboard keeps working without history or events.
func (s *DashboardService) announce(ctx context.Context, sum Summary) {
	entry := sum.HistoryEntry()
	var errs []error
	if s.history != nil {
		if _, err := s.history.RecordSnapshot(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if s.events != nil {
		if err := s.events.PublishRefresh(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		slog.WarnContext(ctx, "Failed to announce budget refresh", "fingerprint", sum.Fingerprint, "error", err)
	}
}
