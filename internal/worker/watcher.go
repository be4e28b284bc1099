// Package worker runs the background poll that keeps the dashboard fresh
// when nobody is looking at it.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/services"
)

// Summarizer is the part of services.DashboardService the watcher drives.
type Summarizer interface {
	Summary(ctx context.Context) (services.Summary, error)
}

type WatcherConfig struct {
	// PollInterval is how often the source is fingerprinted (default: 60s).
	PollInterval time.Duration
}

func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{PollInterval: time.Minute}
}

// Watcher polls a Summarizer on an interval. Each poll fingerprints the
// source; a changed fingerprint triggers the reload and its side effects
// (history, events) inside the service.
type Watcher struct {
	svc    Summarizer
	config WatcherConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	last    core.Fingerprint
	lastErr error
}

func NewWatcher(svc Summarizer, config WatcherConfig) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultWatcherConfig().PollInterval
	}
	return &Watcher{svc: svc, config: config}
}

// Start launches the poll loop. It returns an error if already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Budget watcher started", "poll_interval", w.config.PollInterval)
	return nil
}

// Stop signals the loop and waits for it, or for ctx to end.
func (w *Watcher) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Budget watcher stopped")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Budget watcher stop timed out")
		return ctx.Err()
	}
}

func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// LastFingerprint returns the fingerprint seen by the latest successful poll.
func (w *Watcher) LastFingerprint() core.Fingerprint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Poll runs one cycle and reports whether the fingerprint moved.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	sum, err := w.svc.Summary(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		// Log a failure once, not on every tick while it persists.
		if w.lastErr == nil || w.lastErr.Error() != err.Error() {
			slog.ErrorContext(ctx, "Budget poll failed", "error", err)
		}
		w.lastErr = err
		return false, fmt.Errorf("poll: %w", err)
	}
	if w.lastErr != nil {
		slog.InfoContext(ctx, "Budget source recovered", "fingerprint", sum.Fingerprint)
		w.lastErr = nil
	}
	changed := sum.Fingerprint != w.last
	if changed && w.last != "" {
		slog.InfoContext(ctx, "Budget source changed",
			"previous", w.last,
			"fingerprint", sum.Fingerprint,
			"rows", sum.RowCount)
	}
	w.last = sum.Fingerprint
	return changed, nil
}

func (w *Watcher) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.Poll(ctx)
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}
