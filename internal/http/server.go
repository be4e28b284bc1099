// Package http serves the budget dashboard: the htmx page and its partials,
// a small JSON API and health endpoints.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/middleware/ratelimit"
	"orcamento/internal/middleware/security"
	"orcamento/internal/middleware/trace"
	"orcamento/internal/services"
	appweb "orcamento/web"
)

// Dashboard is what the handlers need from services.DashboardService.
type Dashboard interface {
	Summary(ctx context.Context) (services.Summary, error)
	ForceReload(ctx context.Context) (services.Summary, error)
	Fingerprint(ctx context.Context) (core.Fingerprint, error)
	History(ctx context.Context, limit int) ([]core.HistoryEntry, error)
	HistoryEnabled() bool
	Source() string
}

// ServerConfig configures NewServer. Zero values fall back to defaults.
type ServerConfig struct {
	Addr             string
	Title            string
	PollInterval     time.Duration
	RefreshPerMinute int
	HistoryLimit     int
	Logger           *applog.Logger
}

const (
	defaultTitle        = "Painel Orçamentário"
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
	readyTimeout        = 10 * time.Second
	staticMaxAge        = 3600
)

type Server struct {
	http.Server
	dash      Dashboard
	templates *template.Template
	logger    *applog.Logger
	events    *applog.StructuredLogger

	title        string
	pollInterval time.Duration
	historyLimit int
	started      time.Time

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. Template parse errors are returned; the page cannot render
// without them.
func NewServer(cfg ServerConfig, dash Dashboard) (*Server, error) {
	if cfg.Title == "" {
		cfg.Title = defaultTitle
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	t, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	s := &Server{
		dash:         dash,
		templates:    t,
		logger:       logger,
		events:       applog.NewStructuredLogger(logger),
		title:        cfg.Title,
		pollInterval: cfg.PollInterval,
		historyLimit: cfg.HistoryLimit,
		started:      time.Now(),
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RefreshPerMinute}),
		detector:     detector,
		tracer:       trace.NewMiddleware(detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr: cfg.Addr,
		Handler: chain(mux,
			s.tracer.Middleware,
			detector.Middleware,
			security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
			applog.Middleware(logger),
			applog.RequestIDMiddleware(trace.RequestID),
		),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	// UI partials
	mux.HandleFunc("/ui/summary", s.handleSummaryPartial)
	mux.HandleFunc("/ui/history", s.handleHistoryPartial)

	// JSON API
	api := applog.ComponentMiddleware(applog.ComponentAPI)
	mux.Handle("/api/summary", api(http.HandlerFunc(s.handleAPISummary)))
	mux.Handle("/api/history", api(http.HandlerFunc(s.handleAPIHistory)))

	refresh := s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)
	mux.Handle("/refresh", refresh(http.HandlerFunc(s.handleRefresh)))
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
}

// chain wraps h so that the first middleware is the outermost.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
