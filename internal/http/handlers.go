package http

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"orcamento/internal/core"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
)

type pageData struct {
	Title          string
	Source         string
	PollSeconds    int
	HistoryEnabled bool
}

type summaryView struct {
	services.Summary
	Missing []core.Role
}

type historyView struct {
	Enabled bool
	Entries []core.HistoryEntry
}

type errorView struct {
	Message string
	Source  string
}

const unavailableMessage = "Não foi possível ler a planilha de orçamento."

// render executes name into a buffer first so a failing template never
// leaves a half written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{applog.FieldTemplate: name})
		InternalServerError("Erro ao gerar a página").Write(w)
		return
	}
	NewHTMXResponse().Status(status).Body(buf.Bytes()).
		Header("Content-Type", "text/html; charset=utf-8").
		Write(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "dashboard.html", pageData{
		Title:          s.title,
		Source:         s.dash.Source(),
		PollSeconds:    int(s.pollInterval / time.Second),
		HistoryEnabled: s.dash.HistoryEnabled(),
	})
}

// handleSummaryPartial renders the cards, chart and table. htmx only swaps
// 2xx responses, so the error partial is sent with 200 to htmx and 503 to
// everyone else.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.dash.Summary(r.Context())
	if err != nil {
		s.renderLoadError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "summary", newSummaryView(sum))
}

func (s *Server) handleHistoryPartial(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	view := historyView{Enabled: s.dash.HistoryEnabled()}
	if view.Enabled {
		entries, err := s.dash.History(r.Context(), ParseLimit(r.URL.Query(), s.historyLimit, maxHistoryLimit))
		if err != nil {
			s.events.LogError(r.Context(), "History list failed", err, applog.ComponentStorage, "list", nil)
			s.render(w, r, s.errorStatus(r), "error", errorView{Message: "Histórico indisponível."})
			return
		}
		view.Entries = entries
	}
	s.render(w, r, http.StatusOK, "history", view)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.dash.Summary(r.Context())
	if err != nil {
		s.logLoadError(r.Context(), err)
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newSummaryJSON(sum))
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	entries, err := s.dash.History(r.Context(), ParseLimit(r.URL.Query(), s.historyLimit, maxHistoryLimit))
	if err != nil {
		s.events.LogError(r.Context(), "History list failed", err, applog.ComponentStorage, "list", nil)
		writeJSONError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	out := make([]historyEntryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryJSON{
			Fingerprint: e.Fingerprint,
			Source:      e.Source,
			RowCount:    e.RowCount,
			Totals:      newTotalsJSON(e.Totals),
			RecordedAt:  e.RecordedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":   s.dash.HistoryEnabled(),
		"snapshots": out,
	})
}

// handleRefresh forces a reload and answers with the new summary partial.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	sum, err := s.dash.ForceReload(r.Context())
	if err != nil {
		s.logLoadError(r.Context(), err)
		var buf bytes.Buffer
		if terr := s.templates.ExecuteTemplate(&buf, "error", errorView{Message: unavailableMessage, Source: s.dash.Source()}); terr != nil {
			s.events.LogError(r.Context(), "Template execution failed", terr, applog.ComponentTemplate, applog.OpRender,
				applog.LogFields{applog.FieldTemplate: "error"})
			buf.Reset()
		}
		NewHTMXResponse().
			Status(s.errorStatus(r)).
			TriggerErrorNotification("Falha ao recarregar a planilha").
			Header("Content-Type", "text/html; charset=utf-8").
			Body(buf.Bytes()).
			Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "summary", newSummaryView(sum)); err != nil {
		s.events.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender,
			applog.LogFields{applog.FieldTemplate: "summary"})
		InternalServerError("Erro ao gerar a página").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerSummaryRefresh(sum.Fingerprint).
		TriggerSuccessNotification("Painel atualizado").
		Header("Content-Type", "text/html; charset=utf-8").
		Body(buf.Bytes()).
		Write(w)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("Muitas atualizações. Tente novamente em instantes.").
		TriggerErrorNotification("Muitas atualizações seguidas").
		Write(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the source can be fingerprinted, which is cheap
// compared with a full load.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients()},
	}

	if fp, err := s.dash.Fingerprint(ctx); err != nil {
		checks["source"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["source"] = map[string]any{"status": "ok", "fingerprint": fp}
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"source":    s.dash.Source(),
		"checks":    checks,
	})
}

func (s *Server) renderLoadError(w http.ResponseWriter, r *http.Request, err error) {
	s.logLoadError(r.Context(), err)
	s.render(w, r, s.errorStatus(r), "error", errorView{Message: unavailableMessage, Source: s.dash.Source()})
}

func (s *Server) logLoadError(ctx context.Context, err error) {
	s.events.LogError(ctx, "Budget load failed", err, applog.ComponentServices, applog.OpLoad,
		applog.NewFields().WithBudget(s.dash.Source(), "", 0))
}

func (s *Server) errorStatus(r *http.Request) int {
	if isHTMX(r) {
		return http.StatusOK
	}
	return http.StatusServiceUnavailable
}

func newSummaryView(sum services.Summary) summaryView {
	return summaryView{Summary: sum, Missing: missingRoles(sum.Binding)}
}

func newSummaryJSON(sum services.Summary) summaryJSON {
	top := make([]rankedEntryJSON, 0, len(sum.Top))
	for _, e := range sum.Top {
		top = append(top, rankedEntryJSON{Label: e.Label, Amount: e.Amount.String(), Display: e.Display})
	}
	return summaryJSON{
		Fingerprint: sum.Fingerprint,
		Source:      sum.Source,
		LoadedAt:    sum.LoadedAt,
		RowCount:    sum.RowCount,
		Binding:     sum.Binding,
		Missing:     missingRoles(sum.Binding),
		Totals:      newTotalsJSON(sum.Totals()),
		Top:         top,
		Preview:     sum.Preview,
	}
}
