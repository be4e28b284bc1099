package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"orcamento/internal/core"
)

const timestampLayout = "02/01/2006 15:04:05"

var templateFuncs = template.FuncMap{
	"millions":  core.FormatMillions,
	"timestamp": formatTimestamp,
	"shortFP":   shortFingerprint,
	"roleLabel": roleLabel,
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timestampLayout)
}

// shortFingerprint keeps the first eight hex digits, enough to tell
// snapshots apart on screen.
func shortFingerprint(fp core.Fingerprint) string {
	s := string(fp)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

var roleLabels = map[core.Role]string{
	core.RoleAction:     "Ação",
	core.RoleAllocation: "Dotação (LOA)",
	core.RoleDeclared:   "Declarado",
	core.RoleCommitted:  "Empenhado",
}

func roleLabel(r core.Role) string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return string(r)
}

// missingRoles lists the roles b could not bind, in display order.
func missingRoles(b core.Binding) []core.Role {
	var out []core.Role
	for _, r := range core.Roles() {
		if !b.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// summaryJSON is the /api/summary payload. Amounts are decimal strings so
// no precision is lost in transit.
type summaryJSON struct {
	Fingerprint core.Fingerprint  `json:"fingerprint"`
	Source      string            `json:"source"`
	LoadedAt    time.Time         `json:"loaded_at"`
	RowCount    int               `json:"row_count"`
	Binding     core.Binding      `json:"binding"`
	Missing     []core.Role       `json:"missing_roles"`
	Totals      totalsJSON        `json:"totals"`
	Top         []rankedEntryJSON `json:"top"`
	Preview     core.Dataset      `json:"preview"`
}

type totalsJSON struct {
	Allocation string `json:"allocation"`
	Declared   string `json:"declared"`
	Committed  string `json:"committed"`
}

type rankedEntryJSON struct {
	Label   string `json:"label"`
	Amount  string `json:"amount"`
	Display string `json:"display"`
}

type historyEntryJSON struct {
	Fingerprint core.Fingerprint `json:"fingerprint"`
	Source      string           `json:"source"`
	RowCount    int              `json:"row_count"`
	Totals      totalsJSON       `json:"totals"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

func newTotalsJSON(t core.Totals) totalsJSON {
	return totalsJSON{
		Allocation: t.Allocation.String(),
		Declared:   t.Declared.String(),
		Committed:  t.Committed.String(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// isHTMX reports whether r was issued by htmx.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
