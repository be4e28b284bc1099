package amqp

import (
	"encoding/json"
	"time"

	"orcamento/internal/core"
)

// RefreshEvent announces that the budget source changed and new totals
// were computed. Amounts travel as decimal strings.
type RefreshEvent struct {
	Fingerprint string    `json:"fingerprint"`
	Source      string    `json:"source"`
	RowCount    int       `json:"row_count"`
	Allocation  string    `json:"allocation"`
	Declared    string    `json:"declared"`
	Committed   string    `json:"committed"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewRefreshEvent(e core.HistoryEntry) *RefreshEvent {
	ts := e.RecordedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &RefreshEvent{
		Fingerprint: string(e.Fingerprint),
		Source:      e.Source,
		RowCount:    e.RowCount,
		Allocation:  e.Totals.Allocation.String(),
		Declared:    e.Totals.Declared.String(),
		Committed:   e.Totals.Committed.String(),
		Timestamp:   ts,
	}
}

func (m *RefreshEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RefreshEventFromJSON(data []byte) (*RefreshEvent, error) {
	var msg RefreshEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
