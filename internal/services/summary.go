package services

import (
	"time"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

const minBarWidth = 2

// Summary is everything one dashboard render needs.
type Summary struct {
	Fingerprint core.Fingerprint `json:"fingerprint"`
	LoadedAt    time.Time        `json:"loaded_at"`
	Source      string           `json:"source"`
	Binding     core.Binding     `json:"binding"`
	Allocation  decimal.Decimal  `json:"allocation"`
	Declared    decimal.Decimal  `json:"declared"`
	Committed   decimal.Decimal  `json:"committed"`
	Top         []RankedEntry    `json:"top"`
	Preview     core.Dataset     `json:"preview"`
	RowCount    int              `json:"row_count"`
}

// RankedEntry is one bar of the top actions chart. BarWidth is a percentage
// of the largest bar.
type RankedEntry struct {
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Display  string          `json:"display"`
	BarWidth int             `json:"bar_width"`
}

// Totals returns the headline sums.
func (s Summary) Totals() core.Totals {
	return core.Totals{Allocation: s.Allocation, Declared: s.Declared, Committed: s.Committed}
}

// HistoryEntry describes the summary for the snapshot history.
func (s Summary) HistoryEntry() core.HistoryEntry {
	return core.HistoryEntry{
		Fingerprint: s.Fingerprint,
		Source:      s.Source,
		RowCount:    s.RowCount,
		Totals:      s.Totals(),
		RecordedAt:  s.LoadedAt,
	}
}

// BuildSummary aggregates a snapshot. The ranking needs both the action
// and the committed column; otherwise Top is empty.
func BuildSummary(snap Snapshot, source string, topN, previewRows int) Summary {
	ds, b := snap.Dataset, snap.Binding
	totals := core.ComputeTotals(ds, b)
	return Summary{
		Fingerprint: snap.Fingerprint,
		LoadedAt:    snap.LoadedAt,
		Source:      source,
		Binding:     b,
		Allocation:  totals.Allocation,
		Declared:    totals.Declared,
		Committed:   totals.Committed,
		Top:         rank(ds, b, topN),
		Preview:     core.Head(ds, previewRows),
		RowCount:    ds.Len(),
	}
}

func rank(ds core.Dataset, b core.Binding, n int) []RankedEntry {
	if !b.Has(core.RoleAction, core.RoleCommitted) {
		return nil
	}
	top := core.TopN(ds, b, core.RoleCommitted, n)
	actionCol, _ := b.Column(core.RoleAction)
	committedCol, _ := b.Column(core.RoleCommitted)
	ai, ci := top.ColumnIndex(actionCol), top.ColumnIndex(committedCol)

	out := make([]RankedEntry, 0, top.Len())
	for _, row := range top.Rows {
		amount, err := core.ParseAmount(row[ci])
		if err != nil {
			continue
		}
		out = append(out, RankedEntry{
			Label:   row[ai],
			Amount:  amount,
			Display: core.FormatMillionsShort(amount),
		})
	}
	if len(out) == 0 {
		return out
	}
	max := out[0].Amount
	for i := range out {
		out[i].BarWidth = barWidth(out[i].Amount, max)
	}
	return out
}

func barWidth(v, max decimal.Decimal) int {
	if !max.IsPositive() || !v.IsPositive() {
		return minBarWidth
	}
	w := int(v.Mul(decimal.NewFromInt(100)).Div(max).IntPart())
	switch {
	case w < minBarWidth:
		return minBarWidth
	case w > 100:
		return 100
	}
	return w
}
