package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals are the three headline sums of one dataset.
type Totals struct {
	Allocation decimal.Decimal
	Declared   decimal.Decimal
	Committed  decimal.Decimal
}

// ComputeTotals sums every amount role of d.
func ComputeTotals(d Dataset, b Binding) Totals {
	return Totals{
		Allocation: Sum(d, b, RoleAllocation),
		Declared:   Sum(d, b, RoleDeclared),
		Committed:  Sum(d, b, RoleCommitted),
	}
}

// HistoryEntry records the totals observed for one distinct fingerprint.
type HistoryEntry struct {
	ID          int64
	Fingerprint Fingerprint
	Source      string
	RowCount    int
	Totals      Totals
	RecordedAt  time.Time
}
