package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// NumericCell is one cell of a column read as a number. OK is false for the
// missing-value marker and for cells that do not parse.
type NumericCell struct {
	Value decimal.Decimal
	OK    bool
}

// NumericColumn reinterprets the column bound to role as numbers. It
// returns nil when the role is not bound.
func NumericColumn(d Dataset, b Binding, role Role) []NumericCell {
	col, ok := b.Column(role)
	if !ok {
		return nil
	}
	idx := d.ColumnIndex(col)
	if idx < 0 {
		return nil
	}
	out := make([]NumericCell, len(d.Rows))
	for i, r := range d.Rows {
		v, err := ParseAmount(r[idx])
		out[i] = NumericCell{Value: v, OK: err == nil}
	}
	return out
}

// Sum adds up the column bound to role. Empty and non-numeric cells are
// skipped; an unbound role sums to zero.
func Sum(d Dataset, b Binding, role Role) decimal.Decimal {
	total := decimal.Zero
	for _, c := range NumericColumn(d, b, role) {
		if c.OK {
			total = total.Add(c.Value)
		}
	}
	return total
}

// TopN returns the n rows with the largest values in the column bound to
// rankRole, largest first. Rows whose ranking cell does not parse are left
// out. Equal values keep their original order.
func TopN(d Dataset, b Binding, rankRole Role, n int) Dataset {
	cells := NumericColumn(d, b, rankRole)
	if cells == nil || n <= 0 {
		return d.subset(nil)
	}

	type ranked struct {
		row   []string
		value decimal.Decimal
	}
	candidates := make([]ranked, 0, len(cells))
	for i, c := range cells {
		if c.OK {
			candidates = append(candidates, ranked{row: d.Rows[i], value: c.Value})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].value.GreaterThan(candidates[j].value)
	})

	if n > len(candidates) {
		n = len(candidates)
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		rows[i] = candidates[i].row
	}
	return d.subset(rows)
}
