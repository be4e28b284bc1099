// Package core provides the budget dataset model and the operations the
// dashboard runs over it: column resolution, sums and rankings.
//
// This file contains amount parsing and the millions formatting used by the
// summary cards and chart labels.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxAmountExponent bounds the decimal exponent of a parsed amount. Beyond
// it the value is outside float64 range and arithmetic on it would expand
// to a huge big.Int.
const maxAmountExponent = 400

var (
	million = decimal.NewFromInt(1_000_000)
	printer = message.NewPrinter(language.English)
)

// ParseAmount parses cell text as a decimal number. Only '.' is accepted as
// the decimal separator and an exponent is allowed ("1e6"). Surrounding
// spaces are ignored. Values whose exponent is out of float64 range are
// rejected too. Anything else is an ErrParse.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty cell", ErrParse)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", ErrParse, s)
	}
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return decimal.Zero, fmt.Errorf("%w: %q is out of range", ErrParse, s)
	}
	return d, nil
}

// FormatMillions renders an amount as "R$ 1,234.56 mi".
func FormatMillions(d decimal.Decimal) string {
	return "R$ " + printer.Sprintf("%.2f", d.Div(million).InexactFloat64()) + " mi"
}

// FormatMillionsShort renders an amount as "1.90 mi" for chart labels.
func FormatMillionsShort(d decimal.Decimal) string {
	return d.Div(million).StringFixed(2) + " mi"
}
