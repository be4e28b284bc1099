package core

import (
	"fmt"
	"strings"
)

type (
	// Dataset is a loaded sheet: column names plus a row-major matrix of
	// cell text. Every row has exactly len(Headers) cells.
	Dataset struct {
		Headers []string   `json:"headers"`
		Rows    [][]string `json:"rows"`
	}

	// Fingerprint is a digest of a source's content. Only equality matters.
	Fingerprint string
)

// NewDataset builds a Dataset from a raw header row and data rows. Header
// names are trimmed; rows are padded (or the header widened) so the width
// invariant holds. Missing cells become "".
func NewDataset(header []string, rows [][]string) Dataset {
	width := len(header)
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	headers := make([]string, width)
	for i := range headers {
		if i < len(header) {
			headers[i] = strings.TrimSpace(header[i])
		}
	}

	out := make([][]string, len(rows))
	for i, r := range rows {
		row := make([]string, width)
		copy(row, r)
		out[i] = row
	}
	return Dataset{Headers: headers, Rows: out}
}

// Validate checks the width invariant.
func (d Dataset) Validate() error {
	for i, r := range d.Rows {
		if len(r) != len(d.Headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(d.Headers))
		}
	}
	return nil
}

// Len returns the number of data rows.
func (d Dataset) Len() int {
	return len(d.Rows)
}

// ColumnIndex returns the index of the first column named exactly name, or -1.
func (d Dataset) ColumnIndex(name string) int {
	for i, h := range d.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's cells, or nil if absent.
func (d Dataset) Column(name string) []string {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	col := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		col[i] = r[idx]
	}
	return col
}

// Head returns a dataset holding the first n rows of d.
func Head(d Dataset, n int) Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.subset(d.Rows[:n])
}

func (d Dataset) subset(rows [][]string) Dataset {
	headers := append([]string(nil), d.Headers...)
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return Dataset{Headers: headers, Rows: out}
}
