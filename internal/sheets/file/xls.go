package file

import (
	"fmt"

	"github.com/extrame/xls"

	"orcamento/internal/sheets"
)

// XLSDecoder reads legacy BIFF workbooks.
type XLSDecoder struct {
	// Charset passed to the engine for string records; defaults to utf-8.
	Charset string
}

func (XLSDecoder) Format() Format { return FormatXLS }

// Decode reads the selected sheet. The engine panics on some malformed
// files, so panics are turned into errors.
func (d XLSDecoder) Decode(path string, sel sheets.SheetSelector) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("xls: malformed workbook: %v", r)
		}
	}()

	charset := d.Charset
	if charset == "" {
		charset = "utf-8"
	}
	wb, closer, err := xls.OpenWithCloser(path, charset)
	if err != nil {
		return nil, fmt.Errorf("xls: open file: %w", err)
	}
	defer closer.Close()

	sheet, err := xlsSheet(wb, sel)
	if err != nil {
		return nil, err
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func xlsSheet(wb *xls.WorkBook, sel sheets.SheetSelector) (*xls.WorkSheet, error) {
	n := wb.NumSheets()
	if sel.Name != "" {
		for i := 0; i < n; i++ {
			if s := wb.GetSheet(i); s != nil && s.Name == sel.Name {
				return s, nil
			}
		}
		return nil, fmt.Errorf("xls: sheet %q not found", sel.Name)
	}
	if sel.Index < 0 || sel.Index >= n {
		return nil, fmt.Errorf("xls: sheet index %d out of range (file has %d sheets)", sel.Index, n)
	}
	s := wb.GetSheet(sel.Index)
	if s == nil {
		return nil, fmt.Errorf("xls: sheet %d unreadable", sel.Index)
	}
	return s, nil
}
