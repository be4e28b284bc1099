package file

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"orcamento/internal/sheets"
)

// XLSXDecoder reads Office Open XML workbooks. Cells are returned as their
// stored raw values, so number formats do not leak into the text.
type XLSXDecoder struct{}

func (XLSXDecoder) Format() Format { return FormatXLSX }

func (XLSXDecoder) Decode(path string, sel sheets.SheetSelector) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open file: %w", err)
	}
	defer f.Close()

	name, err := xlsxSheetName(f, sel)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read sheet %q: %w", name, err)
	}
	return rows, nil
}

func xlsxSheetName(f *excelize.File, sel sheets.SheetSelector) (string, error) {
	if sel.Name != "" {
		idx, err := f.GetSheetIndex(sel.Name)
		if err != nil || idx < 0 {
			return "", fmt.Errorf("xlsx: sheet %q not found", sel.Name)
		}
		return sel.Name, nil
	}

	list := f.GetSheetList()
	if sel.Index < 0 || sel.Index >= len(list) {
		return "", fmt.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", sel.Index, len(list))
	}
	return list[sel.Index], nil
}
