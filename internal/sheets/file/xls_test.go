package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// testdata/budget.xls is a BIFF8 workbook with two sheets. "Capa" holds a
// single title cell. "Resumo" has a title row, a blank row, the header on
// the third row, four actions (one without a declared amount, one short
// row) and a trailing empty row record.
const xlsFixture = "testdata/budget.xls"

func TestLoadXLSEndToEnd(t *testing.T) {
	ds, err := NewReader().Load(context.Background(), xlsFixture, sheets.LoadOptions{
		Sheet:        sheets.SheetSelector{Name: "Resumo"},
		HeaderOffset: 2,
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := ds.Validate(); err != nil {
		t.Fatalf("width invariant: %v", err)
	}

	wantHeaders := "Ação|Descrição|LOA|Declarado|Empenhado"
	if got := strings.Join(ds.Headers, "|"); got != wantHeaders {
		t.Fatalf("headers = %q, want %q", got, wantHeaders)
	}
	if ds.Len() != 4 {
		t.Fatalf("trailing empty row not trimmed: %d rows %q", ds.Len(), ds.Rows)
	}

	cells := []struct {
		row, col int
		want     string
	}{
		{0, 0, "2001"},
		{0, 1, "Atenção básica"},
		{0, 2, "1200000"},
		{1, 2, "3400000.5"},
		{2, 3, ""},
		{2, 4, "410000"},
		{3, 2, "450000"},
		{3, 3, ""},
		{3, 4, ""},
	}
	for _, c := range cells {
		if got := ds.Rows[c.row][c.col]; got != c.want {
			t.Errorf("cell (%d,%d) = %q, want %q", c.row, c.col, got, c.want)
		}
	}

	b := core.Resolve(ds.Headers, core.DefaultRolePatterns())
	sums := map[core.Role]string{
		core.RoleAllocation: "5850000.5",
		core.RoleDeclared:   "3850000",
		core.RoleCommitted:  "4030000",
	}
	for role, want := range sums {
		if got := core.Sum(ds, b, role).String(); got != want {
			t.Errorf("sum(%s) = %s, want %s", role, got, want)
		}
	}

	top := core.TopN(ds, b, core.RoleCommitted, 2)
	if top.Len() != 2 || top.Rows[0][0] != "2002" || top.Rows[1][0] != "2001" {
		t.Fatalf("top 2 = %q", top.Rows)
	}
}

func TestLoadXLSSheetSelection(t *testing.T) {
	ctx := context.Background()
	r := NewReader()

	byIndex, err := r.Load(ctx, xlsFixture, sheets.LoadOptions{Sheet: sheets.SheetSelector{Index: 1}, HeaderOffset: 2})
	if err != nil {
		t.Fatalf("load by index: %v", err)
	}
	if byIndex.Len() != 4 || byIndex.Headers[0] != "Ação" {
		t.Fatalf("index 1 should be Resumo: %q", byIndex.Headers)
	}

	first, err := r.Load(ctx, xlsFixture, sheets.LoadOptions{})
	if err != nil {
		t.Fatalf("load first sheet: %v", err)
	}
	if len(first.Headers) != 1 || first.Headers[0] != "Painel orçamentário" || first.Len() != 0 {
		t.Fatalf("first sheet: %q %q", first.Headers, first.Rows)
	}

	for _, sel := range []sheets.SheetSelector{{Name: "Despesas"}, {Index: 2}} {
		if _, err := r.Load(ctx, xlsFixture, sheets.LoadOptions{Sheet: sel}); err == nil {
			t.Errorf("selector %+v: expected an error", sel)
		}
	}
}

func TestLoadXLSUppercaseExtension(t *testing.T) {
	raw, err := os.ReadFile(xlsFixture)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "ORCAMENTO.XLS")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	ds, err := NewReader().Load(context.Background(), path, sheets.LoadOptions{Sheet: sheets.SheetSelector{Name: "Resumo"}, HeaderOffset: 2})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ds.Len() != 4 {
		t.Fatalf("rows: %d", ds.Len())
	}
}
