package sheets

import "testing"

func TestBuildDatasetHeaderOffset(t *testing.T) {
	matrix := [][]string{
		{"Secretaria de Estado de Saúde"},
		{},
		{"Ação ", "LOA"},
		{"A1", "10"},
		{"A2"},
	}

	ds := BuildDataset(matrix, 2)
	if len(ds.Headers) != 2 || ds.Headers[0] != "Ação" {
		t.Fatalf("headers: %q", ds.Headers)
	}
	if ds.Len() != 2 || ds.Rows[1][1] != "" {
		t.Fatalf("rows: %q", ds.Rows)
	}

	ds = BuildDataset(matrix, 0)
	if ds.Headers[0] != "Secretaria de Estado de Saúde" || ds.Len() != 4 {
		t.Fatalf("offset 0: headers=%q rows=%d", ds.Headers, ds.Len())
	}
	if err := ds.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestBuildDatasetOffsetPastEnd(t *testing.T) {
	ds := BuildDataset([][]string{{"a"}}, 5)
	if len(ds.Headers) != 0 || ds.Len() != 0 {
		t.Fatalf("expected empty dataset, got %+v", ds)
	}
}

func TestDigestMatrix(t *testing.T) {
	a := DigestMatrix([][]string{{"a", "b"}, {"1"}})
	if a != DigestMatrix([][]string{{"a", "b"}, {"1"}}) {
		t.Fatalf("digest not deterministic")
	}
	if len(a) != 32 {
		t.Fatalf("digest length %d", len(a))
	}
	if a == DigestMatrix([][]string{{"a"}, {"b", "1"}}) {
		t.Fatalf("digest ignores row boundaries")
	}
	if DigestMatrix([][]string{{"12", ""}}) == DigestMatrix([][]string{{"1", "2"}}) {
		t.Fatalf("digest ignores cell boundaries")
	}
}
