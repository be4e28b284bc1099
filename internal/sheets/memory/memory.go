// Package memory is an in-process budget source, seeded from a CSV file.
// It backs demos and tests that should not depend on a spreadsheet engine.
package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// SeedFile is the file NewFromFiles reads from its base directory.
const SeedFile = "budget.csv"

// Store holds a raw cell matrix, the same shape a spreadsheet decoder
// produces, so header offsets apply exactly as for files.
type Store struct {
	mu     sync.Mutex
	matrix [][]string
	origin string
}

var _ sheets.Source = (*Store)(nil)

func New(matrix [][]string) *Store {
	return &Store{matrix: cloneMatrix(matrix), origin: "memory"}
}

// NewFromFiles seeds the store from base/budget.csv. A missing file falls
// back to a small built-in table laid out like the real spreadsheet (two
// title rows above the header).
func NewFromFiles(base string) (*Store, error) {
	path := filepath.Join(base, SeedFile)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(defaultMatrix()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", core.ErrRead, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", core.ErrRead, path, err)
	}
	s := New(records)
	s.origin = "memory:" + path
	return s, nil
}

// Set replaces the matrix, which changes the fingerprint.
func (s *Store) Set(matrix [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matrix = cloneMatrix(matrix)
}

// Load builds a dataset from the held matrix. Sheet selection is ignored
// since the store holds a single table.
func (s *Store) Load(ctx context.Context, opts sheets.LoadOptions) (core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return core.Dataset{}, err
	}
	s.mu.Lock()
	m := cloneMatrix(s.matrix)
	s.mu.Unlock()
	return sheets.BuildDataset(m, opts.HeaderOffset), nil
}

func (s *Store) Fingerprint(ctx context.Context) (core.Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return sheets.DigestMatrix(s.matrix), nil
}

func (s *Store) Describe() string {
	return s.origin
}

func cloneMatrix(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, row := range in {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func defaultMatrix() [][]string {
	return [][]string{
		{"Acompanhamento Orçamentário"},
		{},
		{"Ação", "Descrição", "LOA", "Declarado", "Empenhado"},
		{"2001", "Atenção básica", "1200000", "950000", "870000"},
		{"2002", "Assistência hospitalar", "3400000", "2900000", "2750000"},
		{"2003", "Vigilância em saúde", "800000", "620000", "410000"},
		{"2004", "Assistência farmacêutica", "1500000", "1300000", "1280000"},
		{"2005", "Gestão do SUS", "450000", "300000", "120000"},
		{"2006", "Educação permanente", "250000", "200000", "195000"},
	}
}
