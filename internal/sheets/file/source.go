package file

import (
	"context"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// Source is a spreadsheet file on disk.
type Source struct {
	path   string
	reader *Reader
}

var _ sheets.Source = (*Source)(nil)

// NewSource returns a Source for path. A nil reader uses NewReader().
func NewSource(path string, reader *Reader) *Source {
	if reader == nil {
		reader = NewReader()
	}
	return &Source{path: path, reader: reader}
}

func (s *Source) Load(ctx context.Context, opts sheets.LoadOptions) (core.Dataset, error) {
	return s.reader.Load(ctx, s.path, opts)
}

func (s *Source) Fingerprint(ctx context.Context) (core.Fingerprint, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return Fingerprint(s.path)
}

func (s *Source) Describe() string {
	return s.path
}
