// Package file reads budget spreadsheets from the local filesystem.
//
// Two formats are recognised by extension: ".xlsx" (Office Open XML, decoded
// with excelize) and ".xls" (legacy BIFF, decoded with extrame/xls). Every
// cell is returned as text; numeric interpretation happens downstream.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// Format identifies a spreadsheet encoding.
type Format string

// Decoder turns one sheet of a file into a raw cell matrix. Rows may be
// ragged; missing cells are "".
type Decoder interface {
	Format() Format
	Decode(path string, sel sheets.SheetSelector) ([][]string, error)
}

// Reader loads datasets, dispatching on file extension.
type Reader struct {
	decoders map[Format]Decoder
}

// NewReader returns a Reader using the given decoders. With no arguments
// both the xlsx and xls decoders are registered.
func NewReader(decoders ...Decoder) *Reader {
	if len(decoders) == 0 {
		decoders = []Decoder{XLSXDecoder{}, XLSDecoder{}}
	}
	r := &Reader{decoders: make(map[Format]Decoder, len(decoders))}
	for _, d := range decoders {
		r.decoders[d.Format()] = d
	}
	return r
}

// DetectFormat maps a path's extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedFormat, ext)
	}
}

// Load reads the selected sheet of the file at path. The file must exist
// before its extension is considered.
func (r *Reader) Load(ctx context.Context, path string, opts sheets.LoadOptions) (core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return core.Dataset{}, err
	}
	if err := checkExists(path); err != nil {
		return core.Dataset{}, err
	}

	format, err := DetectFormat(path)
	if err != nil {
		return core.Dataset{}, err
	}
	dec, ok := r.decoders[format]
	if !ok {
		return core.Dataset{}, fmt.Errorf("%w: no decoder registered for %s files", core.ErrMissingDependency, format)
	}

	matrix, err := dec.Decode(path, opts.Sheet)
	if err != nil {
		return core.Dataset{}, fmt.Errorf("%w: %s: %w", core.ErrRead, path, err)
	}

	ds := sheets.BuildDataset(matrix, opts.HeaderOffset)
	slog.DebugContext(ctx, "Spreadsheet loaded",
		"path", path,
		"format", format,
		"header_offset", opts.HeaderOffset,
		"columns", len(ds.Headers),
		"rows", ds.Len())
	return ds, nil
}

func checkExists(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: path is empty", core.ErrFileNotFound)
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", core.ErrFileNotFound, path)
		}
		return fmt.Errorf("%w: stat %s: %w", core.ErrRead, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", core.ErrFileNotFound, path)
	}
	return nil
}
