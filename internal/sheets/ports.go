package sheets

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"orcamento/internal/core"
)

type (
	// SheetSelector picks a sheet by zero-based index, or by name when Name
	// is set.
	SheetSelector struct {
		Index int
		Name  string
	}

	// LoadOptions control how a source turns a sheet into a Dataset.
	LoadOptions struct {
		Sheet SheetSelector
		// HeaderOffset is the number of leading rows skipped before the
		// row used as header.
		HeaderOffset int
	}
)

// Ports for inbound spreadsheet adapters.
type (
	DatasetLoader interface {
		Load(ctx context.Context, opts LoadOptions) (core.Dataset, error)
	}

	// Fingerprinter digests the current source content for change detection.
	Fingerprinter interface {
		Fingerprint(ctx context.Context) (core.Fingerprint, error)
	}

	// Source is a spreadsheet the dashboard can poll and load.
	Source interface {
		DatasetLoader
		Fingerprinter
		// Describe returns a short human label (file path, sheet ID).
		Describe() string
	}
)

// BuildDataset turns a raw cell matrix into a Dataset using the row at
// headerOffset as header. Rows above it are discarded. A matrix shorter
// than the offset yields an empty dataset.
func BuildDataset(matrix [][]string, headerOffset int) core.Dataset {
	if headerOffset < 0 {
		headerOffset = 0
	}
	if headerOffset >= len(matrix) {
		return core.NewDataset(nil, nil)
	}
	return core.NewDataset(matrix[headerOffset], matrix[headerOffset+1:])
}

// DigestMatrix hashes every cell with unit and record separators so that
// moving a value between cells, or across a row boundary, changes the
// digest. Backends without a byte stream fingerprint their cells this way.
func DigestMatrix(matrix [][]string) core.Fingerprint {
	h := md5.New()
	for _, row := range matrix {
		for _, cell := range row {
			h.Write([]byte(cell))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return core.Fingerprint(hex.EncodeToString(h.Sum(nil)))
}
