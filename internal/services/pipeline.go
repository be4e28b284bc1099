// Package services turns a budget source into dashboard summaries.
package services

import (
	"context"
	"fmt"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// Snapshot is the last dataset loaded from a source together with the
// fingerprint it was loaded under. The zero value means nothing is loaded.
type Snapshot struct {
	Fingerprint core.Fingerprint
	Dataset     core.Dataset
	Binding     core.Binding
	LoadedAt    time.Time
}

func (s Snapshot) Empty() bool {
	return s.Fingerprint == ""
}

// Reload loads src again only when its fingerprint differs from prev's.
// It returns the snapshot to keep and whether it changed. On any error
// prev is returned untouched so the next call retries.
func Reload(ctx context.Context, src sheets.Source, prev Snapshot, load sheets.LoadOptions, patterns core.RolePatterns) (Snapshot, bool, error) {
	fp, err := src.Fingerprint(ctx)
	if err != nil {
		return prev, false, fmt.Errorf("fingerprint %s: %w", src.Describe(), err)
	}
	if !prev.Empty() && fp == prev.Fingerprint {
		return prev, false, nil
	}

	ds, err := src.Load(ctx, load)
	if err != nil {
		return prev, false, fmt.Errorf("load %s: %w", src.Describe(), err)
	}
	return Snapshot{
		Fingerprint: fp,
		Dataset:     ds,
		Binding:     core.Resolve(ds.Headers, patterns),
		LoadedAt:    time.Now(),
	}, true, nil
}
