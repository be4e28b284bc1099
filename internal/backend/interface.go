// Package backend builds the configured budget source.
package backend

import (
	"context"

	"orcamento/internal/sheets"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult is a ready source and its cleanup.
type BackendResult struct {
	Source  sheets.Source
	Cleanup CleanupFunc
}

// Factory creates sources from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds what each backend needs.
type Config struct {
	Type BackendType

	// File
	BudgetFile string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleSheetIndex         int
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	DataDirectory string
}

type BackendType string

const (
	FileBackend   BackendType = "file"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case FileBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// GetBackendTypeStrings lists the accepted DATA_BACKEND values.
func GetBackendTypeStrings() []string {
	return []string{FileBackend.String(), SheetsBackend.String(), MemoryBackend.String()}
}
