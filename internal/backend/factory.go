package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"orcamento/internal/config"
	"orcamento/internal/sheets/file"
	gsheet "orcamento/internal/sheets/google"
	"orcamento/internal/sheets/memory"
)

// FromAppConfig extracts the backend settings from the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	sheetName := appConfig.GoogleSheetName
	if sheetName == "" {
		sheetName = appConfig.BudgetSheet.Name
	}
	return Config{
		Type:                     bt,
		BudgetFile:               appConfig.BudgetFile,
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          sheetName,
		GoogleSheetIndex:         appConfig.BudgetSheet.Index,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		DataDirectory:            appConfig.MemoryDataDir,
	}, nil
}

// DefaultFactory implements Factory
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	switch config.Type {
	case FileBackend:
		return f.createFileBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type %q (valid: %s)",
			config.Type, strings.Join(GetBackendTypeStrings(), ", "))
	}
}

// createFileBackend does not require the file to exist yet; a missing file
// is reported by each load so the dashboard can show it.
func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	if strings.TrimSpace(config.BudgetFile) == "" {
		return nil, fmt.Errorf("file backend requires a budget file path")
	}
	f.logger.Info("Using spreadsheet file backend", "path", config.BudgetFile)
	return &BackendResult{
		Source:  file.NewSource(config.BudgetFile, nil),
		Cleanup: noCleanup,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		SheetName:       config.GoogleSheetName,
		SheetIndex:      config.GoogleSheetIndex,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Using Google Sheets backend", "source", client.Describe())
	return &BackendResult{Source: client, Cleanup: noCleanup}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dir := config.DataDirectory
	if dir == "" {
		dir = "data"
	}
	store, err := memory.NewFromFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed memory backend: %w", err)
	}
	f.logger.Info("Using memory backend", "source", store.Describe())
	return &BackendResult{Source: store, Cleanup: noCleanup}, nil
}

func noCleanup() error { return nil }
