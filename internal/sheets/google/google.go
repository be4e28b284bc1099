// Package google reads the budget table from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// Options configures a Client. SheetName wins over SheetIndex when set.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	SheetIndex      int
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	sheetIndex    int

	// Fingerprint has to download the values anyway; the next Load
	// consumes them instead of fetching again.
	mu         sync.Mutex
	lastValues [][]string
}

var _ sheets.Source = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts.CredentialsJSON, opts.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: id,
		sheetName:     strings.TrimSpace(opts.SheetName),
		sheetIndex:    opts.SheetIndex,
	}, nil
}

// newSheetsService initializes a read-only Sheets service from service
// account credentials. GOOGLE_APPLICATION_CREDENTIALS is the last fallback.
func newSheetsService(ctx context.Context, credentialsJSON, credentialsFile string) (*gsheet.Service, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.DebugContext(ctx, "Creating Google Sheets service", "credentials_size", len(raw))
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// Load fetches the sheet and applies the header offset. The sheet is the
// one chosen in Options; opts.Sheet is not consulted because Fingerprint
// has to read the same sheet without LoadOptions.
func (c *Client) Load(ctx context.Context, opts sheets.LoadOptions) (core.Dataset, error) {
	c.mu.Lock()
	matrix := c.lastValues
	c.lastValues = nil
	c.mu.Unlock()

	if matrix == nil {
		var err error
		matrix, err = c.fetch(ctx)
		if err != nil {
			return core.Dataset{}, err
		}
	}
	return sheets.BuildDataset(matrix, opts.HeaderOffset), nil
}

// Fingerprint downloads the values and hashes them.
func (c *Client) Fingerprint(ctx context.Context) (core.Fingerprint, error) {
	matrix, err := c.fetch(ctx)
	if err != nil {
		return "", err
	}
	fp := sheets.DigestMatrix(matrix)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastValues = matrix
	return fp, nil
}

func (c *Client) Describe() string {
	if c.sheetName != "" {
		return fmt.Sprintf("sheets:%s/%s", c.spreadsheetID, c.sheetName)
	}
	return fmt.Sprintf("sheets:%s#%d", c.spreadsheetID, c.sheetIndex)
}

func (c *Client) fetch(ctx context.Context) ([][]string, error) {
	if c.svc == nil {
		return nil, fmt.Errorf("%w: sheets service not initialized", core.ErrRead)
	}
	name, err := c.resolveSheetName(ctx)
	if err != nil {
		return nil, err
	}
	rng := quoteSheet(name)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", core.ErrRead, rng, err)
	}
	return valuesToMatrix(resp.Values), nil
}

func (c *Client) resolveSheetName(ctx context.Context) (string, error) {
	if c.sheetName != "" {
		return c.sheetName, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: spreadsheet metadata: %w", core.ErrRead, err)
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return sheetByIndex(titles, c.sheetIndex)
}
