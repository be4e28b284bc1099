// Package config loads the dashboard settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

// LegacyBudgetFileEnv is the variable name the first version of the panel
// read the spreadsheet path from. BUDGET_FILE takes precedence.
const LegacyBudgetFileEnv = "ENV_PLANILHA_ACOMPANHAMENTO_ORCAMENTARIO"

var validBackends = []string{"file", "sheets", "memory"}

type Config struct {
	// HTTP Server
	Port string

	// Source selection
	DataBackend  string
	BudgetFile   string
	BudgetSheet  sheets.SheetSelector
	HeaderOffset int
	RolePatterns core.RolePatterns

	// Refresh
	PollInterval time.Duration
	CacheTTL     time.Duration

	// Presentation
	TopN           int
	PreviewRows    int
	DashboardTitle string

	// History
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory backend
	MemoryDataDir string

	LogLevel string
}

func Load() *Config {
	budgetFile := getEnv("BUDGET_FILE", "")
	if budgetFile == "" {
		budgetFile = getEnv(LegacyBudgetFileEnv, "")
	}

	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  strings.ToLower(getEnv("DATA_BACKEND", "file")),
		BudgetFile:   budgetFile,
		BudgetSheet:  parseSheetSelector(getEnv("BUDGET_SHEET", "")),
		HeaderOffset: getEnvInt("BUDGET_HEADER_OFFSET", 2),
		RolePatterns: loadRolePatterns(),

		PollInterval: getEnvDuration("POLL_INTERVAL", 60*time.Second),
		CacheTTL:     getEnvDuration("CACHE_TTL", 60*time.Second),

		TopN:           getEnvInt("TOP_N", 5),
		PreviewRows:    getEnvInt("PREVIEW_ROWS", 10),
		DashboardTitle: getEnv("DASHBOARD_TITLE", "Painel Orçamentário"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "orcamento"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget_refreshed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		MemoryDataDir: getEnv("MEMORY_DATA_DIR", "data"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case "file":
		if strings.TrimSpace(c.BudgetFile) == "" {
			errors = append(errors, fmt.Sprintf("BUDGET_FILE (or %s) is required when using file backend", LegacyBudgetFileEnv))
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.HeaderOffset < 0 {
		errors = append(errors, fmt.Sprintf("invalid header offset %d: must not be negative", c.HeaderOffset))
	}
	if c.BudgetSheet.Index < 0 {
		errors = append(errors, fmt.Sprintf("invalid sheet index %d: must not be negative", c.BudgetSheet.Index))
	}

	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at most 24 hours", c.PollInterval))
	}
	if c.CacheTTL <= 0 {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be positive", c.CacheTTL))
	}

	if c.TopN < 1 || c.TopN > 50 {
		errors = append(errors, fmt.Sprintf("invalid top N %d: must be between 1 and 50", c.TopN))
	}
	if c.PreviewRows < 0 || c.PreviewRows > 1000 {
		errors = append(errors, fmt.Sprintf("invalid preview rows %d: must be between 0 and 1000", c.PreviewRows))
	}

	for _, role := range core.Roles() {
		if len(c.RolePatterns[role]) == 0 {
			errors = append(errors, fmt.Sprintf("no column patterns for role %s", role))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// LoadOptions returns how the configured sheet should be read.
func (c *Config) LoadOptions() sheets.LoadOptions {
	return sheets.LoadOptions{Sheet: c.BudgetSheet, HeaderOffset: c.HeaderOffset}
}

// HistoryEnabled reports whether snapshots should be persisted.
func (c *Config) HistoryEnabled() bool {
	return strings.TrimSpace(c.SQLiteDBPath) != ""
}

// EventsEnabled reports whether refresh events should be published.
func (c *Config) EventsEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}

// parseSheetSelector reads BUDGET_SHEET: an integer is a zero-based index,
// anything else a sheet name.
func parseSheetSelector(v string) sheets.SheetSelector {
	v = strings.TrimSpace(v)
	if v == "" {
		return sheets.SheetSelector{}
	}
	if i, err := strconv.Atoi(v); err == nil {
		return sheets.SheetSelector{Index: i}
	}
	return sheets.SheetSelector{Name: v}
}

var roleEnv = map[core.Role]string{
	core.RoleAction:     "ROLE_ACTION_PATTERNS",
	core.RoleAllocation: "ROLE_ALLOCATION_PATTERNS",
	core.RoleDeclared:   "ROLE_DECLARED_PATTERNS",
	core.RoleCommitted:  "ROLE_COMMITTED_PATTERNS",
}

func loadRolePatterns() core.RolePatterns {
	patterns := core.DefaultRolePatterns()
	for role, key := range roleEnv {
		if v := os.Getenv(key); v != "" {
			if list := splitPatterns(v); len(list) > 0 {
				patterns[role] = list
			}
		}
	}
	return patterns
}

func splitPatterns(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
