// Command painel serves the budget dashboard and offers one-shot helpers
// for inspecting a budget source from the terminal.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orcamento/internal/backend"
	"orcamento/internal/cli"
	"orcamento/internal/config"
	applog "orcamento/internal/log"
	"orcamento/internal/services"
)

func main() {
	cli.LoadEnvFile()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "painel",
		Short: "Budget execution dashboard over a spreadsheet",
		Long: `painel reads a budget spreadsheet (xlsx, xls, Google Sheets or an
in-memory table), sums the allocation, declared and committed columns and
ranks actions by committed amount.

Configuration is read from the environment (and .env when present).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSummaryCmd(),
		newFingerprintCmd(),
		newEventsCmd(),
	)
	return root
}

// bootstrap loads configuration, sets up logging and opens the source.
func bootstrap(ctx context.Context) (*config.Config, *applog.Logger, *backend.BackendResult, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := cli.SetupLogger(cfg.LogLevel)

	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, beCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, be, nil
}

func dashboardOptions(cfg *config.Config) services.Options {
	opts := services.DefaultOptions()
	opts.Load = cfg.LoadOptions()
	opts.Patterns = cfg.RolePatterns
	opts.TopN = cfg.TopN
	opts.PreviewRows = cfg.PreviewRows
	opts.CacheTTL = cfg.CacheTTL
	return opts
}
