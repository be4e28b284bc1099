package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"orcamento/internal/amqp"
	"orcamento/internal/cli"
)

func newEventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Print budget refresh events as they arrive",
		Long: `Consume the refresh queue and print one line per event until
interrupted. Requires AMQP_URL.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := cli.SignalContext(cmd.Context())
			defer stop()

			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			cli.SetupLogger(cfg.LogLevel)
			if !cfg.EventsEnabled() {
				return errors.New("AMQP_URL is not set")
			}

			client, err := cli.InitEvents(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			out := cmd.OutOrStdout()
			err = client.ConsumeRefresh(ctx, func(e *amqp.RefreshEvent) error {
				_, werr := fmt.Fprintf(out, "%s  %s  rows=%d allocation=%s declared=%s committed=%s  %s\n",
					e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), e.Fingerprint, e.RowCount,
					e.Allocation, e.Declared, e.Committed, e.Source)
				return werr
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
