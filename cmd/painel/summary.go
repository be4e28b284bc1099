package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"orcamento/internal/core"
	"orcamento/internal/services"
)

func newSummaryCmd() *cobra.Command {
	var topN int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Load the configured source once and print its totals",
		Long: `Load the configured source once, then print the allocation, declared
and committed totals and the actions with the largest committed amounts.

Example: BUDGET_FILE=painel.xlsx painel summary --top 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, be, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer be.Cleanup()

			opts := dashboardOptions(cfg)
			if topN > 0 {
				opts.TopN = topN
			}
			sum, err := services.NewDashboardService(be.Source, opts).Summary(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			return printSummary(cmd.OutOrStdout(), sum)
		},
	}

	cmd.Flags().IntVar(&topN, "top", 0, "number of actions to rank (default TOP_N)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, sum services.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Source\t%s\n", sum.Source)
	fmt.Fprintf(tw, "Fingerprint\t%s\n", sum.Fingerprint)
	fmt.Fprintf(tw, "Rows\t%d\n", sum.RowCount)
	fmt.Fprintf(tw, "Allocation\t%s\n", core.FormatMillions(sum.Allocation))
	fmt.Fprintf(tw, "Declared\t%s\n", core.FormatMillions(sum.Declared))
	fmt.Fprintf(tw, "Committed\t%s\n", core.FormatMillions(sum.Committed))
	for _, r := range core.Roles() {
		if !sum.Binding.Has(r) {
			fmt.Fprintf(tw, "Missing column\t%s\n", r)
		}
	}
	if len(sum.Top) > 0 {
		fmt.Fprintln(tw, "\nTop actions\t")
		for i, e := range sum.Top {
			fmt.Fprintf(tw, "%d. %s\t%s\n", i+1, e.Label, e.Display)
		}
	}
	return tw.Flush()
}
