package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"orcamento/internal/sheets/file"
)

func newFingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <path>...",
		Short: "Print the content digest of spreadsheet files",
		Long: `Print the MD5 digest the watcher uses to detect changes, one line per
file. Two files with the same digest are byte for byte identical.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				fp, err := file.Fingerprint(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fp, path)
			}
			return nil
		},
	}
}
