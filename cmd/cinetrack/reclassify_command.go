package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cinetrack/cinetrack/internal/reclassify"
)

func newReclassifyCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Run one reclassification batch over active items",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, dbManager, log, err := ctx.offlineServer()
			if err != nil {
				return err
			}
			defer log.Close()
			defer dbManager.Close()
			defer server.Metadata().Close()

			summary, err := server.ReclassifyJob().Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, summary)
			}
			if len(summary.Results) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"User", "Type", "ID", "Old", "New", "Result"},
					resultRows(summary.Results),
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}
			fmt.Fprintf(out, "Processed %d, changed %d, failed %d in %s\n",
				summary.Processed, summary.Changed, summary.Failed, summary.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func resultRows(results []reclassify.ItemResult) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		outcome := "ok"
		if !r.Success {
			outcome = r.Error
		}
		rows = append(rows, []string{
			r.UserID,
			string(r.Type),
			strconv.Itoa(r.ExternalID),
			string(r.OldStatus),
			string(r.NewStatus),
			outcome,
		})
	}
	return rows
}
