package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/watchlist"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var userID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a watch list",
		RunE: func(cmd *cobra.Command, args []string) error {
			server, dbManager, log, err := ctx.offlineServer()
			if err != nil {
				return err
			}
			defer log.Close()
			defer dbManager.Close()
			defer server.Metadata().Close()

			items, err := server.Watchlist().List(cmd.Context(), userID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, items)
			}
			if len(items) == 0 {
				fmt.Fprintln(out, "Watch list is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Type", "ID", "Title", "Status", "Season", "Added"},
				itemRows(items),
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", auth.LocalUserID, "User whose list to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func itemRows(items []watchlist.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		season := ""
		if item.LastWatchedSeason > 0 {
			season = strconv.Itoa(item.LastWatchedSeason)
		}
		rows = append(rows, []string{
			string(item.Type),
			strconv.Itoa(item.ExternalID),
			item.Title,
			string(item.Status),
			season,
			item.CreatedAt.Format("2006-01-02"),
		})
	}
	return rows
}
