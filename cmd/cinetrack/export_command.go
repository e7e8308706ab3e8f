package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cinetrack/cinetrack/internal/auth"
	"github.com/cinetrack/cinetrack/internal/watchlist"
)

// exportEntry is the portable form of a watch list item. Catalog metadata is
// left out; it is refetched when the entry is added again.
type exportEntry struct {
	ExternalID        int    `yaml:"external_id" json:"externalId"`
	Type              string `yaml:"type" json:"type"`
	Title             string `yaml:"title" json:"title"`
	Status            string `yaml:"status" json:"status"`
	LastWatchedSeason int    `yaml:"last_watched_season,omitempty" json:"lastWatchedSeason,omitempty"`
	Added             string `yaml:"added" json:"added"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var userID, format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a watch list as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q", format)
			}

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

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return writeExport(w, format, toExportEntries(items))
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", auth.LocalUserID, "User whose list to export")
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Output file, - for stdout")
	return cmd
}

func toExportEntries(items []watchlist.Item) []exportEntry {
	entries := make([]exportEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, exportEntry{
			ExternalID:        item.ExternalID,
			Type:              string(item.Type),
			Title:             item.Title,
			Status:            string(item.Status),
			LastWatchedSeason: item.LastWatchedSeason,
			Added:             item.CreatedAt.Format("2006-01-02"),
		})
	}
	return entries
}

func writeExport(w io.Writer, format string, entries []exportEntry) error {
	if format == "json" {
		return writeJSON(w, entries)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
