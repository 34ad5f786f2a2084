// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wevbarker/DRADIS/internal/relevance"
	"github.com/wevbarker/DRADIS/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show flagged documents ranked by relevance",
	Long: `Report lists flagged documents ordered by composite score (ties break
by publication date, then id, so repeated reports are identical).
Documents with a collaborator among the authors are marked with *.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Int("limit", 10, "maximum number of flagged documents to show")
	reportCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := pipelineConfig(cmd)
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	flagged, err := s.FlaggedOutcomes(context.Background(), limit)
	if err != nil {
		return err
	}

	// The store read is pre-sorted for the limit; Rank owns the final
	// deterministic order.
	ranked := make([]relevance.Ranked, len(flagged))
	for i, fd := range flagged {
		ranked[i] = relevance.Ranked{Document: fd.Document, Outcome: fd.Outcome}
	}
	relevance.Rank(ranked)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranked)
	}

	if len(ranked) == 0 {
		fmt.Println("No flagged documents.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-6s  %-50s  %-24s  %-10s\n",
		"Rank", "Score", "Title", "Authors", "Date")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 102))

	for i, fd := range ranked {
		title := fd.Document.Title
		if len(fd.Outcome.MatchedCollaborators) > 0 {
			title = "* " + title
		}
		if len(title) > 50 {
			title = title[:47] + "..."
		}

		authors := strings.Join(fd.Document.Authors, ", ")
		if len(authors) > 24 {
			authors = authors[:21] + "..."
		}

		date := "unknown"
		if !fd.Document.PublishedAt.IsZero() {
			date = fd.Document.PublishedAt.Format("2006-01-02")
		}

		fmt.Fprintf(os.Stdout, "%-4d  %-6.2f  %-50s  %-24s  %-10s\n",
			i+1, fd.Outcome.CompositeScore, title, authors, date)

		if len(fd.Outcome.KeyConcepts) > 0 {
			fmt.Fprintf(os.Stdout, "      concepts: %s\n", strings.Join(fd.Outcome.KeyConcepts, ", "))
		}
	}

	fmt.Fprintf(os.Stdout, "\n%d flagged documents\n", len(ranked))
	return nil
}
