// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/wevbarker/DRADIS/internal/analysis"
	"github.com/wevbarker/DRADIS/internal/classifier"
	"github.com/wevbarker/DRADIS/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze pending documents against the interest profile",
	Long: `Analyze runs every pending document through the relevance pipeline:
an obvious-mismatch pre-filter, the external AI classifier under a
concurrency and rate ceiling, and the composite scorer. Each document
receives exactly one persisted outcome; flagged documents appear in
reports. Interrupting the run keeps completed outcomes and leaves the
rest pending.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("batch-size", 0, "documents per batch (default 20)")
	analyzeCmd.Flags().Int("concurrency", 0, "number of analysis workers (default 5)")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	if cfg.Classifier.APIKey == "" {
		return fmt.Errorf("classifier API key required: set classifier.api_key or DRADIS_CLASSIFIER_API_KEY")
	}

	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
		cfg.Analysis.Concurrency = concurrency
	}
	batchSize, _ := cmd.Flags().GetInt("batch-size")

	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	backend := classifier.NewHTTPBackend(cfg.Classifier)
	coordinator := analysis.New(s, backend, cfg, rosterFile(cfg), os.Stdout)

	_, err = coordinator.AnalyzePending(ctx, batchSize)
	if errors.Is(err, analysis.ErrProfileMissing) {
		return fmt.Errorf("no interest profile configured: ingest one with 'dradis ingest'")
	}
	return err
}
