// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wevbarker/DRADIS/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the document store and profile state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}

	profile, err := s.Profile(ctx)
	if err != nil {
		return err
	}

	r, err := loadRoster(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Documents:     %d (%d pending)\n", stats.Documents, stats.Pending)
	fmt.Printf("Analyzed:      %d (%d flagged, %d degraded)\n", stats.Analyzed, stats.Flagged, stats.Degraded)
	fmt.Printf("Collaborators: %d\n", len(r.Collaborators))
	if profile == nil {
		fmt.Println("Profile:       not configured (run 'dradis ingest' with a profile)")
	} else {
		fmt.Printf("Profile:       %d keywords, %d topics, %d prior works\n",
			len(profile.Keywords), len(profile.Topics), len(profile.PriorWork))
	}
	return nil
}
