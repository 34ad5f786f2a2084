// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"

	"github.com/wevbarker/DRADIS/internal/store"
	"github.com/wevbarker/DRADIS/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Load documents and the interest profile from YAML batches",
	Long: `Ingest reads YAML batch files containing documents and optionally an
interest profile, and loads them into the store. Documents already
present (by id) are skipped, so re-ingesting a batch is safe.

A batch file looks like:

  profile:
    keywords: [quantum gravity, torsion]
    topics: [modified gravity]
  documents:
    - id: "2608.01001"
      title: Torsion in modified gravity
      authors: [A. Lasenby]
      abstract: ...
      categories: [gr-qc]
      published_at: 2026-08-10T00:00:00Z`,
	RunE: runIngest,
}

// batchFile is the on-disk YAML shape for one ingest batch.
type batchFile struct {
	Profile   *types.InterestProfile `yaml:"profile"`
	Documents []types.Document       `yaml:"documents"`
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more YAML batch files")
	}

	cfg := pipelineConfig(cmd)
	s, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading batch %s: %w", path, err)
		}

		var batch batchFile
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return fmt.Errorf("parsing batch %s: %w", path, err)
		}

		if batch.Profile != nil {
			if err := s.SaveProfile(ctx, *batch.Profile); err != nil {
				return err
			}
			fmt.Printf("%s: profile saved (%d keywords, %d prior works)\n",
				path, len(batch.Profile.Keywords), len(batch.Profile.PriorWork))
		}

		if len(batch.Documents) > 0 {
			added, err := s.AddDocuments(ctx, batch.Documents)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %d documents added, %d already present\n",
				path, added, len(batch.Documents)-added)
		}
	}
	return nil
}
