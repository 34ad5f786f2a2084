// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the dradis CLI: document relevance
// analysis against a stored interest profile and collaborator roster.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wevbarker/DRADIS/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the dradis CLI.
var rootCmd = &cobra.Command{
	Use:   "dradis",
	Short: "Document relevance analysis for research monitoring",
	Long: `dradis scores ingested documents against a stored interest profile and
collaborator roster, using an external AI classifier folded into a
composite relevance score. Flagged documents surface in reports.

Each pipeline operation is a subcommand: ingest loads documents and the
profile, analyze runs the batch pipeline, report shows flagged results,
roster manages collaborators, and status summarizes the store.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./dradis.yaml or ~/.config/dradis/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the database and roster (default \"data\")")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("dradis")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dradis"))
		}
	}

	viper.SetEnvPrefix("DRADIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// pipelineConfig assembles the pipeline configuration from viper (config
// file plus DRADIS_* environment) with defaults applied.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	cfg := types.PipelineConfig{
		Classifier: types.ClassifierConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("classifier.timeout"),
				UserAgent: viper.GetString("classifier.user_agent"),
			},
			Model:       viper.GetString("classifier.model"),
			APIKey:      viper.GetString("classifier.api_key"),
			MaxRetries:  viper.GetInt("classifier.max_retries"),
			ItemTimeout: viper.GetDuration("classifier.item_timeout"),
		},
		Analysis: types.AnalysisConfig{
			Concurrency:          viper.GetInt("analysis.concurrency"),
			BatchSize:            viper.GetInt("analysis.batch_size"),
			MaxRequestsPerWindow: viper.GetInt("analysis.max_requests_per_window"),
			RateWindow:           viper.GetDuration("analysis.rate_window"),
			FlagThreshold:        viper.GetFloat64("analysis.flag_threshold"),
			NameMatchThreshold:   viper.GetFloat64("analysis.name_match_threshold"),
			CollaboratorBoost:    viper.GetFloat64("analysis.collaborator_boost"),
		},
		Store: types.StoreConfig{
			DataDir: viper.GetString("store.data_dir"),
		},
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Store.DataDir = dataDir
	}
	return cfg.WithDefaults()
}

// rosterFile returns the roster path inside the data directory.
func rosterFile(cfg types.PipelineConfig) string {
	return filepath.Join(cfg.Store.DataDir, "friends.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
