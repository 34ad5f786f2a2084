// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "dradis/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClassifierConfig holds settings for the external AI relevance classifier.
type ClassifierConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the classifier model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the classifier API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts on HTTP 429 (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// ItemTimeout bounds a single classification call. A document whose
	// classification exceeds this is recorded as a per-item failure, not
	// a run failure (default 60s).
	ItemTimeout time.Duration `json:"item_timeout" yaml:"item_timeout"`
}

// AnalysisConfig holds settings for the batch analysis run.
type AnalysisConfig struct {
	// Concurrency is the number of pool workers (default 5).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// BatchSize is the number of documents per batch (default 20).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxRequestsPerWindow caps classifier dispatches within any rolling
	// rate window (default 15).
	MaxRequestsPerWindow int `json:"max_requests_per_window" yaml:"max_requests_per_window"`

	// RateWindow is the rolling window for the dispatch cap (default 5s).
	RateWindow time.Duration `json:"rate_window" yaml:"rate_window"`

	// FlagThreshold is the composite score at or above which a document
	// is flagged (default 0.6).
	FlagThreshold float64 `json:"flag_threshold" yaml:"flag_threshold"`

	// NameMatchThreshold is the minimum author/roster name similarity
	// counted as an identity match (default 0.85).
	NameMatchThreshold float64 `json:"name_match_threshold" yaml:"name_match_threshold"`

	// CollaboratorBoost is the additive bonus applied when a document
	// author matches the roster (default 0.3).
	CollaboratorBoost float64 `json:"collaborator_boost" yaml:"collaborator_boost"`
}

// StoreConfig holds settings for the persisted document store.
type StoreConfig struct {
	// DataDir is the directory holding the SQLite database and the
	// roster file (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis"`
	Store      StoreConfig      `json:"store" yaml:"store"`
}

// WithDefaults returns a copy of cfg with zero-valued fields replaced by
// their defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Classifier.Timeout <= 0 {
		c.Classifier.Timeout = 30 * time.Second
	}
	if c.Classifier.UserAgent == "" {
		c.Classifier.UserAgent = "dradis/0.1"
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "claude-3-5-haiku-20241022"
	}
	if c.Classifier.MaxRetries <= 0 {
		c.Classifier.MaxRetries = 3
	}
	if c.Classifier.ItemTimeout <= 0 {
		c.Classifier.ItemTimeout = 60 * time.Second
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = 5
	}
	if c.Analysis.BatchSize <= 0 {
		c.Analysis.BatchSize = 20
	}
	if c.Analysis.MaxRequestsPerWindow <= 0 {
		c.Analysis.MaxRequestsPerWindow = 15
	}
	if c.Analysis.RateWindow <= 0 {
		c.Analysis.RateWindow = 5 * time.Second
	}
	if c.Analysis.FlagThreshold <= 0 {
		c.Analysis.FlagThreshold = 0.6
	}
	if c.Analysis.NameMatchThreshold <= 0 {
		c.Analysis.NameMatchThreshold = 0.85
	}
	if c.Analysis.CollaboratorBoost <= 0 {
		c.Analysis.CollaboratorBoost = 0.3
	}
	if c.Store.DataDir == "" {
		c.Store.DataDir = "data"
	}
	return c
}
