package types

import "time"

// ScanConfig holds the word-extraction and row-grouping knobs. The defaults
// (2, 2, 0.1) are tuned to the CARES survival report layout; other report
// sources may need different values, which is why these are configuration
// rather than constants. Per prd001-scan R1.1, prd002-rows R1.1.
type ScanConfig struct {
	// XTolerance is the maximum horizontal gap, in page units, between two
	// glyphs that still belong to the same word (default 2).
	XTolerance float64 `json:"x_tolerance" yaml:"x_tolerance"`

	// YTolerance is the maximum vertical offset difference between two
	// glyphs on the same baseline (default 2).
	YTolerance float64 `json:"y_tolerance" yaml:"y_tolerance"`

	// RowResolution is the rounding resolution applied to a word's vertical
	// offset before grouping words into rows (default 0.1). Two words are in
	// the same row iff their rounded offsets are identical.
	RowResolution float64 `json:"row_resolution" yaml:"row_resolution"`
}

// OutputConfig holds settings for the CSV output stage.
// Per prd004-output R2.
type OutputConfig struct {
	// Dir is the directory for per-page CSV files and the run manifest
	// (default ".").
	Dir string `json:"dir" yaml:"dir"`
}

// ValidationConfig holds settings for the row-filtering stage.
// Per prd003-validation R1.2.
type ValidationConfig struct {
	// RulesFile is a YAML rule-set file overriding the built-in default
	// rules. Empty means use the default set.
	RulesFile string `json:"rules_file,omitempty" yaml:"rules_file,omitempty"`
}

// CatalogConfig holds settings for the run ledger.
// Per prd005-catalog R1.
type CatalogConfig struct {
	// Path is the SQLite database file for the run ledger
	// (default "catalog/tabex.db"). Parent directories are created on open.
	Path string `json:"path" yaml:"path"`

	// Disabled skips run recording entirely.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// FetchConfig holds settings for downloading remote reports.
// Per prd006-fetch R2, R3.
type FetchConfig struct {
	// Timeout is the HTTP request timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with download requests
	// (e.g. "tabex/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries is the number of retry attempts on rate-limited
	// responses (default 4).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// DownloadDir is where fetched reports are stored (default "reports").
	DownloadDir string `json:"download_dir" yaml:"download_dir"`
}

// PipelineConfig groups all stage configurations for the tool.
type PipelineConfig struct {
	Scan       ScanConfig       `json:"scan" yaml:"scan"`
	Validation ValidationConfig `json:"validation" yaml:"validation"`
	Output     OutputConfig     `json:"output" yaml:"output"`
	Catalog    CatalogConfig    `json:"catalog" yaml:"catalog"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch"`
}
