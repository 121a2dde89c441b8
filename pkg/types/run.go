// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tabex pipeline.
// Implements: prd004-output (RunRequest, PageReport);
//
//	prd001-scan (ScanConfig);
//	prd003-validation (ValidationConfig);
//	prd005-catalog (CatalogConfig).
//
// See docs/ARCHITECTURE.md § Pipeline Interface, § Data Structures.
package types

import "fmt"

// TimestampFormat is the layout for the run timestamp embedded in output
// filenames. Generated once per run and shared across all pages.
const TimestampFormat = "2006-01-02_15-04"

// PageRequest pairs one requested page with its declared header set.
// The header count defines the column count every row on that page is
// normalized to. Per prd004-output R1.
type PageRequest struct {
	// Number is the one-based page number in the source document.
	Number int `json:"number" yaml:"number"`

	// Headers is the ordered list of column names for this page.
	Headers []string `json:"headers" yaml:"headers"`
}

// RunRequest is the immutable parameter set for one extraction run,
// constructed and validated before any PDF access. Per prd004-output R1.
type RunRequest struct {
	// PDFPath is the local path of the source PDF. For remote reports the
	// fetch stage downloads to a local file first and this holds the result.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// SourceURL records the original URL when the report was fetched
	// remotely. Empty for local files.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Pages lists the requested pages in processing order, each with its
	// header set.
	Pages []PageRequest `json:"pages" yaml:"pages"`

	// OutputDir is the directory for per-page CSV files and the manifest.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Timestamp is the run-wide timestamp in TimestampFormat, shared by
	// every output filename of the run.
	Timestamp string `json:"timestamp" yaml:"timestamp"`

	// Scan holds the extraction tolerances and row resolution for the run.
	Scan ScanConfig `json:"scan" yaml:"scan"`
}

// NewRunRequest pairs page numbers with header sets positionally: the Nth
// header set applies to the Nth page. It fails when the counts differ or a
// page number is not positive, before any document access.
func NewRunRequest(pdfPath string, pages []int, headerSets [][]string) (RunRequest, error) {
	if pdfPath == "" {
		return RunRequest{}, fmt.Errorf("no PDF path given")
	}
	if len(pages) == 0 {
		return RunRequest{}, fmt.Errorf("no pages requested")
	}
	if len(headerSets) != len(pages) {
		return RunRequest{}, fmt.Errorf(
			"number of header sets (%d) must match number of pages (%d)",
			len(headerSets), len(pages))
	}

	req := RunRequest{PDFPath: pdfPath}
	for i, n := range pages {
		if n < 1 {
			return RunRequest{}, fmt.Errorf("page numbers are one-based: got %d", n)
		}
		if len(headerSets[i]) == 0 {
			return RunRequest{}, fmt.Errorf("empty header set for page %d", n)
		}
		req.Pages = append(req.Pages, PageRequest{
			Number:  n,
			Headers: headerSets[i],
		})
	}
	return req, nil
}

// PageReport is the outcome of processing one requested page. Feeds the
// run summary, the YAML manifest, and the catalog. Per prd004-output R4,
// prd005-catalog R2.
type PageReport struct {
	// Page is the one-based page number.
	Page int `json:"page" yaml:"page"`

	// Headers is the header set the page was normalized to.
	Headers []string `json:"headers" yaml:"headers"`

	// OutputFile is the written CSV path. Empty when the page failed.
	OutputFile string `json:"output_file,omitempty" yaml:"output_file,omitempty"`

	// RowsScanned counts the candidate rows reconstructed from the page.
	RowsScanned int `json:"rows_scanned" yaml:"rows_scanned"`

	// RowsKept counts the rows that passed validation and were written.
	RowsKept int `json:"rows_kept" yaml:"rows_kept"`

	// Error holds the failure message for this page. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Failed reports whether the page's processing failed.
func (p PageReport) Failed() bool {
	return p.Error != ""
}
