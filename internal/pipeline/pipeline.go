// Package pipeline drives extraction runs: requested pages flow through
// row grouping and validation into per-page CSV files plus a run manifest.
// Implements: prd004-output (R1-R5);
//
//	docs/ARCHITECTURE.md § Output.
package pipeline

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/tabex/internal/pdfscan"
	"github.com/pdiddy/tabex/internal/rows"
	"github.com/pdiddy/tabex/internal/rules"
	"github.com/pdiddy/tabex/pkg/types"
)

// Source yields positioned words one page at a time. Satisfied by
// *pdfscan.Document.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// Words returns the words on the given one-based page.
	Words(page int) ([]pdfscan.Word, error)
}

// Result holds the outcome of an extraction run.
type Result struct {
	Saved  int
	Failed int
	Pages  []types.PageReport
}

// Total returns the total number of pages processed.
func (r Result) Total() int {
	return r.Saved + r.Failed
}

// HasFailures reports whether any pages failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Run processes every requested page, printing per-page status and
// returning a summary. It continues after individual page failures
// (R4.2); the returned error covers run-level problems only, such as an
// unwritable output directory or a canceled context.
func Run(ctx context.Context, src Source, req types.RunRequest, rs rules.RuleSet, w io.Writer) (Result, error) {
	if req.OutputDir == "" {
		req.OutputDir = "."
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("creating output directory %s: %w", req.OutputDir, err)
	}

	var result Result
	for _, page := range req.Pages {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		rep := processPage(src, page, req, rs)
		result.Pages = append(result.Pages, rep)
		if rep.Failed() {
			fmt.Fprintf(w, "failed: page %d (%s)\n", rep.Page, rep.Error)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "saved:  %s (%d rows)\n", filepath.Base(rep.OutputFile), rep.RowsKept)
		result.Saved++
	}

	if err := WriteManifest(req, result.Pages); err != nil {
		fmt.Fprintf(w, "  warning: writing run manifest: %v\n", err)
	}

	fmt.Fprintf(w, "\nRun summary: %d saved, %d failed (total: %d)\n",
		result.Saved, result.Failed, result.Total())
	return result, nil
}

// processPage extracts, validates, and writes one page. Failures are
// reported through PageReport.Error rather than aborting the run.
func processPage(src Source, page types.PageRequest, req types.RunRequest, rs rules.RuleSet) types.PageReport {
	rep := types.PageReport{Page: page.Number, Headers: page.Headers}

	if n := src.PageCount(); page.Number < 1 || page.Number > n {
		rep.Error = fmt.Sprintf("page %d out of range: document has %d pages", page.Number, n)
		return rep
	}

	words, err := src.Words(page.Number)
	if err != nil {
		rep.Error = err.Error()
		return rep
	}

	scanned := rows.Group(words, req.Scan.RowResolution)
	rep.RowsScanned = len(scanned)

	kept := make([][]string, 0, len(scanned))
	for _, r := range scanned {
		shaped := shapeRow(r, len(page.Headers))
		if rs.Keep(shaped) {
			kept = append(kept, shaped)
		}
	}
	rep.RowsKept = len(kept)

	name := fmt.Sprintf("page_%d_cleaned_%s.csv", page.Number, req.Timestamp)
	path := filepath.Join(req.OutputDir, name)
	if err := writeCSV(path, page.Headers, kept); err != nil {
		rep.Error = err.Error()
		return rep
	}
	rep.OutputFile = path
	return rep
}

// shapeRow normalizes a row to exactly cols cells: short rows are padded
// with empty cells (R2.1), and cells beyond the header count fold into
// the last column so no scanned text is dropped (R2.2).
func shapeRow(r []string, cols int) []string {
	out := make([]string, cols)
	copy(out, r)
	if len(r) > cols && cols > 0 {
		out[cols-1] = strings.Join(r[cols-1:], " ")
	}
	return out
}

// writeCSV writes the header and kept rows to path using a temporary
// file, renaming on success (R3.3). An empty page still produces a
// header-only file.
func writeCSV(path string, headers []string, records [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tabex-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	cw := csv.NewWriter(tmp)
	writeErr := cw.Write(headers)
	for _, rec := range records {
		if writeErr != nil {
			break
		}
		writeErr = cw.Write(rec)
	}
	if writeErr == nil {
		cw.Flush()
		writeErr = cw.Error()
	}
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing rows: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
