package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tabex/internal/pdfscan"
	"github.com/pdiddy/tabex/internal/pipeline"
	"github.com/pdiddy/tabex/internal/rows"
	"github.com/pdiddy/tabex/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Preview a PDF's pages and reconstructed rows",
	Long: `Inspect reports the page count and per-page word and row counts of a
local PDF, to help pick --pages and --headers values for extract.

With --page it prints every reconstructed row of that page, before any
validation, with cells separated by " | ".`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("pdf", "", "PDF file path (required)")
	inspectCmd.Flags().Int("page", 0, "print the rows of this one-based page")
	inspectCmd.Flags().Float64("x-tolerance", 0, "horizontal glyph merge tolerance in points (default 2)")
	inspectCmd.Flags().Float64("y-tolerance", 0, "vertical glyph merge tolerance in points (default 2)")
	inspectCmd.Flags().Float64("row-resolution", 0, "vertical rounding resolution for row grouping (default 0.1)")
	inspectCmd.Flags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(inspectCmd)
}

// pageSummary is one line of the inspect overview.
type pageSummary struct {
	Page  int    `json:"page"`
	Words int    `json:"words"`
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	pdfPath, _ := cmd.Flags().GetString("pdf")
	if pdfPath == "" {
		return fmt.Errorf("no PDF path given")
	}

	cfg := types.ScanConfig{
		XTolerance:    floatSetting(cmd, "x-tolerance", "scan.x_tolerance"),
		YTolerance:    floatSetting(cmd, "y-tolerance", "scan.y_tolerance"),
		RowResolution: floatSetting(cmd, "row-resolution", "scan.row_resolution"),
	}

	doc, err := pdfscan.Open(pdfPath, cfg)
	if err != nil {
		return err
	}
	defer doc.Close()

	jsonOutput, _ := cmd.Flags().GetBool("json")

	if page, _ := cmd.Flags().GetInt("page"); page > 0 {
		return inspectPage(doc, page, cfg, os.Stdout, jsonOutput)
	}
	return inspectOverview(doc, cfg, os.Stdout, jsonOutput)
}

// inspectOverview prints word and row counts for every page. A page that
// cannot be read keeps its slot in the output, carrying the error instead
// of counts.
func inspectOverview(src pipeline.Source, cfg types.ScanConfig, w io.Writer, jsonOutput bool) error {
	var summaries []pageSummary

	for page := 1; page <= src.PageCount(); page++ {
		words, err := src.Words(page)
		if err != nil {
			summaries = append(summaries, pageSummary{Page: page, Error: err.Error()})
			continue
		}
		summaries = append(summaries, pageSummary{
			Page:  page,
			Words: len(words),
			Rows:  len(rows.Group(words, cfg.RowResolution)),
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	fmt.Fprintf(w, "pages: %d\n\n", src.PageCount())
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(w, "page %3d: error: %s\n", s.Page, s.Error)
			continue
		}
		fmt.Fprintf(w, "page %3d: %4d words, %3d rows\n", s.Page, s.Words, s.Rows)
	}
	return nil
}

// inspectPage prints every reconstructed row of one page.
func inspectPage(src pipeline.Source, page int, cfg types.ScanConfig, w io.Writer, jsonOutput bool) error {
	words, err := src.Words(page)
	if err != nil {
		return err
	}
	grouped := rows.Group(words, cfg.RowResolution)

	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(grouped)
	}

	fmt.Fprintf(w, "page %d: %d words, %d rows\n\n", page, len(words), len(grouped))
	for i, r := range grouped {
		fmt.Fprintf(w, "%4d: %s\n", i+1, strings.Join(r, " | "))
	}
	return nil
}
